package utils

import "time"

// PeriodDay truncates a timestamp to midnight of its calendar day.
func PeriodDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// WeekStart returns midnight of the Monday of t's ISO week.
func WeekStart(t time.Time) time.Time {
	day := PeriodDay(t)
	offset := (int(day.Weekday()) + 6) % 7 // Monday = 0
	return day.AddDate(0, 0, -offset)
}

// MonthStart returns midnight of the first day of t's month.
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// QuarterRange returns midnight of the first and last day of the calendar
// quarter containing now.
func QuarterRange(now time.Time) (time.Time, time.Time) {
	qStartMonth := time.Month((int(now.Month())-1)/3*3 + 1)
	start := time.Date(now.Year(), qStartMonth, 1, 0, 0, 0, 0, now.Location())
	end := start.AddDate(0, 3, -1)
	return start, end
}

// DaysBetween returns whole days from a to b (negative if b is before a).
func DaysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}
