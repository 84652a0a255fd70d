package pipeline

import (
	"strings"
	"time"

	"crm-analytics-pipeline/internal/model"
	"crm-analytics-pipeline/pkg/utils"
)

// Candidate date columns for an activity table, in priority order.
var activityDateCandidates = []string{
	"activity_date", "meeting_start_time", "created_date",
	"create_date", "timestamp", "date",
}

var activityOwnerCandidates = []string{
	"hubspot_owner_name", "activity_assigned_to", "owner_name",
}

var (
	taskStatusCandidates  = []string{"task_status", "status", "hs_task_status"}
	taskDueDateCandidates = []string{"due_date", "hs_task_due_date"}

	completedStatuses = map[string]bool{"COMPLETED": true, "COMPLETE": true, "DONE": true}
	overdueStatuses   = map[string]bool{"OVERDUE": true, "PAST_DUE": true, "DEFERRED": true}
)

// Metric columns of the activity count tables, in output order.
var activityMetrics = []string{"meetings", "calls", "emails", "completed_tasks", "overdue_tasks"}

// ActivityCounts holds the per-rep activity count tables at each grain.
type ActivityCounts struct {
	Daily   model.Table
	Weekly  model.Table
	Monthly model.Table
}

func resolveOwnerColumn(t model.Table) string {
	if col, ok := t.FindColumn(activityOwnerCandidates...); ok {
		return col
	}
	return "hubspot_owner_name"
}

// addPeriodColumns derives period_day, period_week (Monday start) and
// period_month from the table's best date column. Tables with no usable
// date column come back unchanged; rows with a null date get null periods.
func addPeriodColumns(t model.Table) model.Table {
	if t.Empty() {
		return t
	}
	dateCol, ok := t.FindColumn(activityDateCandidates...)
	if !ok {
		return t
	}
	cols := t.Columns
	for _, c := range []string{"period_day", "period_week", "period_month"} {
		cols = model.Table{Columns: cols}.WithColumn(c)
	}
	out := model.Table{Columns: cols, Rows: make([]model.Record, 0, t.Len())}
	for _, row := range t.Rows {
		rec := model.CloneRecord(row)
		if ts, ok := model.TimeAt(row, dateCol); ok {
			rec["period_day"] = utils.PeriodDay(ts)
			rec["period_week"] = utils.WeekStart(ts)
			rec["period_month"] = utils.MonthStart(ts)
		} else {
			rec["period_day"] = nil
			rec["period_week"] = nil
			rec["period_month"] = nil
		}
		out.Rows = append(out.Rows, rec)
	}
	return out
}

// SplitTasks classifies tasks as completed or overdue:
//
//	completed  status in {Completed, Complete, Done}
//	overdue    status in {Overdue, Past_Due, Deferred}, or not completed
//	           with a due date before now
//
// A pending, not-yet-due task lands in neither bucket; no task lands in both.
// Without a status column every task is treated as completed.
func SplitTasks(tasks model.Table, now time.Time) (model.Table, model.Table) {
	if tasks.Empty() {
		return tasks, model.Table{Columns: tasks.Columns, Rows: []model.Record{}}
	}
	statusCol, ok := tasks.FindColumn(taskStatusCandidates...)
	if !ok {
		return tasks, model.Table{Columns: tasks.Columns, Rows: []model.Record{}}
	}
	dueCol, hasDue := tasks.FindColumn(taskDueDateCandidates...)

	completed := model.Table{Columns: tasks.Columns, Rows: []model.Record{}}
	overdue := model.Table{Columns: tasks.Columns, Rows: []model.Record{}}
	for _, row := range tasks.Rows {
		status := strings.ToUpper(strings.TrimSpace(model.Str(row, statusCol)))
		isCompleted := completedStatuses[status]
		isOverdue := overdueStatuses[status]
		if !isOverdue && !isCompleted && hasDue {
			if due, ok := model.TimeAt(row, dueCol); ok && due.Before(now) {
				isOverdue = true
			}
		}
		switch {
		case isCompleted:
			completed.Rows = append(completed.Rows, row)
		case isOverdue:
			overdue.Rows = append(overdue.Rows, row)
		}
	}
	return completed, overdue
}

// tagActivityType returns a copy of the table with an activity_type column.
func tagActivityType(t model.Table, activityType string) model.Table {
	out := model.Table{Columns: t.WithColumn("activity_type"), Rows: make([]model.Record, 0, t.Len())}
	for _, row := range t.Rows {
		rec := model.CloneRecord(row)
		rec["activity_type"] = activityType
		out.Rows = append(out.Rows, rec)
	}
	return out
}

// CountActivities buckets activities by rep at daily/weekly/monthly grain.
// Every (rep, period) pair appearing in any source gets a row, with missing
// counts zero-filled; the emails column is present (and zero) even with no
// email table.
func CountActivities(calls, meetings, tasks, emails model.Table, now time.Time) ActivityCounts {
	calls = addPeriodColumns(calls)
	meetings = addPeriodColumns(meetings)
	tasksCompleted, tasksOverdue := SplitTasks(addPeriodColumns(tasks), now)
	emails = addPeriodColumns(emails)

	sources := []struct {
		table  model.Table
		metric string
	}{
		{meetings, "meetings"},
		{calls, "calls"},
		{emails, "emails"},
		{tasksCompleted, "completed_tasks"},
		{tasksOverdue, "overdue_tasks"},
	}

	build := func(periodCol string) model.Table {
		type groupKey struct{ owner, period string }
		counts := make(map[groupKey]map[string]int)
		periods := make(map[groupKey]time.Time)
		var order []groupKey

		for _, src := range sources {
			if src.table.Empty() || !src.table.HasColumn(periodCol) {
				continue
			}
			ownerCol := resolveOwnerColumn(src.table)
			for _, row := range src.table.Rows {
				ts, ok := model.TimeAt(row, periodCol)
				if !ok {
					continue // no resolvable date: excluded from bucketed counts
				}
				key := groupKey{owner: model.Str(row, ownerCol), period: ts.Format("2006-01-02")}
				if _, seen := counts[key]; !seen {
					counts[key] = make(map[string]int, len(activityMetrics))
					periods[key] = ts
					order = append(order, key)
				}
				counts[key][src.metric]++
			}
		}

		columns := append([]string{"hubspot_owner_name", periodCol}, activityMetrics...)
		out := model.Table{Columns: columns, Rows: make([]model.Record, 0, len(order))}
		for _, key := range order {
			rec := model.Record{
				"hubspot_owner_name": key.owner,
				periodCol:            periods[key],
			}
			for _, m := range activityMetrics {
				rec[m] = float64(counts[key][m])
			}
			out.Rows = append(out.Rows, rec)
		}
		return out
	}

	return ActivityCounts{
		Daily:   build("period_day"),
		Weekly:  build("period_week"),
		Monthly: build("period_month"),
	}
}

// BuildActivityLog unions calls, meetings and tasks (and emails when
// present) into one flat log, one row per surviving activity record.
func BuildActivityLog(calls, meetings, tasks, emails model.Table) model.Table {
	parts := []model.Table{
		tagActivityType(calls, "call"),
		tagActivityType(meetings, "meeting"),
		tagActivityType(tasks, "task"),
	}
	if !emails.Empty() {
		parts = append(parts, tagActivityType(emails, "email"))
	}

	var columns []string
	seen := make(map[string]bool)
	rowTotal := 0
	for _, p := range parts {
		for _, c := range p.Columns {
			if !seen[c] {
				seen[c] = true
				columns = append(columns, c)
			}
		}
		rowTotal += p.Len()
	}
	if columns == nil {
		columns = []string{"activity_type"}
	}

	out := model.Table{Columns: columns, Rows: make([]model.Record, 0, rowTotal)}
	for _, p := range parts {
		out.Rows = append(out.Rows, p.Rows...)
	}
	return out
}
