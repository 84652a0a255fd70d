package model

import "time"

// Record is a single canonical row: canonical column name -> typed value.
// Cell values are restricted to nil, string, float64, bool or time.Time.
type Record map[string]interface{}

// RawTable is a table as read from a source sheet, before normalization.
// Headers keep their original order so duplicate raw headers survive until
// the normalizer suffixes them.
type RawTable struct {
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
}

// Empty reports whether the raw table has no data rows.
func (t RawTable) Empty() bool {
	return len(t.Rows) == 0
}

// Table is an immutable-by-convention set of canonical records. Columns is
// the documented shape of the table and is populated even when Rows is empty
// so consumers never have to guess an empty table's schema.
type Table struct {
	Columns []string `json:"columns"`
	Rows    []Record `json:"rows"`
}

// EmptyTable builds a zero-row table with the given column set.
func EmptyTable(columns ...string) Table {
	return Table{Columns: columns, Rows: []Record{}}
}

// Len returns the number of rows.
func (t Table) Len() int { return len(t.Rows) }

// Empty reports whether the table has no rows.
func (t Table) Empty() bool { return len(t.Rows) == 0 }

// HasColumn reports whether the table declares the given column.
func (t Table) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// WithColumn returns a column list that includes name, appending it if absent.
func (t Table) WithColumn(name string) []string {
	if t.HasColumn(name) {
		return t.Columns
	}
	cols := make([]string, 0, len(t.Columns)+1)
	cols = append(cols, t.Columns...)
	return append(cols, name)
}

// FindColumn returns the first candidate column present in the table.
// This is the explicit ordered-candidate resolution used wherever source
// sheets disagree on a column name.
func (t Table) FindColumn(candidates ...string) (string, bool) {
	for _, c := range candidates {
		if t.HasColumn(c) {
			return c, true
		}
	}
	return "", false
}

// CloneRecord makes a shallow copy of a record (cell values are immutable).
func CloneRecord(r Record) Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Str returns the string value of a cell, or "" for nil, absent or
// non-string cells.
func Str(r Record, col string) string {
	if v, ok := r[col].(string); ok {
		return v
	}
	return ""
}

// TimeAt returns the time value of a cell, reporting whether one is present.
func TimeAt(r Record, col string) (time.Time, bool) {
	if v, ok := r[col].(time.Time); ok {
		return v, true
	}
	return time.Time{}, false
}

// Num returns the numeric value of a cell, reporting whether one is present.
func Num(r Record, col string) (float64, bool) {
	if v, ok := r[col].(float64); ok {
		return v, true
	}
	return 0, false
}

// BoolAt returns the boolean value of a cell; absent or non-bool cells are false.
func BoolAt(r Record, col string) bool {
	v, _ := r[col].(bool)
	return v
}
