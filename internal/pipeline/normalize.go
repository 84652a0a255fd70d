package pipeline

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"crm-analytics-pipeline/internal/model"
	"crm-analytics-pipeline/pkg/utils"
)

// ------------------- snake_case -------------------

var (
	separatorRe  = regexp.MustCompile(`[\s\-\./()]+`)
	camelBoundRe = regexp.MustCompile(`([a-z0-9])([A-Z])`)
	underscoreRe = regexp.MustCompile(`_+`)
)

// ToSnakeCase converts an arbitrary column header to snake_case: separators
// become single underscores, camelCase boundaries split, runs collapse.
func ToSnakeCase(name string) string {
	s := separatorRe.ReplaceAllString(strings.TrimSpace(name), "_")
	s = camelBoundRe.ReplaceAllString(s, "${1}_${2}")
	s = underscoreRe.ReplaceAllString(s, "_")
	return strings.Trim(strings.ToLower(s), "_")
}

// ------------------- Column aliases -------------------

// columnAliases maps the snake_case form of known raw headers to the
// canonical internal names used throughout the pipeline. Headers absent
// here pass through as their snake_case form.
var columnAliases = map[string]string{
	// Deals sheet
	"deal_id":                 "deal_id",
	"deal_name":               "deal_name",
	"first_name":              "first_name",
	"last_name":               "last_name",
	"create_date":             "created_date",
	"close_date":              "close_date",
	"deal_stage":              "deal_stage",
	"is_deal_closed":          "is_deal_closed",
	"is_closed_won":           "is_closed_won",
	"forecast_category":       "forecast_category",
	"forecast_probability":    "forecast_probability",
	"deal_owner_email":        "deal_owner_email",
	"billing_type":            "billing_type",
	"deal_type":               "deal_type",
	"associated_company_name": "company_name",
	"industry":                "industry",
	"state_region":            "state_region",
	"country_region":          "country_region",
	"original_source_type":    "original_source_type",
	"latest_traffic_source":   "latest_traffic_source",
	"next_step":               "next_step",
	"hub_spot_team":           "hubspot_team",
	"hubspot_team":            "hubspot_team",
	"opp_age":                 "opp_age",
	"opp_owner":               "hubspot_owner_name",
	"sales_team":              "sales_team",
	"opp_type_no_blanks":      "opp_type",
	"hubspot_opp_url":         "hubspot_opp_url",
	"opp_name_hyperlinked":    "opp_name_hyperlinked",
	"pipeline":                "pipeline",

	// Meetings sheet
	"activity_date":          "activity_date",
	"body_preview_truncated": "body_preview",
	"meeting_start_time":     "meeting_start_time",
	"meeting_end_time":       "meeting_end_time",
	"meeting_name":           "meeting_name",
	"call_and_meeting_type":  "call_and_meeting_type",
	"meeting_source":         "meeting_source",
	"email":                  "email",
	"company_name":           "company_name",
	"type":                   "type",
	"company_id":             "company_id",
	"meeting_outcome":        "meeting_outcome",
	"activity_assigned_to":   "hubspot_owner_name",
	"activity_created_by":    "activity_created_by",
	"follow_up_action":       "follow_up_action",

	// Tasks sheet
	"for_object_type":  "for_object_type",
	"completed_at":     "completed_at",
	"task_title":       "task_title",
	"due_date":         "due_date",
	"task_status":      "task_status",
	"source":           "source",
	"notes_preview":    "notes_preview",
	"created_at":       "created_date",
	"priority":         "priority",
	"task_type":        "task_type",
	"full_name":        "full_name",
	"last_modified_at": "last_modified_date",

	// Calls sheet
	"call_id":            "call_id",
	"call_outcome":       "call_outcome",
	"call_duration":      "call_duration",
	"last_modified_date": "last_modified_date",
	"call_title":         "call_title",
	"call_notes":         "call_notes",
	"call_status":        "call_status",
	"call_direction":     "call_direction",
	"call_summary":       "call_summary",
	"company_owner":      "company_owner",

	// Tickets sheet
	"ticket_id":               "ticket_id",
	"ticket_name":             "ticket_name",
	"ticket_status":           "ticket_status",
	"ticket_description":      "ticket_description",
	"deal_owner":              "deal_owner",
	"first_name_ticket_owner": "ticket_owner_first_name",

	// Emails sheet
	"subject":    "email_subject",
	"direction":  "email_direction",
	"from":       "from_address",
	"from_email": "from_address",
	"to_email":   "to_address",
}

// ------------------- Date & numeric detection -------------------

var dateColumns = map[string]bool{
	"created_date": true, "close_date": true, "activity_date": true,
	"meeting_start_time": true, "meeting_end_time": true, "completed_at": true,
	"due_date": true, "last_modified_date": true, "create_date": true,
	"created_at": true, "last_activity_date": true, "next_activity_date": true,
}

var numericColumns = map[string]bool{
	"amount": true, "deal_id": true, "company_id": true, "call_duration": true,
	"ticket_id": true, "opp_age": true, "forecast_probability": true, "call_id": true,
}

func isDateColumn(col string) bool {
	return dateColumns[col] ||
		strings.HasSuffix(col, "_date") ||
		strings.HasSuffix(col, "_time") ||
		strings.HasSuffix(col, "_at")
}

func isNumericColumn(col string) bool {
	return numericColumns[col] ||
		strings.HasSuffix(col, "_amount") ||
		strings.HasSuffix(col, "_duration")
}

// ------------------- Normalization -------------------

// Normalize converts a raw sheet table to its canonical form: snake_case +
// alias-mapped headers, duplicate headers suffixed _2/_3/..., unnamed
// columns dropped, blank-ish cells nulled, date and numeric columns coerced
// (unparseable values become nil, never an error). Empty input passes
// through unchanged.
func Normalize(raw model.RawTable) model.Table {
	headers := canonicalHeaders(raw.Headers)

	columns := make([]string, 0, len(headers))
	for _, h := range headers {
		if h != "" {
			columns = append(columns, h)
		}
	}

	rows := make([]model.Record, 0, len(raw.Rows))
	for _, rawRow := range raw.Rows {
		rec := make(model.Record, len(columns))
		for i, h := range headers {
			if h == "" || i >= len(rawRow) {
				continue
			}
			rec[h] = CoerceCell(h, CleanCell(rawRow[i]))
		}
		rows = append(rows, rec)
	}

	return model.Table{Columns: columns, Rows: rows}
}

// canonicalHeaders maps every raw header to its canonical name. Dropped
// headers (blank or unnamed placeholders) come back as "". Later duplicates
// of the same canonical name get a _2/_3/... suffix instead of overwriting.
func canonicalHeaders(raw []string) []string {
	seen := make(map[string]int, len(raw))
	out := make([]string, len(raw))
	for i, h := range raw {
		s := ToSnakeCase(h)
		if alias, ok := columnAliases[s]; ok {
			s = alias
		}
		if s == "" || strings.HasPrefix(s, "unnamed") {
			out[i] = ""
			continue
		}
		seen[s]++
		if n := seen[s]; n > 1 {
			s = fmt.Sprintf("%s_%d", s, n)
		}
		out[i] = s
	}
	return out
}

// CleanCell trims a raw string cell and canonicalizes blank-ish values
// ("", "nan", "none", case-insensitive) to nil.
func CleanCell(s string) interface{} {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "nan", "none":
		return nil
	}
	return s
}

// CoerceCell applies column-name-driven typing: date columns become
// time.Time, numeric columns become float64. Already-typed values pass
// through; garbage becomes nil.
func CoerceCell(col string, v interface{}) interface{} {
	if v == nil {
		return nil
	}
	switch {
	case isDateColumn(col):
		if t, ok := v.(time.Time); ok {
			return t
		}
		if s, ok := v.(string); ok {
			if t, ok := utils.ParseDate(s); ok {
				return t
			}
		}
		return nil
	case isNumericColumn(col):
		if f, ok := v.(float64); ok {
			return f
		}
		if s, ok := v.(string); ok {
			if f, ok := utils.ParseNumber(s); ok {
				return f
			}
		}
		return nil
	}
	return v
}
