package pipeline

import (
	"fmt"
	"strings"

	"crm-analytics-pipeline/internal/model"
)

// Platform-integration prefixes that get prepended to meeting names by
// recording tools. The Gong prefix is also tracked as a flag on the record.
const (
	gongPrefix   = "[Gong]"
	fathomPrefix = "[Fathom]"
)

// Meeting outcome values ranked for merging; the highest-ranked value in a
// duplicate group wins.
var outcomeRank = map[string]int{
	"completed":   5,
	"no show":     4,
	"canceled":    3,
	"rescheduled": 2,
	"scheduled":   1,
}

var meetingStartCandidates = []string{"meeting_start_time", "activity_date", "created_date"}

// stripMeetingPrefix removes platform prefixes (with or without a trailing
// space) from a meeting name and reports whether the Gong prefix was present.
func stripMeetingPrefix(name string) (string, bool) {
	s := strings.TrimSpace(name)
	hasGong := false
	if strings.HasPrefix(s, gongPrefix) {
		hasGong = true
		s = strings.TrimSpace(strings.TrimPrefix(s, gongPrefix))
	}
	if strings.HasPrefix(s, fathomPrefix) {
		s = strings.TrimSpace(strings.TrimPrefix(s, fathomPrefix))
	}
	return s, hasGong
}

type meetingGroup struct {
	rows []model.Record
}

// DedupeMeetings collapses near-duplicate meeting rows into one record per
// logical meeting. Named rows group on (normalized name, start date, owner);
// blank-name placeholder rows are adopted into a named group sharing
// (date, owner, company), and otherwise collapse with each other on
// (date, owner).
// Merging keeps the best outcome, ORs the Gong flag and takes the richest
// (longest non-empty) string per remaining field.
func DedupeMeetings(t model.Table) model.Table {
	if t.Empty() {
		return t
	}
	if !t.HasColumn("meeting_name") {
		fmt.Println("⚠️  Meeting dedup skipped: no meeting_name column")
		return t
	}
	startCol, ok := t.FindColumn(meetingStartCandidates...)
	if !ok {
		fmt.Println("⚠️  Meeting dedup skipped: no usable start-time column")
		return t
	}

	// Pre-pass: strip platform prefixes and tag the Gong flag on every row.
	prepped := make([]model.Record, 0, t.Len())
	for _, row := range t.Rows {
		rec := model.CloneRecord(row)
		name, hasGong := stripMeetingPrefix(model.Str(row, "meeting_name"))
		rec["meeting_name"] = name
		rec["has_gong"] = hasGong
		prepped = append(prepped, rec)
	}

	type namedKey struct{ name, date, owner string }
	type adoptKey struct{ date, owner, company string }

	named := make(map[namedKey]*meetingGroup)
	adoptIndex := make(map[adoptKey]*meetingGroup)
	var order []*meetingGroup
	var blanks []model.Record

	dateOf := func(rec model.Record) string {
		if ts, ok := model.TimeAt(rec, startCol); ok {
			return ts.Format("2006-01-02")
		}
		return ""
	}

	for _, rec := range prepped {
		name := model.Str(rec, "meeting_name")
		if name == "" {
			blanks = append(blanks, rec)
			continue
		}
		key := namedKey{name: name, date: dateOf(rec), owner: model.Str(rec, "hubspot_owner_name")}
		g, ok := named[key]
		if !ok {
			g = &meetingGroup{}
			named[key] = g
			order = append(order, g)
		}
		g.rows = append(g.rows, rec)
		if company := strings.TrimSpace(model.Str(rec, "company_name")); company != "" {
			ak := adoptKey{date: key.date, owner: key.owner, company: company}
			if _, seen := adoptIndex[ak]; !seen {
				adoptIndex[ak] = g
			}
		}
	}

	// Blank-name placeholders: adopt into a named group on (date, owner,
	// company) when possible; unmatched blanks group on (date, owner) so a
	// repeated placeholder for the same slot collapses too.
	type blankKey struct{ date, owner string }
	blankGroups := make(map[blankKey]*meetingGroup)
	for _, rec := range blanks {
		company := strings.TrimSpace(model.Str(rec, "company_name"))
		if company != "" {
			ak := adoptKey{date: dateOf(rec), owner: model.Str(rec, "hubspot_owner_name"), company: company}
			if g, ok := adoptIndex[ak]; ok {
				g.rows = append(g.rows, rec)
				continue
			}
		}
		bk := blankKey{date: dateOf(rec), owner: model.Str(rec, "hubspot_owner_name")}
		g, ok := blankGroups[bk]
		if !ok {
			g = &meetingGroup{}
			blankGroups[bk] = g
			order = append(order, g)
		}
		g.rows = append(g.rows, rec)
	}

	out := model.Table{Columns: t.WithColumn("has_gong"), Rows: make([]model.Record, 0, len(order))}
	for _, g := range order {
		if len(g.rows) == 1 {
			out.Rows = append(out.Rows, g.rows[0])
			continue
		}
		out.Rows = append(out.Rows, mergeMeetingGroup(g.rows, out.Columns))
	}
	return out
}

// mergeMeetingGroup collapses a duplicate group to one record.
func mergeMeetingGroup(rows []model.Record, columns []string) model.Record {
	merged := make(model.Record, len(columns))

	// Name comes from the group's normalized name (identical across named
	// rows; blank adoptees defer to the named rows).
	for _, row := range rows {
		if name := model.Str(row, "meeting_name"); name != "" {
			merged["meeting_name"] = name
			break
		}
	}
	if _, ok := merged["meeting_name"]; !ok {
		merged["meeting_name"] = ""
	}

	// Gong flag ORs across the group.
	hasGong := false
	for _, row := range rows {
		hasGong = hasGong || model.BoolAt(row, "has_gong")
	}
	merged["has_gong"] = hasGong

	// Outcome: highest-ranked value wins; blank loses to everything.
	bestRank := -1
	bestOutcome := interface{}(nil)
	for _, row := range rows {
		v := model.Str(row, "meeting_outcome")
		r := outcomeRank[strings.ToLower(strings.TrimSpace(v))]
		if v == "" {
			r = 0
		}
		if r > bestRank {
			bestRank = r
			bestOutcome = row["meeting_outcome"]
		}
	}
	merged["meeting_outcome"] = bestOutcome

	// Everything else: richest value wins — longest non-empty string, or the
	// first non-nil typed value. Equal-length ties go to the first seen.
	for _, col := range columns {
		if col == "meeting_name" || col == "has_gong" || col == "meeting_outcome" {
			continue
		}
		var bestStr interface{}
		var firstTyped interface{}
		bestLen := 0
		for _, row := range rows {
			v, ok := row[col]
			if !ok || v == nil {
				continue
			}
			if s, isStr := v.(string); isStr {
				if len(s) > bestLen {
					bestStr = s
					bestLen = len(s)
				}
				continue
			}
			if firstTyped == nil {
				firstTyped = v
			}
		}
		best := bestStr
		if best == nil {
			best = firstTyped
		}
		// Mixed-source merges can leave date-like fields as strings.
		merged[col] = CoerceCell(col, best)
	}
	return merged
}
