package pipeline

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"crm-analytics-pipeline/internal/model"
)

// Columns that may carry the raw opaque owner ID, in priority order.
var ownerIDCandidates = []string{
	"hubspot_owner_id",
	"owner_id",
	"activity_created_by",
	"created_by",
}

// cleanOwnerID turns a raw owner-ID cell into a usable map key. Numeric IDs
// exported through spreadsheets arrive as strings with a trailing ".0".
func cleanOwnerID(v interface{}) string {
	var s string
	switch val := v.(type) {
	case string:
		s = val
	case float64:
		s = fmt.Sprintf("%.0f", val)
	default:
		return ""
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, ".0")
	return s
}

// repKey normalizes a rep name for matching: lowercase, collapsed
// whitespace, diacritics stripped. The canonical scope-set spelling is
// always what gets stored.
func repKey(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	decomposed := norm.NFD.String(s)
	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// joinName joins trimmed first and last names; empty parts collapse so a
// single-part name is still a name, not an error.
func joinName(first, last string) string {
	parts := make([]string, 0, 2)
	if f := strings.TrimSpace(first); f != "" {
		parts = append(parts, f)
	}
	if l := strings.TrimSpace(last); l != "" {
		parts = append(parts, l)
	}
	return strings.Join(parts, " ")
}

// BuildOwnerIDMap builds the owner ID -> rep display name map: the static
// seed from config, enriched from the meeting sheet. Any meeting row whose
// first+last name matches an in-scope rep contributes its raw owner-ID
// value under that rep's canonical name.
func BuildOwnerIDMap(meetings model.Table, cfg model.ScopeConfig) map[string]string {
	idMap := make(map[string]string, len(cfg.OwnerSeedIDs))
	for id, name := range cfg.OwnerSeedIDs {
		if cleaned := cleanOwnerID(id); cleaned != "" {
			idMap[cleaned] = name
		}
	}

	if meetings.Empty() {
		return idMap
	}
	idCol, ok := meetings.FindColumn(ownerIDCandidates...)
	if !ok {
		return idMap
	}
	if !meetings.HasColumn("first_name") && !meetings.HasColumn("last_name") {
		return idMap
	}

	scopeByKey := make(map[string]string, len(cfg.RepsInScope))
	for _, rep := range cfg.RepsInScope {
		scopeByKey[repKey(rep)] = rep
	}

	for _, row := range meetings.Rows {
		full := joinName(model.Str(row, "first_name"), model.Str(row, "last_name"))
		canonical, ok := scopeByKey[repKey(full)]
		if !ok {
			continue
		}
		if id := cleanOwnerID(row[idCol]); id != "" {
			idMap[id] = canonical
		}
	}
	return idMap
}

// ResolveOwners populates hubspot_owner_name on every record using the
// strategy for its record type:
//
//	meetings, tickets  first_name + " " + last_name
//	calls              owner ID map lookup (empty name kept; fails scope later)
//	emails, notes      owner ID map lookup; rows with no resolved name are dropped
//	tasks              the pre-existing full_name column
//	deals              no-op (owner is canonical from alias mapping)
//
// Missing columns never raise; the table comes back unchanged.
func ResolveOwners(t model.Table, recordType string, idMap map[string]string) model.Table {
	if t.Empty() {
		return t
	}

	switch recordType {
	case "meetings", "tickets":
		firstCol, okFirst := t.FindColumn("first_name", "ticket_owner_first_name")
		if !okFirst && !t.HasColumn("last_name") {
			return t
		}
		out := model.Table{Columns: t.WithColumn("hubspot_owner_name"), Rows: make([]model.Record, 0, t.Len())}
		for _, row := range t.Rows {
			rec := model.CloneRecord(row)
			rec["hubspot_owner_name"] = joinName(model.Str(row, firstCol), model.Str(row, "last_name"))
			out.Rows = append(out.Rows, rec)
		}
		return out

	case "calls", "emails", "notes":
		idCol, ok := t.FindColumn(ownerIDCandidates...)
		if !ok {
			return t
		}
		dropUnresolved := recordType != "calls"
		out := model.Table{Columns: t.WithColumn("hubspot_owner_name"), Rows: make([]model.Record, 0, t.Len())}
		for _, row := range t.Rows {
			name := idMap[cleanOwnerID(row[idCol])]
			if name == "" && dropUnresolved {
				continue
			}
			rec := model.CloneRecord(row)
			rec["hubspot_owner_name"] = name
			out.Rows = append(out.Rows, rec)
		}
		return out

	case "tasks":
		if !t.HasColumn("full_name") {
			return t
		}
		out := model.Table{Columns: t.WithColumn("hubspot_owner_name"), Rows: make([]model.Record, 0, t.Len())}
		for _, row := range t.Rows {
			rec := model.CloneRecord(row)
			rec["hubspot_owner_name"] = strings.TrimSpace(model.Str(row, "full_name"))
			out.Rows = append(out.Rows, rec)
		}
		return out
	}

	return t
}
