package pipeline

import (
	"fmt"

	"crm-analytics-pipeline/internal/model"
)

// Candidate columns that might hold the rep/owner name, in priority order.
// Different sheets name this column differently.
var ownerNameCandidates = []string{
	"hubspot_owner_name",
	"activity_assigned_to",
	"full_name",
	"opp_owner",
	"deal_owner",
	"activity_created_by",
}

// ensureOwnerColumn copies the best owner candidate into
// hubspot_owner_name so every sheet filters on the same column.
func ensureOwnerColumn(t model.Table) model.Table {
	if t.Empty() || t.HasColumn("hubspot_owner_name") {
		return t
	}
	source, ok := t.FindColumn(ownerNameCandidates...)
	if !ok {
		fmt.Printf("⚠️  No owner column found among %v\n", t.Columns)
		return t
	}
	out := model.Table{Columns: t.WithColumn("hubspot_owner_name"), Rows: make([]model.Record, 0, t.Len())}
	for _, row := range t.Rows {
		rec := model.CloneRecord(row)
		rec["hubspot_owner_name"] = row[source]
		out.Rows = append(out.Rows, rec)
	}
	return out
}

// FilterByRep keeps rows whose owner is an in-scope rep. A table with no
// owner column at all passes through unchanged rather than being emptied.
func FilterByRep(t model.Table, cfg model.ScopeConfig) model.Table {
	if t.Empty() {
		return t
	}
	t = ensureOwnerColumn(t)
	if !t.HasColumn("hubspot_owner_name") {
		return t
	}
	out := model.Table{Columns: t.Columns, Rows: make([]model.Record, 0, t.Len())}
	for _, row := range t.Rows {
		if cfg.IsRepInScope(model.Str(row, "hubspot_owner_name")) {
			out.Rows = append(out.Rows, row)
		}
	}
	return out
}

// FilterByPipeline keeps rows whose pipeline is in scope, with the same
// pass-through-if-column-absent rule as the rep filter.
func FilterByPipeline(t model.Table, cfg model.ScopeConfig) model.Table {
	if t.Empty() {
		return t
	}
	if !t.HasColumn("pipeline") {
		fmt.Println("⚠️  Column 'pipeline' not found - skipping pipeline filter")
		return t
	}
	inScope := make(map[string]bool, len(cfg.PipelinesInScope))
	for _, p := range cfg.PipelinesInScope {
		inScope[p] = true
	}
	out := model.Table{Columns: t.Columns, Rows: make([]model.Record, 0, t.Len())}
	for _, row := range t.Rows {
		if inScope[model.Str(row, "pipeline")] {
			out.Rows = append(out.Rows, row)
		}
	}
	return out
}

// TagTerminalStages adds is_terminal and terminal_status, both pure
// functions of deal_stage via the terminal-stage table. Tagging twice
// yields the same result.
func TagTerminalStages(t model.Table, cfg model.ScopeConfig) model.Table {
	if t.Empty() {
		cols := model.Table{Columns: t.WithColumn("is_terminal")}.WithColumn("terminal_status")
		return model.Table{Columns: cols, Rows: []model.Record{}}
	}
	cols := model.Table{Columns: t.WithColumn("is_terminal")}.WithColumn("terminal_status")
	out := model.Table{Columns: cols, Rows: make([]model.Record, 0, t.Len())}
	for _, row := range t.Rows {
		rec := model.CloneRecord(row)
		stage := model.Str(row, "deal_stage")
		status, terminal := cfg.TerminalStages[stage]
		rec["is_terminal"] = terminal
		if terminal {
			rec["terminal_status"] = status
		} else {
			rec["terminal_status"] = nil
		}
		out.Rows = append(out.Rows, rec)
	}
	return out
}

// ActiveDeals returns the non-terminal subset, tagging first if needed.
func ActiveDeals(deals model.Table, cfg model.ScopeConfig) model.Table {
	if !deals.HasColumn("is_terminal") {
		deals = TagTerminalStages(deals, cfg)
	}
	out := model.Table{Columns: deals.Columns, Rows: make([]model.Record, 0, deals.Len())}
	for _, row := range deals.Rows {
		if !model.BoolAt(row, "is_terminal") {
			out.Rows = append(out.Rows, row)
		}
	}
	return out
}

// TerminalDeals returns the terminal subset, tagging first if needed.
func TerminalDeals(deals model.Table, cfg model.ScopeConfig) model.Table {
	if !deals.HasColumn("is_terminal") {
		deals = TagTerminalStages(deals, cfg)
	}
	out := model.Table{Columns: deals.Columns, Rows: make([]model.Record, 0, deals.Len())}
	for _, row := range deals.Rows {
		if model.BoolAt(row, "is_terminal") {
			out.Rows = append(out.Rows, row)
		}
	}
	return out
}

// ApplyDealFilters is the full deal filter chain: rep -> pipeline ->
// terminal tagging.
func ApplyDealFilters(deals model.Table, cfg model.ScopeConfig) model.Table {
	deals = FilterByRep(deals, cfg)
	deals = FilterByPipeline(deals, cfg)
	return TagTerminalStages(deals, cfg)
}

// ApplyActivityFilters restricts activity rows (calls, meetings, tasks,
// emails, notes) to in-scope reps.
func ApplyActivityFilters(t model.Table, cfg model.ScopeConfig) model.Table {
	return FilterByRep(t, cfg)
}
