package pipeline

import (
	"sort"

	"crm-analytics-pipeline/internal/model"
	"crm-analytics-pipeline/pkg/utils"
)

// ClosedWonVsLost counts closed-won and closed-lost deals per rep. Every
// rep with at least one terminal deal of either status appears, with the
// missing side zero-filled, and net = won - lost.
func ClosedWonVsLost(deals model.Table, cfg model.ScopeConfig) model.Table {
	columns := []string{"hubspot_owner_name", "closed_won", "closed_lost", "net"}
	terminal := TerminalDeals(deals, cfg)
	if terminal.Empty() {
		return model.EmptyTable(columns...)
	}

	type agg struct {
		won  int
		lost int
	}
	groups := make(map[string]*agg)
	var order []string
	for _, row := range terminal.Rows {
		status := model.Str(row, "terminal_status")
		if status != model.StatusClosedWon && status != model.StatusClosedLost {
			continue
		}
		owner := model.Str(row, "hubspot_owner_name")
		g, ok := groups[owner]
		if !ok {
			g = &agg{}
			groups[owner] = g
			order = append(order, owner)
		}
		if status == model.StatusClosedWon {
			g.won++
		} else {
			g.lost++
		}
	}
	if len(order) == 0 {
		return model.EmptyTable(columns...)
	}

	out := model.Table{Columns: columns, Rows: make([]model.Record, 0, len(order))}
	for _, owner := range order {
		g := groups[owner]
		out.Rows = append(out.Rows, model.Record{
			"hubspot_owner_name": owner,
			"closed_won":         float64(g.won),
			"closed_lost":        float64(g.lost),
			"net":                float64(g.won - g.lost),
		})
	}
	return out
}

// NCRByPipeline counts deals that ended as non-conversion-related closes,
// grouped by pipeline.
func NCRByPipeline(deals model.Table, cfg model.ScopeConfig) model.Table {
	return countTerminalStatus(deals, cfg, model.StatusNCR, []string{"pipeline"}, "ncr_count")
}

// SalesOrderCreated counts deals that produced a sales order in the ERP,
// grouped by (pipeline, rep).
func SalesOrderCreated(deals model.Table, cfg model.ScopeConfig) model.Table {
	return countTerminalStatus(deals, cfg, model.StatusSalesOrderCreated,
		[]string{"pipeline", "hubspot_owner_name"}, "so_count")
}

func countTerminalStatus(deals model.Table, cfg model.ScopeConfig, status string, groupCols []string, countCol string) model.Table {
	columns := append(append([]string{}, groupCols...), countCol)
	terminal := TerminalDeals(deals, cfg)
	if terminal.Empty() {
		return model.EmptyTable(columns...)
	}

	counts := make(map[string]int)
	values := make(map[string][]string)
	var order []string
	for _, row := range terminal.Rows {
		if model.Str(row, "terminal_status") != status {
			continue
		}
		parts := make([]string, len(groupCols))
		for i, c := range groupCols {
			parts[i] = model.Str(row, c)
		}
		key := joinKey(parts)
		if _, ok := counts[key]; !ok {
			order = append(order, key)
			values[key] = parts
		}
		counts[key]++
	}

	out := model.Table{Columns: columns, Rows: make([]model.Record, 0, len(order))}
	for _, key := range order {
		rec := model.Record{countCol: float64(counts[key])}
		for i, c := range groupCols {
			rec[c] = values[key][i]
		}
		out.Rows = append(out.Rows, rec)
	}
	return out
}

func joinKey(parts []string) string {
	key := ""
	for _, p := range parts {
		key += p + "\x00"
	}
	return key
}

// AvgSalesCycle measures created-to-close duration of terminal deals per
// (rep, pipeline): mean and median days, rounded to one decimal, plus the
// deal count behind them. Deals with a missing date on either end, or a
// close before the create, are excluded.
func AvgSalesCycle(deals model.Table, cfg model.ScopeConfig) model.Table {
	columns := []string{"hubspot_owner_name", "pipeline", "avg_cycle_days", "median_cycle_days", "deal_count"}
	terminal := TerminalDeals(deals, cfg)
	if terminal.Empty() {
		return model.EmptyTable(columns...)
	}
	createdCol, okCreated := terminal.FindColumn("created_date", "create_date")
	closeCol, okClose := terminal.FindColumn("close_date", "closed_date")
	if !okCreated || !okClose {
		return model.EmptyTable(columns...)
	}

	type cycleKey struct{ owner, pipeline string }
	cycles := make(map[cycleKey][]float64)
	var order []cycleKey
	for _, row := range terminal.Rows {
		created, okC := model.TimeAt(row, createdCol)
		closed, okD := model.TimeAt(row, closeCol)
		if !okC || !okD {
			continue
		}
		days := float64(utils.DaysBetween(created, closed))
		if days < 0 {
			continue
		}
		key := cycleKey{owner: model.Str(row, "hubspot_owner_name"), pipeline: model.Str(row, "pipeline")}
		if _, ok := cycles[key]; !ok {
			order = append(order, key)
		}
		cycles[key] = append(cycles[key], days)
	}

	out := model.Table{Columns: columns, Rows: make([]model.Record, 0, len(order))}
	for _, key := range order {
		days := cycles[key]
		out.Rows = append(out.Rows, model.Record{
			"hubspot_owner_name": key.owner,
			"pipeline":           key.pipeline,
			"avg_cycle_days":     round1(mean(days)),
			"median_cycle_days":  round1(median(days)),
			"deal_count":         float64(len(days)),
		})
	}
	return out
}

func mean(xs []float64) float64 {
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func median(xs []float64) float64 {
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
