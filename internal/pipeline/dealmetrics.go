package pipeline

import (
	"math"
	"sort"
	"time"

	"crm-analytics-pipeline/internal/model"
	"crm-analytics-pipeline/pkg/utils"
)

func round1(x float64) float64 { return math.Round(x*10) / 10 }
func round4(x float64) float64 { return math.Round(x*10000) / 10000 }

// ActivePipelineValue reports count, total and mean deal amount per
// pipeline for non-terminal deals. Null amounts contribute zero.
func ActivePipelineValue(deals model.Table, cfg model.ScopeConfig) model.Table {
	columns := []string{"pipeline", "deal_count", "total_value", "avg_value"}
	active := ActiveDeals(deals, cfg)
	if active.Empty() {
		return model.EmptyTable(columns...)
	}

	type agg struct {
		count int
		sum   float64
	}
	groups := make(map[string]*agg)
	var order []string
	for _, row := range active.Rows {
		pipeline := model.Str(row, "pipeline")
		g, ok := groups[pipeline]
		if !ok {
			g = &agg{}
			groups[pipeline] = g
			order = append(order, pipeline)
		}
		g.count++
		if amount, ok := model.Num(row, "amount"); ok {
			g.sum += amount
		}
	}

	out := model.Table{Columns: columns, Rows: make([]model.Record, 0, len(order))}
	for _, pipeline := range order {
		g := groups[pipeline]
		out.Rows = append(out.Rows, model.Record{
			"pipeline":    pipeline,
			"deal_count":  float64(g.count),
			"total_value": g.sum,
			"avg_value":   g.sum / float64(g.count),
		})
	}
	return out
}

// DealsClosingThisQuarter returns the non-terminal deals whose close_date
// falls inside the calendar quarter containing now.
func DealsClosingThisQuarter(deals model.Table, cfg model.ScopeConfig, now time.Time) model.Table {
	active := ActiveDeals(deals, cfg)
	if active.Empty() || !active.HasColumn("close_date") {
		return model.Table{Columns: active.Columns, Rows: []model.Record{}}
	}
	qStart, qEnd := utils.QuarterRange(now)
	out := model.Table{Columns: active.Columns, Rows: []model.Record{}}
	for _, row := range active.Rows {
		close, ok := model.TimeAt(row, "close_date")
		if !ok {
			continue
		}
		if !close.Before(qStart) && !close.After(qEnd) {
			out.Rows = append(out.Rows, row)
		}
	}
	return out
}

// DealCountByStage counts deals per (stage, is_terminal), sorted by count
// descending.
func DealCountByStage(deals model.Table) model.Table {
	columns := []string{"deal_stage", "is_terminal", "count"}
	if deals.Empty() || !deals.HasColumn("deal_stage") {
		return model.EmptyTable(columns...)
	}

	type stageKey struct {
		stage    string
		terminal bool
	}
	counts := make(map[stageKey]int)
	var order []stageKey
	for _, row := range deals.Rows {
		key := stageKey{stage: model.Str(row, "deal_stage"), terminal: model.BoolAt(row, "is_terminal")}
		if _, ok := counts[key]; !ok {
			order = append(order, key)
		}
		counts[key]++
	}

	out := model.Table{Columns: columns, Rows: make([]model.Record, 0, len(order))}
	for _, key := range order {
		out.Rows = append(out.Rows, model.Record{
			"deal_stage":  key.stage,
			"is_terminal": key.terminal,
			"count":       float64(counts[key]),
		})
	}
	sort.SliceStable(out.Rows, func(i, j int) bool {
		return utils.Numeric(out.Rows[i]["count"]) > utils.Numeric(out.Rows[j]["count"])
	})
	return out
}

// AvgDaysInStage estimates average days deals have sat in their current
// stage. With no stage-transition history in the source, days since
// last_modified_date (falling back to created_date) is used as a proxy;
// treat the result as an approximation, not true dwell time.
func AvgDaysInStage(deals model.Table, now time.Time) model.Table {
	columns := []string{"deal_stage", "avg_days"}
	if deals.Empty() {
		return model.EmptyTable(columns...)
	}
	refCol, ok := deals.FindColumn("last_modified_date", "created_date")
	if !ok {
		return model.EmptyTable(columns...)
	}

	type agg struct {
		days  float64
		count int
	}
	groups := make(map[string]*agg)
	var order []string
	for _, row := range deals.Rows {
		stage := model.Str(row, "deal_stage")
		if _, ok := groups[stage]; !ok {
			groups[stage] = &agg{}
			order = append(order, stage)
		}
		ref, ok := model.TimeAt(row, refCol)
		if !ok {
			continue
		}
		groups[stage].days += float64(utils.DaysBetween(ref, now))
		groups[stage].count++
	}

	out := model.Table{Columns: columns, Rows: make([]model.Record, 0, len(order))}
	for _, stage := range order {
		g := groups[stage]
		rec := model.Record{"deal_stage": stage, "avg_days": nil}
		if g.count > 0 {
			rec["avg_days"] = round1(g.days / float64(g.count))
		}
		out.Rows = append(out.Rows, rec)
	}
	sort.SliceStable(out.Rows, func(i, j int) bool {
		return utils.Numeric(out.Rows[i]["avg_days"]) > utils.Numeric(out.Rows[j]["avg_days"])
	})
	return out
}

// WinRate computes wins / terminal deals per (pipeline, rep). A win is a
// terminal deal whose stage is one of the configured win stages. Groups
// only exist for reps with at least one terminal deal, so the rate is
// always defined and within [0, 1].
func WinRate(deals model.Table, cfg model.ScopeConfig) model.Table {
	columns := []string{"pipeline", "hubspot_owner_name", "wins", "terminal_count", "win_rate"}
	terminal := TerminalDeals(deals, cfg)
	if terminal.Empty() {
		return model.EmptyTable(columns...)
	}

	type rateKey struct{ pipeline, owner string }
	type agg struct {
		wins  int
		total int
	}
	groups := make(map[rateKey]*agg)
	var order []rateKey
	for _, row := range terminal.Rows {
		key := rateKey{pipeline: model.Str(row, "pipeline"), owner: model.Str(row, "hubspot_owner_name")}
		g, ok := groups[key]
		if !ok {
			g = &agg{}
			groups[key] = g
			order = append(order, key)
		}
		g.total++
		if cfg.IsWinStage(model.Str(row, "deal_stage")) {
			g.wins++
		}
	}

	out := model.Table{Columns: columns, Rows: make([]model.Record, 0, len(order))}
	for _, key := range order {
		g := groups[key]
		out.Rows = append(out.Rows, model.Record{
			"pipeline":           key.pipeline,
			"hubspot_owner_name": key.owner,
			"wins":               float64(g.wins),
			"terminal_count":     float64(g.total),
			"win_rate":           round4(float64(g.wins) / float64(g.total)),
		})
	}
	return out
}
