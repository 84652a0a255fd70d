package pipeline

import (
	"sort"
	"time"

	"crm-analytics-pipeline/internal/model"
	"crm-analytics-pipeline/pkg/utils"
)

// ComputeActivityScore computes the total weighted activity score per rep,
// summed across every period in the input counts. Missing metric columns
// count as zero. Output is sorted descending by score.
func ComputeActivityScore(counts model.Table, cfg model.ScopeConfig) model.Table {
	columns := append([]string{"hubspot_owner_name"}, activityMetrics...)
	columns = append(columns, "activity_score")
	if counts.Empty() {
		return model.EmptyTable(columns...)
	}

	ownerCol := resolveOwnerColumn(counts)
	totals := make(map[string]map[string]float64)
	var order []string
	for _, row := range counts.Rows {
		owner := model.Str(row, ownerCol)
		if _, ok := totals[owner]; !ok {
			totals[owner] = make(map[string]float64, len(activityMetrics))
			order = append(order, owner)
		}
		for _, m := range activityMetrics {
			totals[owner][m] += utils.Numeric(row[m])
		}
	}

	out := model.Table{Columns: columns, Rows: make([]model.Record, 0, len(order))}
	for _, owner := range order {
		rec := model.Record{"hubspot_owner_name": owner}
		score := 0.0
		for _, m := range activityMetrics {
			rec[m] = totals[owner][m]
			score += totals[owner][m] * float64(cfg.ScoreWeights[m])
		}
		rec["activity_score"] = score
		out.Rows = append(out.Rows, rec)
	}
	sort.SliceStable(out.Rows, func(i, j int) bool {
		return utils.Numeric(out.Rows[i]["activity_score"]) > utils.Numeric(out.Rows[j]["activity_score"])
	})
	return out
}

// ComputeActivityScoreByPeriod computes the weighted score independently
// for each (rep, period) row — the trend view behind the total.
func ComputeActivityScoreByPeriod(counts model.Table, periodCol string, cfg model.ScopeConfig) model.Table {
	columns := []string{"hubspot_owner_name", periodCol, "activity_score"}
	if counts.Empty() || !counts.HasColumn(periodCol) {
		return model.EmptyTable(columns...)
	}

	ownerCol := resolveOwnerColumn(counts)
	type groupKey struct {
		owner  string
		period string
	}
	scores := make(map[groupKey]float64)
	periods := make(map[groupKey]time.Time)
	var order []groupKey

	for _, row := range counts.Rows {
		ts, _ := model.TimeAt(row, periodCol)
		key := groupKey{owner: model.Str(row, ownerCol), period: ts.Format("2006-01-02")}
		if _, ok := scores[key]; !ok {
			order = append(order, key)
			periods[key] = ts
		}
		rowScore := 0.0
		for _, m := range activityMetrics {
			rowScore += utils.Numeric(row[m]) * float64(cfg.ScoreWeights[m])
		}
		scores[key] += rowScore
	}

	out := model.Table{Columns: columns, Rows: make([]model.Record, 0, len(order))}
	for _, key := range order {
		out.Rows = append(out.Rows, model.Record{
			"hubspot_owner_name": key.owner,
			periodCol:            periods[key],
			"activity_score":     scores[key],
		})
	}
	return out
}
