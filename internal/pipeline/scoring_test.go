package pipeline

import (
	"testing"
	"time"

	"crm-analytics-pipeline/internal/model"
)

func countsRow(owner string, week time.Time, meetings, calls, emails, completed, overdue float64) model.Record {
	return model.Record{
		"hubspot_owner_name": owner,
		"period_week":        week,
		"meetings":           meetings,
		"calls":              calls,
		"emails":             emails,
		"completed_tasks":    completed,
		"overdue_tasks":      overdue,
	}
}

func countsTable(rows ...model.Record) model.Table {
	return model.Table{
		Columns: []string{"hubspot_owner_name", "period_week", "meetings", "calls", "emails", "completed_tasks", "overdue_tasks"},
		Rows:    rows,
	}
}

var week1 = time.Date(2026, 8, 17, 0, 0, 0, 0, time.UTC)
var week2 = time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)

func TestComputeActivityScoreWeights(t *testing.T) {
	cfg := model.DefaultScopeConfig()
	counts := countsTable(countsRow("Brad Sherman", week1, 2, 1, 3, 1, 1))

	got := ComputeActivityScore(counts, cfg)
	if got.Len() != 1 {
		t.Fatalf("expected 1 rep row, got %d", got.Len())
	}
	// 2*5 + 1*3 + 3*1 + 1*2 + 1*(-2) = 16
	if score, _ := model.Num(got.Rows[0], "activity_score"); score != 16 {
		t.Fatalf("expected score 16, got %v", score)
	}
}

func TestComputeActivityScoreSumsAcrossPeriods(t *testing.T) {
	cfg := model.DefaultScopeConfig()
	counts := countsTable(
		countsRow("Brad Sherman", week1, 1, 0, 0, 0, 0),
		countsRow("Brad Sherman", week2, 1, 0, 0, 0, 0),
	)
	got := ComputeActivityScore(counts, cfg)
	if got.Len() != 1 {
		t.Fatalf("expected periods collapsed per rep, got %d rows", got.Len())
	}
	if score, _ := model.Num(got.Rows[0], "activity_score"); score != 10 {
		t.Fatalf("expected 10 (2 meetings * 5), got %v", score)
	}
}

func TestComputeActivityScoreSortedDescending(t *testing.T) {
	cfg := model.DefaultScopeConfig()
	counts := countsTable(
		countsRow("Low Rep", week1, 0, 1, 0, 0, 0),
		countsRow("High Rep", week1, 3, 0, 0, 0, 0),
	)
	got := ComputeActivityScore(counts, cfg)
	if model.Str(got.Rows[0], "hubspot_owner_name") != "High Rep" {
		t.Fatalf("expected descending sort by score, got %v first", got.Rows[0]["hubspot_owner_name"])
	}
}

func TestComputeActivityScoreNegativeTotalPossible(t *testing.T) {
	cfg := model.DefaultScopeConfig()
	counts := countsTable(countsRow("Brad Sherman", week1, 0, 0, 0, 0, 3))
	got := ComputeActivityScore(counts, cfg)
	if score, _ := model.Num(got.Rows[0], "activity_score"); score != -6 {
		t.Fatalf("overdue tasks must subtract, got %v", score)
	}
}

func TestComputeActivityScoreEmptyInput(t *testing.T) {
	cfg := model.DefaultScopeConfig()
	got := ComputeActivityScore(model.Table{}, cfg)
	if !got.Empty() {
		t.Fatalf("expected empty output, got %d rows", got.Len())
	}
	if !got.HasColumn("activity_score") {
		t.Fatalf("empty output must declare columns, got %v", got.Columns)
	}
}

func TestScoreByPeriodAdditivity(t *testing.T) {
	cfg := model.DefaultScopeConfig()
	counts := countsTable(
		countsRow("Brad Sherman", week1, 2, 1, 0, 0, 0),
		countsRow("Brad Sherman", week2, 1, 0, 4, 0, 0),
	)
	trend := ComputeActivityScoreByPeriod(counts, "period_week", cfg)
	total := ComputeActivityScore(counts, cfg)

	var sum float64
	for _, row := range trend.Rows {
		v, _ := model.Num(row, "activity_score")
		sum += v
	}
	want, _ := model.Num(total.Rows[0], "activity_score")
	if sum != want {
		t.Fatalf("per-period scores must sum to the total: %v != %v", sum, want)
	}
	if trend.Len() != 2 {
		t.Fatalf("expected one trend row per week, got %d", trend.Len())
	}
}
