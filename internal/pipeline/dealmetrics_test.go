package pipeline

import (
	"testing"
	"time"

	"crm-analytics-pipeline/internal/model"
)

func dealsTable(rows ...model.Record) model.Table {
	return model.Table{
		Columns: []string{"pipeline", "deal_stage", "amount", "close_date", "created_date", "last_modified_date", "hubspot_owner_name"},
		Rows:    rows,
	}
}

var metricsNow = time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)

func TestActivePipelineValue(t *testing.T) {
	cfg := model.DefaultScopeConfig()
	deals := dealsTable(
		model.Record{"pipeline": "Acquisition (New Customer)", "deal_stage": "Qualification", "amount": 1000.0},
		model.Record{"pipeline": "Acquisition (New Customer)", "deal_stage": "Negotiation", "amount": nil},
		model.Record{"pipeline": "Acquisition (New Customer)", "deal_stage": "Closed Won", "amount": 9999.0},
	)
	got := ActivePipelineValue(deals, cfg)

	if got.Len() != 1 {
		t.Fatalf("expected 1 pipeline group, got %d", got.Len())
	}
	row := got.Rows[0]
	if v, _ := model.Num(row, "deal_count"); v != 2 {
		t.Fatalf("terminal deal leaked into active value: count %v", v)
	}
	if v, _ := model.Num(row, "total_value"); v != 1000 {
		t.Fatalf("null amount must contribute zero, total %v", v)
	}
	if v, _ := model.Num(row, "avg_value"); v != 500 {
		t.Fatalf("expected avg 500 (null counted as zero), got %v", v)
	}
}

func TestDealsClosingThisQuarter(t *testing.T) {
	cfg := model.DefaultScopeConfig()
	deals := dealsTable(
		model.Record{"deal_stage": "Qualification", "close_date": time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)},
		model.Record{"deal_stage": "Qualification", "close_date": time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)},
		model.Record{"deal_stage": "Closed Won", "close_date": time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)},
		model.Record{"deal_stage": "Qualification", "close_date": nil},
	)
	got := DealsClosingThisQuarter(deals, cfg, metricsNow)
	if got.Len() != 1 {
		t.Fatalf("expected exactly the active in-quarter deal, got %d rows", got.Len())
	}
}

func TestDealCountByStageSortedDescending(t *testing.T) {
	deals := dealsTable(
		model.Record{"deal_stage": "Qualification"},
		model.Record{"deal_stage": "Qualification"},
		model.Record{"deal_stage": "Negotiation"},
	)
	tagged := TagTerminalStages(deals, model.DefaultScopeConfig())
	got := DealCountByStage(tagged)
	if got.Len() != 2 {
		t.Fatalf("expected 2 stage groups, got %d", got.Len())
	}
	if model.Str(got.Rows[0], "deal_stage") != "Qualification" {
		t.Fatalf("expected most common stage first, got %v", got.Rows[0]["deal_stage"])
	}
	if v, _ := model.Num(got.Rows[0], "count"); v != 2 {
		t.Fatalf("expected count 2, got %v", v)
	}
}

func TestAvgDaysInStageProxy(t *testing.T) {
	deals := dealsTable(
		model.Record{"deal_stage": "Qualification", "last_modified_date": metricsNow.AddDate(0, 0, -10)},
		model.Record{"deal_stage": "Qualification", "last_modified_date": metricsNow.AddDate(0, 0, -20)},
	)
	got := AvgDaysInStage(deals, metricsNow)
	if got.Len() != 1 {
		t.Fatalf("expected 1 stage row, got %d", got.Len())
	}
	if v, _ := model.Num(got.Rows[0], "avg_days"); v != 15 {
		t.Fatalf("expected avg 15 days, got %v", v)
	}
}

func TestWinRateBoundsAndGrouping(t *testing.T) {
	cfg := model.DefaultScopeConfig()
	deals := dealsTable(
		model.Record{"pipeline": "Acquisition (New Customer)", "hubspot_owner_name": "Brad Sherman", "deal_stage": "Closed Won"},
		model.Record{"pipeline": "Acquisition (New Customer)", "hubspot_owner_name": "Brad Sherman", "deal_stage": "Closed Lost"},
		model.Record{"pipeline": "Acquisition (New Customer)", "hubspot_owner_name": "Brad Sherman", "deal_stage": "Qualification"},
	)
	got := WinRate(deals, cfg)
	if got.Len() != 1 {
		t.Fatalf("expected 1 (pipeline, rep) group, got %d", got.Len())
	}
	row := got.Rows[0]
	if v, _ := model.Num(row, "terminal_count"); v != 2 {
		t.Fatalf("active deals must not count toward terminal_count, got %v", v)
	}
	rate, _ := model.Num(row, "win_rate")
	if rate != 0.5 {
		t.Fatalf("expected win rate 0.5, got %v", rate)
	}
	if rate < 0 || rate > 1 {
		t.Fatalf("win rate out of bounds: %v", rate)
	}
}

func TestWinRateCountsSalesOrderAsWin(t *testing.T) {
	cfg := model.DefaultScopeConfig()
	deals := dealsTable(
		model.Record{"pipeline": "Calyx Distribution", "hubspot_owner_name": "Jake Lynch", "deal_stage": "Sales Order Created in NS"},
	)
	got := WinRate(deals, cfg)
	if v, _ := model.Num(got.Rows[0], "win_rate"); v != 1 {
		t.Fatalf("sales order creation must count as a win, got %v", v)
	}
}

func TestWinRateNoTerminalDealsEmpty(t *testing.T) {
	cfg := model.DefaultScopeConfig()
	deals := dealsTable(model.Record{"deal_stage": "Qualification"})
	got := WinRate(deals, cfg)
	if !got.Empty() {
		t.Fatalf("no terminal deals must yield no groups, got %d rows", got.Len())
	}
}
