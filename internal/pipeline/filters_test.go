package pipeline

import (
	"testing"

	"crm-analytics-pipeline/internal/model"
)

func TestFilterByRepScope(t *testing.T) {
	cfg := model.DefaultScopeConfig()
	in := model.Table{
		Columns: []string{"hubspot_owner_name", "amount"},
		Rows: []model.Record{
			{"hubspot_owner_name": "Brad Sherman", "amount": 100.0},
			{"hubspot_owner_name": "Somebody Else", "amount": 200.0},
			{"hubspot_owner_name": nil, "amount": 300.0},
		},
	}
	got := FilterByRep(in, cfg)
	if got.Len() != 1 {
		t.Fatalf("expected only the in-scope rep to survive, got %d rows", got.Len())
	}
	if model.Str(got.Rows[0], "hubspot_owner_name") != "Brad Sherman" {
		t.Fatalf("wrong row kept: %v", got.Rows[0])
	}
}

func TestFilterByRepNoOwnerColumnPassThrough(t *testing.T) {
	cfg := model.DefaultScopeConfig()
	in := model.Table{Columns: []string{"amount"}, Rows: []model.Record{{"amount": 1.0}}}
	got := FilterByRep(in, cfg)
	if got.Len() != 1 {
		t.Fatal("table without any owner column must pass through unchanged")
	}
}

func TestFilterByRepUsesCandidateColumn(t *testing.T) {
	cfg := model.DefaultScopeConfig()
	in := model.Table{
		Columns: []string{"activity_assigned_to"},
		Rows: []model.Record{
			{"activity_assigned_to": "Jake Lynch"},
			{"activity_assigned_to": "Nobody"},
		},
	}
	got := FilterByRep(in, cfg)
	if got.Len() != 1 {
		t.Fatalf("expected candidate owner column used, got %d rows", got.Len())
	}
	if !got.HasColumn("hubspot_owner_name") {
		t.Fatal("expected canonical owner column added")
	}
}

func TestFilterByPipelineScope(t *testing.T) {
	cfg := model.DefaultScopeConfig()
	in := model.Table{
		Columns: []string{"pipeline"},
		Rows: []model.Record{
			{"pipeline": "Acquisition (New Customer)"},
			{"pipeline": "Some Legacy Pipeline"},
		},
	}
	got := FilterByPipeline(in, cfg)
	if got.Len() != 1 {
		t.Fatalf("expected 1 in-scope pipeline row, got %d", got.Len())
	}
}

func TestTagTerminalStagesTotality(t *testing.T) {
	cfg := model.DefaultScopeConfig()
	in := model.Table{
		Columns: []string{"deal_stage"},
		Rows: []model.Record{
			{"deal_stage": "Closed Won"},
			{"deal_stage": "Closed Lost"},
			{"deal_stage": "NCR"},
			{"deal_stage": "Sales Order Created in NS"},
			{"deal_stage": "Qualification"},
			{"deal_stage": nil},
		},
	}
	got := TagTerminalStages(in, cfg)

	for i, row := range got.Rows {
		if _, ok := row["is_terminal"].(bool); !ok {
			t.Fatalf("row %d: is_terminal must always be a bool, got %v", i, row["is_terminal"])
		}
	}
	if model.Str(got.Rows[0], "terminal_status") != model.StatusClosedWon {
		t.Fatalf("expected CLOSED_WON, got %v", got.Rows[0]["terminal_status"])
	}
	if model.Str(got.Rows[3], "terminal_status") != model.StatusSalesOrderCreated {
		t.Fatalf("expected SALES_ORDER_CREATED, got %v", got.Rows[3]["terminal_status"])
	}
	if got.Rows[4]["terminal_status"] != nil || model.BoolAt(got.Rows[4], "is_terminal") {
		t.Fatalf("active deal mis-tagged: %v", got.Rows[4])
	}
	if got.Rows[5]["terminal_status"] != nil {
		t.Fatalf("null stage must be non-terminal, got %v", got.Rows[5])
	}
}

func TestTagTerminalStagesIdempotent(t *testing.T) {
	cfg := model.DefaultScopeConfig()
	in := model.Table{Columns: []string{"deal_stage"}, Rows: []model.Record{{"deal_stage": "Closed Won"}}}
	once := TagTerminalStages(in, cfg)
	twice := TagTerminalStages(once, cfg)
	if len(twice.Columns) != len(once.Columns) {
		t.Fatalf("re-tagging changed the column set: %v vs %v", once.Columns, twice.Columns)
	}
	if !model.BoolAt(twice.Rows[0], "is_terminal") {
		t.Fatal("re-tagging lost the terminal flag")
	}
}

func TestTagTerminalStagesEmptyTableKeepsColumns(t *testing.T) {
	cfg := model.DefaultScopeConfig()
	got := TagTerminalStages(model.EmptyTable("deal_stage"), cfg)
	if !got.HasColumn("is_terminal") || !got.HasColumn("terminal_status") {
		t.Fatalf("empty table must still declare tag columns, got %v", got.Columns)
	}
}

func TestActiveAndTerminalDealsPartition(t *testing.T) {
	cfg := model.DefaultScopeConfig()
	in := model.Table{
		Columns: []string{"deal_stage"},
		Rows: []model.Record{
			{"deal_stage": "Closed Won"},
			{"deal_stage": "Qualification"},
			{"deal_stage": "Closed Lost"},
		},
	}
	active := ActiveDeals(in, cfg)
	terminal := TerminalDeals(in, cfg)
	if active.Len() != 1 || terminal.Len() != 2 {
		t.Fatalf("expected 1 active / 2 terminal, got %d / %d", active.Len(), terminal.Len())
	}
	if active.Len()+terminal.Len() != in.Len() {
		t.Fatal("active and terminal must partition the deals")
	}
}
