package source

import (
	"os"
	"path/filepath"
	"testing"

	"crm-analytics-pipeline/internal/model"
)

func TestBuildRawTableDropsBlankHeadersAndRows(t *testing.T) {
	headers := []string{"Deal Name", "", "Amount"}
	grid := [][]string{
		{"Big Deal", "ignored", "1000"},
		{"", "", ""},
		{"Small Deal", "ignored", ""},
	}
	got := buildRawTable(headers, grid)

	if len(got.Headers) != 2 || got.Headers[0] != "Deal Name" || got.Headers[1] != "Amount" {
		t.Fatalf("expected blank header dropped, got %v", got.Headers)
	}
	if len(got.Rows) != 2 {
		t.Fatalf("expected fully blank row dropped, got %d rows", len(got.Rows))
	}
	if got.Rows[0][1] != "1000" {
		t.Fatalf("column misaligned after header drop: %v", got.Rows[0])
	}
}

func TestBuildRawTableShortRows(t *testing.T) {
	got := buildRawTable([]string{"A", "B"}, [][]string{{"only-a"}})
	if len(got.Rows) != 1 || got.Rows[0][1] != "" {
		t.Fatalf("short rows must pad with empty cells, got %v", got.Rows)
	}
}

func TestLoadCSVDir(t *testing.T) {
	dir := t.TempDir()
	csv := "Deal Name,Amount\nBig Deal,1000\n"
	if err := os.WriteFile(filepath.Join(dir, "deals.csv"), []byte(csv), 0644); err != nil {
		t.Fatal(err)
	}

	tables, err := Load(model.Source{Type: "csv", Path: dir})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	deals := tables["deals"]
	if len(deals.Rows) != 1 {
		t.Fatalf("expected 1 deal row, got %d", len(deals.Rows))
	}
	if deals.Headers[0] != "Deal Name" {
		t.Fatalf("unexpected headers: %v", deals.Headers)
	}
	// Sheets without a backing file come back empty, not as errors.
	if !tables["emails"].Empty() {
		t.Fatal("missing emails.csv must produce an empty table")
	}
}

func TestLoadCSVDirMissingDirFatal(t *testing.T) {
	if _, err := Load(model.Source{Type: "csv", Path: "/nonexistent/dir"}); err == nil {
		t.Fatal("unreadable source must fail the load")
	}
}

func TestLoadUnknownTypeFatal(t *testing.T) {
	if _, err := Load(model.Source{Type: "parquet", Path: "x"}); err == nil {
		t.Fatal("unknown source type must fail")
	}
}

func TestLoadWorkbookMissingFileFatal(t *testing.T) {
	if _, err := Load(model.Source{Type: "xlsx", Path: "/nonexistent/book.xlsx"}); err == nil {
		t.Fatal("unreadable workbook must fail the load")
	}
}

func TestTabNameOverride(t *testing.T) {
	src := model.Source{Tabs: map[string]string{"deals": "Opportunities"}}
	if got := tabName(src, "deals"); got != "Opportunities" {
		t.Fatalf("expected override, got %q", got)
	}
	if got := tabName(src, "calls"); got != "Calls" {
		t.Fatalf("expected default tab, got %q", got)
	}
}
