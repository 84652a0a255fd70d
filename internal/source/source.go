// Package source reads raw CRM export tables from an xlsx workbook or a
// directory of CSV files, one table per sheet key.
package source

import (
	"fmt"
	"strings"

	"crm-analytics-pipeline/internal/model"
)

// Load reads every configured sheet from the source. Sheet keys with no
// backing worksheet or file produce an empty RawTable rather than an
// error; an unreadable source is fatal for the whole run.
func Load(src model.Source) (map[string]model.RawTable, error) {
	switch strings.ToLower(src.Type) {
	case "xlsx", "excel", "":
		return loadWorkbook(src)
	case "csv":
		return loadCSVDir(src)
	default:
		return nil, fmt.Errorf("unknown source type: %s", src.Type)
	}
}

// tabName resolves the worksheet/file name for a sheet key, honoring
// per-run overrides.
func tabName(src model.Source, key string) string {
	if name, ok := src.Tabs[key]; ok {
		return name
	}
	return model.DefaultTabs[key]
}

// buildRawTable assembles a RawTable from a grid of cell strings. Columns
// whose header is blank are dropped, and rows with no non-empty cell are
// skipped.
func buildRawTable(headers []string, grid [][]string) model.RawTable {
	keep := make([]int, 0, len(headers))
	var kept []string
	for i, h := range headers {
		h = strings.TrimSpace(h)
		if h == "" {
			continue
		}
		keep = append(keep, i)
		kept = append(kept, h)
	}

	table := model.RawTable{Headers: kept}
	for _, cells := range grid {
		row := make([]string, len(keep))
		blank := true
		for j, idx := range keep {
			v := ""
			if idx < len(cells) {
				v = strings.TrimSpace(cells[idx])
			}
			row[j] = v
			if v != "" {
				blank = false
			}
		}
		if blank {
			continue
		}
		table.Rows = append(table.Rows, row)
	}
	return table
}
