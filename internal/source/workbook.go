package source

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"crm-analytics-pipeline/internal/model"
)

// Header rows live on row 2 in the connector exports; row 1 holds the
// connector's refresh banner.
const defaultHeaderRow = 2

func loadWorkbook(src model.Source) (map[string]model.RawTable, error) {
	f, err := excelize.OpenFile(src.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", src.Path, err)
	}
	defer f.Close()

	headerRow := src.HeaderRow
	if headerRow <= 0 {
		headerRow = defaultHeaderRow
	}

	tables := make(map[string]model.RawTable, len(model.SheetKeys))
	for _, key := range model.SheetKeys {
		tab := tabName(src, key)
		rows, err := f.GetRows(tab)
		if err != nil {
			fmt.Printf("⚠️  Worksheet %q not found in %s - continuing without %s\n", tab, src.Path, key)
			tables[key] = model.RawTable{}
			continue
		}
		if len(rows) < headerRow {
			tables[key] = model.RawTable{}
			continue
		}
		tables[key] = buildRawTable(rows[headerRow-1], rows[headerRow:])
		fmt.Printf("📄 Worksheet %q: %d rows read\n", tab, len(tables[key].Rows))
	}
	return tables, nil
}
