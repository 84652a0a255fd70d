package source

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"crm-analytics-pipeline/internal/model"
)

// loadCSVDir reads one CSV file per sheet key from a directory. The file
// name defaults to the lowercased tab name (e.g. deals.csv); a missing
// file just means an empty sheet.
func loadCSVDir(src model.Source) (map[string]model.RawTable, error) {
	info, err := os.Stat(src.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV directory %s: %w", src.Path, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("CSV source %s is not a directory", src.Path)
	}

	tables := make(map[string]model.RawTable, len(model.SheetKeys))
	for _, key := range model.SheetKeys {
		name := tabName(src, key)
		if !strings.HasSuffix(strings.ToLower(name), ".csv") {
			name = strings.ToLower(name) + ".csv"
		}
		path := filepath.Join(src.Path, name)

		table, err := readCSVFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				fmt.Printf("⚠️  CSV file %s not found - continuing without %s\n", path, key)
				tables[key] = model.RawTable{}
				continue
			}
			return nil, err
		}
		tables[key] = table
		fmt.Printf("📄 CSV %s: %d rows read\n", path, len(table.Rows))
	}
	return tables, nil
}

func readCSVFile(path string) (model.RawTable, error) {
	file, err := os.Open(path)
	if err != nil {
		return model.RawTable{}, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return model.RawTable{}, fmt.Errorf("failed to read CSV %s: %w", path, err)
	}
	if len(records) == 0 {
		return model.RawTable{}, nil
	}

	headers := make([]string, len(records[0]))
	for i, h := range records[0] {
		headers[i] = strings.ReplaceAll(strings.TrimSpace(h), `"`, "")
	}
	return buildRawTable(headers, records[1:]), nil
}
