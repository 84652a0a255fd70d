package pipeline

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"crm-analytics-pipeline/internal/model"
	"crm-analytics-pipeline/pkg/utils"
)

// ExportResults writes every result table of a run as CSV into the run's
// output directory, plus an optional JSON summary of the whole result set.
// Export failures are reported per file and never fail the run.
func ExportResults(runID string, data *model.AnalyticsData, export model.Export, errorCh chan<- error) {
	om := utils.NewOutputManager(export.Dir)
	tables := data.Tables()

	exported := 0
	for _, name := range model.TableNames {
		path, err := om.GetOutputFilePath(runID, name+".csv")
		if err != nil {
			errorCh <- err
			return
		}
		if err := writeTableCSV(path, tables[name]); err != nil {
			errorCh <- fmt.Errorf("failed to export %s: %w", name, err)
			continue
		}
		exported++
		fmt.Printf("✅ Export (%s): %d rows written to %s\n", om.GetFileType(path), tables[name].Len(), path)
	}

	if export.JSONSummary {
		path, err := om.GetOutputFilePath(runID, "summary.json")
		if err != nil {
			errorCh <- err
			return
		}
		if err := writeJSONSummary(path, runID, data); err != nil {
			errorCh <- fmt.Errorf("failed to export summary: %w", err)
		} else {
			fmt.Printf("✅ Export (%s): summary written to %s\n", om.GetFileType(path), path)
		}
	}

	fmt.Printf("💾 Export Summary: %d tables exported for run %s\n", exported, runID)
}

func writeTableCSV(path string, t model.Table) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write(t.Columns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, rec := range t.Rows {
		row := make([]string, len(t.Columns))
		for i, col := range t.Columns {
			row[i] = formatCell(rec[col])
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	return nil
}

func formatCell(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case time.Time:
		return val.Format("2006-01-02 15:04:05")
	default:
		return fmt.Sprintf("%v", val)
	}
}

func writeJSONSummary(path, runID string, data *model.AnalyticsData) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	rowCounts := make(map[string]int, len(model.TableNames))
	for name, t := range data.Tables() {
		rowCounts[name] = t.Len()
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	return encoder.Encode(map[string]interface{}{
		"export_info": map[string]interface{}{
			"run_id":      runID,
			"exported_at": time.Now().UTC(),
			"tables":      rowCounts,
		},
		"data": data,
	})
}
