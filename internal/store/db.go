package store

import (
	"database/sql"
	"encoding/json"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"crm-analytics-pipeline/internal/model"
)

var db *sql.DB

// InitDB opens the sqlite database and creates the schema if needed.
func InitDB(dbPath string) error {
	var err error
	db, err = sql.Open("sqlite3", dbPath)
	if err != nil {
		return err
	}

	runTable := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		spec TEXT,
		status TEXT,
		created_at DATETIME,
		updated_at DATETIME
	);
	`
	errorTable := `
	CREATE TABLE IF NOT EXISTS run_errors (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT,
		error_message TEXT,
		created_at DATETIME
	);
	`
	stageTable := `
	CREATE TABLE IF NOT EXISTS run_stages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT,
		stage TEXT,
		status TEXT,
		started_at DATETIME,
		completed_at DATETIME
	);
	`
	resultTable := `
	CREATE TABLE IF NOT EXISTS result_tables (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT,
		name TEXT,
		row_count INTEGER,
		payload TEXT,
		created_at DATETIME,
		UNIQUE(run_id, name)
	);
	`

	for _, stmt := range []string{runTable, errorTable, stageTable, resultTable} {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// SaveRun stores a new analytics run in pending state.
func SaveRun(runID string, spec model.RunSpec) error {
	specJSON, err := json.Marshal(spec)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	_, err = db.Exec(`INSERT INTO runs (id, spec, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		runID, specJSON, "pending", now, now)
	return err
}

// UpdateRunStatus updates the run's status.
func UpdateRunStatus(runID string, status string) error {
	now := time.Now().UTC()
	_, err := db.Exec(`UPDATE runs SET status = ?, updated_at = ? WHERE id = ?`, status, now, runID)
	return err
}

// SaveRunError records an error for a run.
func SaveRunError(runID string, err error) error {
	if err == nil {
		return nil
	}
	now := time.Now().UTC()
	_, e := db.Exec(`INSERT INTO run_errors (run_id, error_message, created_at) VALUES (?, ?, ?)`,
		runID, err.Error(), now)
	return e
}

// SaveStageProgress records a stage transition for a run.
func SaveStageProgress(runID, stage, status string, startedAt *time.Time, completedAt *time.Time) error {
	_, err := db.Exec(`INSERT INTO run_stages (run_id, stage, status, started_at, completed_at) VALUES (?, ?, ?, ?, ?)`,
		runID, stage, status, startedAt, completedAt)
	return err
}

// SaveResultTables stores every result table of a completed run as JSON.
func SaveResultTables(runID string, tables map[string]model.Table) error {
	now := time.Now().UTC()
	for name, table := range tables {
		payload, err := json.Marshal(table)
		if err != nil {
			return err
		}
		_, err = db.Exec(`INSERT OR REPLACE INTO result_tables (run_id, name, row_count, payload, created_at) VALUES (?, ?, ?, ?, ?)`,
			runID, name, table.Len(), payload, now)
		if err != nil {
			return err
		}
	}
	return nil
}

// ListRuns returns all runs with basic info, newest first.
func ListRuns() ([]map[string]interface{}, error) {
	rows, err := db.Query(`SELECT id, status, created_at, updated_at FROM runs ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []map[string]interface{}
	for rows.Next() {
		var id, status string
		var createdAt, updatedAt time.Time
		if err := rows.Scan(&id, &status, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		runs = append(runs, map[string]interface{}{
			"id":        id,
			"status":    status,
			"createdAt": createdAt,
			"updatedAt": updatedAt,
		})
	}
	return runs, nil
}

// GetRun fetches the full run spec and status.
func GetRun(runID string) (map[string]interface{}, error) {
	var specJSON string
	var status string
	var createdAt, updatedAt time.Time

	err := db.QueryRow(`SELECT spec, status, created_at, updated_at FROM runs WHERE id = ?`, runID).
		Scan(&specJSON, &status, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	var spec model.RunSpec
	if err := json.Unmarshal([]byte(specJSON), &spec); err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"id":        runID,
		"spec":      spec,
		"status":    status,
		"createdAt": createdAt,
		"updatedAt": updatedAt,
	}, nil
}

// GetRunSpec fetches just the spec of a run, for retries.
func GetRunSpec(runID string) (model.RunSpec, error) {
	var specJSON string
	err := db.QueryRow(`SELECT spec FROM runs WHERE id = ?`, runID).Scan(&specJSON)
	if err != nil {
		return model.RunSpec{}, err
	}
	var spec model.RunSpec
	if err := json.Unmarshal([]byte(specJSON), &spec); err != nil {
		return model.RunSpec{}, err
	}
	return spec, nil
}

// GetRunErrors returns all recorded errors for a run.
func GetRunErrors(runID string) ([]map[string]interface{}, error) {
	rows, err := db.Query(`SELECT error_message, created_at FROM run_errors WHERE run_id = ? ORDER BY created_at`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var errors []map[string]interface{}
	for rows.Next() {
		var msg string
		var createdAt time.Time
		if err := rows.Scan(&msg, &createdAt); err != nil {
			return nil, err
		}
		errors = append(errors, map[string]interface{}{
			"message":   msg,
			"createdAt": createdAt,
		})
	}
	return errors, nil
}

// GetStageProgress returns all stage transitions for a run.
func GetStageProgress(runID string) ([]map[string]interface{}, error) {
	rows, err := db.Query(`SELECT stage, status, started_at, completed_at FROM run_stages WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stages []map[string]interface{}
	for rows.Next() {
		var stage, status string
		var startedAt, completedAt sql.NullTime
		if err := rows.Scan(&stage, &status, &startedAt, &completedAt); err != nil {
			return nil, err
		}
		entry := map[string]interface{}{
			"stage":  stage,
			"status": status,
		}
		if startedAt.Valid {
			entry["startedAt"] = startedAt.Time
		}
		if completedAt.Valid {
			entry["completedAt"] = completedAt.Time
		}
		stages = append(stages, entry)
	}
	return stages, nil
}

// ListResultTables returns name and row count of every result table of a run.
func ListResultTables(runID string) ([]map[string]interface{}, error) {
	rows, err := db.Query(`SELECT name, row_count, created_at FROM result_tables WHERE run_id = ? ORDER BY name`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []map[string]interface{}
	for rows.Next() {
		var name string
		var rowCount int
		var createdAt time.Time
		if err := rows.Scan(&name, &rowCount, &createdAt); err != nil {
			return nil, err
		}
		tables = append(tables, map[string]interface{}{
			"name":      name,
			"rowCount":  rowCount,
			"createdAt": createdAt,
		})
	}
	return tables, nil
}

// GetResultTable fetches one result table of a run by name.
func GetResultTable(runID, name string) (model.Table, error) {
	var payload string
	err := db.QueryRow(`SELECT payload FROM result_tables WHERE run_id = ? AND name = ?`, runID, name).Scan(&payload)
	if err != nil {
		return model.Table{}, err
	}
	var table model.Table
	if err := json.Unmarshal([]byte(payload), &table); err != nil {
		return model.Table{}, err
	}
	return table, nil
}
