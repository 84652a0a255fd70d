package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"crm-analytics-pipeline/internal/model"
	"crm-analytics-pipeline/internal/pipeline"
	"crm-analytics-pipeline/internal/store"
	"crm-analytics-pipeline/pkg/utils"
)

const runsPrefix = "/api/v1/runs/"

// runIDFromPath extracts the run ID between the runs prefix and an
// optional suffix like "/errors".
func runIDFromPath(path, suffix string) (string, bool) {
	if !strings.HasPrefix(path, runsPrefix) || !strings.HasSuffix(path, suffix) {
		return "", false
	}
	runID := path[len(runsPrefix) : len(path)-len(suffix)]
	return runID, runID != ""
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// CreateRun starts a new analytics run
// @Summary Create a new analytics run
// @Description Create and start an analytics run over a CRM workbook or CSV export
// @Tags runs
// @Accept json
// @Produce json
// @Param run body model.RunSpec true "Run configuration"
// @Success 200 {object} map[string]interface{} "Run created successfully"
// @Failure 400 {object} map[string]interface{} "Invalid request payload"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /runs [post]
func CreateRun(w http.ResponseWriter, r *http.Request) {
	var spec model.RunSpec
	if err := json.NewDecoder(r.Body).Decode(&spec); err != nil {
		http.Error(w, "Invalid JSON payload", http.StatusBadRequest)
		return
	}
	if spec.Source.Path == "" {
		http.Error(w, "Source path is required", http.StatusBadRequest)
		return
	}

	runID := uuid.New().String()

	if err := store.SaveRun(runID, spec); err != nil {
		http.Error(w, "Failed to save run", http.StatusInternalServerError)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), utils.ParseDuration(spec.Timeout))
	go func() {
		defer cancel()
		if err := pipeline.Run(ctx, runID, spec); err != nil {
			store.SaveRunError(runID, err)
		}
	}()

	writeJSON(w, map[string]interface{}{
		"message":   "Analytics run created successfully!",
		"runID":     runID,
		"status":    "pending",
		"createdAt": time.Now().UTC(),
	})
}

// ListRuns retrieves all analytics runs
// @Summary List all runs
// @Description Get all analytics runs with their current status
// @Tags runs
// @Produce json
// @Success 200 {array} map[string]interface{} "List of runs"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /runs [get]
func ListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := store.ListRuns()
	if err != nil {
		http.Error(w, "Failed to fetch runs", http.StatusInternalServerError)
		return
	}
	writeJSON(w, runs)
}

// GetRun retrieves a specific run
// @Summary Get run
// @Description Retrieve spec and status of a specific analytics run
// @Tags runs
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} map[string]interface{} "Run details"
// @Failure 404 {object} map[string]interface{} "Run not found"
// @Router /runs/{id} [get]
func GetRun(w http.ResponseWriter, r *http.Request) {
	runID, ok := runIDFromPath(r.URL.Path, "")
	if !ok {
		http.Error(w, "Run ID is required", http.StatusBadRequest)
		return
	}
	run, err := store.GetRun(runID)
	if err != nil {
		http.Error(w, "Run not found", http.StatusNotFound)
		return
	}
	writeJSON(w, run)
}

// GetRunErrors retrieves errors recorded during a run
// @Summary Get run errors
// @Description Retrieve all errors that occurred during a run
// @Tags runs
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} map[string]interface{} "Run errors"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /runs/{id}/errors [get]
func GetRunErrors(w http.ResponseWriter, r *http.Request) {
	runID, ok := runIDFromPath(r.URL.Path, "/errors")
	if !ok {
		http.Error(w, "Run ID is required", http.StatusBadRequest)
		return
	}
	errors, err := store.GetRunErrors(runID)
	if err != nil {
		http.Error(w, "Failed to retrieve errors", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]interface{}{
		"run_id": runID,
		"errors": errors,
		"count":  len(errors),
	})
}

// ListRunTables lists the result tables of a run
// @Summary List result tables
// @Description List every result table of a completed run with its row count
// @Tags tables
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} map[string]interface{} "Result tables"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /runs/{id}/tables [get]
func ListRunTables(w http.ResponseWriter, r *http.Request) {
	runID, ok := runIDFromPath(r.URL.Path, "/tables")
	if !ok {
		http.Error(w, "Run ID is required", http.StatusBadRequest)
		return
	}
	tables, err := store.ListResultTables(runID)
	if err != nil {
		http.Error(w, "Failed to retrieve tables", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]interface{}{
		"run_id": runID,
		"tables": tables,
		"count":  len(tables),
	})
}

// GetRunTable retrieves one result table of a run
// @Summary Get result table
// @Description Retrieve one named result table of a run, columns and rows
// @Tags tables
// @Produce json
// @Param id path string true "Run ID"
// @Param name path string true "Table name"
// @Success 200 {object} map[string]interface{} "Result table"
// @Failure 404 {object} map[string]interface{} "Table not found"
// @Router /runs/{id}/tables/{name} [get]
func GetRunTable(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, runsPrefix)
	parts := strings.Split(path, "/")
	if len(parts) != 3 || parts[0] == "" || parts[1] != "tables" || parts[2] == "" {
		http.Error(w, "Invalid path", http.StatusBadRequest)
		return
	}
	runID, name := parts[0], parts[2]

	table, err := store.GetResultTable(runID, name)
	if err != nil {
		http.Error(w, "Table not found", http.StatusNotFound)
		return
	}
	writeJSON(w, map[string]interface{}{
		"run_id": runID,
		"name":   name,
		"table":  table,
	})
}

// GetRunSummary retrieves a run summary
// @Summary Get run summary
// @Description Retrieve run status, stage progress, error count and result table row counts
// @Tags runs
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} map[string]interface{} "Run summary"
// @Failure 404 {object} map[string]interface{} "Run not found"
// @Router /runs/{id}/summary [get]
func GetRunSummary(w http.ResponseWriter, r *http.Request) {
	runID, ok := runIDFromPath(r.URL.Path, "/summary")
	if !ok {
		http.Error(w, "Run ID is required", http.StatusBadRequest)
		return
	}
	run, err := store.GetRun(runID)
	if err != nil {
		http.Error(w, "Run not found", http.StatusNotFound)
		return
	}

	stages, _ := store.GetStageProgress(runID)
	errors, _ := store.GetRunErrors(runID)
	tables, _ := store.ListResultTables(runID)

	writeJSON(w, map[string]interface{}{
		"run":         run,
		"stages":      stages,
		"error_count": len(errors),
		"tables":      tables,
	})
}

// RetryRun re-executes a run with its stored spec
// @Summary Retry run
// @Description Re-run an analytics run with the same configuration
// @Tags runs
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} map[string]interface{} "Retry initiated"
// @Failure 404 {object} map[string]interface{} "Run not found"
// @Router /runs/{id}/retry [post]
func RetryRun(w http.ResponseWriter, r *http.Request) {
	runID, ok := runIDFromPath(r.URL.Path, "/retry")
	if !ok {
		http.Error(w, "Run ID is required", http.StatusBadRequest)
		return
	}
	if _, err := store.GetRun(runID); err != nil {
		http.Error(w, "Run not found", http.StatusNotFound)
		return
	}

	go func() {
		if err := pipeline.RetryRun(runID); err != nil {
			fmt.Printf("❌ Retry failed for run %s: %v\n", runID, err)
		} else {
			fmt.Printf("✅ Retry successful for run %s\n", runID)
		}
	}()

	writeJSON(w, map[string]interface{}{
		"message": "Retry initiated",
		"run_id":  runID,
		"status":  "retrying",
	})
}
