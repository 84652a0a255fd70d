package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"crm-analytics-pipeline/internal/model"
	"crm-analytics-pipeline/internal/pipeline"
	"crm-analytics-pipeline/internal/store"
)

func main() {
	godotenv.Load()

	sourcePath := flag.String("source", "", "workbook path or CSV directory")
	sourceType := flag.String("type", "xlsx", "source type: xlsx or csv")
	headerRow := flag.Int("header-row", 0, "1-based header row (0 = default)")
	configPath := flag.String("config", os.Getenv("ANALYTICS_SCOPE_CONFIG"), "scope config JSON path")
	outDir := flag.String("out", "outputs", "export directory")
	dbPath := flag.String("db", envOr("ANALYTICS_DB", "analytics.db"), "sqlite database path")
	timeout := flag.String("timeout", "5m", "run timeout, e.g. 5m")
	flag.Parse()

	if *sourcePath == "" {
		fmt.Println("Usage: analytics -source <workbook.xlsx | csv-dir> [-type xlsx|csv]")
		os.Exit(2)
	}

	if err := store.InitDB(*dbPath); err != nil {
		fmt.Printf("❌ Failed to open database: %v\n", err)
		os.Exit(1)
	}

	spec := model.RunSpec{
		Source: model.Source{
			Type:      *sourceType,
			Path:      *sourcePath,
			HeaderRow: *headerRow,
		},
		ScopeConfigPath: *configPath,
		Export:          &model.Export{Dir: *outDir, JSONSummary: true},
		Timeout:         *timeout,
	}

	runID := uuid.New().String()
	if err := store.SaveRun(runID, spec); err != nil {
		fmt.Printf("❌ Failed to save run: %v\n", err)
		os.Exit(1)
	}

	if err := pipeline.Run(context.Background(), runID, spec); err != nil {
		fmt.Printf("❌ Run failed: %v\n", err)
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
