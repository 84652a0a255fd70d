package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	_ "crm-analytics-pipeline/docs"
	"crm-analytics-pipeline/internal/api"
	"crm-analytics-pipeline/internal/store"
	"crm-analytics-pipeline/pkg/router"
)

// @title CRM Sales Analytics API
// @version 1.0
// @description Run sales analytics over CRM workbook exports and query the result tables.
// @BasePath /api/v1
func main() {
	// Optional .env for local overrides
	if err := godotenv.Load(); err == nil {
		fmt.Println("📋 Loaded configuration from .env")
	}

	dbPath := os.Getenv("ANALYTICS_DB")
	if dbPath == "" {
		dbPath = "analytics.db"
	}
	if err := store.InitDB(dbPath); err != nil {
		panic(err)
	}

	addr := os.Getenv("ANALYTICS_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	r := router.New()
	api.RegisterRoutes(r)
	r.Start(addr)
}
