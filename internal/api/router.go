package api

import (
	httpSwagger "github.com/swaggo/http-swagger"

	"crm-analytics-pipeline/internal/api/handler"
	"crm-analytics-pipeline/pkg/router"
)

func RegisterRoutes(r *router.Router) {
	r.POST("/api/v1/runs", handler.CreateRun)
	r.GET("/api/v1/runs", handler.ListRuns)
	// More specific routes first
	r.GET("/api/v1/runs/*/errors", handler.GetRunErrors)
	r.GET("/api/v1/runs/*/tables", handler.ListRunTables)
	r.GET("/api/v1/runs/*/tables/*", handler.GetRunTable)
	r.GET("/api/v1/runs/*/summary", handler.GetRunSummary)
	r.POST("/api/v1/runs/*/retry", handler.RetryRun)
	// Generic run route last
	r.GET("/api/v1/runs/*", handler.GetRun)

	r.Mount("/swagger/", httpSwagger.WrapHandler)
}
