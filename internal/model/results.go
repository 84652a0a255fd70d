package model

// AnalyticsData is the fixed-shape result of one analytics run: the
// filtered base tables plus every computed aggregate. Consumers always get
// every table; tables with no data are empty but carry their column set.
type AnalyticsData struct {
	// Filtered base tables
	Deals    Table `json:"deals"`
	Meetings Table `json:"meetings"`
	Tasks    Table `json:"tasks"`
	Tickets  Table `json:"tickets"`
	Calls    Table `json:"calls"`
	Emails   Table `json:"emails"`
	Notes    Table `json:"notes"`

	// Activity counts
	ActivityCountsDaily   Table `json:"activity_counts_daily"`
	ActivityCountsWeekly  Table `json:"activity_counts_weekly"`
	ActivityCountsMonthly Table `json:"activity_counts_monthly"`
	ActivityLog           Table `json:"activity_log"`

	// Scores
	RepActivityScore      Table `json:"rep_activity_score"`
	RepActivityScoreTrend Table `json:"rep_activity_score_trend"`

	// Pipeline metrics
	ActivePipelineValue     Table `json:"active_pipeline_value"`
	DealsClosingThisQuarter Table `json:"deals_closing_this_quarter"`
	DealCountByStage        Table `json:"deal_count_by_stage"`
	AvgDaysInStage          Table `json:"avg_days_in_stage"`
	WinRate                 Table `json:"win_rate"`

	// Terminal metrics
	ClosedWonVsLost   Table `json:"closed_won_vs_lost"`
	NCRByPipeline     Table `json:"ncr_by_pipeline"`
	SalesOrderCreated Table `json:"sales_order_created"`
	AvgSalesCycle     Table `json:"avg_sales_cycle"`
}

// Tables returns every result table keyed by its public name, in a stable
// order matching TableNames.
func (d *AnalyticsData) Tables() map[string]Table {
	return map[string]Table{
		"deals":                      d.Deals,
		"meetings":                   d.Meetings,
		"tasks":                      d.Tasks,
		"tickets":                    d.Tickets,
		"calls":                      d.Calls,
		"emails":                     d.Emails,
		"notes":                      d.Notes,
		"activity_counts_daily":      d.ActivityCountsDaily,
		"activity_counts_weekly":     d.ActivityCountsWeekly,
		"activity_counts_monthly":    d.ActivityCountsMonthly,
		"activity_log":               d.ActivityLog,
		"rep_activity_score":         d.RepActivityScore,
		"rep_activity_score_trend":   d.RepActivityScoreTrend,
		"active_pipeline_value":      d.ActivePipelineValue,
		"deals_closing_this_quarter": d.DealsClosingThisQuarter,
		"deal_count_by_stage":        d.DealCountByStage,
		"avg_days_in_stage":          d.AvgDaysInStage,
		"win_rate":                   d.WinRate,
		"closed_won_vs_lost":         d.ClosedWonVsLost,
		"ncr_by_pipeline":            d.NCRByPipeline,
		"sales_order_created":        d.SalesOrderCreated,
		"avg_sales_cycle":            d.AvgSalesCycle,
	}
}

// TableNames is the stable order of result tables for exports and listings.
var TableNames = []string{
	"deals", "meetings", "tasks", "tickets", "calls", "emails", "notes",
	"activity_counts_daily", "activity_counts_weekly", "activity_counts_monthly",
	"activity_log",
	"rep_activity_score", "rep_activity_score_trend",
	"active_pipeline_value", "deals_closing_this_quarter", "deal_count_by_stage",
	"avg_days_in_stage", "win_rate",
	"closed_won_vs_lost", "ncr_by_pipeline", "sales_order_created", "avg_sales_cycle",
}
