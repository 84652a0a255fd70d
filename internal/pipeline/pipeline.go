package pipeline

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"crm-analytics-pipeline/internal/model"
	"crm-analytics-pipeline/internal/source"
	"crm-analytics-pipeline/internal/store"
	"crm-analytics-pipeline/pkg/utils"
)

// Run executes one analytics run end to end: load the source sheets,
// normalize and resolve them, apply scope filters, compute every metric
// table, persist the results and export them. A source that cannot be
// read fails the whole run; individual missing sheets or columns only
// degrade it.
func Run(ctx context.Context, runID string, spec model.RunSpec) (err error) {
	start := time.Now()
	fmt.Printf("🚀 Starting analytics run: %s\n", runID)

	store.UpdateRunStatus(runID, "running")

	defer func() {
		if err != nil {
			store.UpdateRunStatus(runID, "failed")
			store.SaveRunError(runID, err)
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, utils.ParseDuration(spec.Timeout))
	defer cancel()

	cfg, err := model.LoadScopeConfig(spec.ScopeConfigPath)
	if err != nil {
		return err
	}

	errorCh := make(chan error, 64)
	var logWg sync.WaitGroup
	logWg.Add(1)
	go func() {
		defer logWg.Done()
		for e := range errorCh {
			log.Printf("❌ Error in run %s: %v\n", runID, e)
			store.SaveRunError(runID, e)
		}
	}()

	// --- LOAD STAGE ---
	loadStart := time.Now()
	store.UpdateRunStatus(runID, "loading")
	store.SaveStageProgress(runID, "load", "started", &loadStart, nil)

	raw, err := source.Load(spec.Source)
	if err != nil {
		close(errorCh)
		logWg.Wait()
		return fmt.Errorf("source load failed: %w", err)
	}
	loadEnd := time.Now()
	store.SaveStageProgress(runID, "load", "completed", &loadStart, &loadEnd)

	// --- PREPARE STAGE ---
	prepStart := time.Now()
	fmt.Println("🔄 Starting prepare stage...")
	store.UpdateRunStatus(runID, "preparing")
	store.SaveStageProgress(runID, "prepare", "started", &prepStart, nil)

	tables := prepareTables(ctx, raw, cfg, errorCh)

	prepEnd := time.Now()
	store.SaveStageProgress(runID, "prepare", "completed", &prepStart, &prepEnd)
	fmt.Println("✅ Prepare stage complete.")

	// --- METRICS STAGE ---
	metricsStart := time.Now()
	fmt.Println("📊 Starting metrics stage...")
	store.UpdateRunStatus(runID, "computing")
	store.SaveStageProgress(runID, "metrics", "started", &metricsStart, nil)

	// Quarter and overdue boundaries follow the configured timezone.
	now := time.Now()
	if loc, locErr := time.LoadLocation(cfg.Timezone); locErr == nil {
		now = now.In(loc)
	} else {
		errorCh <- fmt.Errorf("invalid timezone %q, using local time: %w", cfg.Timezone, locErr)
	}
	data := BuildAnalytics(tables, cfg, now)

	metricsEnd := time.Now()
	store.SaveStageProgress(runID, "metrics", "completed", &metricsStart, &metricsEnd)
	fmt.Println("✅ Metrics stage complete.")

	select {
	case <-ctx.Done():
		close(errorCh)
		logWg.Wait()
		return fmt.Errorf("run cancelled: %w", ctx.Err())
	default:
	}

	// --- EXPORT STAGE ---
	fmt.Println("💾 Starting export stage...")
	store.UpdateRunStatus(runID, "exporting")

	if err := store.SaveResultTables(runID, data.Tables()); err != nil {
		errorCh <- fmt.Errorf("failed to save result tables: %w", err)
	}
	if spec.Export != nil {
		ExportResults(runID, data, *spec.Export, errorCh)
	}

	close(errorCh)
	logWg.Wait()

	duration := time.Since(start)
	fmt.Printf("🏁 Analytics run completed: %s in %v\n", runID, duration)

	store.UpdateRunStatus(runID, "completed")
	return nil
}

// prepareTables normalizes every sheet concurrently, then resolves owner
// names and deduplicates meetings and emails.
func prepareTables(ctx context.Context, raw map[string]model.RawTable, cfg model.ScopeConfig, errorCh chan<- error) map[string]model.Table {
	tables := make(map[string]model.Table, len(model.SheetKeys))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, key := range model.SheetKeys {
		wg.Add(1)
		go func(key string) {
			defer wg.Done()
			select {
			case <-ctx.Done():
				return
			default:
			}
			t := Normalize(raw[key])
			mu.Lock()
			tables[key] = t
			mu.Unlock()
			fmt.Printf("🔄 Normalized %s: %d rows, %d columns\n", key, t.Len(), len(t.Columns))
		}(key)
	}
	wg.Wait()

	// Owner resolution needs the meeting sheet first: the ID map is seeded
	// from config and enriched from meeting rows.
	idMap := BuildOwnerIDMap(tables["meetings"], cfg)
	for _, key := range model.SheetKeys {
		tables[key] = ResolveOwners(tables[key], key, idMap)
	}

	tables["meetings"] = DedupeMeetings(tables["meetings"])
	tables["emails"] = DedupeEmails(tables["emails"])
	return tables
}

// BuildAnalytics computes the full result set from prepared sheet tables.
// It is pure: no store, no clock other than the passed reference time.
func BuildAnalytics(tables map[string]model.Table, cfg model.ScopeConfig, now time.Time) *model.AnalyticsData {
	deals := ApplyDealFilters(tables["deals"], cfg)
	meetings := ApplyActivityFilters(tables["meetings"], cfg)
	tasks := ApplyActivityFilters(tables["tasks"], cfg)
	tickets := ApplyActivityFilters(tables["tickets"], cfg)
	calls := ApplyActivityFilters(tables["calls"], cfg)
	emails := ApplyActivityFilters(tables["emails"], cfg)
	notes := ApplyActivityFilters(tables["notes"], cfg)

	counts := CountActivities(calls, meetings, tasks, emails, now)

	return &model.AnalyticsData{
		Deals:    deals,
		Meetings: meetings,
		Tasks:    tasks,
		Tickets:  tickets,
		Calls:    calls,
		Emails:   emails,
		Notes:    notes,

		ActivityCountsDaily:   counts.Daily,
		ActivityCountsWeekly:  counts.Weekly,
		ActivityCountsMonthly: counts.Monthly,
		ActivityLog:           BuildActivityLog(calls, meetings, tasks, emails),

		RepActivityScore:      ComputeActivityScore(counts.Weekly, cfg),
		RepActivityScoreTrend: ComputeActivityScoreByPeriod(counts.Weekly, "period_week", cfg),

		ActivePipelineValue:     ActivePipelineValue(deals, cfg),
		DealsClosingThisQuarter: DealsClosingThisQuarter(deals, cfg, now),
		DealCountByStage:        DealCountByStage(deals),
		AvgDaysInStage:          AvgDaysInStage(deals, now),
		WinRate:                 WinRate(deals, cfg),

		ClosedWonVsLost:   ClosedWonVsLost(deals, cfg),
		NCRByPipeline:     NCRByPipeline(deals, cfg),
		SalesOrderCreated: SalesOrderCreated(deals, cfg),
		AvgSalesCycle:     AvgSalesCycle(deals, cfg),
	}
}

// RetryRun re-executes a stored run with its original spec.
func RetryRun(runID string) error {
	spec, err := store.GetRunSpec(runID)
	if err != nil {
		return fmt.Errorf("failed to load run spec: %w", err)
	}
	fmt.Printf("🔁 Retrying run: %s\n", runID)
	store.UpdateRunStatus(runID, "pending")
	return Run(context.Background(), runID, spec)
}
