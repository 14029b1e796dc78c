package app

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"stockgravity/cache"
	"stockgravity/collector"
	"stockgravity/config"
	"stockgravity/database"
	"stockgravity/indicator"
	"stockgravity/report"
	"stockgravity/scoring"
)

// Pipeline defaults.
const (
	DefaultPoolSize     = 500
	DefaultLookbackDays = 60
	monitoringTopN      = 100
	reportTopN          = 20
	barsPerPage         = 10
	refreshWorkers      = 4
)

// Pipeline runs the daily scoring cycle: refresh bars, snapshot yesterday's
// pool, rescore the universe, and rebuild the monitoring history.
type Pipeline struct {
	scorer    *scoring.Scorer
	pool      *database.PoolRepository
	history   *database.HistoryRepository
	maint     *database.MaintenanceDB
	collector *collector.NaverClient
	poolCache *cache.PoolCache
	generator *report.Generator

	poolSize int
	lookback int
}

// NewPipeline wires a pipeline. The collector may be nil to score from
// already collected bars only.
func NewPipeline(params config.ScoringParams, pool *database.PoolRepository, history *database.HistoryRepository,
	maint *database.MaintenanceDB, naver *collector.NaverClient, poolCache *cache.PoolCache) *Pipeline {
	return &Pipeline{
		scorer:    scoring.NewScorer(params),
		pool:      pool,
		history:   history,
		maint:     maint,
		collector: naver,
		poolCache: poolCache,
		poolSize:  DefaultPoolSize,
		lookback:  DefaultLookbackDays,
	}
}

// SetGenerator enables the report generation step of the run.
func (p *Pipeline) SetGenerator(g *report.Generator) {
	p.generator = g
}

// SetPoolSize overrides how many candidates a run keeps.
func (p *Pipeline) SetPoolSize(n int) {
	if n > 0 {
		p.poolSize = n
	}
}

// SetLookback overrides how many days of bars the run refreshes.
func (p *Pipeline) SetLookback(days int) {
	if days > 0 {
		p.lookback = days
	}
}

// Run executes one scoring cycle for the given run date.
func (p *Pipeline) Run(ctx context.Context, runDate time.Time) error {
	runID := uuid.New().String()[:8]
	started := time.Now()
	log.Printf("🚀 [%s] Scoring run started for %s", runID, runDate.Format("2006-01-02"))

	tickers, err := p.history.Tickers()
	if err != nil {
		return err
	}
	log.Printf("📊 [%s] Universe: %d tickers", runID, len(tickers))

	// 1. Refresh daily bars and investor flows.
	if p.collector != nil {
		p.refresh(ctx, runID, tickers)
	}

	// 2. Archive yesterday's pool before touching it.
	snapshotted, err := p.maint.Snapshot(ctx, runDate)
	if err != nil {
		return err
	}
	log.Printf("📊 [%s] Snapshotted %d pool rows", runID, snapshotted)

	// 3. Clear monitoring rows; approved and later stages survive.
	cleared, err := p.maint.ClearMonitoring(ctx)
	if err != nil {
		return err
	}
	log.Printf("📊 [%s] Cleared %d monitoring rows", runID, cleared)

	// 4. Score the universe and keep the top of the ranking.
	candidates, err := p.score(ctx, tickers)
	if err != nil {
		return err
	}
	if len(candidates) > p.poolSize {
		candidates = candidates[:p.poolSize]
	}

	entries := make([]database.StockPool, len(candidates))
	for i, c := range candidates {
		entries[i] = database.StockPool{
			Ticker:       c.Ticker,
			Name:         c.Name,
			Close:        c.Close,
			TradingValue: c.TradingValue,
			Change5d:     c.Change5d,
			VolRatio:     c.VolRatio,
			FinalScore:   c.FinalScore,
			Status:       database.StatusMonitoring,
			AddedDate:    runDate,
		}
	}
	if err := p.pool.UpsertCandidates(entries); err != nil {
		return err
	}
	log.Printf("📊 [%s] Pool rebuilt with %d candidates", runID, len(entries))

	// 5. Rebuild derived history for the top of the pool.
	if err := p.populateMonitoringHistory(runDate); err != nil {
		return err
	}

	// 6. Keep monitored-day counters consistent with the snapshot chain.
	if err := p.maint.RefreshMonitoredDays(ctx); err != nil {
		return err
	}

	// 7. Generate reports for the top unanalyzed candidates and reconcile
	// report statuses with the rebuilt pool.
	if p.generator != nil {
		top := entries
		if len(top) > reportTopN {
			top = top[:reportTopN]
		}
		if _, err := p.generator.GenerateForEntries(ctx, top, runDate); err != nil {
			log.Printf("⚠️ [%s] Report generation incomplete: %v", runID, err)
		}
		if _, _, _, err := p.maint.SyncReportStatuses(ctx); err != nil {
			return err
		}
	}

	if p.poolCache != nil {
		p.poolCache.Invalidate(ctx)
	}

	log.Printf("✅ [%s] Scoring run finished in %s", runID, time.Since(started).Round(time.Millisecond))
	return nil
}

// refresh re-collects recent bars and flows over a bounded worker pool,
// logging and skipping tickers that fail rather than aborting the run.
func (p *Pipeline) refresh(ctx context.Context, runID string, tickers []string) {
	pages := (p.lookback + barsPerPage - 1) / barsPerPage

	var refreshed atomic.Int64
	var wg sync.WaitGroup
	sem := make(chan struct{}, refreshWorkers)

	for _, ticker := range tickers {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(ticker string) {
			defer wg.Done()
			defer func() { <-sem }()

			bars, err := p.collector.FetchDailyPrices(ctx, ticker, pages)
			if err != nil {
				log.Printf("⚠️ [%s] Bar refresh failed for %s: %v", runID, ticker, err)
				return
			}
			if err := p.history.UpsertDailyPrices(bars); err != nil {
				log.Printf("⚠️ [%s] Bar upsert failed for %s: %v", runID, ticker, err)
				return
			}

			flows, err := p.collector.FetchInvestorFlows(ctx, ticker)
			if err == nil {
				if err := p.history.UpsertInvestorFlows(flows); err != nil {
					log.Printf("⚠️ [%s] Flow upsert failed for %s: %v", runID, ticker, err)
				}
			}
			refreshed.Add(1)
		}(ticker)
	}
	wg.Wait()
	log.Printf("📊 [%s] Refreshed bars for %d/%d tickers", runID, refreshed.Load(), len(tickers))
}

// score computes metrics per ticker and runs the composite scorer. Names
// are carried over from the previous pool entry when known, scraped for
// tickers new to the pool, and fall back to the ticker itself.
func (p *Pipeline) score(ctx context.Context, tickers []string) ([]scoring.Candidate, error) {
	names := p.knownNames()

	var universe []scoring.Metrics
	for _, ticker := range tickers {
		bars, err := p.history.GetBars(ticker, p.lookback)
		if err != nil {
			return nil, err
		}
		name := names[ticker]
		if name == "" && p.collector != nil {
			if fetched, err := p.collector.FetchName(ctx, ticker); err == nil {
				name = fetched
			}
		}
		if name == "" {
			name = ticker
		}
		if m, ok := p.scorer.ComputeMetrics(ticker, name, bars); ok {
			universe = append(universe, m)
		}
	}
	return p.scorer.Score(universe), nil
}

func (p *Pipeline) knownNames() map[string]string {
	names := make(map[string]string)
	entries, err := p.pool.GetPool(database.PoolFilter{})
	if err != nil {
		return names
	}
	for _, e := range entries {
		names[e.Ticker] = e.Name
	}
	return names
}

// populateMonitoringHistory rebuilds per-day indicator rows for the top
// monitoring tickers over the lookback window.
func (p *Pipeline) populateMonitoringHistory(runDate time.Time) error {
	tickers, err := p.pool.TopMonitoringTickers(runDate, monitoringTopN)
	if err != nil {
		return err
	}

	for _, ticker := range tickers {
		bars, err := p.history.GetBars(ticker, p.lookback+20)
		if err != nil {
			return err
		}
		rows := buildMonitoringRows(bars, p.lookback)
		if err := p.history.UpsertMonitoringHistory(rows); err != nil {
			return err
		}
	}
	log.Printf("📊 Monitoring history rebuilt for %d tickers", len(tickers))
	return nil
}

// buildMonitoringRows derives indicator columns for the trailing days of a
// bar series. Earlier bars only feed the moving windows.
func buildMonitoringRows(bars []database.DailyPrice, days int) []database.MonitoringHistory {
	if len(bars) == 0 {
		return nil
	}

	closes := make([]float64, len(bars))
	volumes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
		volumes[i] = float64(b.Volume)
	}

	start := len(bars) - days
	if start < 0 {
		start = 0
	}

	rows := make([]database.MonitoringHistory, 0, len(bars)-start)
	for i := start; i < len(bars); i++ {
		row := database.MonitoringHistory{
			Ticker: bars[i].Ticker,
			Date:   bars[i].Date,
			Open:   bars[i].Open,
			High:   bars[i].High,
			Low:    bars[i].Low,
			Close:  bars[i].Close,
			Volume: bars[i].Volume,
		}

		if i > 0 && closes[i-1] != 0 {
			change := (closes[i] - closes[i-1]) / closes[i-1] * 100
			row.PriceChange = &change
		}
		if i > 0 && volumes[i-1] != 0 {
			change := (volumes[i] - volumes[i-1]) / volumes[i-1] * 100
			row.VolumeChange = &change
		}
		if ma5 := indicator.SMA(closes[:i+1], 5); ma5 > 0 {
			v := ma5
			row.MA5 = &v
		}
		if ma20 := indicator.SMA(closes[:i+1], 20); ma20 > 0 {
			v := ma20
			row.MA20 = &v
		}
		if i+1 >= 15 {
			v := indicator.RSI(closes[:i+1], 14)
			row.RSI = &v
		}

		rows = append(rows, row)
	}
	return rows
}
