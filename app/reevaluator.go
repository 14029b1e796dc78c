package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"stockgravity/database"
	"stockgravity/indicator"
)

// Re-evaluation thresholds for approved entries.
const (
	graceDays        = 3
	maxHoldDays      = 7
	scoreDropPercent = -20
	overboughtRSI    = 75
	volumeDropRatio  = 0.5
	topPoolSize      = 100
)

// EvalInput is the snapshot of facts the re-evaluation rules run against.
type EvalInput struct {
	DaysHeld     int
	InitialScore float64
	CurrentScore float64
	Close        float64
	MA5          float64
	RSI          float64
	Vol3dAvg     float64
	Vol60dAvg    float64
	InTopPool    bool
}

// EvaluateApproved applies the drop rules to one approved entry and returns
// whether it should be dropped together with every rule that fired.
//
// Entries inside the grace period are never dropped, regardless of how the
// other rules would score them.
func EvaluateApproved(in EvalInput) (bool, []string) {
	if in.DaysHeld < graceDays {
		return false, nil
	}

	var reasons []string

	if in.DaysHeld >= maxHoldDays {
		reasons = append(reasons,
			fmt.Sprintf("최대 보유 기간 초과 (%d일 >= %d일)", in.DaysHeld, maxHoldDays))
	}

	if in.InitialScore > 0 {
		change := (in.CurrentScore - in.InitialScore) / in.InitialScore * 100
		if change < scoreDropPercent {
			reasons = append(reasons,
				fmt.Sprintf("점수 20%% 이상 하락 (%.1f%%)", change))
		}
	}

	if in.RSI > overboughtRSI && in.MA5 > 0 && in.Close < in.MA5 {
		reasons = append(reasons,
			fmt.Sprintf("과매수 + 하락 신호 (RSI=%.1f > %d, 종가 < MA5)", in.RSI, overboughtRSI))
	}

	if in.Vol60dAvg > 0 && in.Vol3dAvg < in.Vol60dAvg*volumeDropRatio {
		reasons = append(reasons,
			fmt.Sprintf("거래량 급감 (3일 평균 = 60일 평균의 %.1f%%)",
				in.Vol3dAvg/in.Vol60dAvg*100))
	}

	if !in.InTopPool {
		reasons = append(reasons, fmt.Sprintf("Stock Pool Top %d 탈락", topPoolSize))
	}

	return len(reasons) > 0, reasons
}

// Reevaluator drops approved entries that no longer justify their slot and
// keeps the AI report mirror in sync afterwards.
type Reevaluator struct {
	pool    *database.PoolRepository
	history *database.HistoryRepository
	maint   *database.MaintenanceDB
}

// NewReevaluator creates a re-evaluator over the given repositories.
func NewReevaluator(pool *database.PoolRepository, history *database.HistoryRepository, maint *database.MaintenanceDB) *Reevaluator {
	return &Reevaluator{pool: pool, history: history, maint: maint}
}

// Run re-evaluates every approved entry, rejects the ones that fail, and
// syncs report statuses when anything was dropped. Returns the dropped
// ticker count.
func (r *Reevaluator) Run(ctx context.Context, today time.Time) (int, error) {
	entries, err := r.pool.GetByStatus(database.StatusApproved)
	if err != nil {
		return 0, err
	}
	if len(entries) == 0 {
		log.Println("📊 Re-evaluation: no approved entries")
		return 0, nil
	}

	topTickers, err := r.pool.TopMonitoringTickers(today, topPoolSize)
	if err != nil {
		return 0, err
	}
	topSet := make(map[string]bool, len(topTickers))
	for _, t := range topTickers {
		topSet[t] = true
	}

	dropped := 0
	for _, entry := range entries {
		in, err := r.gather(entry, today, topSet)
		if err != nil {
			log.Printf("⚠️ Re-evaluation skipped %s: %v", entry.Ticker, err)
			continue
		}

		drop, reasons := EvaluateApproved(in)
		if !drop {
			continue
		}

		note := database.RejectionNote(reasons)
		if _, err := r.pool.Reject(entry.Ticker, note); err != nil {
			log.Printf("⚠️ Re-evaluation failed to reject %s: %v", entry.Ticker, err)
			continue
		}
		log.Printf("🔴 Dropped %s: %s", entry.Ticker, note)
		dropped++
	}

	if dropped > 0 {
		if _, _, _, err := r.maint.SyncReportStatuses(ctx); err != nil {
			return dropped, err
		}
	}
	log.Printf("📊 Re-evaluation done: %d/%d dropped", dropped, len(entries))
	return dropped, nil
}

// gather assembles the rule inputs for one approved entry.
func (r *Reevaluator) gather(entry database.StockPool, today time.Time, topSet map[string]bool) (EvalInput, error) {
	in := EvalInput{
		CurrentScore: entry.FinalScore,
		Close:        entry.Close,
		InTopPool:    topSet[entry.Ticker],
	}

	if entry.ApprovedDate != nil {
		in.DaysHeld = int(today.Sub(*entry.ApprovedDate).Hours() / 24)
	}

	// Score at approval time comes from the pool snapshot taken on the
	// approval date; a missing snapshot falls back to the current score.
	in.InitialScore = entry.FinalScore
	if entry.ApprovedDate != nil {
		if score, err := r.history.SnapshotScore(entry.Ticker, dateOnly(*entry.ApprovedDate)); err == nil {
			in.InitialScore = score
		}
	}

	bars, err := r.history.GetBars(entry.Ticker, 60)
	if err != nil {
		return in, err
	}
	if len(bars) > 0 {
		closes := make([]float64, len(bars))
		volumes := make([]float64, len(bars))
		for i, b := range bars {
			closes[i] = b.Close
			volumes[i] = float64(b.Volume)
		}
		in.Close = closes[len(closes)-1]
		in.MA5 = indicator.SMA(closes, 5)
		in.RSI = indicator.RSI(closes, 14)
		in.Vol3dAvg = indicator.SMA(volumes, 3)
		in.Vol60dAvg = indicator.SMA(volumes, 60)
		if in.Vol60dAvg == 0 {
			// Under 60 bars of history, compare against what exists.
			in.Vol60dAvg = indicator.SMA(volumes, len(volumes))
		}
	}

	return in, nil
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
