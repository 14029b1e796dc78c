package report

import (
	"context"
	"errors"
	"log"
	"time"

	"stockgravity/database"
	"stockgravity/indicator"
	"stockgravity/llm"
	"stockgravity/scoring"
)

const (
	maxAttempts    = 3
	initialBackoff = 10 * time.Second
)

// Generator produces AI analysis reports for pool entries and persists them.
type Generator struct {
	client   *llm.Client
	reports  *database.ReportRepository
	history  *database.HistoryRepository
	interval time.Duration
}

// NewGenerator creates a report generator. The interval spaces out
// consecutive completions to stay under provider rate limits.
func NewGenerator(client *llm.Client, reports *database.ReportRepository, history *database.HistoryRepository, interval time.Duration) *Generator {
	return &Generator{
		client:   client,
		reports:  reports,
		history:  history,
		interval: interval,
	}
}

// GenerateForEntries writes one report per entry for the given date,
// skipping entries that already have one. Returns the number of reports
// generated.
func (g *Generator) GenerateForEntries(ctx context.Context, entries []database.StockPool, reportDate time.Time) (int, error) {
	generated := 0
	for i, entry := range entries {
		if err := ctx.Err(); err != nil {
			return generated, err
		}

		exists, err := g.reports.HasReportOn(entry.Ticker, reportDate)
		if err != nil {
			return generated, err
		}
		if exists {
			continue
		}

		if err := g.generateOne(ctx, entry, reportDate); err != nil {
			log.Printf("⚠️ Report generation failed for %s: %v", entry.Ticker, err)
			continue
		}
		generated++

		if i < len(entries)-1 {
			select {
			case <-time.After(g.interval):
			case <-ctx.Done():
				return generated, ctx.Err()
			}
		}
	}
	log.Printf("📝 Generated %d reports for %s", generated, reportDate.Format("2006-01-02"))
	return generated, nil
}

func (g *Generator) generateOne(ctx context.Context, entry database.StockPool, reportDate time.Time) error {
	in := PromptInput{Entry: entry}

	bars, err := g.history.GetBars(entry.Ticker, 252)
	if err == nil && len(bars) > 0 {
		closes := make([]float64, len(bars))
		for i, b := range bars {
			closes[i] = b.Close
		}
		rsi := indicator.RSI(closes, 14)
		in.RSI = &rsi

		inst, foreign, ferr := g.history.FlowSums(entry.Ticker, 7)
		if ferr == nil {
			in.Wave = scoring.ClassifyWave(bars, inst, foreign)
		} else {
			in.Wave = scoring.ClassifyWave(bars, 0, 0)
		}
	}

	raw, err := g.completeWithRetry(ctx, BuildPrompt(in))
	if err != nil {
		return err
	}

	parsed := Parse(raw)
	return g.reports.Upsert(&database.AIAnalysisReport{
		Ticker:            entry.Ticker,
		ReportDate:        reportDate,
		Summary:           parsed.Summary,
		Recommendation:    parsed.Recommendation,
		ConfidenceScore:   parsed.Confidence,
		MomentumAnalysis:  parsed.MomentumAnalysis,
		LiquidityAnalysis: parsed.LiquidityAnalysis,
		RiskFactors:       parsed.RiskFactors,
		RawText:           raw,
		Status:            database.ReportActive,
	})
}

// completeWithRetry retries rate-limited completions with exponential
// backoff. Other errors fail immediately.
func (g *Generator) completeWithRetry(ctx context.Context, prompt string) (string, error) {
	backoff := initialBackoff
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		raw, err := g.client.Analyze(ctx, prompt)
		if err == nil {
			return raw, nil
		}

		var rateErr *llm.RateLimitError
		if !errors.As(err, &rateErr) {
			return "", err
		}
		lastErr = err

		if attempt < maxAttempts {
			log.Printf("⚠️ Rate limited, retrying in %s (attempt %d/%d)", backoff, attempt, maxAttempts)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return "", ctx.Err()
			}
			backoff *= 2
		}
	}
	return "", lastErr
}
