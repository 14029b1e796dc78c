package scoring

import (
	"math"
	"testing"
	"time"

	"stockgravity/config"
	"stockgravity/database"
)

func metric(ticker string, close, tradingValue, change5d, volRatio float64) Metrics {
	return Metrics{
		Ticker:       ticker,
		Name:         ticker,
		Close:        close,
		TradingValue: tradingValue,
		Change5d:     change5d,
		VolRatio:     volRatio,
	}
}

func TestQuickFilter(t *testing.T) {
	s := NewScorer(config.DefaultScoringParams())

	tests := []struct {
		name string
		m    Metrics
		pass bool
	}{
		{"all conditions met", metric("005930", 70000, 5e9, 2.0, 1.5), true},
		{"trading value at threshold excluded", metric("A", 70000, 100_000_000, 2.0, 1.5), false},
		{"change at threshold excluded", metric("B", 70000, 5e9, -5.0, 1.5), false},
		{"deep decline excluded", metric("C", 70000, 5e9, -8.0, 1.5), false},
		{"vol ratio at threshold excluded", metric("D", 70000, 5e9, 2.0, 0.5), false},
		{"penny price excluded", metric("E", 5000, 5e9, 2.0, 1.5), false},
		{"just above all thresholds", metric("F", 5001, 100_000_001, -4.99, 0.51), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.passes(tt.m); got != tt.pass {
				t.Errorf("passes() = %v, want %v", got, tt.pass)
			}
		})
	}
}

func TestScoreOrderingAndWeights(t *testing.T) {
	s := NewScorer(config.DefaultScoringParams())

	universe := []Metrics{
		metric("LOW", 10000, 200_000_000, 0, 0.6),
		metric("MID", 10000, 600_000_000, 5, 1.0),
		metric("HIGH", 10000, 1_000_000_000, 10, 1.4),
		metric("FILTERED", 1000, 1_000_000_000, 10, 1.4),
	}

	candidates := s.Score(universe)
	if len(candidates) != 3 {
		t.Fatalf("expected 3 candidates, got %d", len(candidates))
	}

	// HIGH is max on every component, LOW is min on every component.
	if candidates[0].Ticker != "HIGH" || candidates[2].Ticker != "LOW" {
		t.Errorf("unexpected ordering: %s, %s, %s",
			candidates[0].Ticker, candidates[1].Ticker, candidates[2].Ticker)
	}
	if candidates[0].FinalScore != 100 {
		t.Errorf("top score = %v, want 100", candidates[0].FinalScore)
	}
	if candidates[2].FinalScore != 0 {
		t.Errorf("bottom score = %v, want 0", candidates[2].FinalScore)
	}

	// MID sits exactly halfway on each component.
	if math.Abs(candidates[1].FinalScore-50) > 0.01 {
		t.Errorf("mid score = %v, want 50", candidates[1].FinalScore)
	}
}

func TestScoreDegenerateNormalization(t *testing.T) {
	s := NewScorer(config.DefaultScoringParams())

	universe := []Metrics{
		metric("A", 10000, 500_000_000, 3, 1.2),
		metric("B", 20000, 500_000_000, 3, 1.2),
	}

	candidates := s.Score(universe)
	if len(candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(candidates))
	}
	for _, c := range candidates {
		if math.Abs(c.FinalScore-50) > 0.01 {
			t.Errorf("%s score = %v, want 50 under identical components", c.Ticker, c.FinalScore)
		}
	}
}

func TestScoreEmptyUniverse(t *testing.T) {
	s := NewScorer(config.DefaultScoringParams())
	if got := s.Score(nil); got != nil {
		t.Errorf("Score(nil) = %v, want nil", got)
	}
}

func TestComputeMetricsRequiresHistory(t *testing.T) {
	s := NewScorer(config.DefaultScoringParams())

	bars := makeBars(10, 10000, 100000)
	if _, ok := s.ComputeMetrics("005930", "Samsung", bars); ok {
		t.Error("expected short history to be skipped")
	}

	bars = makeBars(25, 10000, 100000)
	m, ok := s.ComputeMetrics("005930", "Samsung", bars)
	if !ok {
		t.Fatal("expected metrics from sufficient history")
	}
	if m.Close != 10000 {
		t.Errorf("Close = %v, want 10000", m.Close)
	}
	if m.TradingValue != 10000*100000 {
		t.Errorf("TradingValue = %v, want %v", m.TradingValue, 10000.0*100000)
	}
}

func makeBars(n int, close float64, volume int64) []database.DailyPrice {
	bars := make([]database.DailyPrice, n)
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	for i := range bars {
		bars[i] = database.DailyPrice{
			Ticker: "005930",
			Date:   base.AddDate(0, 0, i),
			Open:   close,
			High:   close * 1.01,
			Low:    close * 0.99,
			Close:  close,
			Volume: volume,
		}
	}
	return bars
}
