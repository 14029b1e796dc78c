// Package scoring implements the quick filter, the composite liquidity and
// momentum score, and the wave-stage classifier.
package scoring

import (
	"sort"

	"stockgravity/config"
	"stockgravity/database"
	"stockgravity/indicator"
)

// Metrics are the per-ticker inputs to the quick filter and composite score,
// derived from the latest daily bars.
type Metrics struct {
	Ticker       string
	Name         string
	Close        float64
	TradingValue float64
	Change5d     float64
	VolRatio     float64
}

// Candidate is a ticker that passed the quick filter, with its normalized
// component scores and composite.
type Candidate struct {
	Metrics
	TradingValueScore float64
	MomentumScore     float64
	VolumeScore       float64
	FinalScore        float64
}

// Scorer applies the quick filter and composite scoring to a universe of
// ticker metrics.
type Scorer struct {
	params config.ScoringParams
}

// NewScorer creates a scorer with the given parameters.
func NewScorer(params config.ScoringParams) *Scorer {
	return &Scorer{params: params}
}

// ComputeMetrics derives scoring inputs from chronological daily bars.
// Returns false when the series is shorter than the configured minimum,
// in which case the ticker is skipped rather than scored on thin data.
func (s *Scorer) ComputeMetrics(ticker, name string, bars []database.DailyPrice) (Metrics, bool) {
	if len(bars) < s.params.MinBars {
		return Metrics{}, false
	}

	closes := make([]float64, len(bars))
	volumes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
		volumes[i] = float64(b.Volume)
	}

	last := bars[len(bars)-1]

	// The screening ratio divides by the 20-day average including today;
	// a dead tape (zero average) scores 0, not neutral.
	volRatio := 0.0
	if volMA20 := indicator.SMA(volumes, 20); volMA20 > 0 {
		volRatio = float64(last.Volume) / volMA20
	}

	return Metrics{
		Ticker:       ticker,
		Name:         name,
		Close:        last.Close,
		TradingValue: last.Close * float64(last.Volume),
		Change5d:     indicator.ChangePercent(closes, 5),
		VolRatio:     volRatio,
	}, true
}

// passes applies the quick filter. All four conditions are strict: a ticker
// sitting exactly on a threshold is excluded.
func (s *Scorer) passes(m Metrics) bool {
	return m.TradingValue > s.params.MinTradingValue &&
		m.Change5d > s.params.MinChange5d &&
		m.VolRatio > s.params.MinVolRatio &&
		m.Close > s.params.MinClose
}

// Score filters the universe and computes composite scores for the
// survivors, returned in descending score order.
//
// Each component is min-max normalized to [0, 100] across the surviving
// candidates. When a component is identical across all candidates the
// normalization is degenerate and every candidate receives the neutral
// value 50 for that component.
func (s *Scorer) Score(universe []Metrics) []Candidate {
	var candidates []Candidate
	for _, m := range universe {
		if s.passes(m) {
			candidates = append(candidates, Candidate{Metrics: m})
		}
	}
	if len(candidates) == 0 {
		return nil
	}

	tv := normalize(candidates, func(c Candidate) float64 { return c.TradingValue })
	mom := normalize(candidates, func(c Candidate) float64 { return c.Change5d })
	vol := normalize(candidates, func(c Candidate) float64 { return c.VolRatio })

	for i := range candidates {
		candidates[i].TradingValueScore = tv[i]
		candidates[i].MomentumScore = mom[i]
		candidates[i].VolumeScore = vol[i]
		candidates[i].FinalScore = s.params.TradingValueWeight*tv[i] +
			s.params.MomentumWeight*mom[i] +
			s.params.VolumeWeight*vol[i]
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].FinalScore > candidates[j].FinalScore
	})
	return candidates
}

// normalize min-max scales one component across the candidate set to
// [0, 100], mapping a degenerate spread to 50.
func normalize(candidates []Candidate, value func(Candidate) float64) []float64 {
	min := value(candidates[0])
	max := min
	for _, c := range candidates[1:] {
		v := value(c)
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}

	scores := make([]float64, len(candidates))
	if max == min {
		for i := range scores {
			scores[i] = 50
		}
		return scores
	}
	for i, c := range candidates {
		scores[i] = (value(c) - min) / (max - min) * 100
	}
	return scores
}
