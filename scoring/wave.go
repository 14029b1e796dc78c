package scoring

import (
	"math"

	"stockgravity/database"
	"stockgravity/indicator"
)

// Wave stages, strongest first. ClassifyWave tries each stage's conditions
// in this order and returns the first match.
const (
	WaveStrongUptrend  = "Strong Uptrend"
	WaveEarlyUptrend   = "Early Uptrend"
	WaveTransition     = "Transition"
	WaveGeneralUptrend = "General Uptrend"
	WaveUnknown        = "Unknown"
)

// waveMinBars is the minimum history needed to classify at all.
const waveMinBars = 60

// WaveResult is a wave-stage classification with its confidence and the
// inputs it was derived from.
type WaveResult struct {
	Stage      string  `json:"stage"`
	Confidence float64 `json:"confidence"`
	MA20       float64 `json:"ma20"`
	MA50       float64 `json:"ma50"`
	MA200      float64 `json:"ma200,omitempty"`
	Position52 float64 `json:"position_52w"`
	RSI        float64 `json:"rsi"`
	VolRatio   float64 `json:"vol_ratio"`
	FlowBonus  float64 `json:"flow_bonus"`
}

// ClassifyWave assigns a wave stage from chronological daily bars plus
// trailing institutional and foreign net-buy sums.
//
// Missing inputs degrade gracefully rather than failing the stage: with
// fewer than 200 bars the MA200 condition is treated as satisfied, an
// uncomputable 52-week position defaults to the midpoint, an uncomputable
// RSI defaults to neutral, and a zero volume average maps to ratio 1.
//
// A positive trailing institutional sum adds 5 confidence points, as does
// a positive foreign sum. The flow bonus applies to every stage, so an
// Unknown-stage ticker with both sums positive still scores 10.
func ClassifyWave(bars []database.DailyPrice, institutionalSum, foreignerSum int64) WaveResult {
	if len(bars) < waveMinBars {
		return WaveResult{Stage: WaveUnknown, Confidence: 0}
	}

	closes := make([]float64, len(bars))
	volumes := make([]float64, len(bars))
	lows := make([]float64, len(bars))
	highs := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
		volumes[i] = float64(b.Volume)
		lows[i] = b.Low
		highs[i] = b.High
	}
	close := closes[len(closes)-1]

	ma20 := indicator.SMA(closes, 20)
	ma50 := indicator.SMA(closes, 50)
	ma200 := indicator.SMA(closes, 200)
	// With under 200 bars the long trend cannot be judged, so the MA200
	// ordering condition is treated as satisfied.
	ma200Aligned := len(closes) < 200 || (ma20 > ma200 && ma50 > ma200)

	pos52 := position52Week(closes, lows, highs)
	rsi := indicator.RSI(closes, 14)

	volRatio := indicator.VolumeRatio(volumes, 20)

	result := WaveResult{
		MA20:       ma20,
		MA50:       ma50,
		MA200:      ma200,
		Position52: pos52,
		RSI:        rsi,
		VolRatio:   volRatio,
	}

	switch {
	case ma20 > ma50 && ma200Aligned &&
		pos52 >= 0.6 && pos52 <= 0.95 &&
		volRatio >= 1.3 &&
		rsi >= 55 && rsi <= 85:
		result.Stage = WaveStrongUptrend
		result.Confidence = 90
	case ma20 > ma50 &&
		pos52 >= 0.4 && pos52 <= 0.75 &&
		close > ma20 &&
		volRatio >= 1.1:
		result.Stage = WaveEarlyUptrend
		result.Confidence = 80
	case ma50 > 0 && math.Abs(ma20-ma50)/ma50 < 0.05 &&
		pos52 >= 0.25 && pos52 <= 0.6 &&
		rsi >= 45 && rsi <= 65:
		result.Stage = WaveTransition
		result.Confidence = 70
	case ma20 > ma50 &&
		pos52 >= 0.3 && pos52 <= 0.8:
		result.Stage = WaveGeneralUptrend
		result.Confidence = 60
	default:
		result.Stage = WaveUnknown
		result.Confidence = 0
	}

	if institutionalSum > 0 {
		result.FlowBonus += 5
	}
	if foreignerSum > 0 {
		result.FlowBonus += 5
	}
	result.Confidence += result.FlowBonus

	return result
}

// position52Week computes where the latest close sits in the trailing
// 52-week high/low range, using up to 252 bars. Falls back to the midpoint
// when the range cannot be established.
func position52Week(closes, lows, highs []float64) float64 {
	window := len(closes)
	if window > 252 {
		window = 252
	}
	if window == 0 {
		return 0.5
	}

	low := lows[len(lows)-window]
	high := highs[len(highs)-window]
	for i := len(lows) - window; i < len(lows); i++ {
		if lows[i] < low {
			low = lows[i]
		}
		if highs[i] > high {
			high = highs[i]
		}
	}
	if high <= 0 || high == low {
		return 0.5
	}
	return indicator.RangePosition(closes[len(closes)-1], low, high)
}
