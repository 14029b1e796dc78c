package scoring

import (
	"math"
	"testing"
	"time"

	"stockgravity/database"
)

// buildBars turns a close series into daily bars with fixed offsets for the
// high/low bands and per-bar volumes.
func buildBars(closes []float64, highOffset, lowOffset float64, volumes []int64) []database.DailyPrice {
	base := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	bars := make([]database.DailyPrice, len(closes))
	for i, c := range closes {
		bars[i] = database.DailyPrice{
			Ticker: "005930",
			Date:   base.AddDate(0, 0, i),
			Open:   c,
			High:   c + highOffset,
			Low:    c - lowOffset,
			Close:  c,
			Volume: volumes[i],
		}
	}
	return bars
}

func flatVolumes(n int, v int64) []int64 {
	volumes := make([]int64, n)
	for i := range volumes {
		volumes[i] = v
	}
	return volumes
}

func TestClassifyWaveInsufficientHistory(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	bars := buildBars(closes, 1, 1, flatVolumes(30, 1000))

	result := ClassifyWave(bars, 100, 100)
	if result.Stage != WaveUnknown || result.Confidence != 0 {
		t.Errorf("got stage %q confidence %v, want Unknown 0", result.Stage, result.Confidence)
	}
}

func TestClassifyWaveStrongUptrend(t *testing.T) {
	// Net +1 per bar with periodic pullbacks keeps RSI around 75, inside
	// the strong-stage band. The wide high band keeps the 52-week position
	// near 0.8.
	closes := make([]float64, 81)
	closes[0] = 100
	for i := 1; i < len(closes); i++ {
		if i%4 == 0 {
			closes[i] = closes[i-1] - 2
		} else {
			closes[i] = closes[i-1] + 2
		}
	}
	volumes := flatVolumes(len(closes), 1000)
	volumes[len(volumes)-1] = 2000
	bars := buildBars(closes, 20, 1, volumes)

	result := ClassifyWave(bars, 0, 0)
	if result.Stage != WaveStrongUptrend {
		t.Fatalf("got stage %q (rsi=%.1f pos=%.2f volRatio=%.2f), want Strong Uptrend",
			result.Stage, result.RSI, result.Position52, result.VolRatio)
	}
	if result.Confidence != 90 {
		t.Errorf("confidence = %v, want 90", result.Confidence)
	}
}

func TestClassifyWaveFlowBonus(t *testing.T) {
	closes := make([]float64, 81)
	closes[0] = 100
	for i := 1; i < len(closes); i++ {
		if i%4 == 0 {
			closes[i] = closes[i-1] - 2
		} else {
			closes[i] = closes[i-1] + 2
		}
	}
	volumes := flatVolumes(len(closes), 1000)
	volumes[len(volumes)-1] = 2000
	bars := buildBars(closes, 20, 1, volumes)

	tests := []struct {
		name          string
		institutional int64
		foreigner     int64
		confidence    float64
	}{
		{"both buying", 5000, 3000, 100},
		{"institutional only", 5000, -3000, 95},
		{"foreigner only", -5000, 3000, 95},
		{"both selling", -5000, -3000, 90},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ClassifyWave(bars, tt.institutional, tt.foreigner)
			if result.Confidence != tt.confidence {
				t.Errorf("confidence = %v, want %v", result.Confidence, tt.confidence)
			}
		})
	}
}

func TestClassifyWaveVolumeSpikeWithinWindow(t *testing.T) {
	// The volume window includes the latest bar, so a lone 1.3x spike over
	// an otherwise flat tape averages down to 1300/1015 and misses the
	// strong-stage threshold. The series drops through to the general stage.
	closes := make([]float64, 81)
	closes[0] = 100
	for i := 1; i < len(closes); i++ {
		if i%4 == 0 {
			closes[i] = closes[i-1] - 2
		} else {
			closes[i] = closes[i-1] + 2
		}
	}
	volumes := flatVolumes(len(closes), 1000)
	volumes[len(volumes)-1] = 1300
	bars := buildBars(closes, 20, 1, volumes)

	result := ClassifyWave(bars, 0, 0)
	if math.Abs(result.VolRatio-1300.0/1015.0) > 1e-9 {
		t.Errorf("VolRatio = %v, want %v", result.VolRatio, 1300.0/1015.0)
	}
	if result.Stage != WaveGeneralUptrend {
		t.Fatalf("got stage %q (volRatio=%.4f), want General Uptrend",
			result.Stage, result.VolRatio)
	}
	if result.Confidence != 60 {
		t.Errorf("confidence = %v, want 60", result.Confidence)
	}
}

func TestClassifyWaveUnknownKeepsFlowBonus(t *testing.T) {
	// A declining tape classifies Unknown, but positive investor flows still
	// contribute their confidence points.
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 160 - float64(i)
	}
	bars := buildBars(closes, 1, 1, flatVolumes(len(closes), 1000))

	result := ClassifyWave(bars, 500, 500)
	if result.Stage != WaveUnknown {
		t.Fatalf("got stage %q, want Unknown", result.Stage)
	}
	if result.FlowBonus != 10 {
		t.Errorf("flow bonus = %v, want 10", result.FlowBonus)
	}
	if result.Confidence != 10 {
		t.Errorf("confidence = %v, want 10", result.Confidence)
	}
}

func TestClassifyWaveEarlyUptrend(t *testing.T) {
	// Steady rise drives RSI to 100, which rules out the strong stage; the
	// moderate volume bump and mid-range position match the early stage.
	closes := make([]float64, 80)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	volumes := flatVolumes(len(closes), 1000)
	volumes[len(volumes)-1] = 1200
	bars := buildBars(closes, 60, 1, volumes)

	result := ClassifyWave(bars, 0, 0)
	if result.Stage != WaveEarlyUptrend {
		t.Fatalf("got stage %q (rsi=%.1f pos=%.2f volRatio=%.2f), want Early Uptrend",
			result.Stage, result.RSI, result.Position52, result.VolRatio)
	}
	if result.Confidence != 80 {
		t.Errorf("confidence = %v, want 80", result.Confidence)
	}
}

func TestClassifyWaveTransition(t *testing.T) {
	// Oscillating closes keep the averages converged and RSI near neutral.
	closes := make([]float64, 60)
	for i := range closes {
		if i%2 == 0 {
			closes[i] = 101
		} else {
			closes[i] = 100
		}
	}
	bars := buildBars(closes, 1, 1, flatVolumes(len(closes), 1000))

	result := ClassifyWave(bars, 0, 0)
	if result.Stage != WaveTransition {
		t.Fatalf("got stage %q (rsi=%.1f pos=%.2f), want Transition",
			result.Stage, result.RSI, result.Position52)
	}
	if result.Confidence != 70 {
		t.Errorf("confidence = %v, want 70", result.Confidence)
	}
}

func TestClassifyWaveGeneralUptrend(t *testing.T) {
	// Rising averages without any volume expansion drop through to the
	// general stage.
	closes := make([]float64, 80)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	bars := buildBars(closes, 60, 1, flatVolumes(len(closes), 1000))

	result := ClassifyWave(bars, 0, 0)
	if result.Stage != WaveGeneralUptrend {
		t.Fatalf("got stage %q (pos=%.2f volRatio=%.2f), want General Uptrend",
			result.Stage, result.Position52, result.VolRatio)
	}
	if result.Confidence != 60 {
		t.Errorf("confidence = %v, want 60", result.Confidence)
	}
}
