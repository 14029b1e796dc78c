package indicator

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 0.01
}

func TestSMA(t *testing.T) {
	tests := []struct {
		name     string
		values   []float64
		period   int
		expected float64
	}{
		{"exact window", []float64{1, 2, 3, 4, 5}, 5, 3},
		{"uses last period values", []float64{100, 1, 2, 3}, 3, 2},
		{"insufficient data", []float64{1, 2}, 5, 0},
		{"empty series", nil, 5, 0},
		{"zero period", []float64{1, 2, 3}, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SMA(tt.values, tt.period)
			if !almostEqual(got, tt.expected) {
				t.Errorf("SMA() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestRSI(t *testing.T) {
	t.Run("insufficient data returns neutral", func(t *testing.T) {
		if got := RSI([]float64{100, 101}, 14); got != 50 {
			t.Errorf("RSI() = %v, want 50", got)
		}
	})

	t.Run("all gains returns 100", func(t *testing.T) {
		closes := make([]float64, 20)
		for i := range closes {
			closes[i] = 100 + float64(i)
		}
		if got := RSI(closes, 14); got != 100 {
			t.Errorf("RSI() = %v, want 100", got)
		}
	})

	t.Run("all losses approaches 0", func(t *testing.T) {
		closes := make([]float64, 20)
		for i := range closes {
			closes[i] = 100 - float64(i)
		}
		if got := RSI(closes, 14); got > 1 {
			t.Errorf("RSI() = %v, want near 0", got)
		}
	})

	t.Run("alternating moves stays near neutral", func(t *testing.T) {
		closes := make([]float64, 30)
		for i := range closes {
			if i%2 == 0 {
				closes[i] = 100
			} else {
				closes[i] = 101
			}
		}
		got := RSI(closes, 14)
		if got < 40 || got > 60 {
			t.Errorf("RSI() = %v, want within [40, 60]", got)
		}
	})
}

func TestRangePosition(t *testing.T) {
	tests := []struct {
		name     string
		price    float64
		low      float64
		high     float64
		expected float64
	}{
		{"midpoint", 150, 100, 200, 0.5},
		{"at low", 100, 100, 200, 0},
		{"at high", 200, 100, 200, 1},
		{"below range clamps", 50, 100, 200, 0},
		{"above range clamps", 250, 100, 200, 1},
		{"degenerate range", 100, 100, 100, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RangePosition(tt.price, tt.low, tt.high)
			if !almostEqual(got, tt.expected) {
				t.Errorf("RangePosition() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestChangePercent(t *testing.T) {
	tests := []struct {
		name     string
		closes   []float64
		n        int
		expected float64
	}{
		{"five day gain", []float64{100, 101, 102, 103, 104, 110}, 5, 10},
		{"five day loss", []float64{100, 99, 98, 97, 96, 95}, 5, -5},
		{"insufficient data", []float64{100, 105}, 5, 0},
		{"zero base", []float64{0, 1, 2, 3, 4, 5}, 5, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ChangePercent(tt.closes, tt.n)
			if !almostEqual(got, tt.expected) {
				t.Errorf("ChangePercent() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestVolumeRatio(t *testing.T) {
	tests := []struct {
		name     string
		volumes  []float64
		period   int
		expected float64
	}{
		{"spike absorbed into own window", []float64{100, 100, 400}, 3, 2},
		{"below average", []float64{120, 120, 120, 40}, 4, 0.4},
		{"flat volume", []float64{1000, 1000, 1000}, 3, 1},
		{"zero average neutral", []float64{0, 0, 0}, 3, 1},
		{"insufficient data neutral", []float64{100, 200}, 3, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := VolumeRatio(tt.volumes, tt.period)
			if !almostEqual(got, tt.expected) {
				t.Errorf("VolumeRatio() = %v, want %v", got, tt.expected)
			}
		})
	}
}
