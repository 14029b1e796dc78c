// Package indicator computes the technical indicators used by scoring,
// wave classification, and re-evaluation. All functions take chronological
// series (oldest first) and are pure.
package indicator

// SMA returns the simple moving average of the last period values.
// Returns 0 when the series is shorter than the period.
func SMA(values []float64, period int) float64 {
	if period <= 0 || len(values) < period {
		return 0
	}
	sum := 0.0
	for _, v := range values[len(values)-period:] {
		sum += v
	}
	return sum / float64(period)
}

// RSI returns the Wilder relative strength index over the given period.
// Returns the neutral value 50 when the series is too short to compute.
func RSI(closes []float64, period int) float64 {
	if period <= 0 || len(closes) < period+1 {
		return 50
	}

	gains := 0.0
	losses := 0.0
	for i := 1; i <= period; i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			gains += change
		} else {
			losses -= change
		}
	}
	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)

	// Wilder smoothing over the remainder of the series.
	for i := period + 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		gain := 0.0
		loss := 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
	}

	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - (100 / (1 + rs))
}

// RangePosition returns where price sits within [low, high] as a fraction
// in [0, 1]. A degenerate range (high == low) maps to the midpoint 0.5,
// and prices outside the range are clamped.
func RangePosition(price, low, high float64) float64 {
	if high == low {
		return 0.5
	}
	pos := (price - low) / (high - low)
	if pos < 0 {
		return 0
	}
	if pos > 1 {
		return 1
	}
	return pos
}

// ChangePercent returns the percent change between the close n bars ago and
// the latest close. Returns 0 when the series is too short.
func ChangePercent(closes []float64, n int) float64 {
	if n <= 0 || len(closes) < n+1 {
		return 0
	}
	prev := closes[len(closes)-1-n]
	if prev == 0 {
		return 0
	}
	return (closes[len(closes)-1] - prev) / prev * 100
}

// VolumeRatio returns the latest volume divided by the period average. The
// window includes the latest bar, so a spike is partly absorbed into its own
// average. A zero or uncomputable average maps to the neutral ratio 1.
func VolumeRatio(volumes []float64, period int) float64 {
	avg := SMA(volumes, period)
	if avg == 0 {
		return 1
	}
	return volumes[len(volumes)-1] / avg
}
