// Package indicator computes the technical indicators the signal generator
// consumes. Every function is pure and deterministic for a given input
// series; callers are expected to pass candles already sorted ascending by
// timestamp.
package indicator

// DefaultRSIPeriod matches the 14-bar convention used across the bot profiles.
const DefaultRSIPeriod = 14

// RSI returns a simplified Wilder-style RSI in [0,100] using a flat average
// of gains and losses over the trailing period deltas.
//
// Edge cases: fewer than period+1 closes yields the neutral 50.0; a zero
// average loss with positive average gain yields 100.0; a flat series (both
// averages zero) yields 50.0.
func RSI(closes []float64, period int) float64 {
	if period <= 0 || len(closes) < period+1 {
		return 50.0
	}
	gains := make([]float64, 0, len(closes)-1)
	losses := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			gains = append(gains, change)
			losses = append(losses, 0)
		} else {
			gains = append(gains, 0)
			losses = append(losses, -change)
		}
	}
	avgGain := mean(gains[len(gains)-period:])
	avgLoss := mean(losses[len(losses)-period:])
	if avgLoss == 0 {
		if avgGain > 0 {
			return 100.0
		}
		return 50.0
	}
	rs := avgGain / avgLoss
	return 100 - (100 / (1 + rs))
}

// Momentum returns the percentage change between the latest close and the
// close lookback bars prior. Zero when the reference close is absent or
// non-positive.
func Momentum(closes []float64, lookback int) float64 {
	if lookback <= 0 || len(closes) < lookback+1 {
		return 0
	}
	ref := closes[len(closes)-1-lookback]
	if ref <= 0 {
		return 0
	}
	return (closes[len(closes)-1] - ref) / ref * 100
}

// Volatility returns the mean per-bar range (high-low)/low*100 over the
// trailing window, skipping bars with a zero low.
func Volatility(highs, lows []float64, window int) float64 {
	n := len(highs)
	if len(lows) < n {
		n = len(lows)
	}
	if n == 0 || window <= 0 {
		return 0
	}
	start := n - window
	if start < 0 {
		start = 0
	}
	sum, count := 0.0, 0
	for i := start; i < n; i++ {
		if lows[i] <= 0 {
			continue
		}
		sum += (highs[i] - lows[i]) / lows[i] * 100
		count++
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

// VolumeAnomaly compares the latest bar's volume to the mean of the
// preceding 19 bars. It reports whether the ratio clears the multiplier
// (whale heuristic) alongside the ratio itself. Requires at least 20 bars;
// with fewer, or a non-positive baseline, it reports (false, 1.0).
func VolumeAnomaly(volumes []float64, multiplier float64) (bool, float64) {
	if len(volumes) < 20 {
		return false, 1.0
	}
	base := mean(volumes[len(volumes)-20 : len(volumes)-1])
	if base <= 0 {
		return false, 1.0
	}
	ratio := volumes[len(volumes)-1] / base
	return ratio >= multiplier, ratio
}

// RangePosition returns the normalized position of price within [low, high],
// clamped to [0,1]. A degenerate band yields 0.5.
func RangePosition(price, low, high float64) float64 {
	if high <= low {
		return 0.5
	}
	p := (price - low) / (high - low)
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

// Band trims a [low, high] range by margin on each side, returning the
// support and resistance levels the signal generator keys off. A 0.2 margin
// reproduces the 20% trim the grid profile uses.
func Band(low, high, margin float64) (support, resistance float64) {
	size := high - low
	return low + size*margin, high - size*margin
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}
