// Package signal turns indicator readings into a directional trade call
// with a bounded strength score and an operator-readable rationale.
package signal

import (
	"fmt"
	"strings"

	"github.com/srllamadev/protocol-14-weex/config"
	"github.com/srllamadev/protocol-14-weex/indicator"
	"github.com/srllamadev/protocol-14-weex/types"
)

// Point contributions per factor. RSI extremity dominates (up to 60),
// followed by band displacement (up to 30), proximity to the 24h extreme
// (15), whale volume (20) and momentum confirmation (10). The sum is
// clamped to [0,100].
const (
	rsiPoints          = 40
	rsiExtremePoints   = 20
	rsiExtremeOffset   = 10
	displacementFloor  = 5.0 // % move off the extreme before it scores
	displacementWeight = 3.0
	displacementCap    = 30
	proximityPoints    = 15
	proximityBand      = 0.02 // within 2% of the 24h extreme
	whalePoints        = 20
	momentumPoints     = 10
	momentumFloor      = 0.5 // % move that counts as confirmation
	deadMarketDiscount = 0.8
)

// Generator evaluates one strategy profile. It carries no per-instrument
// state: a Signal is derived fresh from the inputs on every call.
type Generator struct {
	p config.Profile
}

// New returns a generator for the given profile.
func New(p config.Profile) *Generator {
	return &Generator{p: p}
}

// Evaluate computes indicators from the candle series and resolves them into
// a Signal. Candles are sorted in place; feeds may deliver them unordered.
func (g *Generator) Evaluate(inst types.Instrument, tick types.Ticker, candles []types.Candle) types.Signal {
	types.SortCandles(candles)

	closes := types.Closes(candles)
	rsi := indicator.RSI(closes, g.p.RSIPeriod)
	momentum := indicator.Momentum(closes, g.p.MomentumLookback)
	volatility := indicator.Volatility(types.Highs(candles), types.Lows(candles), g.p.VolatilityWindow)
	whale, volumeRatio := indicator.VolumeAnomaly(types.Volumes(candles), g.p.WhaleMultiplier)

	sig := types.Signal{
		Instrument:  inst,
		Price:       tick.Last,
		RSI:         rsi,
		Momentum:    momentum,
		Volatility:  volatility,
		VolumeRatio: volumeRatio,
		Direction:   types.None,
	}

	// Direction-adjusted displacement from the relevant 24h extreme.
	var offHigh, offLow float64
	if tick.High24h > 0 {
		offHigh = (tick.Last - tick.High24h) / tick.High24h * 100
	}
	if tick.Low24h > 0 {
		offLow = (tick.Last - tick.Low24h) / tick.Low24h * 100
	}

	// Resolution priority: RSI thresholds first, then band displacement.
	switch {
	case rsi < g.p.RSIOversold:
		sig.Direction = types.Long
	case rsi > g.p.RSIOverbought:
		sig.Direction = types.Short
	case tick.High24h > 0 && offHigh <= -g.p.DisplacementPct:
		sig.Direction = types.Long
	case tick.Low24h > 0 && offLow >= g.p.DisplacementPct:
		sig.Direction = types.Short
	default:
		sig.Rationale = "neutral"
		return sig
	}

	score := 0.0
	var reasons []string

	if sig.Direction == types.Long {
		if rsi < g.p.RSIOversold {
			score += rsiPoints
			reasons = append(reasons, fmt.Sprintf("RSI low (%.1f)", rsi))
			if rsi < g.p.RSIOversold-rsiExtremeOffset {
				score += rsiExtremePoints
				reasons = append(reasons, "RSI extreme")
			}
		}
		if drop := -offHigh; tick.High24h > 0 && drop >= displacementFloor {
			score += min(drop*displacementWeight, displacementCap)
			reasons = append(reasons, fmt.Sprintf("%.1f%% off 24h high", drop))
		}
		if tick.Low24h > 0 && tick.Last/tick.Low24h < 1+proximityBand {
			score += proximityPoints
			reasons = append(reasons, "near 24h low")
		}
		if momentum < -momentumFloor {
			score += momentumPoints
			reasons = append(reasons, fmt.Sprintf("momentum %.1f%%", momentum))
		}
	} else {
		if rsi > g.p.RSIOverbought {
			score += rsiPoints
			reasons = append(reasons, fmt.Sprintf("RSI high (%.1f)", rsi))
			if rsi > g.p.RSIOverbought+rsiExtremeOffset {
				score += rsiExtremePoints
				reasons = append(reasons, "RSI extreme")
			}
		}
		if tick.Low24h > 0 && offLow >= displacementFloor {
			score += min(offLow*displacementWeight, displacementCap)
			reasons = append(reasons, fmt.Sprintf("+%.1f%% off 24h low", offLow))
		}
		if tick.High24h > 0 && tick.Last/tick.High24h > 1-proximityBand {
			score += proximityPoints
			reasons = append(reasons, "near 24h high")
		}
		if momentum > momentumFloor {
			score += momentumPoints
			reasons = append(reasons, fmt.Sprintf("momentum %+.1f%%", momentum))
		}
	}

	if whale {
		score += whalePoints
		sig.Whale = true
		reasons = append(reasons, fmt.Sprintf("whale volume %.1fx", volumeRatio))
	}

	// Dead markets produce false oscillator extremes; discount them.
	if volatility < g.p.VolatilityFloor {
		score *= deadMarketDiscount
		reasons = append(reasons, "low volatility")
	}

	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}
	sig.Strength = score
	sig.Rationale = strings.Join(reasons, " | ")
	return sig
}
