package signal

import (
	"math"
	"testing"

	"github.com/srllamadev/protocol-14-weex/config"
	"github.com/srllamadev/protocol-14-weex/types"
)

func testProfile() config.Profile {
	return config.Default().Profile
}

var testInstrument = types.Instrument{Symbol: "cmt_solusdt", StepSize: 0.1, MinSize: 0.1}

// bars builds n candles walking from start by step, with a 2% bar range so
// the volatility floor never trips. All volumes are 100 except the last.
func bars(n int, start, step, lastVolume float64) []types.Candle {
	out := make([]types.Candle, n)
	for i := range out {
		px := start + step*float64(i)
		out[i] = types.Candle{
			Timestamp: int64(1700000000 + i*60),
			Open:      px - step,
			High:      px * 1.01,
			Low:       px * 0.99,
			Close:     px,
			Volume:    100,
		}
	}
	out[n-1].Volume = lastVolume
	return out
}

func TestOversoldProducesLong(t *testing.T) {
	g := New(testProfile())
	candles := bars(30, 110, -0.5, 100) // last close 95.5, RSI pinned at 0
	tick := types.Ticker{Last: 95.5, High24h: 97, Low24h: 85}

	sig := g.Evaluate(testInstrument, tick, candles)
	if sig.Direction != types.Long {
		t.Fatalf("direction = %v, want long", sig.Direction)
	}
	// RSI 40 + extreme 20 + momentum 10; no displacement, proximity or whale.
	if math.Abs(sig.Strength-70) > 1e-9 {
		t.Errorf("strength = %v, want 70 (%s)", sig.Strength, sig.Rationale)
	}
	if sig.Whale {
		t.Error("flat volume must not flag whale")
	}
}

func TestOverboughtProducesShort(t *testing.T) {
	g := New(testProfile())
	candles := bars(30, 90, 0.5, 100) // last close 104.5, RSI pinned at 100
	tick := types.Ticker{Last: 104.5, High24h: 110, Low24h: 103}

	sig := g.Evaluate(testInstrument, tick, candles)
	if sig.Direction != types.Short {
		t.Fatalf("direction = %v, want short", sig.Direction)
	}
	if math.Abs(sig.Strength-70) > 1e-9 {
		t.Errorf("strength = %v, want 70 (%s)", sig.Strength, sig.Rationale)
	}
}

func TestWhaleVolumeBoostsStrength(t *testing.T) {
	g := New(testProfile())
	base := g.Evaluate(testInstrument, types.Ticker{Last: 95.5, High24h: 97, Low24h: 85}, bars(30, 110, -0.5, 100))
	boosted := g.Evaluate(testInstrument, types.Ticker{Last: 95.5, High24h: 97, Low24h: 85}, bars(30, 110, -0.5, 250))

	if !boosted.Whale {
		t.Fatal("2.5x volume spike should flag whale")
	}
	if math.Abs(boosted.Strength-(base.Strength+20)) > 1e-9 {
		t.Errorf("whale boost = %v over %v, want +20", boosted.Strength, base.Strength)
	}
}

func TestLowVolatilityDiscountsStrength(t *testing.T) {
	g := New(testProfile())
	candles := bars(30, 110, -0.5, 100)
	for i := range candles {
		candles[i].High = candles[i].Close // dead market: zero bar ranges
		candles[i].Low = candles[i].Close
	}
	sig := g.Evaluate(testInstrument, types.Ticker{Last: 95.5, High24h: 97, Low24h: 85}, candles)

	if math.Abs(sig.Strength-56) > 1e-9 { // 70 * 0.8
		t.Errorf("strength = %v, want 56 (%s)", sig.Strength, sig.Rationale)
	}
}

func TestNeutralHasZeroStrength(t *testing.T) {
	g := New(testProfile())
	candles := bars(30, 100, 0, 100)
	tick := types.Ticker{Last: 100, High24h: 104, Low24h: 96}

	sig := g.Evaluate(testInstrument, tick, candles)
	if sig.Direction != types.None {
		t.Fatalf("direction = %v, want none", sig.Direction)
	}
	if sig.Strength != 0 {
		t.Errorf("neutral signal must carry zero strength, got %v", sig.Strength)
	}
	if math.Abs(sig.RSI-50) > 1e-9 {
		t.Errorf("flat series RSI = %v, want 50", sig.RSI)
	}
}

func TestDisplacementResolvesDirectionAtNeutralRSI(t *testing.T) {
	g := New(testProfile())
	candles := bars(30, 91.5, 0, 100) // flat: RSI 50, momentum 0
	tick := types.Ticker{Last: 91.5, High24h: 100, Low24h: 91}

	sig := g.Evaluate(testInstrument, tick, candles)
	if sig.Direction != types.Long {
		t.Fatalf("8.5%% below the 24h high should bias long, got %v", sig.Direction)
	}
	// displacement 8.5*3 = 25.5 + near-low proximity 15, no RSI points.
	if math.Abs(sig.Strength-40.5) > 1e-9 {
		t.Errorf("strength = %v, want 40.5 (%s)", sig.Strength, sig.Rationale)
	}
}

func TestStrengthClampsAtHundred(t *testing.T) {
	g := New(testProfile())
	candles := bars(30, 110, -0.5, 300) // whale on top of everything else
	tick := types.Ticker{Last: 95.5, High24h: 110, Low24h: 95.5}

	sig := g.Evaluate(testInstrument, tick, candles)
	if sig.Strength != 100 {
		t.Errorf("strength = %v, want clamp at 100 (%s)", sig.Strength, sig.Rationale)
	}
}

func TestEvaluateSortsUnorderedCandles(t *testing.T) {
	g := New(testProfile())
	candles := bars(30, 110, -0.5, 100)
	for i, j := 0, len(candles)-1; i < j; i, j = i+1, j-1 {
		candles[i], candles[j] = candles[j], candles[i]
	}
	sig := g.Evaluate(testInstrument, types.Ticker{Last: 95.5, High24h: 97, Low24h: 85}, candles)

	if sig.Direction != types.Long || math.Abs(sig.Strength-70) > 1e-9 {
		t.Errorf("unordered feed changed the result: %v %v", sig.Direction, sig.Strength)
	}
}

func TestActionableThreshold(t *testing.T) {
	if (types.Signal{Direction: types.None, Strength: 100}).Actionable(40) {
		t.Error("neutral signal must never be actionable")
	}
	if (types.Signal{Direction: types.Long, Strength: 39.9}).Actionable(40) {
		t.Error("below-threshold signal must not be actionable")
	}
	if !(types.Signal{Direction: types.Long, Strength: 40}).Actionable(40) {
		t.Error("at-threshold signal must be actionable")
	}
}
