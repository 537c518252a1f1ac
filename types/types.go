package types

import (
	"sort"
	"time"
)

// Direction is the directional bias of a signal or position.
type Direction string

const (
	Long  Direction = "long"
	Short Direction = "short"
	None  Direction = "none"
)

// Side is the WEEX contract order side.
type Side string

const (
	OpenLong   Side = "open_long"
	OpenShort  Side = "open_short"
	CloseLong  Side = "close_long"
	CloseShort Side = "close_short"
)

// EntrySide maps a direction to the side that opens a position.
func EntrySide(d Direction) Side {
	if d == Short {
		return OpenShort
	}
	return OpenLong
}

// ExitSide maps a direction to the side that flattens a position.
func ExitSide(d Direction) Side {
	if d == Short {
		return CloseShort
	}
	return CloseLong
}

// OrderKind distinguishes market from limit orders.
type OrderKind string

const (
	Market OrderKind = "market"
	Limit  OrderKind = "limit"
)

// Candle is a single OHLCV bar. Immutable once received.
type Candle struct {
	Timestamp int64
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
}

// SortCandles orders a candle slice ascending by timestamp, in place.
// Gateway feeds may deliver bars in arbitrary order.
func SortCandles(cs []Candle) {
	sort.Slice(cs, func(i, j int) bool { return cs[i].Timestamp < cs[j].Timestamp })
}

// Closes extracts the close series from an ordered candle slice.
func Closes(cs []Candle) []float64 {
	out := make([]float64, len(cs))
	for i, c := range cs {
		out[i] = c.Close
	}
	return out
}

// Highs extracts the high series from an ordered candle slice.
func Highs(cs []Candle) []float64 {
	out := make([]float64, len(cs))
	for i, c := range cs {
		out[i] = c.High
	}
	return out
}

// Lows extracts the low series from an ordered candle slice.
func Lows(cs []Candle) []float64 {
	out := make([]float64, len(cs))
	for i, c := range cs {
		out[i] = c.Low
	}
	return out
}

// Volumes extracts the volume series from an ordered candle slice.
func Volumes(cs []Candle) []float64 {
	out := make([]float64, len(cs))
	for i, c := range cs {
		out[i] = c.Volume
	}
	return out
}

// Instrument identifies a tradable contract and its exchange quantization
// rules. Static configuration, looked up by symbol.
type Instrument struct {
	Symbol   string  `yaml:"symbol"`
	StepSize float64 `yaml:"step_size"`
	MinSize  float64 `yaml:"min_size"`
}

// Ticker is the normalized ticker payload the core consumes.
type Ticker struct {
	Last    float64
	High24h float64
	Low24h  float64
}

// Balance is a point-in-time account snapshot. Never cached across cycles:
// available margin changes with every fill.
type Balance struct {
	Equity        float64
	Available     float64
	Frozen        float64
	UnrealizedPnL float64
}

// Order is an order request handed to the gateway.
type Order struct {
	Symbol string
	Side   Side
	Kind   OrderKind
	Size   float64
	Price  float64 // limit price; 0 = market
}

// Signal is a directional trade call derived fresh each scan cycle.
type Signal struct {
	Instrument  Instrument
	Price       float64
	RSI         float64
	Momentum    float64
	Volatility  float64
	VolumeRatio float64
	Direction   Direction
	Strength    float64 // 0..100
	Whale       bool
	Rationale   string
}

// Actionable reports whether the signal clears the minimum strength bar.
func (s Signal) Actionable(minStrength float64) bool {
	return s.Direction != None && s.Strength >= minStrength
}

// Position is one tracked open position. Owned exclusively by the position
// manager; at most one tracked position per exchange order id.
type Position struct {
	ID              string
	Instrument      Instrument
	Direction       Direction
	EntryPrice      float64
	Size            float64
	Leverage        int
	StopLossPrice   float64
	TakeProfitPrice float64
	TrailingActive  bool
	HighWaterMark   float64
	LowWaterMark    float64
	OpenedAt        time.Time
}
