package risk

import (
	"github.com/shopspring/decimal"

	"github.com/srllamadev/protocol-14-weex/types"
)

// RoundToStep quantizes x to the nearest multiple of step, rounding half up.
// Truncation would systematically under-size orders, so it is deliberately
// avoided. Idempotent: re-rounding a rounded value is a no-op. Decimal
// arithmetic sidesteps float drift on steps like 0.1.
func RoundToStep(x, step float64) float64 {
	if step <= 0 {
		return x
	}
	dx := decimal.NewFromFloat(x)
	ds := decimal.NewFromFloat(step)
	out, _ := dx.Div(ds).Round(0).Mul(ds).Float64()
	return out
}

// CalcSize converts a margin budget into an exchange-legal order size:
// notional = budget x leverage, raw = notional / price, quantized to the
// instrument's step and floored to its minimum. Never returns zero while
// budget and price are positive.
func CalcSize(marginBudget float64, leverage int, price float64, inst types.Instrument) float64 {
	if marginBudget <= 0 || price <= 0 || leverage <= 0 {
		return 0
	}
	notional := marginBudget * float64(leverage)
	size := RoundToStep(notional/price, inst.StepSize)
	if size < inst.MinSize {
		size = inst.MinSize
	}
	if size <= 0 {
		size = inst.StepSize
	}
	return size
}
