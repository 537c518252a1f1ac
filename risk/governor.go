// Package risk owns the pre-trade guard-rails: position sizing under
// exchange quantization rules, the daily counters, and the governor gate
// every cycle must clear before the bot scans for entries.
package risk

import (
	"context"
	"fmt"
	"time"

	"github.com/srllamadev/protocol-14-weex/config"
	"github.com/srllamadev/protocol-14-weex/metrics"
	"github.com/srllamadev/protocol-14-weex/types"
)

// MarketCheck is the external market-safety collaborator (fear/greed index,
// global volatility). Its verbatim reason string is surfaced to operators.
type MarketCheck interface {
	SafeToTrade(ctx context.Context) (bool, string)
}

// Governor evaluates the global trading gate fresh every cycle,
// short-circuiting on the first failing condition.
type Governor struct {
	limits config.Limits
	market MarketCheck
	state  *State
}

// NewGovernor wires the gate. market may be nil, in which case the external
// safety check is skipped.
func NewGovernor(limits config.Limits, market MarketCheck, state *State) *Governor {
	return &Governor{limits: limits, market: market, state: state}
}

// State exposes the owned counters for bookkeeping by the caller.
func (g *Governor) State() *State { return g.state }

// Check runs the global gate in order: market safety, daily loss cap, daily
// trade cap, balance floor. The first failing condition wins and later
// conditions are not evaluated.
func (g *Governor) Check(ctx context.Context, bal types.Balance) (bool, string) {
	if g.market != nil {
		if ok, reason := g.market.SafeToTrade(ctx); !ok {
			metrics.GateBlocked.WithLabelValues("market").Inc()
			return false, reason
		}
	}
	if pnl := g.state.DailyPnL(); pnl <= -g.limits.MaxDailyLoss {
		metrics.GateBlocked.WithLabelValues("daily_loss").Inc()
		return false, fmt.Sprintf("daily loss limit reached: %.2f", pnl)
	}
	if trades := g.state.TradesToday(); trades >= g.limits.MaxDailyTrades {
		metrics.GateBlocked.WithLabelValues("daily_trades").Inc()
		return false, fmt.Sprintf("daily trade limit reached: %d", trades)
	}
	if bal.Available < g.limits.MinBalance {
		metrics.GateBlocked.WithLabelValues("balance").Inc()
		return false, fmt.Sprintf("balance floor: %.2f available, %.2f required", bal.Available, g.limits.MinBalance)
	}
	return true, "ok"
}

// OnCooldown reports whether new entries on the instrument are blocked by
// its cooldown window. Independent of the global gate: one instrument
// cooling down never blocks evaluation of the others.
func (g *Governor) OnCooldown(symbol string) bool {
	return g.state.OnCooldown(symbol, time.Duration(g.limits.CooldownSeconds)*time.Second)
}
