// Package position owns the open-position lifecycle: entries are tracked
// only after the exchange confirms an order id, exits fire on trailing
// stop, take-profit or stop-loss, and every realized result is folded into
// the daily risk counters.
package position

import (
	"context"
	"fmt"
	"time"

	"github.com/srllamadev/protocol-14-weex/config"
	"github.com/srllamadev/protocol-14-weex/exchange"
	"github.com/srllamadev/protocol-14-weex/journal"
	"github.com/srllamadev/protocol-14-weex/logger"
	"github.com/srllamadev/protocol-14-weex/metrics"
	"github.com/srllamadev/protocol-14-weex/risk"
	"github.com/srllamadev/protocol-14-weex/types"
)

// Exit reasons, used as journal kinds and metric labels.
const (
	ReasonTrailing   = "trailing"
	ReasonTakeProfit = "take_profit"
	ReasonStopLoss   = "stop_loss"
)

// Manager tracks open positions keyed by exchange order id. It is the sole
// owner of the container: nothing else adds or removes positions. Accessed
// only from the strategy-loop goroutine.
type Manager struct {
	gw      exchange.Gateway
	profile config.Profile
	state   *risk.State
	jrnl    journal.Journal
	log     logger.Logger
	now     func() time.Time

	positions map[string]*types.Position
}

// NewManager wires an empty manager.
func NewManager(gw exchange.Gateway, profile config.Profile, state *risk.State, jrnl journal.Journal, log logger.Logger) *Manager {
	return &Manager{
		gw:        gw,
		profile:   profile,
		state:     state,
		jrnl:      jrnl,
		log:       log,
		now:       time.Now,
		positions: make(map[string]*types.Position),
	}
}

// Count returns the number of tracked positions.
func (m *Manager) Count() int { return len(m.positions) }

// Open submits a market entry for the signal and starts tracking the
// position. Tracking begins only once the exchange confirms an order id:
// a rejected order leaves the book untouched and consumes no daily budget.
func (m *Manager) Open(ctx context.Context, sig types.Signal, size float64) (*types.Position, error) {
	side := types.EntrySide(sig.Direction)
	id, err := m.gw.PlaceOrder(ctx, types.Order{
		Symbol: sig.Instrument.Symbol,
		Side:   side,
		Kind:   types.Market,
		Size:   size,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", sig.Instrument.Symbol, err)
	}
	metrics.OrdersSubmitted.WithLabelValues(string(side)).Inc()

	pos := &types.Position{
		ID:            id,
		Instrument:    sig.Instrument,
		Direction:     sig.Direction,
		EntryPrice:    sig.Price,
		Size:          size,
		Leverage:      m.profile.Leverage,
		HighWaterMark: sig.Price,
		LowWaterMark:  sig.Price,
		OpenedAt:      m.now(),
	}
	if sig.Direction == types.Long {
		pos.TakeProfitPrice = sig.Price * (1 + m.profile.TakeProfitPct/100)
		pos.StopLossPrice = sig.Price * (1 - m.profile.StopLossPct/100)
	} else {
		pos.TakeProfitPrice = sig.Price * (1 - m.profile.TakeProfitPct/100)
		pos.StopLossPrice = sig.Price * (1 + m.profile.StopLossPct/100)
	}
	m.positions[id] = pos
	metrics.PositionsOpen.Set(float64(len(m.positions)))

	m.log.Info("position opened",
		logger.String("symbol", pos.Instrument.Symbol),
		logger.String("direction", string(pos.Direction)),
		logger.Float64("entry", pos.EntryPrice),
		logger.Float64("size", size),
		logger.String("order_id", id))
	m.jrnl.Record("trade_open", map[string]any{
		"order_id":  id,
		"symbol":    pos.Instrument.Symbol,
		"direction": pos.Direction,
		"entry":     pos.EntryPrice,
		"size":      size,
		"strength":  sig.Strength,
		"rationale": sig.Rationale,
	})
	return pos, nil
}

// Tick re-prices every tracked position and closes the ones that hit an
// exit condition. A ticker failure or close failure on one position never
// blocks evaluation of the others.
func (m *Manager) Tick(ctx context.Context) {
	for id, pos := range m.positions {
		tick, err := m.gw.GetTicker(ctx, pos.Instrument.Symbol)
		if err != nil {
			m.log.Warn("ticker fetch failed, position held",
				logger.String("symbol", pos.Instrument.Symbol), logger.Err(err))
			continue
		}
		if reason := m.evaluate(pos, tick.Last); reason != "" {
			if err := m.close(ctx, pos, tick.Last, reason); err != nil {
				m.log.Error("close failed, position still tracked",
					logger.String("order_id", id),
					logger.String("reason", reason),
					logger.Err(err))
			}
		}
	}
}

// pnlPct is the direction-adjusted unrealized move in percent.
func pnlPct(pos *types.Position, price float64) float64 {
	if pos.EntryPrice <= 0 {
		return 0
	}
	raw := (price - pos.EntryPrice) / pos.EntryPrice * 100
	if pos.Direction == types.Short {
		return -raw
	}
	return raw
}

// evaluate updates the water marks and trailing state, then returns the
// exit reason to act on, or "" to hold. Exit precedence: trailing stop,
// take-profit, stop-loss. Arming is one-way; a dip back below the
// activation threshold never disarms the trailing stop.
func (m *Manager) evaluate(pos *types.Position, price float64) string {
	if price > pos.HighWaterMark {
		pos.HighWaterMark = price
	}
	if price < pos.LowWaterMark {
		pos.LowWaterMark = price
	}

	pnl := pnlPct(pos, price)

	if m.profile.TrailingPct > 0 && !pos.TrailingActive && pnl >= m.profile.TrailingActivationPct {
		pos.TrailingActive = true
		m.log.Info("trailing stop armed",
			logger.String("symbol", pos.Instrument.Symbol),
			logger.Float64("pnl_pct", pnl))
	}

	if pos.TrailingActive {
		var retrace float64
		if pos.Direction == types.Long {
			retrace = (pos.HighWaterMark - price) / pos.HighWaterMark * 100
		} else {
			retrace = (price - pos.LowWaterMark) / pos.LowWaterMark * 100
		}
		if retrace >= m.profile.TrailingPct {
			return ReasonTrailing
		}
	}
	if pnl >= m.profile.TakeProfitPct {
		return ReasonTakeProfit
	}
	if pnl <= -m.profile.StopLossPct {
		return ReasonStopLoss
	}
	return ""
}

// close flattens the position with a market order for the full size. On
// failure the position stays tracked so the next tick retries the exit.
func (m *Manager) close(ctx context.Context, pos *types.Position, price float64, reason string) error {
	side := types.ExitSide(pos.Direction)
	if _, err := m.gw.PlaceOrder(ctx, types.Order{
		Symbol: pos.Instrument.Symbol,
		Side:   side,
		Kind:   types.Market,
		Size:   pos.Size,
	}); err != nil {
		return err
	}
	metrics.OrdersSubmitted.WithLabelValues(string(side)).Inc()

	delete(m.positions, pos.ID)
	metrics.PositionsOpen.Set(float64(len(m.positions)))
	metrics.PositionsClosed.WithLabelValues(reason).Inc()

	pnl := pnlPct(pos, price)
	realized := pnl * pos.Size * pos.EntryPrice / 100
	m.state.RecordPnL(realized)

	m.log.Info("position closed",
		logger.String("symbol", pos.Instrument.Symbol),
		logger.String("reason", reason),
		logger.Float64("exit", price),
		logger.Float64("pnl_pct", pnl),
		logger.Float64("realized", realized))
	m.jrnl.Record("trade_close", map[string]any{
		"order_id":  pos.ID,
		"symbol":    pos.Instrument.Symbol,
		"direction": pos.Direction,
		"entry":     pos.EntryPrice,
		"exit":      price,
		"reason":    reason,
		"pnl_pct":   pnl,
		"realized":  realized,
	})
	return nil
}
