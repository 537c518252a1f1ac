// Package engine runs the strategy loop: one cycle refreshes the account,
// clears the risk gate, manages open positions, then scans for new entries.
package engine

import (
	"context"
	"sort"
	"time"

	"github.com/srllamadev/protocol-14-weex/config"
	"github.com/srllamadev/protocol-14-weex/exchange"
	"github.com/srllamadev/protocol-14-weex/journal"
	"github.com/srllamadev/protocol-14-weex/logger"
	"github.com/srllamadev/protocol-14-weex/metrics"
	"github.com/srllamadev/protocol-14-weex/position"
	"github.com/srllamadev/protocol-14-weex/risk"
	"github.com/srllamadev/protocol-14-weex/types"
)

// Evaluator produces a signal from market data. Satisfied by
// signal.Generator; tests script it.
type Evaluator interface {
	Evaluate(inst types.Instrument, tick types.Ticker, candles []types.Candle) types.Signal
}

// Engine drives the scan/manage cycle. Single-goroutine by construction:
// every collaborator is called from Run's loop only.
type Engine struct {
	cfg  *config.Config
	gw   exchange.Gateway
	gen  Evaluator
	gov  *risk.Governor
	mgr  *position.Manager
	jrnl journal.Journal
	log  logger.Logger
}

// New wires the loop.
func New(cfg *config.Config, gw exchange.Gateway, gen Evaluator, gov *risk.Governor,
	mgr *position.Manager, jrnl journal.Journal, log logger.Logger) *Engine {
	return &Engine{cfg: cfg, gw: gw, gen: gen, gov: gov, mgr: mgr, jrnl: jrnl, log: log}
}

// Run executes cycles until the context is cancelled, sleeping the
// configured scan interval between them. Returns nil on clean shutdown.
func (e *Engine) Run(ctx context.Context) error {
	interval := time.Duration(e.cfg.Profile.ScanIntervalSeconds) * time.Second
	e.log.Info("strategy loop started",
		logger.String("profile", e.cfg.Profile.Name),
		logger.Int("instruments", len(e.cfg.Instruments)),
		logger.Int("leverage", e.cfg.Profile.Leverage))

	for {
		select {
		case <-ctx.Done():
			e.finish()
			return nil
		default:
		}

		e.Cycle(ctx)
		metrics.Cycles.Inc()

		select {
		case <-ctx.Done():
			e.finish()
			return nil
		case <-time.After(interval):
		}
	}
}

func (e *Engine) finish() {
	e.log.Info("strategy loop stopped",
		logger.Int("open_positions", e.mgr.Count()),
		logger.Float64("daily_pnl", e.gov.State().DailyPnL()),
		logger.Int("trades_today", e.gov.State().TradesToday()))
}

// Cycle runs one iteration: balance, gate, position tick, scan, entries.
func (e *Engine) Cycle(ctx context.Context) {
	bal, err := e.gw.GetBalance(ctx)
	if err != nil {
		e.log.Warn("balance refresh failed, cycle skipped", logger.Err(err))
		return
	}

	if ok, reason := e.gov.Check(ctx, bal); !ok {
		e.log.Warn("trading gate closed", logger.String("reason", reason))
		e.jrnl.Record("gate_blocked", map[string]any{"reason": reason})
		return
	}

	e.mgr.Tick(ctx)

	capacity := e.cfg.Limits.MaxPositions - e.mgr.Count()
	if capacity <= 0 {
		return
	}

	signals := e.scan(ctx)
	// whale signals first, then raw strength
	sort.SliceStable(signals, func(i, j int) bool {
		if signals[i].Whale != signals[j].Whale {
			return signals[i].Whale
		}
		return signals[i].Strength > signals[j].Strength
	})

	entries := 0
	for _, sig := range signals {
		if entries >= e.cfg.Profile.MaxEntriesPerScan || capacity <= 0 {
			break
		}

		// Margin floor re-checked per entry: each fill consumes margin.
		budget := bal.Available * e.cfg.Limits.MarginUsagePct / 100
		if budget < e.cfg.Limits.MinTradeUSD {
			e.jrnl.Record("entry_skipped", map[string]any{
				"symbol": sig.Instrument.Symbol,
				"reason": "margin below trade floor",
				"budget": budget,
			})
			break
		}
		size := risk.CalcSize(budget, e.cfg.Profile.Leverage, sig.Price, sig.Instrument)
		if size <= 0 {
			continue
		}

		if err := e.gw.SetLeverage(ctx, sig.Instrument.Symbol, e.cfg.Profile.Leverage); err != nil {
			e.log.Warn("set leverage failed, entry skipped",
				logger.String("symbol", sig.Instrument.Symbol), logger.Err(err))
			continue
		}
		if _, err := e.mgr.Open(ctx, sig, size); err != nil {
			e.log.Error("entry failed",
				logger.String("symbol", sig.Instrument.Symbol), logger.Err(err))
			continue
		}
		e.gov.State().RecordTrade(sig.Instrument.Symbol)
		entries++
		capacity--

		if b, err := e.gw.GetBalance(ctx); err == nil {
			bal = b
		}
	}
}

// scan evaluates every configured instrument not on cooldown and returns
// the actionable signals. A fetch failure skips that instrument only.
func (e *Engine) scan(ctx context.Context) []types.Signal {
	var out []types.Signal
	for _, inst := range e.cfg.Instruments {
		if e.gov.OnCooldown(inst.Symbol) {
			continue
		}
		tick, err := e.gw.GetTicker(ctx, inst.Symbol)
		if err != nil {
			e.log.Warn("ticker fetch failed, instrument skipped",
				logger.String("symbol", inst.Symbol), logger.Err(err))
			continue
		}
		candles, err := e.gw.GetCandles(ctx, inst.Symbol, e.cfg.Profile.CandleGranularity, e.cfg.Profile.CandleLimit)
		if err != nil {
			e.log.Warn("candle fetch failed, instrument skipped",
				logger.String("symbol", inst.Symbol), logger.Err(err))
			continue
		}

		sig := e.gen.Evaluate(inst, tick, candles)
		e.jrnl.Record("decision", map[string]any{
			"symbol":    inst.Symbol,
			"direction": sig.Direction,
			"strength":  sig.Strength,
			"whale":     sig.Whale,
			"rationale": sig.Rationale,
		})
		if sig.Actionable(e.cfg.Profile.MinStrength) {
			out = append(out, sig)
		}
	}
	return out
}
