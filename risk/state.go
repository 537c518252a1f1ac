package risk

import (
	"fmt"
	"os"
	"time"

	json "github.com/goccy/go-json"

	"github.com/srllamadev/protocol-14-weex/metrics"
)

const dayLayout = "2006-01-02"

// State holds the process-wide daily counters: realized P&L, trade count and
// per-instrument last-trade timestamps. Counters are scoped to the UTC
// trading day and reset lazily on first touch after midnight; cooldown
// timestamps intentionally survive the rollover. Accessed only from the
// single strategy-loop goroutine, so no locking.
type State struct {
	dailyPnL    float64
	tradesToday int
	lastTrade   map[string]time.Time
	day         string

	now func() time.Time
}

// NewState returns empty counters anchored to the current UTC day.
func NewState() *State {
	s := &State{
		lastTrade: make(map[string]time.Time),
		now:       time.Now,
	}
	s.day = s.now().UTC().Format(dayLayout)
	return s
}

func (s *State) rollover() {
	d := s.now().UTC().Format(dayLayout)
	if d != s.day {
		s.day = d
		s.dailyPnL = 0
		s.tradesToday = 0
		metrics.DailyPnL.Set(0)
	}
}

// DailyPnL returns the realized P&L accumulated today.
func (s *State) DailyPnL() float64 {
	s.rollover()
	return s.dailyPnL
}

// TradesToday returns the number of entries recorded today.
func (s *State) TradesToday() int {
	s.rollover()
	return s.tradesToday
}

// RecordTrade bumps the daily trade counter and starts the instrument's
// cooldown window. Called only for confirmed entries: rejected orders must
// not consume the daily budget.
func (s *State) RecordTrade(symbol string) {
	s.rollover()
	s.tradesToday++
	s.lastTrade[symbol] = s.now()
}

// RecordPnL folds a realized result into the daily total.
func (s *State) RecordPnL(v float64) {
	s.rollover()
	s.dailyPnL += v
	metrics.DailyPnL.Set(s.dailyPnL)
}

// OnCooldown reports whether the instrument traded within the window.
func (s *State) OnCooldown(symbol string, window time.Duration) bool {
	last, ok := s.lastTrade[symbol]
	if !ok || window <= 0 {
		return false
	}
	return s.now().Sub(last) < window
}

type stateSnapshot struct {
	Day         string               `json:"day"`
	DailyPnL    float64              `json:"daily_pnl"`
	TradesToday int                  `json:"trades_today"`
	LastTrade   map[string]time.Time `json:"last_trade"`
}

// Save writes a JSON snapshot of the counters. Persistence is an explicit
// shutdown step, not something the loop does implicitly.
func (s *State) Save(path string) error {
	s.rollover()
	snap := stateSnapshot{
		Day:         s.day,
		DailyPnL:    s.dailyPnL,
		TradesToday: s.tradesToday,
		LastTrade:   s.lastTrade,
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal risk state: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write risk state: %w", err)
	}
	return nil
}

// Restore loads a snapshot saved by a previous run. Counters from an earlier
// UTC day are discarded; cooldown timestamps are kept either way. A missing
// file is not an error.
func (s *State) Restore(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read risk state: %w", err)
	}
	var snap stateSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("decode risk state: %w", err)
	}
	if snap.LastTrade != nil {
		s.lastTrade = snap.LastTrade
	}
	if snap.Day == s.now().UTC().Format(dayLayout) {
		s.day = snap.Day
		s.dailyPnL = snap.DailyPnL
		s.tradesToday = snap.TradesToday
		metrics.DailyPnL.Set(s.dailyPnL)
	}
	return nil
}
