package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	OrdersSubmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weexbot_orders_submitted_total",
			Help: "Total number of orders submitted (by side).",
		},
		[]string{"side"},
	)

	PositionsOpen = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "weexbot_positions_open",
			Help: "Current number of tracked open positions.",
		},
	)

	PositionsClosed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weexbot_positions_closed_total",
			Help: "Positions closed, by exit reason.",
		},
		[]string{"reason"},
	)

	DailyPnL = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "weexbot_daily_pnl_usd",
			Help: "Realized P&L accumulated for the current UTC day.",
		},
	)

	Cycles = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "weexbot_cycles_total",
			Help: "Completed strategy loop cycles.",
		},
	)

	GateBlocked = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weexbot_gate_blocked_total",
			Help: "Cycles blocked by the risk governor, by reason class.",
		},
		[]string{"reason"},
	)
)

func init() {
	prometheus.MustRegister(OrdersSubmitted, PositionsOpen, PositionsClosed, DailyPnL, Cycles, GateBlocked)
}
