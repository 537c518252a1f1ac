// Package exchange talks to the WEEX contract REST API and normalizes its
// responses into the core types. Nothing outside this package sees raw
// exchange payloads.
package exchange

import (
	"context"
	"errors"

	"github.com/srllamadev/protocol-14-weex/types"
)

// ErrRejected marks an order the exchange refused (insufficient margin, bad
// size, risk control). Transport failures are returned as ordinary wrapped
// errors; callers that retry must distinguish the two.
var ErrRejected = errors.New("order rejected by exchange")

// PositionInfo is a normalized open-position row from the exchange.
type PositionInfo struct {
	Symbol     string
	Side       types.Side
	Size       float64
	EntryPrice float64
}

// OrderInfo is a normalized open-order row from the exchange.
type OrderInfo struct {
	OrderID string
	Symbol  string
	Side    types.Side
	Size    float64
	Price   float64
}

// Gateway is the exchange surface the strategy core depends on. The WEEX
// client implements it; tests substitute a scripted mock.
type Gateway interface {
	GetTicker(ctx context.Context, symbol string) (types.Ticker, error)
	GetCandles(ctx context.Context, symbol, granularity string, limit int) ([]types.Candle, error)
	GetBalance(ctx context.Context) (types.Balance, error)
	SetLeverage(ctx context.Context, symbol string, leverage int) error
	PlaceOrder(ctx context.Context, order types.Order) (string, error)
	CancelOrder(ctx context.Context, symbol, orderID string) error
	GetOpenPositions(ctx context.Context) ([]PositionInfo, error)
	GetOpenOrders(ctx context.Context, symbol string) ([]OrderInfo, error)
}
