package testutils

import (
	"context"
	"fmt"
	"sync"

	"github.com/srllamadev/protocol-14-weex/exchange"
	"github.com/srllamadev/protocol-14-weex/types"
)

// MockGateway implements the exchange Gateway in-memory. Tests script its
// market data up front and inspect the orders it captured afterwards.
type MockGateway struct {
	mu sync.Mutex

	Tickers  map[string]types.Ticker
	Candles  map[string][]types.Candle
	Balance  types.Balance
	Leverage map[string]int

	// error injection, checked before the scripted data
	TickerErr  map[string]error
	CandleErr  map[string]error
	BalanceErr error
	PlaceErr   error

	orders []types.Order
	nextID int
}

// NewMockGateway creates an empty gateway with the supplied balance.
func NewMockGateway(balance types.Balance) *MockGateway {
	return &MockGateway{
		Tickers:   make(map[string]types.Ticker),
		Candles:   make(map[string][]types.Candle),
		Balance:   balance,
		Leverage:  make(map[string]int),
		TickerErr: make(map[string]error),
		CandleErr: make(map[string]error),
	}
}

func (g *MockGateway) GetTicker(_ context.Context, symbol string) (types.Ticker, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.TickerErr[symbol]; err != nil {
		return types.Ticker{}, err
	}
	t, ok := g.Tickers[symbol]
	if !ok {
		return types.Ticker{}, fmt.Errorf("no ticker scripted for %s", symbol)
	}
	return t, nil
}

func (g *MockGateway) GetCandles(_ context.Context, symbol, _ string, _ int) ([]types.Candle, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.CandleErr[symbol]; err != nil {
		return nil, err
	}
	cs := g.Candles[symbol]
	out := make([]types.Candle, len(cs))
	copy(out, cs)
	return out, nil
}

func (g *MockGateway) GetBalance(context.Context) (types.Balance, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.BalanceErr != nil {
		return types.Balance{}, g.BalanceErr
	}
	return g.Balance, nil
}

func (g *MockGateway) SetLeverage(_ context.Context, symbol string, leverage int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Leverage[symbol] = leverage
	return nil
}

// PlaceOrder records the order and hands back a sequential id.
func (g *MockGateway) PlaceOrder(_ context.Context, order types.Order) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.PlaceErr != nil {
		return "", g.PlaceErr
	}
	g.orders = append(g.orders, order)
	g.nextID++
	return fmt.Sprintf("mock-%d", g.nextID), nil
}

func (g *MockGateway) CancelOrder(context.Context, string, string) error { return nil }

func (g *MockGateway) GetOpenPositions(context.Context) ([]exchange.PositionInfo, error) {
	return nil, nil
}

func (g *MockGateway) GetOpenOrders(context.Context, string) ([]exchange.OrderInfo, error) {
	return nil, nil
}

// Orders returns a copy of all captured orders (useful for assertions).
func (g *MockGateway) Orders() []types.Order {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]types.Order, len(g.orders))
	copy(out, g.orders)
	return out
}
