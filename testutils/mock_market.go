package testutils

import "context"

// MockMarket implements risk.MarketCheck with a canned answer.
type MockMarket struct {
	Safe   bool
	Reason string
	Calls  int
}

func (m *MockMarket) SafeToTrade(context.Context) (bool, string) {
	m.Calls++
	return m.Safe, m.Reason
}
