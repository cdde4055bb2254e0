// Package broker provides venue integration interfaces and implementations.
package broker

import (
	"context"

	"dip-trader/internal/models"
)

// Broker defines the venue operations the engine depends on. The wire
// protocol behind these calls is the implementation's concern; callers only
// see connect/disconnect, quote snapshots, a funds check and order placement.
type Broker interface {
	// Connect establishes a venue session. It blocks until the session is
	// usable or ctx expires.
	Connect(ctx context.Context, host string, port int, clientID int64) error

	// IsConnected is a pure status query with no side effects.
	IsConnected() bool

	// Disconnect tears down the session. Safe to call when already
	// disconnected.
	Disconnect() error

	// GetQuote returns the current market data snapshot for a symbol. Fields
	// the venue has not delivered yet are zero; callers poll until the quote
	// is usable.
	GetQuote(ctx context.Context, symbol string) (models.Quote, error)

	// AvailableFunds returns the cash available for new orders.
	AvailableFunds(ctx context.Context) (float64, error)

	// PlaceBuyOrder places a buy order for qty units at price and returns the
	// venue order ID.
	PlaceBuyOrder(ctx context.Context, symbol string, qty int, price float64) (string, error)
}

// OrderResult represents the result of an order placement.
type OrderResult struct {
	OrderID string
	Status  string
	Message string
}
