package broker

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"dip-trader/internal/errors"
	"dip-trader/internal/models"
)

// PaperBroker simulates a venue in-process for paper trading. Quotes follow a
// small random walk around seeded prices; orders always fill at the requested
// price and debit a simulated cash balance.
type PaperBroker struct {
	mu        sync.RWMutex
	connected bool
	cash      float64
	prices    map[string]float64
	closes    map[string]float64
	orders    []OrderResult
	counter   int
	rng       *rand.Rand
}

// PaperBrokerConfig holds configuration for the paper broker.
type PaperBrokerConfig struct {
	StartingCash float64
	Prices       map[string]float64
	Seed         int64
}

// NewPaperBroker creates a new paper trading broker.
func NewPaperBroker(cfg PaperBrokerConfig) *PaperBroker {
	cash := cfg.StartingCash
	if cash == 0 {
		cash = 100000
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	prices := make(map[string]float64, len(cfg.Prices))
	closes := make(map[string]float64, len(cfg.Prices))
	for sym, px := range cfg.Prices {
		prices[sym] = px
		closes[sym] = px
	}
	return &PaperBroker{
		cash:   cash,
		prices: prices,
		closes: closes,
		rng:    rand.New(rand.NewSource(seed)),
	}
}

// Connect marks the simulated session as established.
func (p *PaperBroker) Connect(ctx context.Context, host string, port int, clientID int64) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	p.mu.Lock()
	p.connected = true
	p.mu.Unlock()
	return nil
}

// IsConnected reports the simulated session state.
func (p *PaperBroker) IsConnected() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.connected
}

// Disconnect tears down the simulated session. Idempotent.
func (p *PaperBroker) Disconnect() error {
	p.mu.Lock()
	p.connected = false
	p.mu.Unlock()
	return nil
}

// GetQuote returns a simulated quote. Unknown symbols yield an empty quote so
// callers exercise their unavailable-price path.
func (p *PaperBroker) GetQuote(ctx context.Context, symbol string) (models.Quote, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.connected {
		return models.Quote{}, errors.ErrNotConnected
	}
	px, ok := p.prices[symbol]
	if !ok {
		return models.Quote{Symbol: symbol, Timestamp: time.Now()}, nil
	}
	// Drift up to ±0.2% per sample.
	px *= 1 + (p.rng.Float64()-0.5)*0.004
	p.prices[symbol] = px
	return models.Quote{
		Symbol:    symbol,
		Last:      px,
		Close:     p.closes[symbol],
		Timestamp: time.Now(),
	}, nil
}

// AvailableFunds returns the simulated cash balance.
func (p *PaperBroker) AvailableFunds(ctx context.Context) (float64, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if !p.connected {
		return 0, errors.ErrNotConnected
	}
	return p.cash, nil
}

// PlaceBuyOrder fills a simulated buy order at the requested price.
func (p *PaperBroker) PlaceBuyOrder(ctx context.Context, symbol string, qty int, price float64) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.connected {
		return "", errors.ErrNotConnected
	}
	cost := price * float64(qty)
	if cost > p.cash {
		return "", errors.ErrInsufficientFunds
	}
	p.cash -= cost
	p.counter++
	orderID := fmt.Sprintf("PAPER_%d_%d", time.Now().Unix(), p.counter)
	p.orders = append(p.orders, OrderResult{OrderID: orderID, Status: "FILLED"})
	return orderID, nil
}

// Cash returns the remaining simulated balance.
func (p *PaperBroker) Cash() float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.cash
}

// Orders returns the simulated order history.
func (p *PaperBroker) Orders() []OrderResult {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]OrderResult, len(p.orders))
	copy(out, p.orders)
	return out
}
