package trading

import (
	"context"
	"time"

	"dip-trader/internal/broker"
	"dip-trader/internal/errors"
	"dip-trader/internal/models"
)

// PriceOracle resolves the current tradable price for a symbol. It samples
// the broker's quote snapshot at a fine interval for a bounded window,
// preferring the last-trade price and falling back to the previous close.
// The bounded wait is the oracle's only retry behavior; callers decide
// whether to retry the whole poll cycle.
type PriceOracle struct {
	broker broker.Broker
	wait   time.Duration
	sample time.Duration
	sleep  SleepFunc
	now    func() time.Time
}

// NewPriceOracle creates an oracle with the given wait window and sampling
// interval.
func NewPriceOracle(b broker.Broker, wait, sample time.Duration) *PriceOracle {
	return &PriceOracle{
		broker: b,
		wait:   wait,
		sample: sample,
		sleep:  SleepContext,
		now:    time.Now,
	}
}

// GetPrice returns the current price for symbol, or a PriceError when the
// connection is down or no price arrives within the wait window.
func (o *PriceOracle) GetPrice(ctx context.Context, symbol string) (float64, error) {
	q, err := o.GetQuote(ctx, symbol)
	if err != nil {
		return 0, err
	}
	price, _ := q.Price()
	return price, nil
}

// GetQuote returns the first usable quote for symbol within the wait window.
// The returned quote always carries a resolvable price.
func (o *PriceOracle) GetQuote(ctx context.Context, symbol string) (models.Quote, error) {
	if !o.broker.IsConnected() {
		return models.Quote{}, errors.NewPriceError(symbol, "connection not active", errors.ErrNotConnected)
	}

	deadline := o.now().Add(o.wait)
	for {
		q, err := o.broker.GetQuote(ctx, symbol)
		if err != nil {
			return models.Quote{}, errors.NewPriceError(symbol, "quote request failed", err)
		}
		if _, ok := q.Price(); ok {
			return q, nil
		}
		if o.now().Add(o.sample).After(deadline) {
			return models.Quote{}, errors.NewPriceError(symbol, "no market data within wait window", errors.ErrTimeout)
		}
		if err := o.sleep(ctx, o.sample); err != nil {
			return models.Quote{}, errors.NewPriceError(symbol, "wait interrupted", err)
		}
	}
}
