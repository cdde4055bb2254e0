// Package models defines the core data types shared across the application.
package models

import "time"

// TradingMode selects live or paper trading.
type TradingMode string

const (
	ModeLive  TradingMode = "live"
	ModePaper TradingMode = "paper"
)

// MarketStatus represents the current state of the exchange.
type MarketStatus string

const (
	MarketOpen    MarketStatus = "OPEN"
	MarketClosed  MarketStatus = "CLOSED"
	MarketPreOpen MarketStatus = "PRE_OPEN"
)

// Quote is a point-in-time market data snapshot for a symbol. Last is the
// last-trade price, Close the previous session close. A zero value means the
// field has not been populated by the venue yet.
type Quote struct {
	Symbol    string
	Last      float64
	Close     float64
	Timestamp time.Time
}

// Price returns the tradable price for the quote: last-trade when available,
// otherwise previous close. ok is false when neither is populated.
func (q Quote) Price() (price float64, ok bool) {
	if q.Last > 0 {
		return q.Last, true
	}
	if q.Close > 0 {
		return q.Close, true
	}
	return 0, false
}

// Observation is one benchmark poll result within a session.
type Observation struct {
	Timestamp  time.Time
	Price      float64
	DeclinePct float64
}
