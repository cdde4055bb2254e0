package models

import (
	"time"

	"github.com/google/uuid"
)

// Session is one monitoring run from connection to teardown. The target
// symbol is immutable once set; the baseline price is set exactly once on the
// first successful benchmark read and never overwritten.
type Session struct {
	ID              string
	Symbol          string
	BenchmarkSymbol string
	Mode            TradingMode
	StartedAt       time.Time
	EndedAt         time.Time

	baseline    float64
	baselineSet bool

	observations []Observation
	records      []TradeRecord
}

// NewSession creates a session for the given target and benchmark symbols.
func NewSession(symbol, benchmark string, mode TradingMode) *Session {
	return &Session{
		ID:              uuid.NewString(),
		Symbol:          symbol,
		BenchmarkSymbol: benchmark,
		Mode:            mode,
		StartedAt:       time.Now(),
	}
}

// Baseline returns the session baseline price and whether it has been set.
func (s *Session) Baseline() (float64, bool) {
	return s.baseline, s.baselineSet
}

// SetBaseline records the session baseline. Only the first call has any
// effect; later calls are ignored.
func (s *Session) SetBaseline(price float64) {
	if s.baselineSet {
		return
	}
	s.baseline = price
	s.baselineSet = true
}

// Observe appends a benchmark observation to the session history.
func (s *Session) Observe(obs Observation) {
	s.observations = append(s.observations, obs)
}

// Observations returns the ordered benchmark poll history.
func (s *Session) Observations() []Observation {
	return s.observations
}

// AppendRecord appends a trade record to the session log. Records are
// immutable once appended and are never removed.
func (s *Session) AppendRecord(rec TradeRecord) {
	s.records = append(s.records, rec)
}

// Records returns the ordered trade record log.
func (s *Session) Records() []TradeRecord {
	return s.records
}

// TradeRecord is the immutable record of one executed trade.
type TradeRecord struct {
	ID             string    `csv:"id"`
	SessionID      string    `csv:"session_id"`
	Timestamp      time.Time `csv:"-"`
	Date           string    `csv:"date"`
	Symbol         string    `csv:"symbol"`
	Price          float64   `csv:"price"`
	Quantity       int       `csv:"quantity"`
	TotalCost      float64   `csv:"total_cost"`
	DeclinePct     float64   `csv:"benchmark_drop_pct"`
	ScreenshotPath string    `csv:"screenshot_path"`
	IsPaper        bool      `csv:"is_paper"`
}

// NewTradeRecord builds a trade record for a filled order.
func NewTradeRecord(sessionID, symbol string, price float64, qty int, declinePct float64, isPaper bool) TradeRecord {
	now := time.Now()
	return TradeRecord{
		ID:         uuid.NewString(),
		SessionID:  sessionID,
		Timestamp:  now,
		Date:       now.Format("2006-01-02 15:04:05"),
		Symbol:     symbol,
		Price:      price,
		Quantity:   qty,
		TotalCost:  price * float64(qty),
		DeclinePct: declinePct,
		IsPaper:    isPaper,
	}
}

// TradingSummary is a derived, read-only aggregate assembled at session end
// for reporting and notification. It is never persisted as its own entity.
type TradingSummary struct {
	SessionID       string
	Symbol          string
	Mode            TradingMode
	BenchmarkSymbol string
	BaselinePrice   float64
	FinalPrice      float64
	TotalDeclinePct float64
	TotalTrades     int
	EntryPrice      float64
	StartedAt       time.Time
	EndedAt         time.Time
}

// Summarize assembles the trading summary for a finished session.
func (s *Session) Summarize() TradingSummary {
	sum := TradingSummary{
		SessionID:       s.ID,
		Symbol:          s.Symbol,
		Mode:            s.Mode,
		BenchmarkSymbol: s.BenchmarkSymbol,
		TotalTrades:     len(s.records),
		StartedAt:       s.StartedAt,
		EndedAt:         s.EndedAt,
	}
	if s.baselineSet {
		sum.BaselinePrice = s.baseline
	}
	if n := len(s.observations); n > 0 {
		last := s.observations[n-1]
		sum.FinalPrice = last.Price
		sum.TotalDeclinePct = last.DeclinePct
	}
	if len(s.records) > 0 {
		sum.EntryPrice = s.records[0].Price
	}
	return sum
}
