// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"time"

	"dip-trader/internal/models"
)

// DataStore defines the interface for data persistence.
type DataStore interface {
	// Sessions. GetSessions returns newest first; a non-positive limit
	// returns all sessions.
	SaveSession(ctx context.Context, sum models.TradingSummary) error
	GetSessions(ctx context.Context, limit int) ([]models.TradingSummary, error)

	// Trade records
	SaveTradeRecord(ctx context.Context, rec models.TradeRecord) error
	GetTradeRecords(ctx context.Context, filter RecordFilter) ([]models.TradeRecord, error)

	// Lifecycle
	Close() error
}

// RecordFilter represents filters for querying trade records.
type RecordFilter struct {
	Symbol    string
	SessionID string
	StartDate time.Time
	EndDate   time.Time
	IsPaper   *bool
	Limit     int
}
