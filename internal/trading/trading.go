// Package trading implements the monitoring-and-execution engine: connection
// management, benchmark drop tracking, threshold evaluation, trade execution
// and the session loop that drives them.
package trading

import (
	"context"
	"time"

	"dip-trader/internal/models"
)

// SleepFunc is an interruptible wait, injectable for deterministic tests.
type SleepFunc func(ctx context.Context, d time.Duration) error

// SleepContext waits for d or until ctx is done, whichever comes first.
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Reporter records transactions and produces durable report artifacts.
type Reporter interface {
	RecordTransaction(rec models.TradeRecord) error
	GenerateReport(sum models.TradingSummary, obs []models.Observation, recs []models.TradeRecord) ([]string, error)
}

// Notifier delivers the session summary and report artifacts. An unconfigured
// notifier is a no-op, not an error.
type Notifier interface {
	SendReport(ctx context.Context, sum models.TradingSummary, reportPaths []string) error
}

// Screenshotter captures a visual artifact for an executed trade. Capture
// failures never fail the trade.
type Screenshotter interface {
	Capture(ctx context.Context, rec models.TradeRecord) (string, error)
}

// SessionStore persists sessions and trade records.
type SessionStore interface {
	SaveSession(ctx context.Context, sum models.TradingSummary) error
	SaveTradeRecord(ctx context.Context, rec models.TradeRecord) error
}
