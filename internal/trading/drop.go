package trading

import "dip-trader/internal/models"

// DropTracker computes the benchmark decline from the session baseline. The
// baseline belongs to the session and is captured exactly once, on the first
// observation with a usable price; nothing ever overwrites it.
type DropTracker struct {
	session *models.Session
}

// NewDropTracker creates a tracker bound to session.
func NewDropTracker(session *models.Session) *DropTracker {
	return &DropTracker{session: session}
}

// Observe records the baseline on first use and returns the percentage
// decline of price from it. A non-positive price means no data: 0 is
// returned and no state changes. The result may be negative when the
// benchmark rose; it is never clamped.
func (t *DropTracker) Observe(price float64) float64 {
	if price <= 0 {
		return 0
	}
	if _, ok := t.session.Baseline(); !ok {
		t.session.SetBaseline(price)
	}
	base, ok := t.session.Baseline()
	if !ok || base <= 0 {
		return 0
	}
	return (base - price) / base * 100
}
