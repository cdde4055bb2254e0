package utils

import (
	"time"

	"dip-trader/internal/models"
)

// NewYorkLocation is the timezone for US equity markets.
var NewYorkLocation *time.Location

func init() {
	var err error
	NewYorkLocation, err = time.LoadLocation("America/New_York")
	if err != nil {
		// Fallback to UTC-5
		NewYorkLocation = time.FixedZone("EST", -5*60*60)
	}
}

// Regular cash session: 9:30 - 16:00 ET.
const (
	marketOpenMinutes  = 9*60 + 30
	marketCloseMinutes = 16 * 60
)

// MarketStatusAt returns the market status at a specific time.
func MarketStatusAt(t time.Time) models.MarketStatus {
	t = t.In(NewYorkLocation)

	if t.Weekday() == time.Saturday || t.Weekday() == time.Sunday {
		return models.MarketClosed
	}

	timeMinutes := t.Hour()*60 + t.Minute()

	// Pre-market extends from 4:00 to the open; the engine treats it as
	// closed for order placement but distinct for status display.
	if timeMinutes >= 4*60 && timeMinutes < marketOpenMinutes {
		return models.MarketPreOpen
	}
	if timeMinutes >= marketOpenMinutes && timeMinutes < marketCloseMinutes {
		return models.MarketOpen
	}
	return models.MarketClosed
}

// GetMarketStatus returns the current market status.
func GetMarketStatus() models.MarketStatus {
	return MarketStatusAt(time.Now())
}

// IsMarketOpenAt returns true if the regular session is open at t.
func IsMarketOpenAt(t time.Time) bool {
	return MarketStatusAt(t) == models.MarketOpen
}

// IsMarketOpen returns true if the regular session is currently open.
func IsMarketOpen() bool {
	return IsMarketOpenAt(time.Now())
}

// NextMarketOpenAfter returns the first session open at or after t.
func NextMarketOpenAfter(t time.Time) time.Time {
	t = t.In(NewYorkLocation)
	next := time.Date(t.Year(), t.Month(), t.Day(), 9, 30, 0, 0, NewYorkLocation)
	if !t.Before(next) {
		next = next.AddDate(0, 0, 1)
	}
	for next.Weekday() == time.Saturday || next.Weekday() == time.Sunday {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// GetNextMarketOpen returns the next market opening time.
func GetNextMarketOpen() time.Time {
	return NextMarketOpenAfter(time.Now())
}

// MarketCloseOn returns the session close on t's trading day.
func MarketCloseOn(t time.Time) time.Time {
	t = t.In(NewYorkLocation)
	return time.Date(t.Year(), t.Month(), t.Day(), 16, 0, 0, 0, NewYorkLocation)
}

// TimeUntilMarketClose returns the duration until today's close. Negative
// when the close has passed.
func TimeUntilMarketClose() time.Duration {
	return time.Until(MarketCloseOn(time.Now()))
}

// TimeUntilMarketOpen returns the duration until the next open. Zero when the
// market is open now.
func TimeUntilMarketOpen() time.Duration {
	if IsMarketOpen() {
		return 0
	}
	return time.Until(GetNextMarketOpen())
}
