package store

import (
	"context"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"dip-trader/internal/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testSummary(id string, started time.Time) models.TradingSummary {
	return models.TradingSummary{
		SessionID:       id,
		Symbol:          "SPY",
		Mode:            models.ModePaper,
		BenchmarkSymbol: "SPX",
		BaselinePrice:   5000,
		FinalPrice:      4400,
		TotalDeclinePct: 12,
		TotalTrades:     1,
		EntryPrice:      450,
		StartedAt:       started,
		EndedAt:         started.Add(2 * time.Hour),
	}
}

func TestSessionRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	started := time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)
	want := testSummary("sess-1", started)
	if err := s.SaveSession(ctx, want); err != nil {
		t.Fatalf("SaveSession: %v", err)
	}

	got, err := s.GetSessions(ctx, 10)
	if err != nil {
		t.Fatalf("GetSessions: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("sessions = %d, want 1", len(got))
	}

	g := got[0]
	if g.SessionID != want.SessionID || g.Symbol != want.Symbol ||
		g.BenchmarkSymbol != want.BenchmarkSymbol || g.Mode != want.Mode {
		t.Errorf("identity fields mismatch: %+v", g)
	}
	if g.BaselinePrice != want.BaselinePrice || g.FinalPrice != want.FinalPrice ||
		g.TotalDeclinePct != want.TotalDeclinePct || g.EntryPrice != want.EntryPrice {
		t.Errorf("price fields mismatch: %+v", g)
	}
	if g.TotalTrades != want.TotalTrades {
		t.Errorf("trades = %d, want %d", g.TotalTrades, want.TotalTrades)
	}
}

func TestSaveSessionIsIdempotentPerID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	started := time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)
	sum := testSummary("sess-1", started)
	if err := s.SaveSession(ctx, sum); err != nil {
		t.Fatalf("SaveSession: %v", err)
	}

	sum.TotalTrades = 2
	if err := s.SaveSession(ctx, sum); err != nil {
		t.Fatalf("second SaveSession: %v", err)
	}

	got, err := s.GetSessions(ctx, 10)
	if err != nil {
		t.Fatalf("GetSessions: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("sessions = %d, want 1 after replace", len(got))
	}
	if got[0].TotalTrades != 2 {
		t.Errorf("trades = %d, want replaced value 2", got[0].TotalTrades)
	}
}

func TestGetSessionsNewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)
	for i, id := range []string{"old", "mid", "new"} {
		if err := s.SaveSession(ctx, testSummary(id, base.AddDate(0, 0, i))); err != nil {
			t.Fatalf("SaveSession %s: %v", id, err)
		}
	}

	got, err := s.GetSessions(ctx, 2)
	if err != nil {
		t.Fatalf("GetSessions: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("sessions = %d, want limit 2", len(got))
	}
	if got[0].SessionID != "new" || got[1].SessionID != "mid" {
		t.Errorf("order = [%s %s], want [new mid]", got[0].SessionID, got[1].SessionID)
	}
}

func TestGetSessionsZeroLimitReturnsAll(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// More rows than any default page size, so old sessions stay reachable.
	const total = 60
	base := time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)
	for i := 0; i < total; i++ {
		id := "sess-" + strconv.Itoa(i)
		if err := s.SaveSession(ctx, testSummary(id, base.Add(time.Duration(i)*time.Hour))); err != nil {
			t.Fatalf("SaveSession %d: %v", i, err)
		}
	}

	got, err := s.GetSessions(ctx, 0)
	if err != nil {
		t.Fatalf("GetSessions: %v", err)
	}
	if len(got) != total {
		t.Fatalf("sessions = %d, want all %d", len(got), total)
	}
	if got[total-1].SessionID != "sess-0" {
		t.Errorf("oldest session = %s, want sess-0", got[total-1].SessionID)
	}
}

func TestTradeRecordRoundTripAndFilters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	recs := []models.TradeRecord{
		{ID: "t1", SessionID: "sess-1", Timestamp: base, Symbol: "SPY",
			Price: 450, Quantity: 1, TotalCost: 450, DeclinePct: 10, IsPaper: true},
		{ID: "t2", SessionID: "sess-1", Timestamp: base.Add(time.Hour), Symbol: "QQQ",
			Price: 380, Quantity: 1, TotalCost: 380, DeclinePct: 20, IsPaper: false,
			ScreenshotPath: "/tmp/shot.png"},
		{ID: "t3", SessionID: "sess-2", Timestamp: base.AddDate(0, 0, 1), Symbol: "SPY",
			Price: 440, Quantity: 2, TotalCost: 880, DeclinePct: 30, IsPaper: true},
	}
	for _, rec := range recs {
		if err := s.SaveTradeRecord(ctx, rec); err != nil {
			t.Fatalf("SaveTradeRecord %s: %v", rec.ID, err)
		}
	}

	t.Run("all newest first", func(t *testing.T) {
		got, err := s.GetTradeRecords(ctx, RecordFilter{})
		if err != nil {
			t.Fatalf("GetTradeRecords: %v", err)
		}
		if len(got) != 3 {
			t.Fatalf("records = %d, want 3", len(got))
		}
		if got[0].ID != "t3" {
			t.Errorf("first record = %s, want newest t3", got[0].ID)
		}
		if got[0].Date == "" {
			t.Error("Date not derived from timestamp")
		}
	})

	t.Run("by symbol", func(t *testing.T) {
		got, err := s.GetTradeRecords(ctx, RecordFilter{Symbol: "SPY"})
		if err != nil {
			t.Fatalf("GetTradeRecords: %v", err)
		}
		if len(got) != 2 {
			t.Errorf("records = %d, want 2", len(got))
		}
	})

	t.Run("by session", func(t *testing.T) {
		got, err := s.GetTradeRecords(ctx, RecordFilter{SessionID: "sess-2"})
		if err != nil {
			t.Fatalf("GetTradeRecords: %v", err)
		}
		if len(got) != 1 || got[0].ID != "t3" {
			t.Errorf("records = %+v, want only t3", got)
		}
	})

	t.Run("by mode", func(t *testing.T) {
		live := false
		got, err := s.GetTradeRecords(ctx, RecordFilter{IsPaper: &live})
		if err != nil {
			t.Fatalf("GetTradeRecords: %v", err)
		}
		if len(got) != 1 || got[0].ID != "t2" {
			t.Errorf("records = %+v, want only live t2", got)
		}
		if got[0].ScreenshotPath != "/tmp/shot.png" {
			t.Errorf("screenshot path = %q, want round-tripped", got[0].ScreenshotPath)
		}
	})

	t.Run("by date range", func(t *testing.T) {
		got, err := s.GetTradeRecords(ctx, RecordFilter{
			StartDate: base.Add(30 * time.Minute),
			EndDate:   base.Add(2 * time.Hour),
		})
		if err != nil {
			t.Fatalf("GetTradeRecords: %v", err)
		}
		if len(got) != 1 || got[0].ID != "t2" {
			t.Errorf("records = %+v, want only t2 inside range", got)
		}
	})

	t.Run("limit", func(t *testing.T) {
		got, err := s.GetTradeRecords(ctx, RecordFilter{Limit: 1})
		if err != nil {
			t.Fatalf("GetTradeRecords: %v", err)
		}
		if len(got) != 1 {
			t.Errorf("records = %d, want 1", len(got))
		}
	})
}

func TestTradeRecordsAreImmutable(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rec := models.TradeRecord{ID: "t1", SessionID: "sess-1",
		Timestamp: time.Now().UTC(), Symbol: "SPY", Price: 450, Quantity: 1,
		TotalCost: 450, DeclinePct: 10, IsPaper: true}
	if err := s.SaveTradeRecord(ctx, rec); err != nil {
		t.Fatalf("SaveTradeRecord: %v", err)
	}
	if err := s.SaveTradeRecord(ctx, rec); err == nil {
		t.Error("duplicate trade record ID accepted; records must be append-only")
	}
}
