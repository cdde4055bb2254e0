package trading

import (
	"context"
	"testing"
	"time"

	"dip-trader/internal/errors"
	"dip-trader/internal/models"
)

func newTestExecutor(b *fakeBroker, opts ...func(*ExecutorConfig)) (*TradeExecutor, *fakeReporter, *fakeStore, *fakeCapture) {
	oracle := NewPriceOracle(b, time.Second, 100*time.Millisecond)
	oracle.sleep = (&recordingSleep{}).sleep

	reporter := &fakeReporter{}
	st := &fakeStore{}
	capture := &fakeCapture{}

	cfg := ExecutorConfig{
		Broker:       b,
		Oracle:       oracle,
		Screenshots:  capture,
		Reporter:     reporter,
		Store:        st,
		Logger:       testLogger(),
		IsMarketOpen: alwaysOpen,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return NewTradeExecutor(cfg), reporter, st, capture
}

func TestExecuteBlocksWhenMarketClosed(t *testing.T) {
	b := newFakeBroker()
	b.connected = true
	exec, _, _, _ := newTestExecutor(b, func(cfg *ExecutorConfig) {
		cfg.IsMarketOpen = func() bool { return false }
	})
	session := models.NewSession("SPY", "SPX", models.ModePaper)

	_, err := exec.Execute(context.Background(), session, 10)
	if !errors.Is(err, errors.ErrMarketClosed) {
		t.Fatalf("error = %v, want ErrMarketClosed", err)
	}
	if b.orderCalls != 0 {
		t.Errorf("orders placed = %d, want 0", b.orderCalls)
	}
	if b.quoteCalls != 0 {
		t.Errorf("quote calls = %d, want 0 before market check passes", b.quoteCalls)
	}
}

func TestExecuteBlocksWithoutFunds(t *testing.T) {
	b := newFakeBroker()
	b.connected = true
	b.funds = 0
	exec, _, _, _ := newTestExecutor(b)
	session := models.NewSession("SPY", "SPX", models.ModePaper)

	_, err := exec.Execute(context.Background(), session, 10)
	if !errors.Is(err, errors.ErrInsufficientFunds) {
		t.Fatalf("error = %v, want ErrInsufficientFunds", err)
	}
	if b.quoteCalls != 0 {
		t.Errorf("quote calls = %d, want 0 when funds check fails first", b.quoteCalls)
	}
	if b.orderCalls != 0 {
		t.Errorf("orders placed = %d, want 0", b.orderCalls)
	}
}

func TestExecuteBlocksWhenPriceExceedsFunds(t *testing.T) {
	b := newFakeBroker()
	b.connected = true
	b.funds = 100
	b.quotes = []models.Quote{{Symbol: "SPY", Last: 450, Close: 448}}
	exec, _, _, _ := newTestExecutor(b)
	session := models.NewSession("SPY", "SPX", models.ModePaper)

	_, err := exec.Execute(context.Background(), session, 10)
	if !errors.Is(err, errors.ErrInsufficientFunds) {
		t.Fatalf("error = %v, want ErrInsufficientFunds", err)
	}
	if b.orderCalls != 0 {
		t.Errorf("orders placed = %d, want 0", b.orderCalls)
	}
}

func TestExecuteRejectsPriceOutsideSanityBand(t *testing.T) {
	b := newFakeBroker()
	b.connected = true
	// Last 30% above previous close reads as bad data.
	b.quotes = []models.Quote{{Symbol: "SPY", Last: 585, Close: 450}}
	exec, _, _, _ := newTestExecutor(b)
	session := models.NewSession("SPY", "SPX", models.ModePaper)

	_, err := exec.Execute(context.Background(), session, 10)
	if !errors.Is(err, errors.ErrOrderRejected) {
		t.Fatalf("error = %v, want ErrOrderRejected", err)
	}
	if b.orderCalls != 0 {
		t.Errorf("orders placed = %d, want 0", b.orderCalls)
	}
}

func TestExecuteHappyPath(t *testing.T) {
	b := newFakeBroker()
	b.connected = true
	b.quotes = []models.Quote{{Symbol: "SPY", Last: 450, Close: 448}}
	exec, reporter, st, capture := newTestExecutor(b)
	session := models.NewSession("SPY", "SPX", models.ModePaper)

	rec, err := exec.Execute(context.Background(), session, 20)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if b.orderCalls != 1 {
		t.Errorf("orders placed = %d, want 1", b.orderCalls)
	}
	if len(b.placedQty) != 1 || b.placedQty[0] != 1 {
		t.Errorf("placed quantity = %v, want [1]", b.placedQty)
	}
	if rec.Price != 450 {
		t.Errorf("record price = %v, want 450", rec.Price)
	}
	if rec.DeclinePct != 20 {
		t.Errorf("record decline = %v, want triggering tier 20", rec.DeclinePct)
	}
	if !rec.IsPaper {
		t.Error("record should be marked paper")
	}
	if rec.ScreenshotPath == "" {
		t.Error("record missing screenshot path")
	}

	if got := len(session.Records()); got != 1 {
		t.Errorf("session records = %d, want 1", got)
	}
	if len(st.records) != 1 {
		t.Errorf("persisted records = %d, want 1", len(st.records))
	}
	if len(reporter.transactions) != 1 {
		t.Errorf("reported transactions = %d, want 1", len(reporter.transactions))
	}
	// The report artifact is regenerated as soon as the transaction lands,
	// not only at session teardown.
	if reporter.reports != 1 {
		t.Errorf("reports generated = %d, want 1 immediately after the transaction", reporter.reports)
	}
	if capture.calls != 1 {
		t.Errorf("screenshot captures = %d, want 1", capture.calls)
	}
}

func TestExecuteSurvivesScreenshotFailure(t *testing.T) {
	b := newFakeBroker()
	b.connected = true
	b.quotes = []models.Quote{{Symbol: "SPY", Last: 450, Close: 448}}
	exec, _, st, capture := newTestExecutor(b)
	capture.err = errors.Wrap(errors.ErrTimeout, "browser gone")
	session := models.NewSession("SPY", "SPX", models.ModePaper)

	rec, err := exec.Execute(context.Background(), session, 10)
	if err != nil {
		t.Fatalf("Execute failed on a best-effort side effect: %v", err)
	}
	if rec.ScreenshotPath != "" {
		t.Errorf("screenshot path = %q, want empty after capture failure", rec.ScreenshotPath)
	}
	if len(st.records) != 1 {
		t.Errorf("persisted records = %d, want 1", len(st.records))
	}
}

func TestExecutePropagatesVenueRejection(t *testing.T) {
	b := newFakeBroker()
	b.connected = true
	b.quotes = []models.Quote{{Symbol: "SPY", Last: 450, Close: 448}}
	b.orderErrs = []error{errors.Wrap(errors.ErrOrderRejected, "venue said no")}
	exec, reporter, st, _ := newTestExecutor(b)
	session := models.NewSession("SPY", "SPX", models.ModePaper)

	_, err := exec.Execute(context.Background(), session, 10)
	if !errors.Is(err, errors.ErrOrderRejected) {
		t.Fatalf("error = %v, want ErrOrderRejected", err)
	}
	var orderErr *errors.OrderError
	if !errors.As(err, &orderErr) {
		t.Errorf("error type = %T, want *errors.OrderError", err)
	}
	if len(session.Records()) != 0 || len(st.records) != 0 || len(reporter.transactions) != 0 {
		t.Error("failed trade must leave no records behind")
	}
}
