package trading

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"dip-trader/internal/models"
)

// fakeBroker is a scriptable broker for exercising the engine without a
// venue. Behavior hooks default to benign responses.
type fakeBroker struct {
	mu sync.Mutex

	connected    bool
	connectErrs  []error // consumed per attempt; empty means success
	connectCalls int

	quotes     []models.Quote // consumed per GetQuote call; last entry repeats
	quoteErr   error
	quoteCalls int

	funds    float64
	fundsErr error

	orderErrs   []error // consumed per order; empty means success
	orderCalls  int
	placedQty   []int
	placedPrice []float64
}

func newFakeBroker() *fakeBroker {
	return &fakeBroker{funds: 100000}
}

func (f *fakeBroker) Connect(ctx context.Context, host string, port int, clientID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connectCalls++
	if len(f.connectErrs) > 0 {
		err := f.connectErrs[0]
		f.connectErrs = f.connectErrs[1:]
		if err != nil {
			return err
		}
	}
	f.connected = true
	return nil
}

func (f *fakeBroker) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

func (f *fakeBroker) Disconnect() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connected = false
	return nil
}

func (f *fakeBroker) GetQuote(ctx context.Context, symbol string) (models.Quote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.quoteCalls++
	if f.quoteErr != nil {
		return models.Quote{}, f.quoteErr
	}
	if len(f.quotes) == 0 {
		return models.Quote{Symbol: symbol}, nil
	}
	q := f.quotes[0]
	if len(f.quotes) > 1 {
		f.quotes = f.quotes[1:]
	}
	return q, nil
}

func (f *fakeBroker) AvailableFunds(ctx context.Context) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fundsErr != nil {
		return 0, f.fundsErr
	}
	return f.funds, nil
}

func (f *fakeBroker) PlaceBuyOrder(ctx context.Context, symbol string, qty int, price float64) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orderCalls++
	if len(f.orderErrs) > 0 {
		err := f.orderErrs[0]
		f.orderErrs = f.orderErrs[1:]
		if err != nil {
			return "", err
		}
	}
	f.placedQty = append(f.placedQty, qty)
	f.placedPrice = append(f.placedPrice, price)
	return "FAKE_1", nil
}

// recordingSleep collects requested sleep durations without sleeping.
type recordingSleep struct {
	mu    sync.Mutex
	slept []time.Duration
}

func (r *recordingSleep) sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	r.slept = append(r.slept, d)
	r.mu.Unlock()
	return nil
}

func (r *recordingSleep) durations() []time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]time.Duration, len(r.slept))
	copy(out, r.slept)
	return out
}

// fakeReporter counts reporter invocations.
type fakeReporter struct {
	mu           sync.Mutex
	transactions []models.TradeRecord
	reports      int
}

func (f *fakeReporter) RecordTransaction(rec models.TradeRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.transactions = append(f.transactions, rec)
	return nil
}

func (f *fakeReporter) GenerateReport(sum models.TradingSummary, obs []models.Observation, recs []models.TradeRecord) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reports++
	return []string{"report.csv"}, nil
}

// fakeStore counts persisted sessions and records.
type fakeStore struct {
	mu       sync.Mutex
	sessions []models.TradingSummary
	records  []models.TradeRecord
}

func (f *fakeStore) SaveSession(ctx context.Context, sum models.TradingSummary) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions = append(f.sessions, sum)
	return nil
}

func (f *fakeStore) SaveTradeRecord(ctx context.Context, rec models.TradeRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, rec)
	return nil
}

// fakeNotifier records sent summaries.
type fakeNotifier struct {
	mu    sync.Mutex
	sends int
	paths []string
}

func (f *fakeNotifier) SendReport(ctx context.Context, sum models.TradingSummary, reportPaths []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sends++
	f.paths = reportPaths
	return nil
}

// fakeCapture returns a fixed screenshot path.
type fakeCapture struct {
	err   error
	calls int
}

func (f *fakeCapture) Capture(ctx context.Context, rec models.TradeRecord) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return "/tmp/shot.png", nil
}

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

func alwaysOpen() bool { return true }
