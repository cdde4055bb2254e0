package broker

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hadrianl/ibapi"

	"dip-trader/internal/errors"
	"dip-trader/internal/models"
)

// Tick types delivered via TickPrice that the engine cares about.
const (
	tickLast  = 4
	tickClose = 9
)

const fundsWait = 5 * time.Second

// IBKRConfig holds configuration for the TWS/Gateway adapter.
type IBKRConfig struct {
	// BenchmarkSymbol is mapped to an index contract on CBOE; every other
	// symbol resolves as a stock on SMART.
	BenchmarkSymbol string
}

// IBKRBroker adapts the Interactive Brokers TWS socket API to the Broker
// interface. Market data arrives through wrapper callbacks and is cached per
// subscription; GetQuote returns the latest snapshot without blocking.
type IBKRBroker struct {
	cfg IBKRConfig

	mu        sync.RWMutex
	client    *ibapi.IbClient
	connected bool
	subs      map[string]int64        // symbol -> market data reqID
	quotes    map[int64]*models.Quote // reqID -> latest snapshot
	funds     float64
	fundsAt   time.Time

	nextReqID   int64
	nextOrderID int64
}

// NewIBKRBroker creates a new TWS adapter.
func NewIBKRBroker(cfg IBKRConfig) *IBKRBroker {
	return &IBKRBroker{
		cfg:    cfg,
		subs:   make(map[string]int64),
		quotes: make(map[int64]*models.Quote),
	}
}

// ibWrapper receives TWS callbacks. It embeds the library's default wrapper
// and overrides only what the adapter consumes.
type ibWrapper struct {
	ibapi.Wrapper
	b *IBKRBroker
}

func (w *ibWrapper) TickPrice(reqID int64, tickType int64, price float64, attrib ibapi.TickAttrib) {
	if price <= 0 {
		return
	}
	w.b.mu.Lock()
	defer w.b.mu.Unlock()
	q, ok := w.b.quotes[reqID]
	if !ok {
		return
	}
	switch tickType {
	case tickLast:
		q.Last = price
	case tickClose:
		q.Close = price
	default:
		return
	}
	q.Timestamp = time.Now()
}

func (w *ibWrapper) NextValidID(reqID int64) {
	atomic.StoreInt64(&w.b.nextOrderID, reqID)
}

func (w *ibWrapper) AccountSummary(reqID int64, account string, tag string, value string, currency string) {
	if tag != "AvailableFunds" {
		return
	}
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return
	}
	w.b.mu.Lock()
	w.b.funds = v
	w.b.fundsAt = time.Now()
	w.b.mu.Unlock()
}

func (w *ibWrapper) ConnectionClosed() {
	w.b.mu.Lock()
	w.b.connected = false
	w.b.mu.Unlock()
}

// Connect dials TWS, performs the API handshake and starts the message loop.
func (b *IBKRBroker) Connect(ctx context.Context, host string, port int, clientID int64) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	client := ibapi.NewIbClient(&ibWrapper{b: b})
	if err := client.Connect(host, port, clientID); err != nil {
		return errors.Wrap(err, "dialing TWS")
	}
	if err := client.HandShake(); err != nil {
		client.Disconnect()
		return errors.Wrap(err, "TWS handshake")
	}
	client.Run()

	b.mu.Lock()
	b.client = client
	b.connected = true
	b.subs = make(map[string]int64)
	b.quotes = make(map[int64]*models.Quote)
	b.mu.Unlock()
	return nil
}

// IsConnected reports whether a venue session is active.
func (b *IBKRBroker) IsConnected() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.connected
}

// Disconnect cancels active subscriptions and closes the session. Idempotent.
func (b *IBKRBroker) Disconnect() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.connected || b.client == nil {
		return nil
	}
	for _, reqID := range b.subs {
		b.client.CancelMktData(reqID)
	}
	err := b.client.Disconnect()
	b.connected = false
	b.client = nil
	return err
}

// GetQuote returns the latest cached snapshot for symbol, starting a market
// data subscription on first use. The snapshot may still be empty; callers
// poll until last or close arrives.
func (b *IBKRBroker) GetQuote(ctx context.Context, symbol string) (models.Quote, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.connected {
		return models.Quote{}, errors.ErrNotConnected
	}
	reqID, ok := b.subs[symbol]
	if !ok {
		b.nextReqID++
		reqID = b.nextReqID
		b.subs[symbol] = reqID
		b.quotes[reqID] = &models.Quote{Symbol: symbol}
		b.client.ReqMktData(reqID, b.contractFor(symbol), "", false, false, nil)
	}
	return *b.quotes[reqID], nil
}

// AvailableFunds requests an account summary and waits a bounded time for
// the AvailableFunds tag to arrive.
func (b *IBKRBroker) AvailableFunds(ctx context.Context) (float64, error) {
	b.mu.Lock()
	if !b.connected {
		b.mu.Unlock()
		return 0, errors.ErrNotConnected
	}
	b.nextReqID++
	reqID := b.nextReqID
	requestedAt := time.Now()
	b.client.ReqAccountSummary(reqID, "All", "AvailableFunds")
	b.mu.Unlock()

	deadline := time.NewTimer(fundsWait)
	defer deadline.Stop()
	tick := time.NewTicker(100 * time.Millisecond)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			b.cancelAccountSummary(reqID)
			return 0, ctx.Err()
		case <-deadline.C:
			b.cancelAccountSummary(reqID)
			return 0, errors.ErrTimeout
		case <-tick.C:
			b.mu.RLock()
			funds, at := b.funds, b.fundsAt
			b.mu.RUnlock()
			if !at.Before(requestedAt) {
				b.cancelAccountSummary(reqID)
				return funds, nil
			}
		}
	}
}

func (b *IBKRBroker) cancelAccountSummary(reqID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.connected && b.client != nil {
		b.client.CancelAccountSummary(reqID)
	}
}

// PlaceBuyOrder submits a limit buy for qty units at price.
func (b *IBKRBroker) PlaceBuyOrder(ctx context.Context, symbol string, qty int, price float64) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.connected {
		return "", errors.ErrNotConnected
	}
	orderID := atomic.AddInt64(&b.nextOrderID, 1)
	order := ibapi.NewLimitOrder("BUY", price, float64(qty))
	b.client.PlaceOrder(orderID, b.contractFor(symbol), order)
	return strconv.FormatInt(orderID, 10), nil
}

// contractFor maps a symbol to its venue contract. The benchmark index trades
// on CBOE; tradable instruments resolve through SMART routing.
func (b *IBKRBroker) contractFor(symbol string) *ibapi.Contract {
	if symbol == b.cfg.BenchmarkSymbol {
		return &ibapi.Contract{
			Symbol:       symbol,
			SecurityType: "IND",
			Exchange:     "CBOE",
			Currency:     "USD",
		}
	}
	return &ibapi.Contract{
		Symbol:       symbol,
		SecurityType: "STK",
		Exchange:     "SMART",
		Currency:     "USD",
	}
}
