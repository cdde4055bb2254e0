package trading

import (
	"context"
	"math"

	"github.com/rs/zerolog"

	"dip-trader/internal/broker"
	"dip-trader/internal/errors"
	"dip-trader/internal/logging"
	"dip-trader/internal/models"
	"dip-trader/pkg/utils"
)

// Quantity bought per trigger. The strategy buys one unit per session.
const tradeQuantity = 1

// maxCloseDeviationPct rejects execution prices that deviate too far from
// the previous close; a wildly off price usually means bad data, not a
// genuine level.
const maxCloseDeviationPct = 10.0

// TradeExecutor places the session's one buy order once a tier triggers.
// Preconditions run in order before any order goes out: market open, funds,
// resolvable price. On success it captures a screenshot (best effort),
// appends the trade record to the session log, persists it and hands it to
// the reporter. It never places more than one order per call and callers
// never invoke it more than once per session.
type TradeExecutor struct {
	broker       broker.Broker
	oracle       *PriceOracle
	screenshots  Screenshotter
	reporter     Reporter
	store        SessionStore
	logger       zerolog.Logger
	isMarketOpen func() bool
}

// ExecutorConfig holds the collaborators a TradeExecutor needs. Screenshots,
// reporter and store are optional.
type ExecutorConfig struct {
	Broker      broker.Broker
	Oracle      *PriceOracle
	Screenshots Screenshotter
	Reporter    Reporter
	Store       SessionStore
	Logger      zerolog.Logger
	// IsMarketOpen overrides the exchange-calendar check, for tests.
	IsMarketOpen func() bool
}

// NewTradeExecutor creates a trade executor.
func NewTradeExecutor(cfg ExecutorConfig) *TradeExecutor {
	isOpen := cfg.IsMarketOpen
	if isOpen == nil {
		isOpen = utils.IsMarketOpen
	}
	return &TradeExecutor{
		broker:       cfg.Broker,
		oracle:       cfg.Oracle,
		screenshots:  cfg.Screenshots,
		reporter:     cfg.Reporter,
		store:        cfg.Store,
		logger:       cfg.Logger,
		isMarketOpen: isOpen,
	}
}

// Execute validates preconditions, places one buy order for one unit of the
// session's target symbol and records the result. Precondition failures
// short-circuit with a typed error and no order placed.
func (e *TradeExecutor) Execute(ctx context.Context, session *models.Session, tier float64) (models.TradeRecord, error) {
	symbol := session.Symbol
	logger := logging.WithSymbol(e.logger, symbol)

	// Safety net: the loop gates on market hours already, but never trust a
	// single check across a sleep boundary.
	if !e.isMarketOpen() {
		return models.TradeRecord{}, errors.Wrap(errors.ErrMarketClosed, "trade blocked")
	}

	funds, err := e.broker.AvailableFunds(ctx)
	if err != nil {
		return models.TradeRecord{}, errors.Wrap(err, "funds check")
	}
	if funds <= 0 {
		return models.TradeRecord{}, errors.Wrap(errors.ErrInsufficientFunds, "no funds available")
	}

	quote, err := e.oracle.GetQuote(ctx, symbol)
	if err != nil {
		return models.TradeRecord{}, err
	}
	price, _ := quote.Price()

	if funds < price*tradeQuantity {
		return models.TradeRecord{}, errors.Wrapf(errors.ErrInsufficientFunds,
			"need %.2f, have %.2f", price*tradeQuantity, funds)
	}

	if quote.Close > 0 {
		deviation := math.Abs(price-quote.Close) / quote.Close * 100
		if deviation > maxCloseDeviationPct {
			return models.TradeRecord{}, errors.NewOrderError(symbol, tradeQuantity, price,
				"price outside sanity band vs previous close", errors.ErrOrderRejected)
		}
	}

	orderID, err := e.broker.PlaceBuyOrder(ctx, symbol, tradeQuantity, price)
	if err != nil {
		if errors.Is(err, errors.ErrInsufficientFunds) {
			return models.TradeRecord{}, err
		}
		return models.TradeRecord{}, errors.NewOrderError(symbol, tradeQuantity, price, "placement failed", err)
	}

	logging.LogTrade(logger, symbol, tradeQuantity, price, tier)
	logger.Info().Str("order_id", orderID).Float64("tier", tier).Msg("Buy order placed")

	rec := models.NewTradeRecord(session.ID, symbol, price, tradeQuantity, tier, session.Mode == models.ModePaper)

	// Side effects past this point are best effort: the trade stands even
	// when capture, persistence or reporting fail.
	if e.screenshots != nil {
		path, err := e.screenshots.Capture(ctx, rec)
		if err != nil {
			logger.Warn().Err(err).Msg("Screenshot capture failed")
		} else {
			rec.ScreenshotPath = path
		}
	}

	session.AppendRecord(rec)

	if e.store != nil {
		if err := e.store.SaveTradeRecord(ctx, rec); err != nil {
			logger.Error().Err(err).Msg("Persisting trade record failed")
		}
	}
	if e.reporter != nil {
		if err := e.reporter.RecordTransaction(rec); err != nil {
			logger.Error().Err(err).Msg("Recording transaction failed")
		}
		// Regenerate the report right away so the artifact survives a crash
		// before teardown.
		if _, err := e.reporter.GenerateReport(session.Summarize(), session.Observations(), session.Records()); err != nil {
			logger.Error().Err(err).Msg("Post-trade report generation failed")
		}
	}

	return rec, nil
}
