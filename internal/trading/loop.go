package trading

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"dip-trader/internal/errors"
	"dip-trader/internal/logging"
	"dip-trader/internal/models"
	"dip-trader/pkg/utils"
)

// State is the session loop state.
type State string

const (
	StateAwaitingConnection State = "AWAITING_CONNECTION"
	StateMonitoring         State = "MONITORING"
	StateMarketClosed       State = "MARKET_CLOSED"
	StateExecuting          State = "EXECUTING"
	StateTerminated         State = "TERMINATED"
)

// MarketClosedChoice is the operator's decision when the market is closed.
type MarketClosedChoice int

const (
	ChoiceWait MarketClosedChoice = iota
	ChoiceExit
)

// Decider answers the human-in-the-loop questions so the state machine stays
// testable without interactive input.
type Decider interface {
	// ShouldContinue is asked between polls.
	ShouldContinue() bool
	// OnMarketClosed is asked with the time until the next open.
	OnMarketClosed(untilOpen time.Duration) MarketClosedChoice
}

// AutoDecider always continues and always waits for the market to open.
type AutoDecider struct{}

func (AutoDecider) ShouldContinue() bool { return true }

func (AutoDecider) OnMarketClosed(time.Duration) MarketClosedChoice { return ChoiceWait }

// maxClosedWait bounds a single market-closed sleep so cancellation stays
// observable and the open time is re-evaluated.
const maxClosedWait = time.Hour

// LoopConfig holds the session loop collaborators and policy.
type LoopConfig struct {
	Connection *ConnectionManager
	Oracle     *PriceOracle
	Engine     *ThresholdEngine
	Executor   *TradeExecutor
	Reporter   Reporter
	Notifier   Notifier
	Store      SessionStore
	Decider    Decider
	Logger     zerolog.Logger

	PollInterval time.Duration
	// HaltOnTradeFailure ends the session after any trade attempt. When
	// false, recoverable execution failures return the loop to monitoring.
	HaltOnTradeFailure bool

	// Exchange-calendar hooks, injectable for tests.
	IsMarketOpen     func() bool
	UntilMarketOpen  func() time.Duration
	UntilMarketClose func() time.Duration
	Sleep            SleepFunc
}

// SessionLoop drives one monitoring session through
// AwaitingConnection → Monitoring → (MarketClosed) → Executing → Terminated.
// It is single-threaded: all waits are bounded and observe ctx.
type SessionLoop struct {
	cfg   LoopConfig
	state State
}

// NewSessionLoop creates a session loop.
func NewSessionLoop(cfg LoopConfig) *SessionLoop {
	if cfg.Decider == nil {
		cfg.Decider = AutoDecider{}
	}
	if cfg.IsMarketOpen == nil {
		cfg.IsMarketOpen = utils.IsMarketOpen
	}
	if cfg.UntilMarketOpen == nil {
		cfg.UntilMarketOpen = utils.TimeUntilMarketOpen
	}
	if cfg.UntilMarketClose == nil {
		cfg.UntilMarketClose = utils.TimeUntilMarketClose
	}
	if cfg.Sleep == nil {
		cfg.Sleep = SleepContext
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Minute
	}
	return &SessionLoop{cfg: cfg, state: StateAwaitingConnection}
}

// State returns the loop's current state.
func (l *SessionLoop) State() State {
	return l.state
}

// Run executes the session until a terminal condition, then tears down:
// disconnect, summary assembly, report generation and notification always
// run, in that order, whatever ended the session.
func (l *SessionLoop) Run(ctx context.Context, session *models.Session) (summary models.TradingSummary, runErr error) {
	logger := logging.WithSession(l.cfg.Logger, session.ID)

	defer func() {
		l.state = StateTerminated
		session.EndedAt = time.Now()
		summary = session.Summarize()
		l.teardown(logger, session, summary)
	}()

	l.state = StateAwaitingConnection
	if err := l.cfg.Connection.Connect(ctx); err != nil {
		logger.Error().Err(err).Msg("Session never started: connection failed")
		return summary, err
	}
	logger.Info().
		Str("symbol", session.Symbol).
		Str("benchmark", session.BenchmarkSymbol).
		Str("mode", string(session.Mode)).
		Msg("Session started")

	tracker := NewDropTracker(session)
	l.state = StateMonitoring

	for {
		if err := ctx.Err(); err != nil {
			logger.Info().Msg("Session interrupted")
			return summary, err
		}

		if !l.cfg.IsMarketOpen() {
			stop, err := l.handleMarketClosed(ctx, logger)
			if err != nil || stop {
				return summary, err
			}
			continue
		}

		price, err := l.cfg.Oracle.GetPrice(ctx, session.BenchmarkSymbol)
		if err != nil {
			if errors.IsTerminal(err) || ctx.Err() != nil {
				logger.Error().Err(err).Msg("Benchmark poll failed terminally")
				return summary, err
			}
			logger.Warn().Err(err).Msg("Benchmark price unavailable, skipping cycle")
		} else {
			decline := tracker.Observe(price)
			session.Observe(models.Observation{
				Timestamp:  time.Now(),
				Price:      price,
				DeclinePct: decline,
			})
			logging.LogPoll(logger, session.BenchmarkSymbol, price, decline)

			if tier, ok := l.cfg.Engine.Evaluate(decline); ok {
				l.state = StateExecuting
				logger.Info().Float64("tier", tier).Float64("decline_pct", decline).
					Msg("Threshold tier reached, executing")
				_, execErr := l.cfg.Executor.Execute(ctx, session, tier)
				if execErr == nil {
					logger.Info().Float64("tier", tier).Msg("Trade executed, ending session")
					return summary, nil
				}
				logger.Error().Err(execErr).Float64("tier", tier).Msg("Trade attempt failed")
				if l.cfg.HaltOnTradeFailure || errors.IsTerminal(execErr) {
					return summary, execErr
				}
				l.state = StateMonitoring
			}
		}

		untilClose := l.cfg.UntilMarketClose()
		if untilClose <= 0 {
			logger.Info().Msg("Market closing, ending monitoring session")
			return summary, nil
		}

		wait := l.cfg.PollInterval
		if untilClose < wait {
			wait = untilClose
		}
		if err := l.cfg.Sleep(ctx, wait); err != nil {
			return summary, err
		}

		if !l.cfg.Decider.ShouldContinue() {
			logger.Info().Msg("Operator ended monitoring")
			return summary, nil
		}
	}
}

// handleMarketClosed asks the decider whether to wait or exit. Waits are
// chunked so interrupts stay observable and the schedule is re-checked.
func (l *SessionLoop) handleMarketClosed(ctx context.Context, logger zerolog.Logger) (stop bool, err error) {
	l.state = StateMarketClosed
	untilOpen := l.cfg.UntilMarketOpen()

	if l.cfg.Decider.OnMarketClosed(untilOpen) == ChoiceExit {
		logger.Info().Msg("Operator chose to exit during market closed period")
		return true, nil
	}

	wait := untilOpen
	if wait > maxClosedWait {
		wait = maxClosedWait
	}
	if wait <= 0 {
		wait = time.Minute
	}
	logger.Info().Dur("wait", wait).Msg("Market closed, waiting")
	if err := l.cfg.Sleep(ctx, wait); err != nil {
		return true, err
	}
	l.state = StateMonitoring
	return false, nil
}

// teardown runs the guaranteed cleanup sequence. ctx may already be
// cancelled, so teardown uses its own bounded context.
func (l *SessionLoop) teardown(logger zerolog.Logger, session *models.Session, summary models.TradingSummary) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := l.cfg.Connection.Disconnect(); err != nil {
		logger.Warn().Err(err).Msg("Disconnect failed during teardown")
	}

	var reportPaths []string
	if l.cfg.Reporter != nil {
		paths, err := l.cfg.Reporter.GenerateReport(summary, session.Observations(), session.Records())
		if err != nil {
			logger.Error().Err(err).Msg("Report generation failed")
		} else {
			reportPaths = paths
		}
	}

	if l.cfg.Store != nil {
		if err := l.cfg.Store.SaveSession(ctx, summary); err != nil {
			logger.Error().Err(err).Msg("Persisting session failed")
		}
	}

	if l.cfg.Notifier != nil {
		if err := l.cfg.Notifier.SendReport(ctx, summary, reportPaths); err != nil {
			logger.Warn().Err(err).Msg("Report notification failed")
		}
	}

	logger.Info().
		Int("trades", summary.TotalTrades).
		Float64("baseline", summary.BaselinePrice).
		Float64("final", summary.FinalPrice).
		Float64("total_decline_pct", summary.TotalDeclinePct).
		Msg("Session terminated")
}
