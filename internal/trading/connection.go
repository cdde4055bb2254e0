package trading

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"dip-trader/internal/broker"
	"dip-trader/internal/config"
	"dip-trader/internal/errors"
	"dip-trader/internal/logging"
	"dip-trader/pkg/utils"
)

// stabilizationPause is the settle time between disconnecting a stale venue
// session and dialing a new one with the same client identity.
const stabilizationPause = time.Second

// ConnectionManager owns the venue session exclusively: no other component
// holds connection state, and price or order operations require IsConnected.
type ConnectionManager struct {
	broker   broker.Broker
	cfg      config.ConnectionConfig
	port     int
	clientID int64
	logger   zerolog.Logger
	sleep    SleepFunc
}

// NewConnectionManager creates a connection manager for the given port. The
// port must identify one of the configured modes.
func NewConnectionManager(b broker.Broker, cfg config.ConnectionConfig, port int, logger zerolog.Logger) *ConnectionManager {
	return &ConnectionManager{
		broker:   b,
		cfg:      cfg,
		port:     port,
		clientID: cfg.ClientID,
		logger:   logger,
		sleep:    SleepContext,
	}
}

// Connect establishes the venue session, retrying up to the configured
// attempt count with a fixed inter-attempt delay and a per-attempt timeout.
// All attempts failing yields a terminal ConnectionError; callers must not
// retry above this.
func (m *ConnectionManager) Connect(ctx context.Context) error {
	if m.port != m.cfg.LivePort && m.port != m.cfg.PaperPort {
		return errors.NewConnectionError(m.cfg.Host, m.port, 0,
			errors.Wrapf(errors.ErrConfigInvalid, "port %d identifies no trading mode", m.port))
	}

	// Drop any stale session before reconnecting so the new session does not
	// race the old one's client identity on the venue side.
	if m.broker.IsConnected() {
		m.logger.Warn().Int("port", m.port).Msg("Stale session found, disconnecting before reconnect")
		if err := m.broker.Disconnect(); err != nil {
			m.logger.Warn().Err(err).Msg("Stale session disconnect failed")
		}
		if err := m.sleep(ctx, stabilizationPause); err != nil {
			return err
		}
	}

	retryCfg := utils.FixedRetryConfig(m.cfg.MaxAttempts, m.cfg.RetryDelay)
	retryCfg.Sleep = func(d time.Duration) { _ = m.sleep(ctx, d) }

	var lastErr error
	err := utils.Retry(ctx, retryCfg, func(attempt int) error {
		attemptCtx, cancel := context.WithTimeout(ctx, m.cfg.ConnectTimeout)
		err := m.connectOnce(attemptCtx)
		cancel()
		logging.LogConnection(m.logger, m.cfg.Host, m.port, attempt+1, err)
		lastErr = err
		return err
	})
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if lastErr == nil {
			lastErr = err
		}
		return errors.NewConnectionError(m.cfg.Host, m.port, m.cfg.MaxAttempts, lastErr)
	}
	return nil
}

// connectOnce bounds a single connect attempt by ctx even when the underlying
// dial does not observe cancellation.
func (m *ConnectionManager) connectOnce(ctx context.Context) error {
	done := make(chan error, 1)
	go func() {
		done <- m.broker.Connect(ctx, m.cfg.Host, m.port, m.clientID)
	}()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return errors.Wrap(errors.ErrTimeout, "connect attempt")
	}
}

// IsConnected is a pure status query.
func (m *ConnectionManager) IsConnected() bool {
	return m.broker.IsConnected()
}

// Disconnect closes the session. Safe to call when already disconnected.
func (m *ConnectionManager) Disconnect() error {
	return m.broker.Disconnect()
}
