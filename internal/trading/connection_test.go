package trading

import (
	"context"
	"testing"
	"time"

	"dip-trader/internal/config"
	"dip-trader/internal/errors"
)

func connTestConfig() config.ConnectionConfig {
	return config.ConnectionConfig{
		Host:           "127.0.0.1",
		LivePort:       7496,
		PaperPort:      7497,
		ClientID:       1,
		MaxAttempts:    3,
		RetryDelay:     5 * time.Second,
		ConnectTimeout: 30 * time.Second,
	}
}

func TestConnectExhaustsConfiguredAttempts(t *testing.T) {
	b := newFakeBroker()
	dial := errors.Wrap(errors.ErrConnectionFailed, "dial refused")
	b.connectErrs = []error{dial, dial, dial}

	cfg := connTestConfig()
	m := NewConnectionManager(b, cfg, cfg.PaperPort, testLogger())
	rec := &recordingSleep{}
	m.sleep = rec.sleep

	err := m.Connect(context.Background())
	if err == nil {
		t.Fatal("Connect succeeded with a refusing venue")
	}
	if b.connectCalls != cfg.MaxAttempts {
		t.Errorf("connect attempts = %d, want %d", b.connectCalls, cfg.MaxAttempts)
	}

	var connErr *errors.ConnectionError
	if !errors.As(err, &connErr) {
		t.Fatalf("error type = %T, want *errors.ConnectionError", err)
	}
	if connErr.Attempts != cfg.MaxAttempts {
		t.Errorf("ConnectionError.Attempts = %d, want %d", connErr.Attempts, cfg.MaxAttempts)
	}
	if !errors.IsTerminal(err) {
		t.Error("exhausted connection error should be terminal")
	}

	// A fixed delay between attempts, none after the last.
	delays := rec.durations()
	if len(delays) != cfg.MaxAttempts-1 {
		t.Fatalf("inter-attempt delays = %d, want %d", len(delays), cfg.MaxAttempts-1)
	}
	for i, d := range delays {
		if d != cfg.RetryDelay {
			t.Errorf("delay %d = %s, want %s", i, d, cfg.RetryDelay)
		}
	}
}

func TestConnectStopsRetryingOnSuccess(t *testing.T) {
	b := newFakeBroker()
	b.connectErrs = []error{errors.Wrap(errors.ErrConnectionFailed, "dial refused"), nil}

	cfg := connTestConfig()
	m := NewConnectionManager(b, cfg, cfg.PaperPort, testLogger())
	rec := &recordingSleep{}
	m.sleep = rec.sleep

	if err := m.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if b.connectCalls != 2 {
		t.Errorf("connect attempts = %d, want 2", b.connectCalls)
	}
	if !m.IsConnected() {
		t.Error("IsConnected = false after successful connect")
	}
}

func TestConnectDropsStaleSessionFirst(t *testing.T) {
	b := newFakeBroker()
	b.connected = true

	cfg := connTestConfig()
	m := NewConnectionManager(b, cfg, cfg.PaperPort, testLogger())
	rec := &recordingSleep{}
	m.sleep = rec.sleep

	if err := m.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	delays := rec.durations()
	if len(delays) == 0 || delays[0] != stabilizationPause {
		t.Errorf("stabilization pause = %v, want leading %s", delays, stabilizationPause)
	}
}

func TestConnectRejectsUnknownPort(t *testing.T) {
	b := newFakeBroker()
	cfg := connTestConfig()
	m := NewConnectionManager(b, cfg, 4001, testLogger())

	err := m.Connect(context.Background())
	if err == nil {
		t.Fatal("Connect accepted a port outside the configured modes")
	}
	if b.connectCalls != 0 {
		t.Errorf("connect attempts = %d, want 0", b.connectCalls)
	}
	if !errors.Is(err, errors.ErrConfigInvalid) {
		t.Errorf("error = %v, want ErrConfigInvalid in chain", err)
	}
}

func TestConnectObservesCancellation(t *testing.T) {
	b := newFakeBroker()
	dial := errors.Wrap(errors.ErrConnectionFailed, "dial refused")
	b.connectErrs = []error{dial, dial, dial}

	cfg := connTestConfig()
	m := NewConnectionManager(b, cfg, cfg.PaperPort, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m.sleep = (&recordingSleep{}).sleep

	err := m.Connect(ctx)
	if err == nil {
		t.Fatal("Connect ignored a cancelled context")
	}
}
