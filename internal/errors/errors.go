// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors
var (
	ErrConnectionFailed  = errors.New("connection failed")
	ErrNotConnected      = errors.New("not connected")
	ErrPriceUnavailable  = errors.New("price unavailable")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrOrderRejected     = errors.New("order rejected")
	ErrMarketClosed      = errors.New("market is closed")
	ErrTimeout           = errors.New("operation timed out")
	ErrConfigInvalid     = errors.New("invalid configuration")
	ErrDatabaseError     = errors.New("database error")
)

// ConnectionError represents a terminal connection failure. A ConnectionError
// aborts the session; it is never retried above the connection manager.
type ConnectionError struct {
	Host     string
	Port     int
	Attempts int
	Err      error
}

func (e *ConnectionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("connection error %s:%d after %d attempts: %v", e.Host, e.Port, e.Attempts, e.Err)
	}
	return fmt.Sprintf("connection error %s:%d after %d attempts", e.Host, e.Port, e.Attempts)
}

func (e *ConnectionError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrConnectionFailed
}

// NewConnectionError creates a new ConnectionError.
func NewConnectionError(host string, port, attempts int, err error) *ConnectionError {
	return &ConnectionError{Host: host, Port: port, Attempts: attempts, Err: err}
}

// PriceError represents a failure to obtain a usable price for a symbol.
// Recoverable at poll granularity: the caller may retry on the next cycle.
type PriceError struct {
	Symbol string
	Reason string
	Err    error
}

func (e *PriceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("price error [%s]: %s: %v", e.Symbol, e.Reason, e.Err)
	}
	return fmt.Sprintf("price error [%s]: %s", e.Symbol, e.Reason)
}

func (e *PriceError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrPriceUnavailable
}

// NewPriceError creates a new PriceError.
func NewPriceError(symbol, reason string, err error) *PriceError {
	return &PriceError{Symbol: symbol, Reason: reason, Err: err}
}

// OrderError represents an order placement failure. Non-fatal to the process:
// it ends the trade attempt, not the session teardown.
type OrderError struct {
	Symbol   string
	Quantity int
	Price    float64
	Reason   string
	Err      error
}

func (e *OrderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("order error %s qty=%d @%.2f: %s: %v", e.Symbol, e.Quantity, e.Price, e.Reason, e.Err)
	}
	return fmt.Sprintf("order error %s qty=%d @%.2f: %s", e.Symbol, e.Quantity, e.Price, e.Reason)
}

func (e *OrderError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrOrderRejected
}

// NewOrderError creates a new OrderError.
func NewOrderError(symbol string, qty int, price float64, reason string, err error) *OrderError {
	return &OrderError{Symbol: symbol, Quantity: qty, Price: price, Reason: reason, Err: err}
}

// IsTerminal reports whether err should abort the session rather than the
// current poll cycle.
func IsTerminal(err error) bool {
	var ce *ConnectionError
	return errors.As(err, &ce) || errors.Is(err, ErrConnectionFailed)
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
