package backtest

import (
	"errors"
	"fmt"
)

var (
	ErrPricesNotLoaded = errors.New("price series not loaded")
	ErrLengthMismatch  = errors.New("series length mismatch")
	ErrDateMismatch    = errors.New("series dates not aligned")
	ErrInvalidSignal   = errors.New("signal outside {0, 1}")
	ErrInvalidTrades   = errors.New("trade sequence would open a short position")
	ErrInvalidCash     = errors.New("initial cash must be positive")
	ErrNoValidRanges   = errors.New("no valid parameter ranges")
	ErrGridTooLarge    = errors.New("parameter grid too large")
	ErrUnknownMetric   = errors.New("unknown metric")
)

// ConfigError is a caller-fixable failure: missing data, a malformed grid,
// or inputs of the wrong shape. Err is one of the sentinels above (or a
// wrapped lower-level error) and is reachable through errors.Is.
type ConfigError struct {
	Op     string
	Reason string
	Err    error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("backtest %s: %s", e.Op, e.Reason)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

func configError(op string, err error, format string, args ...any) error {
	return &ConfigError{Op: op, Reason: fmt.Sprintf(format, args...), Err: err}
}
