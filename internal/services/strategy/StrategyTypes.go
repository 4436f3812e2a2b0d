package strategy

import (
	"StrategyBacktester/internal/models"
	"errors"
	"time"
)

// Signal is the desired exposure for a day: flat or one unit long.
type Signal int

const (
	SignalFlat Signal = 0
	SignalLong Signal = 1
)

// SignalPoint is aligned one-to-one with the price bar of the same date.
type SignalPoint struct {
	Date  time.Time
	Value Signal
}

// Params maps parameter names to numeric values.
type Params map[string]float64

// Strategy turns a price series into a signal series. Implementations are
// plain value configurations; GenerateSignals never mutates its input.
type Strategy interface {
	Name() string
	Params() Params
	Validate() error
	GenerateSignals(prices []models.Price) ([]SignalPoint, error)
}

var (
	ErrInvalidParams   = errors.New("invalid strategy parameters")
	ErrUnknownStrategy = errors.New("unknown strategy")
)

func newSignals(prices []models.Price) []SignalPoint {
	signals := make([]SignalPoint, len(prices))
	for i, p := range prices {
		signals[i] = SignalPoint{Date: p.OpenTime, Value: SignalFlat}
	}
	return signals
}

// Values extracts the exposure column.
func Values(signals []SignalPoint) []Signal {
	out := make([]Signal, len(signals))
	for i, s := range signals {
		out[i] = s.Value
	}
	return out
}
