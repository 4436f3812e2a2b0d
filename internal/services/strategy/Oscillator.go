package strategy

import (
	"StrategyBacktester/internal/models"
	"StrategyBacktester/internal/services/indicators"
	"fmt"
	"math"
)

const OscillatorName = "rsi"

// OscillatorStrategy enters below Lower and exits above Upper, holding the
// previous exposure in between.
type OscillatorStrategy struct {
	Period int
	Lower  float64
	Upper  float64
}

func NewOscillatorStrategy(period int, lower, upper float64) *OscillatorStrategy {
	return &OscillatorStrategy{Period: period, Lower: lower, Upper: upper}
}

func (s *OscillatorStrategy) Name() string { return OscillatorName }

func (s *OscillatorStrategy) Params() Params {
	return Params{"period": float64(s.Period), "lower": s.Lower, "upper": s.Upper}
}

func (s *OscillatorStrategy) Validate() error {
	if s.Period < 1 {
		return fmt.Errorf("%w: period must be >= 1, got %d", ErrInvalidParams, s.Period)
	}
	if s.Lower < 0 || s.Upper > 100 {
		return fmt.Errorf("%w: thresholds must lie in [0, 100], got %v/%v", ErrInvalidParams, s.Lower, s.Upper)
	}
	if s.Lower >= s.Upper {
		return fmt.Errorf("%w: lower (%v) must be below upper (%v)", ErrInvalidParams, s.Lower, s.Upper)
	}
	return nil
}

func (s *OscillatorStrategy) GenerateSignals(prices []models.Price) ([]SignalPoint, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	rsi := indicators.NewRSIService().Calculate(models.Closes(prices), s.Period)

	signals := newSignals(prices)
	prev := SignalFlat
	for i, v := range rsi {
		prev = latch(prev, v, s.Lower, s.Upper)
		signals[i].Value = prev
	}
	return signals, nil
}

// latch is one step of the hold-previous fold. Undefined values keep state.
func latch(prev Signal, value, lower, upper float64) Signal {
	switch {
	case math.IsNaN(value):
		return prev
	case value < lower:
		return SignalLong
	case value > upper:
		return SignalFlat
	default:
		return prev
	}
}
