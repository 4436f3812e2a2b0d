package strategy

import (
	"StrategyBacktester/internal/models"
	"StrategyBacktester/internal/services/indicators"
	"fmt"
	"math"
)

const CrossoverName = "crossover"

// CrossoverStrategy is long while the short moving average is above the long one.
type CrossoverStrategy struct {
	ShortWindow int
	LongWindow  int
}

func NewCrossoverStrategy(shortWindow, longWindow int) *CrossoverStrategy {
	return &CrossoverStrategy{ShortWindow: shortWindow, LongWindow: longWindow}
}

func (s *CrossoverStrategy) Name() string { return CrossoverName }

func (s *CrossoverStrategy) Params() Params {
	return Params{"short_window": float64(s.ShortWindow), "long_window": float64(s.LongWindow)}
}

func (s *CrossoverStrategy) Validate() error {
	if s.ShortWindow < 1 {
		return fmt.Errorf("%w: short_window must be >= 1, got %d", ErrInvalidParams, s.ShortWindow)
	}
	if s.LongWindow <= s.ShortWindow {
		return fmt.Errorf("%w: long_window (%d) must exceed short_window (%d)",
			ErrInvalidParams, s.LongWindow, s.ShortWindow)
	}
	return nil
}

// GenerateSignals compares the two averages day by day. A day where either
// average is still warming up is flat.
func (s *CrossoverStrategy) GenerateSignals(prices []models.Price) ([]SignalPoint, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	closes := models.Closes(prices)
	sma := indicators.NewSMAService()
	short := sma.Calculate(closes, s.ShortWindow)
	long := sma.Calculate(closes, s.LongWindow)

	signals := newSignals(prices)
	for i := range signals {
		if math.IsNaN(short[i]) || math.IsNaN(long[i]) {
			continue
		}
		if short[i] > long[i] {
			signals[i].Value = SignalLong
		}
	}
	return signals, nil
}
