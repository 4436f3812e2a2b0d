package strategy

import (
	"StrategyBacktester/internal/models"
	"StrategyBacktester/internal/services/indicators"
	"fmt"
	"math"
)

const BandBreakoutName = "bollinger"

// BandBreakoutStrategy is long on any day the close is strictly outside the bands.
type BandBreakoutStrategy struct {
	Window int
	NumStd float64
}

func NewBandBreakoutStrategy(window int, numStd float64) *BandBreakoutStrategy {
	return &BandBreakoutStrategy{Window: window, NumStd: numStd}
}

func (s *BandBreakoutStrategy) Name() string { return BandBreakoutName }

func (s *BandBreakoutStrategy) Params() Params {
	return Params{"window": float64(s.Window), "num_std": s.NumStd}
}

func (s *BandBreakoutStrategy) Validate() error {
	if s.Window < 2 {
		return fmt.Errorf("%w: window must be >= 2, got %d", ErrInvalidParams, s.Window)
	}
	if s.NumStd <= 0 || math.IsInf(s.NumStd, 0) || math.IsNaN(s.NumStd) {
		return fmt.Errorf("%w: num_std must be positive, got %v", ErrInvalidParams, s.NumStd)
	}
	return nil
}

func (s *BandBreakoutStrategy) GenerateSignals(prices []models.Price) ([]SignalPoint, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	closes := models.Closes(prices)
	bands := indicators.NewBBandsService().Calculate(closes, s.Window, s.NumStd)

	signals := newSignals(prices)
	for i, c := range closes {
		upper, lower := bands.Upper[i], bands.Lower[i]
		if math.IsNaN(upper) || math.IsNaN(lower) {
			continue
		}
		if c > upper || c < lower {
			signals[i].Value = SignalLong
		}
	}
	return signals, nil
}
