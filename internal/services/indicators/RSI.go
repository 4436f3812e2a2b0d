package indicators

import "math"

type RSIService struct {
	sma *SMAService
}

func NewRSIService() *RSIService {
	return &RSIService{
		sma: NewSMAService(),
	}
}

// Calculate computes the oscillator from simple rolling means of gains and losses.
// The first bar has no prior close and counts as neither gain nor loss, so values
// are defined from index period-1. A zero average loss reads as 100.
func (s *RSIService) Calculate(prices []float64, period int) []float64 {
	if period <= 0 {
		return nil
	}

	gains := make([]float64, len(prices))
	losses := make([]float64, len(prices))
	for i := 1; i < len(prices); i++ {
		change := prices[i] - prices[i-1]
		if change > 0 {
			gains[i] = change
		} else if change < 0 {
			losses[i] = -change
		}
	}

	avgGain := s.sma.Calculate(gains, period)
	avgLoss := s.sma.Calculate(losses, period)

	rsi := make([]float64, len(prices))
	for i := range prices {
		rsi[i] = value(avgGain[i], avgLoss[i])
	}
	return rsi
}

func value(avgGain, avgLoss float64) float64 {
	if math.IsNaN(avgGain) || math.IsNaN(avgLoss) {
		return math.NaN()
	}
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - (100 / (1 + rs))
}

