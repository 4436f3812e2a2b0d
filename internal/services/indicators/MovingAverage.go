package indicators

import "math"

// SMAService provides rolling-window statistics over a close series.
// Every output is aligned to its input; positions without a full window are NaN.
type SMAService struct{}

func NewSMAService() *SMAService {
	return &SMAService{}
}

// Calculate computes the simple moving average for the entire price series
func (s *SMAService) Calculate(prices []float64, period int) []float64 {
	if period <= 0 {
		return nil
	}

	sma := nanSeries(len(prices))
	for i := period - 1; i < len(prices); i++ {
		sma[i] = mean(prices[i-period+1 : i+1])
	}
	return sma
}

// StdDev computes the rolling sample standard deviation (n-1 denominator).
func (s *SMAService) StdDev(prices []float64, period int) []float64 {
	if period <= 1 {
		return nil
	}

	std := nanSeries(len(prices))
	for i := period - 1; i < len(prices); i++ {
		subset := prices[i-period+1 : i+1]
		avg := mean(subset)

		squareSum := 0.0
		for _, p := range subset {
			diff := p - avg
			squareSum += diff * diff
		}
		std[i] = math.Sqrt(squareSum / float64(period-1))
	}
	return std
}

func mean(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func nanSeries(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
