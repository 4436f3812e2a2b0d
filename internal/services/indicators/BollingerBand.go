package indicators

type BBandsService struct {
	sma *SMAService
}

type BBandsResult struct {
	Upper  []float64
	Middle []float64
	Lower  []float64
}

func NewBBandsService() *BBandsService {
	return &BBandsService{sma: NewSMAService()}
}

// Calculate returns rolling mean ± deviations × sample standard deviation.
// A series shorter than period yields all-NaN bands; period < 2 yields nil.
func (s *BBandsService) Calculate(prices []float64, period int, deviations float64) *BBandsResult {
	if period < 2 {
		return nil
	}

	middle := s.sma.Calculate(prices, period)
	std := s.sma.StdDev(prices, period)

	upper := make([]float64, len(prices))
	lower := make([]float64, len(prices))

	for i := range prices {
		upper[i] = middle[i] + deviations*std[i]
		lower[i] = middle[i] - deviations*std[i]
	}

	return &BBandsResult{
		Upper:  upper,
		Middle: middle,
		Lower:  lower,
	}
}

