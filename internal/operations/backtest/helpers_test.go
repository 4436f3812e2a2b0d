package backtest

import (
	"StrategyBacktester/internal/models"
	"StrategyBacktester/internal/services/strategy"
	"io"
	"log/slog"
	"math"
	"time"
)

var testStart = time.Date(2022, 3, 1, 0, 0, 0, 0, time.UTC)

func mkSeries(closes ...float64) []models.Price {
	out := make([]models.Price, len(closes))
	for i, c := range closes {
		out[i] = models.Price{Symbol: "TEST", OpenTime: testStart.AddDate(0, 0, i), Close: c}
	}
	return out
}

func mkLinear(n int, from, to float64) []models.Price {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = from + (to-from)*float64(i)/float64(n-1)
	}
	return mkSeries(closes...)
}

func mkFlat(n int, price float64) []models.Price {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = price
	}
	return mkSeries(closes...)
}

// mkWave is a deterministic oscillating series that triggers every strategy.
func mkWave(n int) []models.Price {
	closes := make([]float64, n)
	for i := range closes {
		x := float64(i)
		closes[i] = 100 + 15*math.Sin(x/6) + 5*math.Sin(x/1.7) + 0.1*x
	}
	return mkSeries(closes...)
}

// fixedStrategy replays a predetermined signal column.
type fixedStrategy struct {
	values []strategy.Signal
}

func (f fixedStrategy) Name() string              { return "fixed" }
func (f fixedStrategy) Params() strategy.Params   { return strategy.Params{} }
func (f fixedStrategy) Validate() error           { return nil }
func (f fixedStrategy) GenerateSignals(prices []models.Price) ([]strategy.SignalPoint, error) {
	out := make([]strategy.SignalPoint, len(prices))
	for i, p := range prices {
		out[i] = strategy.SignalPoint{Date: p.OpenTime, Value: f.values[i]}
	}
	return out, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func metricBits(m MetricsReport) []uint64 {
	out := make([]uint64, 0, len(MetricNames()))
	for _, name := range MetricNames() {
		v, _ := m.Value(name)
		out = append(out, math.Float64bits(v))
	}
	return out
}
