package backtest

import (
	"StrategyBacktester/internal/services/strategy"
	"fmt"
	"math"
	"time"
)

const (
	TradingDaysPerYear = 252
	DaysPerYear        = 365.25
	DefaultInitialCash = 100000.0
)

// Trade is the position change on one day: +1 enter, -1 exit, 0 hold.
type Trade struct {
	Date  time.Time
	Delta int
}

// LedgerRow is the account state at the close of one day.
type LedgerRow struct {
	Date     time.Time
	Close    float64
	Signal   strategy.Signal
	Position int
	Delta    int
	Cash     float64
	Quantity int
	Holdings float64 // Quantity * Close
	Total    float64 // Cash + Holdings
	Return   float64 // zero on the first row
}

const (
	ActionBuy  = "Buy"
	ActionSell = "Sell"
)

// TradeLogEntry is one executed fill. PnL is realized on sells only.
type TradeLogEntry struct {
	Date     time.Time
	Action   string
	Price    float64
	Quantity int
	PnL      float64
}

// Metric names, also used as grid-search ranking keys
const (
	MetricCumulativeReturn = "cumulative_return"
	MetricSharpeRatio      = "sharpe_ratio"
	MetricMaxDrawdown      = "max_drawdown"
	MetricVolatility       = "volatility"
	MetricCAGR             = "cagr"
	MetricCalmarRatio      = "calmar_ratio"
	MetricWinRate          = "win_rate"
	MetricAvgPnL           = "avg_pnl"
	MetricWinLossRatio     = "win_loss_ratio"
	MetricMaxDailyGain     = "max_single_day_gain"
	MetricMaxDailyLoss     = "max_single_day_loss"
	MetricFinalEquity      = "final_equity"
	MetricClosedTrades     = "closed_trades"
)

// MetricsReport is derived from a completed ledger. NaN and ±Inf are
// legitimate values for the ratio fields.
type MetricsReport struct {
	CumulativeReturn float64
	SharpeRatio      float64
	MaxDrawdown      float64
	Volatility       float64
	CAGR             float64
	CalmarRatio      float64
	WinRate          float64
	AvgPnL           float64
	WinLossRatio     float64
	MaxDailyGain     float64
	MaxDailyLoss     float64
	FinalEquity      float64
	ClosedTrades     int
}

// MetricNames lists every rankable metric in report order.
func MetricNames() []string {
	return []string{
		MetricCumulativeReturn, MetricSharpeRatio, MetricMaxDrawdown, MetricVolatility,
		MetricCAGR, MetricCalmarRatio, MetricWinRate, MetricAvgPnL, MetricWinLossRatio,
		MetricMaxDailyGain, MetricMaxDailyLoss, MetricFinalEquity, MetricClosedTrades,
	}
}

// Value looks a metric up by name.
func (m MetricsReport) Value(name string) (float64, error) {
	switch name {
	case MetricCumulativeReturn:
		return m.CumulativeReturn, nil
	case MetricSharpeRatio:
		return m.SharpeRatio, nil
	case MetricMaxDrawdown:
		return m.MaxDrawdown, nil
	case MetricVolatility:
		return m.Volatility, nil
	case MetricCAGR:
		return m.CAGR, nil
	case MetricCalmarRatio:
		return m.CalmarRatio, nil
	case MetricWinRate:
		return m.WinRate, nil
	case MetricAvgPnL:
		return m.AvgPnL, nil
	case MetricWinLossRatio:
		return m.WinLossRatio, nil
	case MetricMaxDailyGain:
		return m.MaxDailyGain, nil
	case MetricMaxDailyLoss:
		return m.MaxDailyLoss, nil
	case MetricFinalEquity:
		return m.FinalEquity, nil
	case MetricClosedTrades:
		return float64(m.ClosedTrades), nil
	}
	return math.NaN(), fmt.Errorf("%w: %q", ErrUnknownMetric, name)
}

// Result is one full pipeline run.
type Result struct {
	Strategy string
	Params   strategy.Params
	Ledger   []LedgerRow
	TradeLog []TradeLogEntry
	Metrics  MetricsReport
}

// Config holds the account settings shared by every run.
type Config struct {
	InitialCash float64
}

// NewConfig creates default config
func NewConfig() Config {
	return Config{InitialCash: DefaultInitialCash}
}

func (c Config) validate(op string) error {
	if c.InitialCash <= 0 || math.IsNaN(c.InitialCash) || math.IsInf(c.InitialCash, 0) {
		return configError(op, ErrInvalidCash, "initial cash must be a positive amount, got %v", c.InitialCash)
	}
	return nil
}
