package backtest

import (
	"StrategyBacktester/internal/models"
	"StrategyBacktester/internal/services/strategy"
)

// RunLedger walks the trades day by day from (initialCash, 0 units).
// Each trade executes at that day's close; cash + holdings is conserved.
func RunLedger(prices []models.Price, trades []Trade, initialCash float64) ([]LedgerRow, error) {
	const op = "run"
	if err := validatePrices(op, prices); err != nil {
		return nil, err
	}
	if len(trades) != len(prices) {
		return nil, configError(op, ErrLengthMismatch, "%d trades for %d price bars", len(trades), len(prices))
	}
	if err := (Config{InitialCash: initialCash}).validate(op); err != nil {
		return nil, err
	}

	ledger := make([]LedgerRow, len(prices))
	cash, qty := initialCash, 0
	position := 0

	for t, bar := range prices {
		tr := trades[t]
		if !tr.Date.Equal(bar.OpenTime) {
			return nil, configError(op, ErrDateMismatch, "trade %d dated %s, price bar dated %s",
				t, tr.Date.Format("2006-01-02"), bar.OpenTime.Format("2006-01-02"))
		}

		qty += tr.Delta
		if qty < 0 {
			return nil, configError(op, ErrInvalidTrades, "quantity would fall to %d on %s", qty, bar.OpenTime.Format("2006-01-02"))
		}
		cash -= float64(tr.Delta) * bar.Close
		position += tr.Delta

		holdings := float64(qty) * bar.Close
		row := LedgerRow{
			Date:     bar.OpenTime,
			Close:    bar.Close,
			Position: position,
			Delta:    tr.Delta,
			Cash:     cash,
			Quantity: qty,
			Holdings: holdings,
			Total:    cash + holdings,
		}
		if t > 0 {
			row.Return = periodicReturn(ledger[t-1].Total, row.Total)
		}
		ledger[t] = row
	}
	return ledger, nil
}

// validatePrices rejects an empty series or one that is unsorted, duplicated,
// or carries a non-positive close.
func validatePrices(op string, prices []models.Price) error {
	if len(prices) == 0 {
		return configError(op, ErrPricesNotLoaded, "no price series supplied; fetch data before running")
	}
	if err := models.ValidateSeries(prices); err != nil {
		return &ConfigError{Op: op, Reason: err.Error(), Err: err}
	}
	return nil
}

func periodicReturn(prev, cur float64) float64 {
	if prev == 0 {
		return 0
	}
	return cur/prev - 1
}

// RunPipeline is signals → positions → ledger → metrics for one strategy.
// It holds no state, so concurrent calls over the same series are safe.
func RunPipeline(prices []models.Price, s strategy.Strategy, cfg Config) (*Result, error) {
	if err := validatePrices("run", prices); err != nil {
		return nil, err
	}
	signals, err := s.GenerateSignals(prices)
	if err != nil {
		return nil, err
	}
	if len(signals) != len(prices) {
		return nil, configError("run", ErrLengthMismatch, "%s produced %d signals for %d price bars",
			s.Name(), len(signals), len(prices))
	}

	_, trades, err := ResolveSignals(signals)
	if err != nil {
		return nil, err
	}

	ledger, err := RunLedger(prices, trades, cfg.InitialCash)
	if err != nil {
		return nil, err
	}
	for i := range ledger {
		ledger[i].Signal = signals[i].Value
	}

	tradeLog := BuildTradeLog(ledger)
	return &Result{
		Strategy: s.Name(),
		Params:   s.Params(),
		Ledger:   ledger,
		TradeLog: tradeLog,
		Metrics:  ComputeMetrics(ledger, tradeLog, cfg.InitialCash),
	}, nil
}

// Engine holds a fetched price series and runs strategies against it.
type Engine struct {
	config Config
	prices []models.Price
}

func NewEngine(config Config) *Engine {
	return &Engine{config: config}
}

// LoadPrices validates and keeps the series. The slice is copied.
func (e *Engine) LoadPrices(prices []models.Price) error {
	if err := validatePrices("load", prices); err != nil {
		return err
	}
	e.prices = append([]models.Price(nil), prices...)
	return nil
}

func (e *Engine) Prices() []models.Price {
	return e.prices
}

func (e *Engine) Config() Config {
	return e.config
}

// Run executes the full pipeline for s over the loaded series.
func (e *Engine) Run(s strategy.Strategy) (*Result, error) {
	if len(e.prices) == 0 {
		return nil, configError("run", ErrPricesNotLoaded, "no price series loaded; fetch data before running")
	}
	if err := e.config.validate("run"); err != nil {
		return nil, err
	}
	return RunPipeline(e.prices, s, e.config)
}

// RunTrades executes an explicit trade sequence over the loaded series.
func (e *Engine) RunTrades(trades []Trade) ([]LedgerRow, error) {
	if len(e.prices) == 0 {
		return nil, configError("run", ErrPricesNotLoaded, "no price series loaded; fetch data before running")
	}
	return RunLedger(e.prices, trades, e.config.InitialCash)
}
