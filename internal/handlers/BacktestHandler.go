package handlers

import (
	"StrategyBacktester/internal/models"
	"StrategyBacktester/internal/operations/backtest"
	"StrategyBacktester/internal/services/strategy"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SeriesLoader supplies cleaned daily series.
type SeriesLoader interface {
	Provider() string
	Load(ctx context.Context, symbol string, start, end time.Time) ([]models.Price, error)
	Fetch(ctx context.Context, symbol string, start, end time.Time) ([]models.Price, error)
}

// RunStore persists completed runs. Optional.
type RunStore interface {
	SaveRun(run *models.BacktestRun) error
	SaveRuns(runs []models.BacktestRun) error
	FindBySymbol(symbol string, limit int) ([]models.BacktestRun, error)
}

type BacktestHandler struct {
	loader    SeriesLoader
	registry  *strategy.Registry
	optimizer *backtest.Optimizer
	runs      RunStore
	config    backtest.Config
	logger    *slog.Logger
	newID     func() string
}

func NewBacktestHandler(
	loader SeriesLoader,
	registry *strategy.Registry,
	runs RunStore,
	config backtest.Config,
	workers int,
	logger *slog.Logger,
) *BacktestHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &BacktestHandler{
		loader:    loader,
		registry:  registry,
		optimizer: backtest.NewOptimizer(config, workers, logger),
		runs:      runs,
		config:    config,
		logger:    logger,
		newID:     uuid.NewString,
	}
}

type RunRequest struct {
	Symbol   string
	Start    time.Time
	End      time.Time
	Strategy string
	Params   strategy.Params
}

type RunOutcome struct {
	RunID    string // empty when nothing was persisted
	Symbol   string
	Result   *backtest.Result
	Drawdown []backtest.DrawdownPoint
	Markers  []backtest.Marker
}

// RunBacktest loads the series, runs one strategy, and records the run.
func (h *BacktestHandler) RunBacktest(ctx context.Context, req RunRequest) (*RunOutcome, error) {
	symbol := normalizeSymbol(req.Symbol)
	s, err := h.registry.Build(req.Strategy, req.Params)
	if err != nil {
		return nil, err
	}

	prices, err := h.loader.Load(ctx, symbol, req.Start, req.End)
	if err != nil {
		return nil, err
	}

	engine := backtest.NewEngine(h.config)
	if err := engine.LoadPrices(prices); err != nil {
		return nil, err
	}
	result, err := engine.Run(s)
	if err != nil {
		return nil, err
	}

	m := result.Metrics
	h.logger.Info("backtest complete",
		slog.String("symbol", symbol),
		slog.String("strategy", s.Name()),
		slog.Any("params", s.Params()),
		slog.Int("bars", len(prices)),
		slog.Float64("cumulative_return", m.CumulativeReturn),
		slog.Float64("sharpe_ratio", m.SharpeRatio),
		slog.Float64("max_drawdown", m.MaxDrawdown),
		slog.Int("closed_trades", m.ClosedTrades),
	)

	out := &RunOutcome{
		Symbol:   symbol,
		Result:   result,
		Drawdown: backtest.DrawdownSeries(result.Ledger),
		Markers:  backtest.Markers(result.Ledger),
	}

	if h.runs != nil {
		run, err := NewRunRecord(h.newID(), symbol, h.loader.Provider(), h.config.InitialCash, result)
		if err != nil {
			return nil, err
		}
		if err := h.runs.SaveRun(&run); err != nil {
			h.logger.Error("saving backtest run failed", slog.String("symbol", symbol), slog.String("error", err.Error()))
		} else {
			out.RunID = run.ID
		}
	}
	return out, nil
}

type OptimizeRequest struct {
	Symbol   string
	Start    time.Time
	End      time.Time
	Strategy string
	Ranges   []backtest.ParamRange
	RankBy   string
}

type OptimizeOutcome struct {
	GridID string // empty when nothing was persisted
	Symbol string
	Search *backtest.GridSearchResult
}

// Optimize runs a parameter grid and records every ranked run under one grid id.
func (h *BacktestHandler) Optimize(ctx context.Context, req OptimizeRequest) (*OptimizeOutcome, error) {
	symbol := normalizeSymbol(req.Symbol)
	if _, err := h.registry.Lookup(req.Strategy); err != nil {
		return nil, err
	}

	prices, err := h.loader.Load(ctx, symbol, req.Start, req.End)
	if err != nil {
		return nil, err
	}

	search, err := h.optimizer.Search(ctx, backtest.RegistryFactory(h.registry, req.Strategy), prices, req.Ranges, req.RankBy)
	if err != nil {
		return nil, err
	}
	if len(search.Excluded) > 0 {
		h.logger.Warn("some parameters were left out of the grid", slog.Any("excluded", search.Excluded))
	}

	out := &OptimizeOutcome{Symbol: symbol, Search: search}
	if h.runs == nil || len(search.Results) == 0 {
		return out, nil
	}

	gridID := h.newID()
	records := make([]models.BacktestRun, 0, len(search.Results))
	for rank, r := range search.Results {
		run, err := NewRunRecord(h.newID(), symbol, h.loader.Provider(), h.config.InitialCash, r.Result)
		if err != nil {
			return nil, err
		}
		run.GridID = gridID
		run.Rank = rank + 1
		records = append(records, run)
	}
	if err := h.runs.SaveRuns(records); err != nil {
		h.logger.Error("saving grid runs failed", slog.String("symbol", symbol), slog.String("error", err.Error()))
		return out, nil
	}
	out.GridID = gridID
	return out, nil
}

// History lists persisted runs for a symbol, newest first.
func (h *BacktestHandler) History(symbol string, limit int) ([]models.BacktestRun, error) {
	if h.runs == nil {
		return nil, fmt.Errorf("run history requires a database (set DB_HOST)")
	}
	return h.runs.FindBySymbol(normalizeSymbol(symbol), limit)
}

// Strategies describes the registered strategies in name order.
func (h *BacktestHandler) Strategies() []strategy.Definition {
	var defs []strategy.Definition
	for _, name := range h.registry.Names() {
		def, _ := h.registry.Lookup(name)
		defs = append(defs, def)
	}
	return defs
}

// NewRunRecord flattens a result into its persisted form.
func NewRunRecord(id, symbol, provider string, initialCash float64, result *backtest.Result) (models.BacktestRun, error) {
	params, err := json.Marshal(result.Params)
	if err != nil {
		return models.BacktestRun{}, fmt.Errorf("encode params: %w", err)
	}

	m := result.Metrics
	run := models.BacktestRun{
		ID:               id,
		Symbol:           symbol,
		Provider:         provider,
		Strategy:         result.Strategy,
		Params:           string(params),
		InitialCash:      initialCash,
		CumulativeReturn: m.CumulativeReturn,
		SharpeRatio:      m.SharpeRatio,
		MaxDrawdown:      m.MaxDrawdown,
		Volatility:       m.Volatility,
		CAGR:             m.CAGR,
		CalmarRatio:      m.CalmarRatio,
		WinRate:          m.WinRate,
		AvgPnL:           m.AvgPnL,
		WinLossRatio:     m.WinLossRatio,
		MaxDailyGain:     m.MaxDailyGain,
		MaxDailyLoss:     m.MaxDailyLoss,
		FinalEquity:      m.FinalEquity,
		ClosedTrades:     m.ClosedTrades,
	}
	if n := len(result.Ledger); n > 0 {
		run.StartDate = result.Ledger[0].Date
		run.EndDate = result.Ledger[n-1].Date
	}

	for i, e := range result.TradeLog {
		rec := models.TradeRecord{
			RunID:    id,
			Seq:      i,
			Date:     e.Date,
			Action:   e.Action,
			Price:    e.Price,
			Quantity: e.Quantity,
		}
		if e.Action == backtest.ActionSell {
			pnl := e.PnL
			rec.PnL = &pnl
		}
		run.Trades = append(run.Trades, rec)
	}
	return run, nil
}

func normalizeSymbol(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
