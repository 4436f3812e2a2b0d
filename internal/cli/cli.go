package cli

import (
	"StrategyBacktester/config"
	"StrategyBacktester/internal/cache"
	"StrategyBacktester/internal/handlers"
	"StrategyBacktester/internal/operations/backtest"
	"StrategyBacktester/internal/operations/binance"
	"StrategyBacktester/internal/operations/price"
	"StrategyBacktester/internal/repositories"
	"StrategyBacktester/internal/services/strategy"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
)

// app carries configuration and lazily opened connections for one command.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	out     io.Writer
	noDB    bool
	noCache bool
	closers []func() error
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	a := &app{out: os.Stdout}

	var (
		provider string
		cash     float64
		workers  int
		logLevel string
	)

	rootCmd := &cobra.Command{
		Use:   "backtester",
		Short: "Backtest rule-based trading strategies on daily price data",
		Long: `backtester simulates long-only strategies (moving average crossover, RSI, Bollinger
breakout) against one symbol's daily closes and reports return, risk and trade statistics.
Price history comes from Yahoo Finance or Binance and is optionally kept in Postgres and Redis.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("provider") {
				cfg.Backtest.Provider = strings.ToLower(provider)
			}
			if flags.Changed("cash") {
				cfg.Backtest.InitialCash = cash
			}
			if flags.Changed("workers") {
				cfg.Backtest.Workers = workers
			}
			if flags.Changed("log-level") {
				cfg.LogLevel = strings.ToLower(logLevel)
			}
			a.cfg = cfg
			a.logger = newLogger(os.Stderr, cfg.LogLevel)
			slog.SetDefault(a.logger)
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.close()
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&provider, "provider", config.DefaultProvider, "price provider: yahoo or binance")
	pf.Float64Var(&cash, "cash", config.DefaultInitialCash, "initial cash")
	pf.IntVar(&workers, "workers", 0, "grid search workers (default: number of CPUs)")
	pf.StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
	pf.BoolVar(&a.noDB, "no-db", false, "skip Postgres even when DB_HOST is set")
	pf.BoolVar(&a.noCache, "no-cache", false, "skip Redis even when REDIS_ADDR is set")

	rootCmd.AddCommand(newRunCmd(a))
	rootCmd.AddCommand(newOptimizeCmd(a))
	rootCmd.AddCommand(newFetchCmd(a))
	rootCmd.AddCommand(newStrategiesCmd(a))
	rootCmd.AddCommand(newHistoryCmd(a))

	return rootCmd
}

// Execute runs the root command until it finishes or the process is
// interrupted, and exits non-zero on failure.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := NewRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newLogger(w io.Writer, level string) *slog.Logger {
	var l slog.Level
	switch level {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: l}))
}

func (a *app) close() error {
	var firstErr error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	a.closers = nil
	return firstErr
}

func (a *app) provider() (price.Provider, error) {
	switch a.cfg.Backtest.Provider {
	case price.ProviderYahoo:
		return price.NewYahooProvider(true), nil
	case price.ProviderBinance:
		return binance.NewBinanceClient(a.cfg.Exchange.APIKey, a.cfg.Exchange.SecretKey), nil
	}
	return nil, fmt.Errorf("%w: %q (use yahoo or binance)", price.ErrUnknownProvider, a.cfg.Backtest.Provider)
}

type stores struct {
	prices *repositories.PriceRepository
	runs   *repositories.BacktestRepository
	trades *repositories.TradeRepository
}

func (a *app) database() (*stores, error) {
	if a.noDB || !a.cfg.Database.Enabled() {
		return nil, nil
	}
	db, err := repositories.Open(repositories.DSN(a.cfg.Database))
	if err != nil {
		return nil, err
	}
	if sqlDB, err := db.DB(); err == nil {
		a.closers = append(a.closers, sqlDB.Close)
	}
	return &stores{
		prices: repositories.NewPriceRepository(db),
		runs:   repositories.NewBacktestRepository(db),
		trades: repositories.NewTradeRepository(db),
	}, nil
}

func (a *app) barCache(ctx context.Context) price.BarCache {
	if a.noCache || !a.cfg.Redis.Enabled() {
		return nil
	}
	rdb, err := cache.NewClient(ctx, cache.ClientConfig{
		Addr:     a.cfg.Redis.Addr,
		Password: a.cfg.Redis.Password,
		DB:       a.cfg.Redis.DB,
	})
	if err != nil {
		a.logger.Warn("redis unavailable, continuing without cache", slog.String("error", err.Error()))
		return nil
	}
	a.closers = append(a.closers, rdb.Close)
	return cache.NewBarCache(rdb, a.cfg.Redis.TTL)
}

// handlers wires provider, persistence and cache into the command handlers.
func (a *app) handlers(ctx context.Context) (*handlers.BacktestHandler, *handlers.PriceHandler, *stores, error) {
	provider, err := a.provider()
	if err != nil {
		return nil, nil, nil, err
	}
	st, err := a.database()
	if err != nil {
		return nil, nil, nil, err
	}

	var (
		barStore price.BarStore
		runStore handlers.RunStore
	)
	if st != nil {
		barStore = st.prices
		runStore = st.runs
	}

	loader := price.NewLoader(provider, barStore, a.barCache(ctx), a.logger)
	bt := handlers.NewBacktestHandler(
		loader,
		strategy.NewRegistry(),
		runStore,
		backtest.Config{InitialCash: a.cfg.Backtest.InitialCash},
		a.cfg.Backtest.Workers,
		a.logger,
	)
	return bt, handlers.NewPriceHandler(loader, a.logger), st, nil
}
