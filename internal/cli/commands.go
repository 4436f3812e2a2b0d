package cli

import (
	"StrategyBacktester/config"
	"StrategyBacktester/internal/handlers"
	"StrategyBacktester/internal/operations/backtest"
	"StrategyBacktester/internal/services/strategy"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

type dateFlags struct {
	start string
	end   string
}

func (d *dateFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&d.start, "start", "", "first date, YYYY-MM-DD (default: three years before --end)")
	cmd.Flags().StringVar(&d.end, "end", "", "last date, YYYY-MM-DD (default: today)")
}

func (d *dateFlags) resolve() (time.Time, time.Time, error) {
	return parseDateRange(d.start, d.end, time.Now())
}

func newRunCmd(a *app) *cobra.Command {
	var (
		dates     dateFlags
		name      string
		params    []string
		ledgerCSV string
		tradesCSV string
	)

	cmd := &cobra.Command{
		Use:   "run SYMBOL",
		Short: "Backtest one strategy on one symbol",
		Long: `Backtest one strategy on one symbol and print its metrics and trade log.
Example: backtester run SPY --strategy crossover --param short_window=10 --param long_window=40`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			start, end, err := dates.resolve()
			if err != nil {
				return err
			}
			p, err := parseParams(params)
			if err != nil {
				return err
			}

			bt, _, _, err := a.handlers(cmd.Context())
			if err != nil {
				return err
			}
			out, err := bt.RunBacktest(cmd.Context(), handlers.RunRequest{
				Symbol: args[0], Start: start, End: end, Strategy: name, Params: p,
			})
			if err != nil {
				return err
			}

			fmt.Fprintln(a.out, renderRunHeader(out))
			fmt.Fprintln(a.out, renderMetrics(out.Result.Metrics))
			fmt.Fprintln(a.out, renderTradeLog(out.Result.TradeLog))

			if ledgerCSV != "" {
				if err := writeFile(ledgerCSV, func(f *os.File) error { return backtest.WriteLedgerCSV(f, out.Result.Ledger) }); err != nil {
					return err
				}
			}
			if tradesCSV != "" {
				if err := writeFile(tradesCSV, func(f *os.File) error { return backtest.WriteTradeLogCSV(f, out.Result.TradeLog) }); err != nil {
					return err
				}
			}
			return nil
		},
	}

	dates.register(cmd)
	cmd.Flags().StringVar(&name, "strategy", strategy.CrossoverName, "strategy name (crossover, rsi, bollinger)")
	cmd.Flags().StringArrayVar(&params, "param", nil, "strategy parameter as name=value (repeatable)")
	cmd.Flags().StringVar(&ledgerCSV, "ledger-csv", "", "write the daily ledger to this CSV file")
	cmd.Flags().StringVar(&tradesCSV, "trades-csv", "", "write the trade log to this CSV file")
	return cmd
}

func newOptimizeCmd(a *app) *cobra.Command {
	var (
		dates    dateFlags
		name     string
		ranges   []string
		gridFile string
		rankBy   string
		top      int
	)

	cmd := &cobra.Command{
		Use:   "optimize SYMBOL",
		Short: "Grid-search strategy parameters and rank the results",
		Long: `Run every combination of the given parameter ranges and rank them by a metric.
Ranges are name=start:stop:step (stop inclusive) or come from a TOML grid file.
Example: backtester optimize SPY --strategy crossover --range short_window=5:30:5 --range long_window=40:100:20`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			start, end, err := dates.resolve()
			if err != nil {
				return err
			}

			var parsed []backtest.ParamRange
			if gridFile != "" {
				grid, err := config.LoadGrid(gridFile)
				if err != nil {
					return err
				}
				name = grid.Strategy
				if grid.RankBy != "" && !cmd.Flags().Changed("rank-by") {
					rankBy = grid.RankBy
				}
				parsed = gridRanges(grid)
			}
			for _, r := range ranges {
				pr, err := parseRange(r)
				if err != nil {
					return err
				}
				parsed = append(parsed, pr)
			}
			if len(parsed) == 0 {
				return fmt.Errorf("no parameter ranges given; use --range or --grid")
			}

			bt, _, _, err := a.handlers(cmd.Context())
			if err != nil {
				return err
			}
			out, err := bt.Optimize(cmd.Context(), handlers.OptimizeRequest{
				Symbol: args[0], Start: start, End: end, Strategy: name, Ranges: parsed, RankBy: rankBy,
			})
			if err != nil {
				return err
			}

			fmt.Fprintln(a.out, renderGrid(out, top))
			return nil
		},
	}

	dates.register(cmd)
	cmd.Flags().StringVar(&name, "strategy", strategy.CrossoverName, "strategy name (crossover, rsi, bollinger)")
	cmd.Flags().StringArrayVar(&ranges, "range", nil, "parameter range as name=start:stop:step (repeatable)")
	cmd.Flags().StringVar(&gridFile, "grid", "", "TOML grid file with strategy, rank_by and [[ranges]]")
	cmd.Flags().StringVar(&rankBy, "rank-by", backtest.MetricSharpeRatio, "metric to rank by")
	cmd.Flags().IntVar(&top, "top", 10, "rows to print (0 for all)")
	return cmd
}

func newFetchCmd(a *app) *cobra.Command {
	var dates dateFlags

	cmd := &cobra.Command{
		Use:   "fetch SYMBOL...",
		Short: "Download daily bars and record them in the database",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			start, end, err := dates.resolve()
			if err != nil {
				return err
			}
			_, ph, st, err := a.handlers(cmd.Context())
			if err != nil {
				return err
			}
			if st == nil {
				a.logger.Warn("no database configured; bars are fetched but not recorded")
			}

			counts, err := ph.FetchHistoricalData(cmd.Context(), args, start, end)
			fmt.Fprintln(a.out, renderFetch(args, counts))
			return err
		},
	}
	dates.register(cmd)
	return cmd
}

func newStrategiesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "strategies",
		Short: "List strategies and their parameters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := strategy.NewRegistry()
			var defs []strategy.Definition
			for _, n := range reg.Names() {
				def, err := reg.Lookup(n)
				if err != nil {
					return err
				}
				defs = append(defs, def)
			}
			fmt.Fprintln(a.out, renderStrategies(defs))
			return nil
		},
	}
}

func newHistoryCmd(a *app) *cobra.Command {
	var (
		limit int
		runID string
	)

	cmd := &cobra.Command{
		Use:   "history [SYMBOL]",
		Short: "List persisted backtest runs",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bt, _, st, err := a.handlers(cmd.Context())
			if err != nil {
				return err
			}

			if runID != "" {
				if st == nil {
					return fmt.Errorf("run history requires a database (set DB_HOST)")
				}
				run, err := st.runs.FindByID(runID)
				if err != nil {
					return err
				}
				if run == nil {
					return fmt.Errorf("run %s not found", runID)
				}
				fmt.Fprintln(a.out, renderHistory(nil, run))
				return nil
			}

			if len(args) == 0 {
				return fmt.Errorf("a SYMBOL or --run is required")
			}
			runs, err := bt.History(args[0], limit)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, renderHistory(runs, nil))
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum runs to list")
	cmd.Flags().StringVar(&runID, "run", "", "show one run and its trades")
	return cmd
}

func writeFile(path string, write func(f *os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
