package backtest

import (
	"StrategyBacktester/internal/models"
	"StrategyBacktester/internal/services/strategy"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"
)

// ParamRange sweeps one parameter over start, start+step, ... up to stop.
type ParamRange struct {
	Name  string
	Start float64
	Stop  float64
	Step  float64
}

// Grid size limits. A sweep beyond these is a malformed grid.
const (
	MaxRangeValues  = 10_000
	MaxCombinations = 100_000
)

// Values expands the range. A non-positive step or stop below start is empty.
// A range with more than MaxRangeValues points returns ErrGridTooLarge.
func (r ParamRange) Values() ([]float64, error) {
	if r.Step <= 0 || r.Stop < r.Start || math.IsNaN(r.Start) || math.IsNaN(r.Stop) || math.IsNaN(r.Step) ||
		math.IsInf(r.Start, 0) || math.IsInf(r.Stop, 0) || math.IsInf(r.Step, 0) {
		return nil, nil
	}
	// index-based stepping avoids accumulating float error; the epsilon keeps
	// a stop that is reached exactly from being dropped by rounding
	count := math.Floor((r.Stop-r.Start)/r.Step+1e-9) + 1
	if math.IsInf(count, 0) || count > MaxRangeValues {
		return nil, fmt.Errorf("%w: %q spans %.0f values, limit %d", ErrGridTooLarge, r.Name, count, MaxRangeValues)
	}
	out := make([]float64, int(count))
	for i := range out {
		out[i] = r.Start + float64(i)*r.Step
	}
	return out, nil
}

// Factory builds a validated strategy from a parameter set.
type Factory func(params strategy.Params) (strategy.Strategy, error)

// RegistryFactory binds a registered strategy name to a Factory.
func RegistryFactory(reg *strategy.Registry, name string) Factory {
	return func(params strategy.Params) (strategy.Strategy, error) {
		return reg.Build(name, params)
	}
}

type GridResult struct {
	Index   int // position in the Cartesian product
	Params  strategy.Params
	Metrics MetricsReport
	Result  *Result
}

type GridSearchResult struct {
	RankBy       string
	Results      []GridResult // ranked, best first
	Excluded     []string     // parameters whose range was empty
	Combinations int
	Skipped      int // combinations rejected by strategy validation
}

// Best returns the top-ranked result, or false when none ran.
func (g *GridSearchResult) Best() (GridResult, bool) {
	if len(g.Results) == 0 {
		return GridResult{}, false
	}
	return g.Results[0], true
}

type Optimizer struct {
	config  Config
	workers int
	logger  *slog.Logger
}

func NewOptimizer(config Config, workers int, logger *slog.Logger) *Optimizer {
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Optimizer{config: config, workers: workers, logger: logger}
}

type gridJob struct {
	index    int
	params   strategy.Params
	strategy strategy.Strategy
}

// Search runs every parameter combination through the full pipeline and ranks
// the results by rankBy (default sharpe_ratio) descending. Ties keep product
// order and NaN ranks last. Cancelling ctx stops launching new combinations.
func (o *Optimizer) Search(ctx context.Context, factory Factory, prices []models.Price, ranges []ParamRange, rankBy string) (*GridSearchResult, error) {
	const op = "grid search"

	if rankBy == "" {
		rankBy = MetricSharpeRatio
	}
	if _, err := (MetricsReport{}).Value(rankBy); err != nil {
		return nil, configError(op, ErrUnknownMetric, "cannot rank by %q; choose one of %v", rankBy, MetricNames())
	}
	if err := validatePrices(op, prices); err != nil {
		return nil, err
	}
	if err := o.config.validate(op); err != nil {
		return nil, err
	}

	out := &GridSearchResult{RankBy: rankBy}
	var names []string
	var values [][]float64
	seen := make(map[string]bool)
	for _, r := range ranges {
		if seen[r.Name] {
			return nil, configError(op, strategy.ErrInvalidParams, "parameter %q given more than once", r.Name)
		}
		seen[r.Name] = true

		v, err := r.Values()
		if err != nil {
			return nil, &ConfigError{Op: op, Reason: err.Error(), Err: err}
		}
		if len(v) == 0 {
			out.Excluded = append(out.Excluded, r.Name)
			o.logger.Warn("parameter excluded from grid: empty range",
				slog.String("param", r.Name),
				slog.Float64("start", r.Start),
				slog.Float64("stop", r.Stop),
				slog.Float64("step", r.Step),
			)
			continue
		}
		names = append(names, r.Name)
		values = append(values, v)
	}
	if len(names) == 0 {
		return nil, configError(op, ErrNoValidRanges, "no valid parameter ranges (excluded: %v)", out.Excluded)
	}

	total := 1.0
	for _, v := range values {
		total *= float64(len(v))
	}
	if total > MaxCombinations {
		return nil, configError(op, ErrGridTooLarge, "%.0f combinations, limit %d", total, MaxCombinations)
	}

	combos := cartesian(names, values)
	out.Combinations = len(combos)

	jobs := make([]gridJob, 0, len(combos))
	for i, params := range combos {
		s, err := factory(params)
		if err != nil {
			if errors.Is(err, strategy.ErrInvalidParams) {
				out.Skipped++
				o.logger.Debug("skipping invalid combination", slog.Any("params", params), slog.String("reason", err.Error()))
				continue
			}
			return nil, fmt.Errorf("build strategy for %v: %w", params, err)
		}
		jobs = append(jobs, gridJob{index: i, params: params, strategy: s})
	}

	o.logger.Info("grid search started",
		slog.String("rank_by", rankBy),
		slog.Int("combinations", out.Combinations),
		slog.Int("runnable", len(jobs)),
		slog.Int("skipped", out.Skipped),
		slog.Int("workers", o.workers),
	)

	results := make([]GridResult, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers)
	for i, job := range jobs {
		i, job := i, job
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := RunPipeline(prices, job.strategy, o.config)
			if err != nil {
				return fmt.Errorf("params %v: %w", job.params, err)
			}
			results[i] = GridResult{Index: job.index, Params: job.params, Metrics: res.Metrics, Result: res}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rankResults(results, rankBy)
	out.Results = results

	if best, ok := out.Best(); ok {
		v, _ := best.Metrics.Value(rankBy)
		o.logger.Info("grid search finished", slog.Any("best_params", best.Params), slog.Float64(rankBy, v))
	}
	return out, nil
}

// cartesian enumerates combinations with the first parameter varying slowest.
func cartesian(names []string, values [][]float64) []strategy.Params {
	combos := []strategy.Params{{}}
	for i, name := range names {
		next := make([]strategy.Params, 0, len(combos)*len(values[i]))
		for _, base := range combos {
			for _, v := range values[i] {
				p := make(strategy.Params, len(base)+1)
				for k, bv := range base {
					p[k] = bv
				}
				p[name] = v
				next = append(next, p)
			}
		}
		combos = next
	}
	return combos
}

func rankResults(results []GridResult, rankBy string) {
	sort.SliceStable(results, func(i, j int) bool {
		a, _ := results[i].Metrics.Value(rankBy)
		b, _ := results[j].Metrics.Value(rankBy)
		if math.IsNaN(b) {
			return !math.IsNaN(a)
		}
		return a > b
	})
}
