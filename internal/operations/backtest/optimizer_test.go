package backtest

import (
	"StrategyBacktester/internal/services/strategy"
	"context"
	"errors"
	"math"
	"reflect"
	"testing"
)

func TestParamRangeValues(t *testing.T) {
	tests := []struct {
		name string
		r    ParamRange
		want []float64
	}{
		{"inclusive stop", ParamRange{Start: 5, Stop: 20, Step: 5}, []float64{5, 10, 15, 20}},
		{"stop not on grid", ParamRange{Start: 5, Stop: 18, Step: 5}, []float64{5, 10, 15}},
		{"single value", ParamRange{Start: 7, Stop: 7, Step: 1}, []float64{7}},
		{"reversed", ParamRange{Start: 20, Stop: 10, Step: 5}, nil},
		{"zero step", ParamRange{Start: 1, Stop: 10, Step: 0}, nil},
		{"negative step", ParamRange{Start: 1, Stop: 10, Step: -1}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.r.Values()
			if err != nil {
				t.Fatalf("Values() error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("Values() = %v, want %v", got, tt.want)
			}
		})
	}

	frac, err := ParamRange{Start: 0.1, Stop: 0.3, Step: 0.1}.Values()
	if err != nil || len(frac) != 3 || math.Abs(frac[2]-0.3) > 1e-12 {
		t.Fatalf("fractional range = %v", frac)
	}
}

func TestParamRangeValuesRejectsHugeRange(t *testing.T) {
	for _, r := range []ParamRange{
		{Name: "short_window", Start: 0, Stop: 1e20, Step: 1},
		{Name: "short_window", Start: 0, Stop: 1e10, Step: 1},
		{Name: "short_window", Start: 0, Stop: math.MaxFloat64, Step: math.SmallestNonzeroFloat64},
	} {
		v, err := r.Values()
		if !errors.Is(err, ErrGridTooLarge) {
			t.Errorf("Values(%v) err = %v, want ErrGridTooLarge", r, err)
		}
		if v != nil {
			t.Errorf("Values(%v) returned %d values", r, len(v))
		}
	}

	v, err := ParamRange{Start: 1, Stop: MaxRangeValues, Step: 1}.Values()
	if err != nil || len(v) != MaxRangeValues {
		t.Fatalf("range at the limit: %d values, err %v", len(v), err)
	}
}

func TestSearchRejectsOversizedGrid(t *testing.T) {
	factory := RegistryFactory(strategy.NewRegistry(), strategy.CrossoverName)
	opt := newTestOptimizer(2)

	huge := []ParamRange{{Name: "short_window", Start: 0, Stop: 1e20, Step: 1}}
	res, err := opt.Search(context.Background(), factory, mkWave(60), huge, "")
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) || !errors.Is(err, ErrGridTooLarge) {
		t.Fatalf("huge range: err = %v, want ConfigError wrapping ErrGridTooLarge", err)
	}
	if res != nil {
		t.Fatalf("huge range: result = %+v, want nil", res)
	}

	// each range is within limits but the product is not
	product := []ParamRange{
		{Name: "short_window", Start: 1, Stop: 1000, Step: 1},
		{Name: "long_window", Start: 1, Stop: 1000, Step: 1},
	}
	if _, err := opt.Search(context.Background(), factory, mkWave(60), product, ""); !errors.Is(err, ErrGridTooLarge) {
		t.Fatalf("product: err = %v, want ErrGridTooLarge", err)
	}
}

func newTestOptimizer(workers int) *Optimizer {
	return NewOptimizer(NewConfig(), workers, discardLogger())
}

func TestSearchRejectsEmptyGrid(t *testing.T) {
	factory := RegistryFactory(strategy.NewRegistry(), strategy.CrossoverName)
	res, err := newTestOptimizer(2).Search(context.Background(), factory, mkLinear(60, 100, 200),
		[]ParamRange{{Name: "short_window", Start: 20, Stop: 10, Step: 5}}, "")
	if !errors.Is(err, ErrNoValidRanges) {
		t.Fatalf("err = %v, want ErrNoValidRanges", err)
	}
	if res != nil {
		t.Fatalf("result = %+v, want nil", res)
	}
}

func TestSearchRanksDescending(t *testing.T) {
	factory := RegistryFactory(strategy.NewRegistry(), strategy.CrossoverName)
	res, err := newTestOptimizer(4).Search(context.Background(), factory, mkWave(250), []ParamRange{
		{Name: "short_window", Start: 2, Stop: 6, Step: 2},
		{Name: "long_window", Start: 10, Stop: 20, Step: 5},
	}, MetricCumulativeReturn)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if res.Combinations != 9 || len(res.Results) != 9 || res.Skipped != 0 {
		t.Fatalf("combinations=%d results=%d skipped=%d", res.Combinations, len(res.Results), res.Skipped)
	}
	seen := make(map[int]bool)
	for i, r := range res.Results {
		seen[r.Index] = true
		if i > 0 && r.Metrics.CumulativeReturn > res.Results[i-1].Metrics.CumulativeReturn {
			t.Fatalf("result %d ranks above a better one", i-1)
		}
	}
	if len(seen) != 9 {
		t.Fatalf("indexes not unique: %v", seen)
	}

	best, ok := res.Best()
	if !ok {
		t.Fatal("no best result")
	}
	direct, err := RunPipeline(mkWave(250), strategy.NewCrossoverStrategy(int(best.Params["short_window"]), int(best.Params["long_window"])), NewConfig())
	if err != nil {
		t.Fatalf("RunPipeline: %v", err)
	}
	if !reflect.DeepEqual(metricBits(direct.Metrics), metricBits(best.Metrics)) {
		t.Fatal("grid result differs from a direct run with the same params")
	}
}

func TestSearchSkipsInvalidCombinations(t *testing.T) {
	factory := RegistryFactory(strategy.NewRegistry(), strategy.CrossoverName)
	res, err := newTestOptimizer(2).Search(context.Background(), factory, mkWave(120), []ParamRange{
		{Name: "short_window", Start: 5, Stop: 15, Step: 5},
		{Name: "long_window", Start: 10, Stop: 10, Step: 1},
	}, "")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if res.Combinations != 3 || res.Skipped != 2 || len(res.Results) != 1 {
		t.Fatalf("combinations=%d skipped=%d results=%d", res.Combinations, res.Skipped, len(res.Results))
	}
	if res.RankBy != MetricSharpeRatio {
		t.Fatalf("rank by = %s, want default sharpe_ratio", res.RankBy)
	}
}

func TestSearchReportsExcludedParams(t *testing.T) {
	factory := RegistryFactory(strategy.NewRegistry(), strategy.CrossoverName)
	res, err := newTestOptimizer(2).Search(context.Background(), factory, mkWave(120), []ParamRange{
		{Name: "short_window", Start: 5, Stop: 10, Step: 5},
		{Name: "long_window", Start: 50, Stop: 10, Step: 5},
	}, "")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if !reflect.DeepEqual(res.Excluded, []string{"long_window"}) {
		t.Fatalf("excluded = %v", res.Excluded)
	}
	for _, r := range res.Results {
		if _, ok := r.Params["long_window"]; ok {
			t.Fatalf("excluded parameter present in %v", r.Params)
		}
		if r.Result.Params["long_window"] != 50 {
			t.Fatalf("long_window = %v, want default 50", r.Result.Params["long_window"])
		}
	}
}

func TestSearchTiesKeepInputOrder(t *testing.T) {
	factory := RegistryFactory(strategy.NewRegistry(), strategy.CrossoverName)
	res, err := newTestOptimizer(8).Search(context.Background(), factory, mkFlat(80, 100), []ParamRange{
		{Name: "short_window", Start: 2, Stop: 8, Step: 1},
	}, MetricCumulativeReturn)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	for i, r := range res.Results {
		if r.Index != i {
			t.Fatalf("position %d holds combination %d", i, r.Index)
		}
	}
}

func TestRankResultsPutsNaNLast(t *testing.T) {
	sharpe := []float64{math.NaN(), 1, math.Inf(1), 1, math.NaN(), -2}
	results := make([]GridResult, len(sharpe))
	for i, s := range sharpe {
		results[i] = GridResult{Index: i, Metrics: MetricsReport{SharpeRatio: s}}
	}
	rankResults(results, MetricSharpeRatio)

	var order []int
	for _, r := range results {
		order = append(order, r.Index)
	}
	if want := []int{2, 1, 3, 5, 0, 4}; !reflect.DeepEqual(order, want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
}

func TestSearchInputErrors(t *testing.T) {
	factory := RegistryFactory(strategy.NewRegistry(), strategy.CrossoverName)
	ranges := []ParamRange{{Name: "short_window", Start: 2, Stop: 4, Step: 1}}
	opt := newTestOptimizer(2)

	if _, err := opt.Search(context.Background(), factory, mkWave(60), ranges, "sortino"); !errors.Is(err, ErrUnknownMetric) {
		t.Errorf("unknown metric: err = %v", err)
	}
	if _, err := opt.Search(context.Background(), factory, nil, ranges, ""); !errors.Is(err, ErrPricesNotLoaded) {
		t.Errorf("no prices: err = %v", err)
	}
	dup := append(ranges, ranges[0])
	if _, err := opt.Search(context.Background(), factory, mkWave(60), dup, ""); !errors.Is(err, strategy.ErrInvalidParams) {
		t.Errorf("duplicate param: err = %v", err)
	}
	unknown := RegistryFactory(strategy.NewRegistry(), "momentum")
	if _, err := opt.Search(context.Background(), unknown, mkWave(60), ranges, ""); !errors.Is(err, strategy.ErrUnknownStrategy) {
		t.Errorf("unknown strategy: err = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := opt.Search(ctx, factory, mkWave(60), ranges, ""); !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled: err = %v", err)
	}
}
