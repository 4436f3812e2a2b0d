package cli

import (
	"StrategyBacktester/internal/handlers"
	"StrategyBacktester/internal/models"
	"StrategyBacktester/internal/operations/backtest"
	"StrategyBacktester/internal/services/strategy"
	"math"
	"strings"
	"testing"
	"time"
)

func TestParseParams(t *testing.T) {
	p, err := parseParams([]string{"short_window=10", " long_window = 40 "})
	if err != nil {
		t.Fatalf("parseParams: %v", err)
	}
	if p["short_window"] != 10 || p["long_window"] != 40 {
		t.Errorf("got %v", p)
	}

	for _, bad := range []string{"short_window", "=3", "short_window=ten"} {
		if _, err := parseParams([]string{bad}); err == nil {
			t.Errorf("parseParams(%q): expected error", bad)
		}
	}
}

func TestParseRange(t *testing.T) {
	r, err := parseRange("short_window=5:30:5")
	if err != nil {
		t.Fatalf("parseRange: %v", err)
	}
	want := backtest.ParamRange{Name: "short_window", Start: 5, Stop: 30, Step: 5}
	if r != want {
		t.Errorf("got %+v, want %+v", r, want)
	}

	for _, bad := range []string{"short_window=5:30", "5:30:5", "x=a:b:c", "=1:2:1"} {
		if _, err := parseRange(bad); err == nil {
			t.Errorf("parseRange(%q): expected error", bad)
		}
	}
}

func TestParseDateRange(t *testing.T) {
	now := time.Date(2024, 6, 15, 13, 45, 0, 0, time.UTC)

	start, end, err := parseDateRange("", "", now)
	if err != nil {
		t.Fatalf("defaults: %v", err)
	}
	if !end.Equal(time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("end = %v", end)
	}
	if !start.Equal(time.Date(2021, 6, 15, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("start = %v", start)
	}

	start, end, err = parseDateRange("2020-01-01", "2020-12-31", now)
	if err != nil {
		t.Fatalf("explicit: %v", err)
	}
	if start.Format(dateLayout) != "2020-01-01" || end.Format(dateLayout) != "2020-12-31" {
		t.Errorf("got %v - %v", start, end)
	}

	if _, _, err := parseDateRange("2020-12-31", "2020-01-01", now); err == nil {
		t.Error("expected error for inverted range")
	}
	if _, _, err := parseDateRange("01/02/2020", "", now); err == nil {
		t.Error("expected error for malformed date")
	}
}

func TestFormatMetric(t *testing.T) {
	tests := []struct {
		name  string
		value float64
		want  string
	}{
		{backtest.MetricCumulativeReturn, 0.1234, "12.34%"},
		{backtest.MetricSharpeRatio, 1.5, "1.5000"},
		{backtest.MetricSharpeRatio, math.NaN(), "NaN"},
		{backtest.MetricCalmarRatio, math.Inf(1), "+Inf"},
		{backtest.MetricMaxDrawdown, math.Inf(-1), "-Inf"},
		{backtest.MetricClosedTrades, 3, "3"},
	}
	for _, tt := range tests {
		if got := formatMetric(tt.name, tt.value); got != tt.want {
			t.Errorf("formatMetric(%s, %v) = %q, want %q", tt.name, tt.value, got, tt.want)
		}
	}
}

func TestFormatParamsSorted(t *testing.T) {
	got := formatParams(strategy.Params{"upper": 70, "lower": 30, "period": 14})
	if got != "lower=30 period=14 upper=70" {
		t.Errorf("got %q", got)
	}
}

func TestRenderReports(t *testing.T) {
	day := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	result := &backtest.Result{
		Strategy: strategy.CrossoverName,
		Params:   strategy.Params{"short_window": 2, "long_window": 3},
		Ledger: []backtest.LedgerRow{
			{Date: day, Close: 10, Total: 100000},
			{Date: day.AddDate(0, 0, 1), Close: 11, Total: 100000},
		},
		TradeLog: []backtest.TradeLogEntry{
			{Date: day, Action: backtest.ActionBuy, Price: 10, Quantity: 100},
			{Date: day.AddDate(0, 0, 1), Action: backtest.ActionSell, Price: 11, Quantity: 100, PnL: 100},
		},
		Metrics: backtest.MetricsReport{SharpeRatio: math.NaN(), CalmarRatio: math.Inf(1), ClosedTrades: 1},
	}

	header := renderRunHeader(&handlers.RunOutcome{Symbol: "SPY", Result: result, RunID: "abc"})
	for _, want := range []string{"SPY", "crossover", "long_window=3 short_window=2", "run abc"} {
		if !strings.Contains(header, want) {
			t.Errorf("header missing %q: %s", want, header)
		}
	}

	metrics := renderMetrics(result.Metrics)
	for _, want := range []string{"Sharpe ratio", "NaN", "+Inf", "Closed trades"} {
		if !strings.Contains(metrics, want) {
			t.Errorf("metrics table missing %q", want)
		}
	}

	trades := renderTradeLog(result.TradeLog)
	if !strings.Contains(trades, "Sell") || !strings.Contains(trades, "100.00") {
		t.Errorf("trade table missing sell row:\n%s", trades)
	}
	if got := renderTradeLog(nil); !strings.Contains(got, "no trades") {
		t.Errorf("empty trade log rendered %q", got)
	}
}

func TestRenderGridTop(t *testing.T) {
	search := &backtest.GridSearchResult{
		RankBy:       backtest.MetricSharpeRatio,
		Combinations: 3,
		Results: []backtest.GridResult{
			{Params: strategy.Params{"short_window": 5}, Metrics: backtest.MetricsReport{SharpeRatio: 2}},
			{Params: strategy.Params{"short_window": 10}, Metrics: backtest.MetricsReport{SharpeRatio: 1}},
			{Params: strategy.Params{"short_window": 15}, Metrics: backtest.MetricsReport{SharpeRatio: math.NaN()}},
		},
	}
	out := renderGrid(&handlers.OptimizeOutcome{Symbol: "SPY", Search: search}, 2)
	if !strings.Contains(out, "short_window=5") || !strings.Contains(out, "short_window=10") {
		t.Errorf("missing top rows:\n%s", out)
	}
	if strings.Contains(out, "short_window=15") {
		t.Errorf("row beyond --top rendered:\n%s", out)
	}
}

func TestRenderHistory(t *testing.T) {
	pnl := 12.5
	run := &models.BacktestRun{
		ID: "run-1", Symbol: "SPY", Strategy: "rsi", Params: `{"period":14}`,
		Trades: []models.TradeRecord{
			{Action: models.TradeActionBuy, Price: 10, Quantity: 5},
			{Action: models.TradeActionSell, Price: 12.5, Quantity: 5, PnL: &pnl},
		},
	}
	one := renderHistory(nil, run)
	if !strings.Contains(one, "run-1") || !strings.Contains(one, "12.50") {
		t.Errorf("single run rendering:\n%s", one)
	}

	list := renderHistory([]models.BacktestRun{*run}, nil)
	if !strings.Contains(list, "period=14") {
		t.Errorf("run list should decode params:\n%s", list)
	}
	if got := renderHistory(nil, nil); !strings.Contains(got, "no runs") {
		t.Errorf("empty history rendered %q", got)
	}
}

func TestCommandsRegistered(t *testing.T) {
	root := NewRootCmd()
	for _, name := range []string{"run", "optimize", "fetch", "strategies", "history"} {
		if c, _, err := root.Find([]string{name}); err != nil || c.Name() != name {
			t.Errorf("%s command not registered", name)
		}
	}
}

func TestRenderStrategies(t *testing.T) {
	def, err := strategy.NewRegistry().Lookup(strategy.OscillatorName)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	rendered := renderStrategies([]strategy.Definition{def})
	if !strings.Contains(rendered, "period (int, default 14)") {
		t.Errorf("strategies table:\n%s", rendered)
	}
}
