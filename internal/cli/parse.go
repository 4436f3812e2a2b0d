package cli

import (
	"StrategyBacktester/config"
	"StrategyBacktester/internal/operations/backtest"
	"StrategyBacktester/internal/services/strategy"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// parseParams reads name=value pairs.
func parseParams(pairs []string) (strategy.Params, error) {
	params := make(strategy.Params, len(pairs))
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("parameter %q: want name=value", pair)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return nil, fmt.Errorf("parameter %q: %w", pair, err)
		}
		params[name] = v
	}
	return params, nil
}

// parseRange reads name=start:stop:step.
func parseRange(s string) (backtest.ParamRange, error) {
	name, spec, ok := strings.Cut(s, "=")
	name = strings.TrimSpace(name)
	parts := strings.Split(spec, ":")
	if !ok || name == "" || len(parts) != 3 {
		return backtest.ParamRange{}, fmt.Errorf("range %q: want name=start:stop:step", s)
	}
	var nums [3]float64
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return backtest.ParamRange{}, fmt.Errorf("range %q: %w", s, err)
		}
		nums[i] = v
	}
	return backtest.ParamRange{Name: name, Start: nums[0], Stop: nums[1], Step: nums[2]}, nil
}

func gridRanges(grid *config.GridConfig) []backtest.ParamRange {
	out := make([]backtest.ParamRange, len(grid.Ranges))
	for i, r := range grid.Ranges {
		out[i] = backtest.ParamRange{Name: r.Name, Start: r.Start, Stop: r.Stop, Step: r.Step}
	}
	return out
}

// parseDateRange defaults end to today and start to three years before end.
func parseDateRange(start, end string, now time.Time) (time.Time, time.Time, error) {
	y, m, d := now.UTC().Date()
	endDate := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	if end != "" {
		t, err := time.Parse(dateLayout, end)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("--end: %w", err)
		}
		endDate = t
	}

	startDate := endDate.AddDate(-3, 0, 0)
	if start != "" {
		t, err := time.Parse(dateLayout, start)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("--start: %w", err)
		}
		startDate = t
	}

	if !endDate.After(startDate) {
		return time.Time{}, time.Time{}, fmt.Errorf("--start %s must be before --end %s",
			startDate.Format(dateLayout), endDate.Format(dateLayout))
	}
	return startDate, endDate, nil
}
