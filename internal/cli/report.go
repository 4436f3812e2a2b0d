package cli

import (
	"StrategyBacktester/internal/handlers"
	"StrategyBacktester/internal/models"
	"StrategyBacktester/internal/operations/backtest"
	"StrategyBacktester/internal/services/strategy"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	titleStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#7C3AED")).
		Padding(0, 1)

	headerStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#3B82F6")).
		Padding(0, 1)

	cellStyle = lipgloss.NewStyle().Padding(0, 1)

	gainStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")).Padding(0, 1)
	lossStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Padding(0, 1)
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
)

var metricLabels = map[string]string{
	backtest.MetricCumulativeReturn: "Cumulative return",
	backtest.MetricSharpeRatio:      "Sharpe ratio",
	backtest.MetricMaxDrawdown:      "Max drawdown",
	backtest.MetricVolatility:       "Volatility (ann.)",
	backtest.MetricCAGR:             "CAGR",
	backtest.MetricCalmarRatio:      "Calmar ratio",
	backtest.MetricWinRate:          "Win rate",
	backtest.MetricAvgPnL:           "Avg trade P&L",
	backtest.MetricWinLossRatio:     "Win/loss ratio",
	backtest.MetricMaxDailyGain:     "Best day",
	backtest.MetricMaxDailyLoss:     "Worst day",
	backtest.MetricFinalEquity:      "Final equity",
	backtest.MetricClosedTrades:     "Closed trades",
}

// metrics shown as percentages
var percentMetrics = map[string]bool{
	backtest.MetricCumulativeReturn: true,
	backtest.MetricMaxDrawdown:      true,
	backtest.MetricVolatility:       true,
	backtest.MetricCAGR:             true,
	backtest.MetricWinRate:          true,
	backtest.MetricMaxDailyGain:     true,
	backtest.MetricMaxDailyLoss:     true,
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(mutedStyle).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

// formatNumber keeps NaN and infinities readable.
func formatNumber(v float64, decimals int) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "+Inf"
	case math.IsInf(v, -1):
		return "-Inf"
	}
	return strconv.FormatFloat(v, 'f', decimals, 64)
}

func formatPercent(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return formatNumber(v, 0)
	}
	return formatNumber(v*100, 2) + "%"
}

func formatMetric(name string, v float64) string {
	switch {
	case name == backtest.MetricClosedTrades:
		return strconv.Itoa(int(v))
	case percentMetrics[name]:
		return formatPercent(v)
	}
	return formatNumber(v, 4)
}

func formatParams(p strategy.Params) string {
	names := make([]string, 0, len(p))
	for n := range p {
		names = append(names, n)
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, n := range names {
		parts[i] = n + "=" + strconv.FormatFloat(p[n], 'g', -1, 64)
	}
	return strings.Join(parts, " ")
}

func renderRunHeader(out *handlers.RunOutcome) string {
	r := out.Result
	title := fmt.Sprintf("%s  %s  %s", out.Symbol, r.Strategy, formatParams(r.Params))
	if n := len(r.Ledger); n > 0 {
		title += fmt.Sprintf("  %s → %s (%d bars)",
			r.Ledger[0].Date.Format(dateLayout), r.Ledger[n-1].Date.Format(dateLayout), n)
	}
	if out.RunID != "" {
		title += "  run " + out.RunID
	}
	return titleStyle.Render(title)
}

func renderMetrics(m backtest.MetricsReport) string {
	t := newTable("Metric", "Value")
	for _, name := range backtest.MetricNames() {
		v, err := m.Value(name)
		if err != nil {
			continue
		}
		t.Row(metricLabels[name], formatMetric(name, v))
	}
	return t.String()
}

func renderTradeLog(entries []backtest.TradeLogEntry) string {
	if len(entries) == 0 {
		return mutedStyle.Render("no trades")
	}
	t := newTable("Date", "Action", "Price", "Quantity", "P&L")
	for _, e := range entries {
		pnl := ""
		if e.Action == backtest.ActionSell {
			pnl = formatNumber(e.PnL, 2)
		}
		t.Row(e.Date.Format(dateLayout), e.Action, formatNumber(e.Price, 2), strconv.Itoa(e.Quantity), pnl)
	}
	t.StyleFunc(func(row, col int) lipgloss.Style {
		if row == table.HeaderRow {
			return headerStyle
		}
		if col == 4 && row < len(entries) && entries[row].Action == backtest.ActionSell {
			if entries[row].PnL > 0 {
				return gainStyle
			}
			if entries[row].PnL < 0 {
				return lossStyle
			}
		}
		return cellStyle
	})
	return t.String()
}

func renderGrid(out *handlers.OptimizeOutcome, top int) string {
	s := out.Search
	var b strings.Builder
	title := fmt.Sprintf("%s  ranked by %s  %d combinations, %d skipped",
		out.Symbol, s.RankBy, s.Combinations, s.Skipped)
	if out.GridID != "" {
		title += "  grid " + out.GridID
	}
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n")
	if len(s.Excluded) > 0 {
		b.WriteString(mutedStyle.Render("empty ranges, left at defaults: " + strings.Join(s.Excluded, ", ")))
		b.WriteString("\n")
	}
	if len(s.Results) == 0 {
		b.WriteString(mutedStyle.Render("no valid combinations"))
		return b.String()
	}

	t := newTable("#", "Params", metricLabels[s.RankBy],
		"Return", "Sharpe", "Max DD", "Trades")
	for i, r := range s.Results {
		if top > 0 && i >= top {
			break
		}
		key, _ := r.Metrics.Value(s.RankBy)
		t.Row(
			strconv.Itoa(i+1),
			formatParams(r.Params),
			formatMetric(s.RankBy, key),
			formatPercent(r.Metrics.CumulativeReturn),
			formatNumber(r.Metrics.SharpeRatio, 4),
			formatPercent(r.Metrics.MaxDrawdown),
			strconv.Itoa(r.Metrics.ClosedTrades),
		)
	}
	b.WriteString(t.String())
	return b.String()
}

func renderFetch(symbols []string, counts map[string]int) string {
	t := newTable("Symbol", "Bars")
	for _, s := range symbols {
		key := strings.ToUpper(strings.TrimSpace(s))
		n, ok := counts[key]
		if !ok {
			t.Row(key, "failed")
			continue
		}
		t.Row(key, strconv.Itoa(n))
	}
	return t.String()
}

func renderStrategies(defs []strategy.Definition) string {
	t := newTable("Strategy", "Description", "Parameters")
	for _, d := range defs {
		params := make([]string, len(d.Params))
		for i, p := range d.Params {
			kind := "float"
			if p.Integer {
				kind = "int"
			}
			params[i] = fmt.Sprintf("%s (%s, default %s)", p.Name, kind, strconv.FormatFloat(p.Default, 'g', -1, 64))
		}
		t.Row(d.Name, d.Label, strings.Join(params, "\n"))
	}
	return t.String()
}

// renderHistory lists runs, or one run with its trades when run is set.
func renderHistory(runs []models.BacktestRun, run *models.BacktestRun) string {
	if run != nil {
		var b strings.Builder
		b.WriteString(titleStyle.Render(fmt.Sprintf("%s  %s  %s  %s → %s",
			run.ID, run.Symbol, run.Strategy, run.StartDate.Format(dateLayout), run.EndDate.Format(dateLayout))))
		b.WriteString("\n")
		b.WriteString(renderMetrics(runMetrics(run)))
		b.WriteString("\n")
		if len(run.Trades) == 0 {
			b.WriteString(mutedStyle.Render("no trades"))
			return b.String()
		}
		t := newTable("Date", "Action", "Price", "Quantity", "P&L")
		for _, tr := range run.Trades {
			pnl := ""
			if tr.PnL != nil {
				pnl = formatNumber(*tr.PnL, 2)
			}
			t.Row(tr.Date.Format(dateLayout), tr.Action, formatNumber(tr.Price, 2), strconv.Itoa(tr.Quantity), pnl)
		}
		b.WriteString(t.String())
		return b.String()
	}

	if len(runs) == 0 {
		return mutedStyle.Render("no runs recorded")
	}
	t := newTable("Run", "Created", "Strategy", "Params", "Range", "Return", "Sharpe", "Rank")
	for _, r := range runs {
		rank := ""
		if r.GridID != "" {
			rank = strconv.Itoa(r.Rank)
		}
		t.Row(
			r.ID,
			r.CreatedAt.Format("2006-01-02 15:04"),
			r.Strategy,
			paramsFromJSON(r.Params),
			r.StartDate.Format(dateLayout)+" → "+r.EndDate.Format(dateLayout),
			formatPercent(r.CumulativeReturn),
			formatNumber(r.SharpeRatio, 4),
			rank,
		)
	}
	return t.String()
}

func runMetrics(r *models.BacktestRun) backtest.MetricsReport {
	return backtest.MetricsReport{
		CumulativeReturn: r.CumulativeReturn,
		SharpeRatio:      r.SharpeRatio,
		MaxDrawdown:      r.MaxDrawdown,
		Volatility:       r.Volatility,
		CAGR:             r.CAGR,
		CalmarRatio:      r.CalmarRatio,
		WinRate:          r.WinRate,
		AvgPnL:           r.AvgPnL,
		WinLossRatio:     r.WinLossRatio,
		MaxDailyGain:     r.MaxDailyGain,
		MaxDailyLoss:     r.MaxDailyLoss,
		FinalEquity:      r.FinalEquity,
		ClosedTrades:     r.ClosedTrades,
	}
}

func paramsFromJSON(s string) string {
	var p strategy.Params
	if err := json.Unmarshal([]byte(s), &p); err != nil {
		return s
	}
	return formatParams(p)
}
