package backtest

import "math"

// ComputeMetrics derives the report from a completed ledger and its trade log.
func ComputeMetrics(ledger []LedgerRow, tradeLog []TradeLogEntry, initialCash float64) MetricsReport {
	if len(ledger) == 0 {
		return MetricsReport{
			SharpeRatio: math.NaN(),
			Volatility:  math.NaN(),
			CalmarRatio: math.Inf(1),
			FinalEquity: initialCash,
		}
	}

	first, last := ledger[0], ledger[len(ledger)-1]
	returns := dailyReturns(ledger)
	avg, std := meanStd(returns)

	report := MetricsReport{
		CumulativeReturn: last.Total/initialCash - 1,
		SharpeRatio:      avg / std * math.Sqrt(TradingDaysPerYear),
		MaxDrawdown:      maxDrawdown(ledger),
		Volatility:       std * math.Sqrt(TradingDaysPerYear),
		FinalEquity:      last.Total,
	}

	days := last.Date.Sub(first.Date).Hours() / 24
	if days > 0 {
		report.CAGR = math.Pow(last.Total/initialCash, DaysPerYear/days) - 1
	}

	if report.MaxDrawdown == 0 {
		report.CalmarRatio = math.Inf(1)
	} else {
		report.CalmarRatio = report.CAGR / math.Abs(report.MaxDrawdown)
	}

	if len(returns) > 0 {
		report.MaxDailyGain, report.MaxDailyLoss = returns[0], returns[0]
		for _, r := range returns[1:] {
			report.MaxDailyGain = math.Max(report.MaxDailyGain, r)
			report.MaxDailyLoss = math.Min(report.MaxDailyLoss, r)
		}
	}

	report.WinRate, report.AvgPnL, report.WinLossRatio, report.ClosedTrades = tradeStats(tradeLog)
	return report
}

// dailyReturns drops the first row, which has no prior total.
func dailyReturns(ledger []LedgerRow) []float64 {
	if len(ledger) < 2 {
		return nil
	}
	out := make([]float64, len(ledger)-1)
	for i, row := range ledger[1:] {
		out[i] = row.Return
	}
	return out
}

// meanStd returns the mean and sample standard deviation; NaN below two points.
func meanStd(values []float64) (float64, float64) {
	if len(values) < 2 {
		return math.NaN(), math.NaN()
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	avg := sum / float64(len(values))

	variance := 0.0
	for _, v := range values {
		variance += (v - avg) * (v - avg)
	}
	variance /= float64(len(values) - 1)
	return avg, math.Sqrt(variance)
}

func maxDrawdown(ledger []LedgerRow) float64 {
	mdd := 0.0
	for _, p := range DrawdownSeries(ledger) {
		mdd = math.Min(mdd, p.Drawdown)
	}
	return mdd
}

func tradeStats(tradeLog []TradeLogEntry) (winRate, avgPnL, winLoss float64, closed int) {
	var wins, losses []float64
	total := 0.0
	for _, e := range tradeLog {
		if e.Action != ActionSell {
			continue
		}
		closed++
		total += e.PnL
		switch {
		case e.PnL > 0:
			wins = append(wins, e.PnL)
		case e.PnL < 0:
			losses = append(losses, e.PnL)
		}
	}
	if closed == 0 {
		return 0, 0, 0, 0
	}

	winRate = float64(len(wins)) / float64(closed)
	avgPnL = total / float64(closed)

	switch {
	case len(losses) == 0 && len(wins) == 0:
		winLoss = 0
	case len(losses) == 0:
		winLoss = math.Inf(1)
	default:
		winLoss = mean(wins) / math.Abs(mean(losses))
	}
	return winRate, avgPnL, winLoss, closed
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
