package backtest

import (
	"math"
	"time"
)

// BuildTradeLog pairs each Buy with the next Sell. Only one lot is ever open,
// so a Sell always closes the most recent Buy.
func BuildTradeLog(ledger []LedgerRow) []TradeLogEntry {
	var entries []TradeLogEntry
	openPrice := math.NaN()

	for _, row := range ledger {
		switch {
		case row.Delta > 0:
			entries = append(entries, TradeLogEntry{
				Date:     row.Date,
				Action:   ActionBuy,
				Price:    row.Close,
				Quantity: row.Delta,
			})
			openPrice = row.Close
		case row.Delta < 0:
			entries = append(entries, TradeLogEntry{
				Date:     row.Date,
				Action:   ActionSell,
				Price:    row.Close,
				Quantity: -row.Delta,
				PnL:      (row.Close - openPrice) * float64(-row.Delta),
			})
			openPrice = math.NaN()
		}
	}
	return entries
}

type DrawdownPoint struct {
	Date     time.Time
	Drawdown float64 // <= 0
}

// DrawdownSeries is total equity relative to its running peak, minus one.
func DrawdownSeries(ledger []LedgerRow) []DrawdownPoint {
	out := make([]DrawdownPoint, len(ledger))
	peak := math.Inf(-1)
	for i, row := range ledger {
		peak = math.Max(peak, row.Total)
		dd := 0.0
		if peak > 0 {
			dd = row.Total/peak - 1
		}
		out[i] = DrawdownPoint{Date: row.Date, Drawdown: dd}
	}
	return out
}

// Marker is a buy or sell point for a price chart overlay.
type Marker struct {
	Date   time.Time
	Price  float64
	Action string
}

func Markers(ledger []LedgerRow) []Marker {
	var out []Marker
	for _, row := range ledger {
		switch {
		case row.Delta > 0:
			out = append(out, Marker{Date: row.Date, Price: row.Close, Action: ActionBuy})
		case row.Delta < 0:
			out = append(out, Marker{Date: row.Date, Price: row.Close, Action: ActionSell})
		}
	}
	return out
}
