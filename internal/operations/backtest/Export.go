package backtest

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

const dateLayout = "2006-01-02"

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// WriteLedgerCSV writes one row per day with a header.
func WriteLedgerCSV(w io.Writer, ledger []LedgerRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"date", "close", "signal", "position", "trade", "cash", "quantity", "holdings", "total", "return"}); err != nil {
		return fmt.Errorf("write ledger header: %w", err)
	}
	for _, r := range ledger {
		rec := []string{
			r.Date.Format(dateLayout),
			formatFloat(r.Close),
			strconv.Itoa(int(r.Signal)),
			strconv.Itoa(r.Position),
			strconv.Itoa(r.Delta),
			formatFloat(r.Cash),
			strconv.Itoa(r.Quantity),
			formatFloat(r.Holdings),
			formatFloat(r.Total),
			formatFloat(r.Return),
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write ledger row %s: %w", rec[0], err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteTradeLogCSV leaves pnl blank on buys.
func WriteTradeLogCSV(w io.Writer, entries []TradeLogEntry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"date", "action", "price", "quantity", "pnl"}); err != nil {
		return fmt.Errorf("write trade log header: %w", err)
	}
	for _, e := range entries {
		pnl := ""
		if e.Action == ActionSell {
			pnl = formatFloat(e.PnL)
		}
		rec := []string{e.Date.Format(dateLayout), e.Action, formatFloat(e.Price), strconv.Itoa(e.Quantity), pnl}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write trade log row %s: %w", rec[0], err)
		}
	}
	cw.Flush()
	return cw.Error()
}
