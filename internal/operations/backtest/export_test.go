package backtest

import (
	"StrategyBacktester/internal/services/strategy"
	"bytes"
	"encoding/csv"
	"testing"
)

func TestWriteCSV(t *testing.T) {
	res, err := RunPipeline(mkSeries(100, 100, 105, 110, 110), fixedStrategy{values: []strategy.Signal{1, 1, 0, 0, 0}}, NewConfig())
	if err != nil {
		t.Fatalf("RunPipeline: %v", err)
	}

	var buf bytes.Buffer
	if err := WriteLedgerCSV(&buf, res.Ledger); err != nil {
		t.Fatalf("WriteLedgerCSV: %v", err)
	}
	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read ledger csv: %v", err)
	}
	if len(rows) != 6 || rows[0][0] != "date" || rows[0][9] != "return" {
		t.Fatalf("ledger csv = %v", rows)
	}
	if rows[2][4] != "1" || rows[2][5] != "99900" {
		t.Errorf("entry row = %v", rows[2])
	}

	buf.Reset()
	if err := WriteTradeLogCSV(&buf, res.TradeLog); err != nil {
		t.Fatalf("WriteTradeLogCSV: %v", err)
	}
	rows, err = csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read trade log csv: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("trade log csv = %v", rows)
	}
	if rows[1][1] != "Buy" || rows[1][4] != "" {
		t.Errorf("buy row = %v", rows[1])
	}
	if rows[2][1] != "Sell" || rows[2][4] != "10" || rows[2][0] != "2022-03-04" {
		t.Errorf("sell row = %v", rows[2])
	}
}
