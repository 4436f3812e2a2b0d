package price

import (
	"StrategyBacktester/internal/models"
	"context"
	"fmt"
	"strings"
	"time"

	finance "github.com/piquette/finance-go"
	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"
	"github.com/shopspring/decimal"
)

type barIterator interface {
	Next() bool
	Bar() *finance.ChartBar
	Err() error
}

// YahooProvider loads daily equity/ETF bars from Yahoo Finance charts.
type YahooProvider struct {
	retry    *RetryConfig
	adjusted bool // use the split/dividend adjusted close
	getChart func(p *chart.Params) barIterator
}

func NewYahooProvider(adjusted bool) *YahooProvider {
	return &YahooProvider{
		retry:    DefaultRetryConfig(),
		adjusted: adjusted,
		getChart: func(p *chart.Params) barIterator { return chart.Get(p) },
	}
}

func (y *YahooProvider) Name() string { return ProviderYahoo }

func (y *YahooProvider) FetchDaily(ctx context.Context, symbol string, start, end time.Time) ([]models.Price, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	// the chart end bound is exclusive
	until := end.AddDate(0, 0, 1)

	var prices []models.Price
	err := WithRetry(ctx, y.retry, func() error {
		iter := y.getChart(&chart.Params{
			Symbol:   symbol,
			Start:    datetime.New(&start),
			End:      datetime.New(&until),
			Interval: datetime.OneDay,
		})

		prices = prices[:0]
		for iter.Next() {
			prices = append(prices, y.toPrice(symbol, iter.Bar()))
		}
		if err := iter.Err(); err != nil {
			return fmt.Errorf("failed to get historical data for %s: %w", symbol, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	prices = Window(Normalize(prices), start, end)
	if len(prices) == 0 {
		return nil, fmt.Errorf("%w: yahoo returned no bars for %s between %s and %s",
			ErrNoData, symbol, start.Format("2006-01-02"), end.Format("2006-01-02"))
	}
	return prices, nil
}

func (y *YahooProvider) toPrice(symbol string, bar *finance.ChartBar) models.Price {
	closePrice := bar.Close
	if y.adjusted && !bar.AdjClose.IsZero() {
		closePrice = bar.AdjClose
	}
	return models.Price{
		Symbol:    symbol,
		Provider:  ProviderYahoo,
		TimeFrame: models.PriceTimeFrame1d,
		OpenTime:  time.Unix(int64(bar.Timestamp), 0).UTC(),
		Open:      toFloat(bar.Open),
		High:      toFloat(bar.High),
		Low:       toFloat(bar.Low),
		Close:     toFloat(closePrice),
		Volume:    float64(bar.Volume),
	}
}

func toFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}
