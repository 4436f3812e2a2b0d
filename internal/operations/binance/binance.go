package binance

import (
	"StrategyBacktester/internal/models"
	"StrategyBacktester/internal/operations/price"
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/adshao/go-binance/v2/futures"
	"golang.org/x/time/rate"
)

const (
	dailyInterval = "1d"
	klineLimit    = 500
)

type klineFunc func(ctx context.Context, symbol, interval string, startTime, endTime int64, limit int) ([]*futures.Kline, error)

// BinanceClient serves daily futures klines as a price provider.
type BinanceClient struct {
	client      *futures.Client
	rateLimiter *rate.Limiter
	httpClient  *http.Client
	maxRetries  int
	backoff     time.Duration
	klines      klineFunc
}

func NewBinanceClient(apiKey, secretKey string) *BinanceClient {
	// Create custom HTTP client with timeouts
	httpClient := &http.Client{
		Timeout: time.Second * 10,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 100,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	futuresClient := futures.NewClient(apiKey, secretKey)
	futuresClient.HTTPClient = httpClient

	c := &BinanceClient{
		client: futuresClient,
		// 10 requests per second with burst of 20
		rateLimiter: rate.NewLimiter(rate.Limit(10), 20),
		httpClient:  httpClient,
		maxRetries:  3,
		backoff:     100 * time.Millisecond,
	}
	c.klines = c.doKlines
	return c
}

func (c *BinanceClient) Name() string { return price.ProviderBinance }

func (c *BinanceClient) doKlines(ctx context.Context, symbol, interval string, startTime, endTime int64, limit int) ([]*futures.Kline, error) {
	return c.client.NewKlinesService().
		Symbol(symbol).
		Interval(interval).
		StartTime(startTime).
		EndTime(endTime).
		Limit(limit).
		Do(ctx)
}

// GetKlines is one rate-limited request with exponential backoff.
func (c *BinanceClient) GetKlines(ctx context.Context, symbol, interval string, startTime, endTime int64) ([]*futures.Kline, error) {
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, err
		}

		klines, err := c.klines(ctx, symbol, interval, startTime, endTime, klineLimit)
		if err == nil {
			return klines, nil
		}
		lastErr = err

		if attempt == c.maxRetries {
			break
		}

		waitTime := time.Duration(math.Pow(2, float64(attempt))) * c.backoff
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(waitTime):
		}
	}

	return nil, fmt.Errorf("klines %s %s: %w", symbol, interval, lastErr)
}

// FetchDaily pages through daily klines in chunks of klineLimit days.
func (c *BinanceClient) FetchDaily(ctx context.Context, symbol string, start, end time.Time) ([]models.Price, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	endMs := end.AddDate(0, 0, 1).UnixMilli() - 1
	chunk := (klineLimit * 24 * time.Hour).Milliseconds()

	var prices []models.Price
	for currentStart := start.UnixMilli(); currentStart <= endMs; currentStart += chunk {
		currentEnd := currentStart + chunk - 1
		if currentEnd > endMs {
			currentEnd = endMs
		}

		klines, err := c.GetKlines(ctx, symbol, dailyInterval, currentStart, currentEnd)
		if err != nil {
			return nil, err
		}
		for _, k := range klines {
			p, err := toPrice(symbol, k)
			if err != nil {
				return nil, err
			}
			prices = append(prices, p)
		}
	}

	prices = price.Window(price.Normalize(prices), start, end)
	if len(prices) == 0 {
		return nil, fmt.Errorf("%w: binance returned no daily klines for %s between %s and %s",
			price.ErrNoData, symbol, start.Format("2006-01-02"), end.Format("2006-01-02"))
	}
	return prices, nil
}

func toPrice(symbol string, k *futures.Kline) (models.Price, error) {
	fields := []string{k.Open, k.High, k.Low, k.Close, k.Volume}
	values := make([]float64, len(fields))
	for i, s := range fields {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return models.Price{}, fmt.Errorf("parse kline %s at %d: %w", symbol, k.OpenTime, err)
		}
		values[i] = f
	}
	return models.Price{
		Symbol:    symbol,
		Provider:  price.ProviderBinance,
		TimeFrame: models.PriceTimeFrame1d,
		OpenTime:  time.UnixMilli(k.OpenTime).UTC(),
		Open:      values[0],
		High:      values[1],
		Low:       values[2],
		Close:     values[3],
		Volume:    values[4],
	}, nil
}
