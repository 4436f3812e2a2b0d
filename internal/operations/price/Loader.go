package price

import (
	"StrategyBacktester/internal/cache"
	"StrategyBacktester/internal/models"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// coverageSlack tolerates weekends and holidays at either end of a stored range.
const coverageSlack = 7 * 24 * time.Hour

// BarStore is the persistent side of the loader.
type BarStore interface {
	GetPricesByTimeFrame(symbol, provider, timeframe string, startTime, endTime time.Time) ([]models.Price, error)
	SaveBatch(prices []models.Price) error
}

// BarCache is the short-lived side of the loader.
type BarCache interface {
	GetBars(ctx context.Context, key string) ([]models.Price, error)
	SetBars(ctx context.Context, key string, prices []models.Price) error
}

// Loader resolves a daily series through cache, then store, then provider,
// recording provider results back into both.
type Loader struct {
	provider Provider
	store    BarStore
	cache    BarCache
	logger   *slog.Logger
	now      func() time.Time
}

// NewLoader accepts nil store and cache.
func NewLoader(provider Provider, store BarStore, cache BarCache, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		provider: provider,
		store:    store,
		cache:    cache,
		logger:   logger,
		now:      time.Now,
	}
}

func (l *Loader) Provider() string {
	return l.provider.Name()
}

func cacheKey(provider, symbol string, start, end time.Time) string {
	return fmt.Sprintf("%s:%s:%s:%s", provider, symbol, start.Format("2006-01-02"), end.Format("2006-01-02"))
}

// Load returns a validated, ascending daily series for [start, end].
func (l *Loader) Load(ctx context.Context, symbol string, start, end time.Time) ([]models.Price, error) {
	if !end.After(start) {
		return nil, fmt.Errorf("invalid date range %s to %s", start.Format("2006-01-02"), end.Format("2006-01-02"))
	}
	key := cacheKey(l.provider.Name(), symbol, start, end)

	if l.cache != nil {
		prices, err := l.cache.GetBars(ctx, key)
		switch {
		case err == nil:
			l.logger.Debug("price series served from cache", slog.String("key", key), slog.Int("bars", len(prices)))
			return prices, nil
		case !errors.Is(err, cache.ErrCacheMiss):
			l.logger.Warn("price cache read failed", slog.String("key", key), slog.String("error", err.Error()))
		}
	}

	if l.store != nil {
		prices, err := l.store.GetPricesByTimeFrame(symbol, l.provider.Name(), models.PriceTimeFrame1d, day(start), day(end))
		if err != nil {
			l.logger.Warn("price store read failed", slog.String("symbol", symbol), slog.String("error", err.Error()))
		} else if l.covers(prices, start, end) {
			l.logger.Debug("price series served from store", slog.String("symbol", symbol), slog.Int("bars", len(prices)))
			l.remember(ctx, key, prices)
			return prices, nil
		}
	}

	prices, err := l.Fetch(ctx, symbol, start, end)
	if err != nil {
		return nil, err
	}
	l.remember(ctx, key, prices)
	return prices, nil
}

// Fetch always goes to the provider and records the result in the store.
func (l *Loader) Fetch(ctx context.Context, symbol string, start, end time.Time) ([]models.Price, error) {
	raw, err := l.provider.FetchDaily(ctx, symbol, start, end)
	if err != nil {
		return nil, fmt.Errorf("fetch %s from %s: %w", symbol, l.provider.Name(), err)
	}

	prices := Normalize(raw)
	for i := range prices {
		prices[i].Provider = l.provider.Name()
		prices[i].TimeFrame = models.PriceTimeFrame1d
	}
	if len(prices) == 0 {
		return nil, fmt.Errorf("%w: %s returned no usable bars for %s", ErrNoData, l.provider.Name(), symbol)
	}
	if err := models.ValidateSeries(prices); err != nil {
		return nil, err
	}

	l.logger.Info("fetched price series",
		slog.String("symbol", symbol),
		slog.String("provider", l.provider.Name()),
		slog.Int("bars", len(prices)),
		slog.String("first", prices[0].OpenTime.Format("2006-01-02")),
		slog.String("last", prices[len(prices)-1].OpenTime.Format("2006-01-02")),
	)

	if l.store != nil {
		if err := l.store.SaveBatch(prices); err != nil {
			l.logger.Warn("recording prices failed", slog.String("symbol", symbol), slog.String("error", err.Error()))
		}
	}
	return prices, nil
}

func (l *Loader) covers(prices []models.Price, start, end time.Time) bool {
	if len(prices) == 0 || models.ValidateSeries(prices) != nil {
		return false
	}
	if now := l.now(); end.After(now) {
		end = now
	}
	first, last := prices[0].OpenTime, prices[len(prices)-1].OpenTime
	return first.Sub(day(start)) <= coverageSlack && day(end).Sub(last) <= coverageSlack
}

func (l *Loader) remember(ctx context.Context, key string, prices []models.Price) {
	if l.cache == nil {
		return
	}
	if err := l.cache.SetBars(ctx, key, prices); err != nil {
		l.logger.Warn("price cache write failed", slog.String("key", key), slog.String("error", err.Error()))
	}
}
