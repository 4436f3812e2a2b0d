package cache

import (
	"StrategyBacktester/internal/models"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrCacheMiss = errors.New("cache miss")

const keyPrefix = "bars:"

// BarCache stores whole price series as JSON strings.
//
// Key schema:
//
//	bars:{provider}:{symbol}:{start}:{end}
type BarCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewBarCache(rdb *redis.Client, ttl time.Duration) *BarCache {
	return &BarCache{rdb: rdb, ttl: ttl}
}

type cachedBar struct {
	Symbol    string    `json:"symbol"`
	Provider  string    `json:"provider"`
	TimeFrame string    `json:"timeframe"`
	OpenTime  time.Time `json:"open_time"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
}

func (c *BarCache) SetBars(ctx context.Context, key string, prices []models.Price) error {
	bars := make([]cachedBar, len(prices))
	for i, p := range prices {
		bars[i] = cachedBar{
			Symbol: p.Symbol, Provider: p.Provider, TimeFrame: p.TimeFrame, OpenTime: p.OpenTime,
			Open: p.Open, High: p.High, Low: p.Low, Close: p.Close, Volume: p.Volume,
		}
	}
	data, err := json.Marshal(bars)
	if err != nil {
		return fmt.Errorf("redis: marshal bars %s: %w", key, err)
	}
	if err := c.rdb.Set(ctx, keyPrefix+key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis: set bars %s: %w", key, err)
	}
	return nil
}

// GetBars returns ErrCacheMiss when the key does not exist.
func (c *BarCache) GetBars(ctx context.Context, key string) ([]models.Price, error) {
	data, err := c.rdb.Get(ctx, keyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("redis: get bars %s: %w", key, err)
	}

	var bars []cachedBar
	if err := json.Unmarshal(data, &bars); err != nil {
		return nil, fmt.Errorf("redis: unmarshal bars %s: %w", key, err)
	}
	prices := make([]models.Price, len(bars))
	for i, b := range bars {
		prices[i] = models.Price{
			Symbol: b.Symbol, Provider: b.Provider, TimeFrame: b.TimeFrame, OpenTime: b.OpenTime.UTC(),
			Open: b.Open, High: b.High, Low: b.Low, Close: b.Close, Volume: b.Volume,
		}
	}
	return prices, nil
}

func (c *BarCache) Invalidate(ctx context.Context, key string) error {
	if err := c.rdb.Del(ctx, keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("redis: delete bars %s: %w", key, err)
	}
	return nil
}
