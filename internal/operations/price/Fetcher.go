package price

import (
	"StrategyBacktester/internal/models"
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"
)

var (
	ErrUnknownProvider = errors.New("unknown price provider")
	ErrNoData          = errors.New("no price data")
)

const (
	ProviderYahoo   = "yahoo"
	ProviderBinance = "binance"
)

// Provider fetches daily bars for one symbol over [start, end].
type Provider interface {
	Name() string
	FetchDaily(ctx context.Context, symbol string, start, end time.Time) ([]models.Price, error)
}

// Normalize returns a cleaned copy: dates truncated to the UTC day, bars with
// missing or non-positive closes dropped, ascending order, one bar per day
// (the later bar wins).
func Normalize(prices []models.Price) []models.Price {
	out := make([]models.Price, 0, len(prices))
	for _, p := range prices {
		if math.IsNaN(p.Close) || math.IsInf(p.Close, 0) || p.Close <= 0 {
			continue
		}
		p.OpenTime = day(p.OpenTime)
		out = append(out, p)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].OpenTime.Before(out[j].OpenTime)
	})

	dedup := out[:0]
	for _, p := range out {
		if n := len(dedup); n > 0 && dedup[n-1].OpenTime.Equal(p.OpenTime) {
			dedup[n-1] = p
			continue
		}
		dedup = append(dedup, p)
	}
	return dedup
}

// Window keeps bars dated within [start, end], by calendar day.
func Window(prices []models.Price, start, end time.Time) []models.Price {
	from, to := day(start), day(end)
	var out []models.Price
	for _, p := range prices {
		if p.OpenTime.Before(from) || p.OpenTime.After(to) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// RetryConfig controls exponential backoff for provider calls.
type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	Multiplier float64
}

func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxRetries: 3,
		BaseDelay:  500 * time.Millisecond,
		MaxDelay:   10 * time.Second,
		Multiplier: 2.0,
	}
}

// WithRetry runs fn until it succeeds, retries are exhausted, or ctx ends.
func WithRetry(ctx context.Context, cfg *RetryConfig, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := time.Duration(float64(cfg.BaseDelay) * math.Pow(cfg.Multiplier, float64(attempt-1)))
			if delay > cfg.MaxDelay {
				delay = cfg.MaxDelay
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		if err := fn(); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return fmt.Errorf("max retries exceeded: %w", lastErr)
}
