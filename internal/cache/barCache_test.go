package cache

import (
	"StrategyBacktester/internal/models"
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
)

func testClient(t *testing.T) *BarCache {
	t.Helper()
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skipf("TEST_REDIS_ADDR not set, skipping redis integration test")
	}
	rdb, err := NewClient(context.Background(), ClientConfig{Addr: addr})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	t.Cleanup(func() { _ = rdb.Close() })
	return NewBarCache(rdb, time.Minute)
}

func TestBarCacheRoundTrip(t *testing.T) {
	c := testClient(t)
	ctx := context.Background()
	key := "test:" + uuid.NewString()
	t.Cleanup(func() { _ = c.Invalidate(ctx, key) })

	if _, err := c.GetBars(ctx, key); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("empty key: err = %v, want ErrCacheMiss", err)
	}

	day := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	in := []models.Price{
		{Symbol: "SPY", Provider: "yahoo", TimeFrame: models.PriceTimeFrame1d, OpenTime: day, Close: 470.5},
		{Symbol: "SPY", Provider: "yahoo", TimeFrame: models.PriceTimeFrame1d, OpenTime: day.AddDate(0, 0, 1), Close: 468.2},
	}
	if err := c.SetBars(ctx, key, in); err != nil {
		t.Fatalf("SetBars: %v", err)
	}
	out, err := c.GetBars(ctx, key)
	if err != nil {
		t.Fatalf("GetBars: %v", err)
	}
	if len(out) != 2 || out[1].Close != 468.2 || !out[0].OpenTime.Equal(day) {
		t.Fatalf("round trip = %+v", out)
	}
}
