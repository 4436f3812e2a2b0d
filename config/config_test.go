package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DB_HOST", "")
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("BACKTEST_INITIAL_CASH", "")
	t.Setenv("BACKTEST_PROVIDER", "")
	t.Setenv("BACKTEST_WORKERS", "")
	t.Setenv("REDIS_TTL", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Database.Enabled() {
		t.Fatalf("expected database disabled without DB_HOST")
	}
	if cfg.Redis.Enabled() {
		t.Fatalf("expected redis disabled without REDIS_ADDR")
	}
	if cfg.Backtest.InitialCash != DefaultInitialCash {
		t.Fatalf("expected initial cash %.0f, got %.0f", DefaultInitialCash, cfg.Backtest.InitialCash)
	}
	if cfg.Backtest.Provider != DefaultProvider {
		t.Fatalf("expected provider %s, got %s", DefaultProvider, cfg.Backtest.Provider)
	}
	if cfg.Backtest.Workers <= 0 {
		t.Fatalf("expected positive worker count, got %d", cfg.Backtest.Workers)
	}
	if cfg.Redis.TTL != DefaultRedisTTL {
		t.Fatalf("expected ttl %s, got %s", DefaultRedisTTL, cfg.Redis.TTL)
	}
}

func TestLoadOverridesAndMalformedValues(t *testing.T) {
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("DB_PORT", "not-a-port")
	t.Setenv("BACKTEST_INITIAL_CASH", "2500.5")
	t.Setenv("BACKTEST_PROVIDER", " Binance ")
	t.Setenv("BACKTEST_WORKERS", "3")
	t.Setenv("REDIS_TTL", "90m")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.Database.Enabled() || cfg.Database.Port != 5432 {
		t.Fatalf("expected enabled database on default port, got %+v", cfg.Database)
	}
	if cfg.Backtest.InitialCash != 2500.5 {
		t.Fatalf("expected initial cash 2500.5, got %v", cfg.Backtest.InitialCash)
	}
	if cfg.Backtest.Provider != "binance" {
		t.Fatalf("expected provider binance, got %q", cfg.Backtest.Provider)
	}
	if cfg.Backtest.Workers != 3 {
		t.Fatalf("expected 3 workers, got %d", cfg.Backtest.Workers)
	}
	if cfg.Redis.TTL != 90*time.Minute {
		t.Fatalf("expected 90m ttl, got %s", cfg.Redis.TTL)
	}
}

func TestLoadGrid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "grid.toml")
	body := `
strategy = "crossover"
rank_by = "cagr"

[[ranges]]
name = "short_window"
start = 5
stop = 20
step = 5

[[ranges]]
name = "long_window"
start = 30
stop = 60
step = 10
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write grid: %v", err)
	}

	grid, err := LoadGrid(path)
	if err != nil {
		t.Fatalf("LoadGrid: %v", err)
	}
	if grid.Strategy != "crossover" || grid.RankBy != "cagr" {
		t.Fatalf("unexpected header: %+v", grid)
	}
	if len(grid.Ranges) != 2 {
		t.Fatalf("expected 2 ranges, got %d", len(grid.Ranges))
	}
	if r := grid.Ranges[1]; r.Name != "long_window" || r.Start != 30 || r.Stop != 60 || r.Step != 10 {
		t.Fatalf("unexpected range: %+v", r)
	}
}

func TestLoadGridRequiresRanges(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "grid.toml")
	if err := os.WriteFile(path, []byte(`strategy = "rsi"`), 0o644); err != nil {
		t.Fatalf("write grid: %v", err)
	}
	if _, err := LoadGrid(path); err == nil {
		t.Fatalf("expected error for grid without ranges")
	}
}
