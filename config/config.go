package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

const (
	DefaultInitialCash = 100000.0
	DefaultProvider    = "yahoo"
	DefaultRedisTTL    = 24 * time.Hour
)

// Load reads .env (when present) and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	return &Config{
		Exchange: ExchangeConfig{
			APIKey:    os.Getenv("BINANCE_API_KEY"),
			SecretKey: os.Getenv("BINANCE_SECRET_KEY"),
		},
		Database: DatabaseConfig{
			Host:     os.Getenv("DB_HOST"),
			Port:     EnvtoInt(os.Getenv("DB_PORT"), 5432),
			User:     os.Getenv("DB_USER"),
			Password: os.Getenv("DB_PASSWORD"),
			DBName:   os.Getenv("DB_NAME"),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       EnvtoInt(os.Getenv("REDIS_DB"), 0),
			TTL:      envToDuration(os.Getenv("REDIS_TTL"), DefaultRedisTTL),
		},
		Backtest: BacktestConfig{
			InitialCash: envToFloat(os.Getenv("BACKTEST_INITIAL_CASH"), DefaultInitialCash),
			Provider:    getProvider(),
			Workers:     EnvtoInt(os.Getenv("BACKTEST_WORKERS"), runtime.NumCPU()),
		},
		LogLevel: strings.ToLower(os.Getenv("LOG_LEVEL")),
	}, nil
}

// LoadGrid decodes a TOML parameter sweep file.
func LoadGrid(path string) (*GridConfig, error) {
	var grid GridConfig
	if _, err := toml.DecodeFile(path, &grid); err != nil {
		return nil, fmt.Errorf("decode grid file %s: %w", path, err)
	}
	if grid.Strategy == "" {
		return nil, fmt.Errorf("grid file %s: strategy is required", path)
	}
	if len(grid.Ranges) == 0 {
		return nil, fmt.Errorf("grid file %s: at least one [[ranges]] entry is required", path)
	}
	for i, r := range grid.Ranges {
		if r.Name == "" {
			return nil, fmt.Errorf("grid file %s: range %d has no name", path, i)
		}
	}
	return &grid, nil
}

// helper env(string) to int, falling back on empty or malformed input
func EnvtoInt(s string, fallback int) int {
	if s == "" {
		return fallback
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return i
}

func envToFloat(s string, fallback float64) float64 {
	if s == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f <= 0 {
		return fallback
	}
	return f
}

func envToDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

func getProvider() string {
	p := strings.ToLower(strings.TrimSpace(os.Getenv("BACKTEST_PROVIDER")))
	if p == "" {
		return DefaultProvider
	}
	return p
}
