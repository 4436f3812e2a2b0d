package config

import "time"

type Config struct {
	Exchange ExchangeConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Backtest BacktestConfig
	LogLevel string
}

type ExchangeConfig struct {
	APIKey    string
	SecretKey string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
}

// Enabled reports whether run and price persistence should be wired.
func (d DatabaseConfig) Enabled() bool {
	return d.Host != ""
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

func (r RedisConfig) Enabled() bool {
	return r.Addr != ""
}

type BacktestConfig struct {
	InitialCash float64
	Provider    string // "yahoo" or "binance"
	Workers     int    // grid search fan-out
}

// GridConfig is the on-disk description of a parameter sweep.
type GridConfig struct {
	Strategy string       `toml:"strategy"`
	RankBy   string       `toml:"rank_by"`
	Ranges   []RangeEntry `toml:"ranges"`
}

type RangeEntry struct {
	Name  string  `toml:"name"`
	Start float64 `toml:"start"`
	Stop  float64 `toml:"stop"`
	Step  float64 `toml:"step"`
}
