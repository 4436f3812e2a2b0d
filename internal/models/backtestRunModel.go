package models

import "time"

// BacktestRun is one persisted pipeline invocation. Runs produced by a grid
// search share a GridID and carry their rank within it.
type BacktestRun struct {
	ID          string    `gorm:"primaryKey;type:varchar(36)"`
	Symbol      string    `gorm:"index;not null"`
	Provider    string    `gorm:"not null"`
	Strategy    string    `gorm:"not null"`
	Params      string    `gorm:"type:text;not null"` // JSON object of parameter values
	StartDate   time.Time `gorm:"not null"`
	EndDate     time.Time `gorm:"not null"`
	InitialCash float64   `gorm:"not null"`

	// may hold NaN or ±Inf
	CumulativeReturn float64 `gorm:"type:double precision"`
	SharpeRatio      float64 `gorm:"type:double precision"`
	MaxDrawdown      float64 `gorm:"type:double precision"`
	Volatility       float64 `gorm:"type:double precision"`
	CAGR             float64 `gorm:"type:double precision"`
	CalmarRatio      float64 `gorm:"type:double precision"`
	WinRate          float64 `gorm:"type:double precision"`
	AvgPnL           float64 `gorm:"type:double precision"`
	WinLossRatio     float64 `gorm:"type:double precision"`
	MaxDailyGain     float64 `gorm:"type:double precision"`
	MaxDailyLoss     float64 `gorm:"type:double precision"`
	FinalEquity      float64 `gorm:"type:double precision"`
	ClosedTrades     int

	GridID string `gorm:"index;type:varchar(36)"`
	Rank   int

	CreatedAt time.Time `gorm:"autoCreateTime"`

	Trades []TradeRecord `gorm:"foreignKey:RunID"`
}
