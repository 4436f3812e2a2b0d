package models

import (
	"time"
)

// TradeRecord persists one trade-log entry of a run.
type TradeRecord struct {
	ID       uint      `gorm:"primaryKey"`
	RunID    string    `gorm:"index;not null;type:varchar(36)"`
	Seq      int       `gorm:"not null"`
	Date     time.Time `gorm:"not null"`
	Action   string    `gorm:"not null"`
	Price    float64   `gorm:"type:decimal(20,8);not null"`
	Quantity int       `gorm:"not null"`
	PnL      *float64  `gorm:"type:decimal(20,8)"` // set on sells only

	CreatedAt time.Time `gorm:"autoCreateTime"`
}

const (
	TradeActionBuy  = "Buy"
	TradeActionSell = "Sell"
)
