package models

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Price is one daily bar. Only Close is required by the engine.
type Price struct {
	ID        uint      `gorm:"primaryKey"`
	Symbol    string    `gorm:"uniqueIndex:idx_price_bar;not null"`
	Provider  string    `gorm:"uniqueIndex:idx_price_bar;not null"`
	TimeFrame string    `gorm:"uniqueIndex:idx_price_bar;not null"`
	OpenTime  time.Time `gorm:"uniqueIndex:idx_price_bar;index;not null"`
	Open      float64   `gorm:"type:decimal(20,8)"`
	Close     float64   `gorm:"type:decimal(20,8);not null"`
	High      float64   `gorm:"type:decimal(20,8)"`
	Low       float64   `gorm:"type:decimal(20,8)"`
	Volume    float64   `gorm:"type:decimal(20,8)"`
}

const (
	PriceTimeFrame1d = "1d"
)

// TableName sets the table name for Price model
func (Price) TableName() string {
	return "prices"
}

var ErrInvalidSeries = errors.New("invalid price series")

// ValidateSeries checks the shape the backtest core relies on: at least one bar,
// strictly increasing unique dates, and positive finite closes.
func ValidateSeries(prices []Price) error {
	if len(prices) == 0 {
		return fmt.Errorf("%w: no bars", ErrInvalidSeries)
	}
	for i, p := range prices {
		if math.IsNaN(p.Close) || math.IsInf(p.Close, 0) || p.Close <= 0 {
			return fmt.Errorf("%w: bar %d (%s) has non-positive close %v",
				ErrInvalidSeries, i, p.OpenTime.Format("2006-01-02"), p.Close)
		}
		if i > 0 && !p.OpenTime.After(prices[i-1].OpenTime) {
			return fmt.Errorf("%w: bar %d (%s) is not after %s",
				ErrInvalidSeries, i, p.OpenTime.Format("2006-01-02"),
				prices[i-1].OpenTime.Format("2006-01-02"))
		}
	}
	return nil
}

// Closes extracts the close column.
func Closes(prices []Price) []float64 {
	out := make([]float64, len(prices))
	for i, p := range prices {
		out[i] = p.Close
	}
	return out
}
