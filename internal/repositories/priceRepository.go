package repositories

import (
	"StrategyBacktester/internal/models"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const saveBatchSize = 500

type PriceRepository struct {
	db *gorm.DB
}

// NewPriceRepository creates a new instance of PriceRepository
func NewPriceRepository(db *gorm.DB) *PriceRepository {
	return &PriceRepository{db: db}
}

// Create adds a new Price record to the database
func (r *PriceRepository) Create(price *models.Price) error {
	if price == nil {
		return errors.New("price cannot be nil")
	}
	return r.db.Create(price).Error
}

// FindByID retrieves a Price record by its ID
func (r *PriceRepository) FindByID(id uint) (*models.Price, error) {
	if id == 0 {
		return nil, errors.New("invalid id")
	}
	var price models.Price
	err := r.db.First(&price, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &price, err
}

// SaveBatch inserts bars, skipping any (symbol, provider, timeframe, day) already stored.
func (r *PriceRepository) SaveBatch(prices []models.Price) error {
	if len(prices) == 0 {
		return nil
	}
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "symbol"}, {Name: "provider"}, {Name: "time_frame"}, {Name: "open_time"},
		},
		DoNothing: true,
	}).CreateInBatches(prices, saveBatchSize).Error
}

// GetPricesByTimeFrame gets bars for a symbol and source within [start, end], oldest first
func (r *PriceRepository) GetPricesByTimeFrame(symbol, provider, timeFrame string, start, end time.Time) ([]models.Price, error) {
	if symbol == "" || timeFrame == "" {
		return nil, errors.New("invalid symbol or timeframe")
	}

	var prices []models.Price
	err := r.db.Where("symbol = ? AND provider = ? AND time_frame = ? AND open_time BETWEEN ? AND ?",
		symbol, provider, timeFrame, start, end).
		Order("open_time ASC").
		Find(&prices).Error
	for i := range prices {
		prices[i].OpenTime = prices[i].OpenTime.UTC()
	}
	return prices, err
}

func (r *PriceRepository) GetLatestPriceByTimeFrame(symbol, provider, timeFrame string) (*models.Price, error) {
	if symbol == "" || timeFrame == "" {
		return nil, errors.New("invalid symbol or timeframe")
	}

	var price models.Price
	err := r.db.Where("symbol = ? AND provider = ? AND time_frame = ?", symbol, provider, timeFrame).
		Order("open_time DESC").
		First(&price).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &price, err
}

// CountBars reports how many bars are stored for a symbol and source.
func (r *PriceRepository) CountBars(symbol, provider, timeFrame string) (int64, error) {
	var n int64
	err := r.db.Model(&models.Price{}).
		Where("symbol = ? AND provider = ? AND time_frame = ?", symbol, provider, timeFrame).
		Count(&n).Error
	return n, err
}
