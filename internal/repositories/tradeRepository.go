package repositories

import (
	"StrategyBacktester/internal/models"
	"errors"

	"gorm.io/gorm"
)

type TradeRepository struct {
	db *gorm.DB
}

// NewTradeRepository creates a new instance of TradeRepository
func NewTradeRepository(db *gorm.DB) *TradeRepository {
	return &TradeRepository{db: db}
}

// FindByRunID returns the trade log of a run in execution order
func (r *TradeRepository) FindByRunID(runID string) ([]models.TradeRecord, error) {
	if runID == "" {
		return nil, errors.New("invalid run id")
	}
	var trades []models.TradeRecord
	err := r.db.Where("run_id = ?", runID).Order("seq ASC").Find(&trades).Error
	return trades, err
}

// FindSells returns the closing trades of a run.
func (r *TradeRepository) FindSells(runID string) ([]models.TradeRecord, error) {
	if runID == "" {
		return nil, errors.New("invalid run id")
	}
	var trades []models.TradeRecord
	err := r.db.Where("run_id = ? AND action = ?", runID, models.TradeActionSell).Order("seq ASC").Find(&trades).Error
	return trades, err
}
