package repositories

import (
	"StrategyBacktester/internal/models"
	"errors"

	"gorm.io/gorm"
)

type BacktestRepository struct {
	db *gorm.DB
}

func NewBacktestRepository(db *gorm.DB) *BacktestRepository {
	return &BacktestRepository{db: db}
}

// SaveRun stores a run together with its trade records.
func (r *BacktestRepository) SaveRun(run *models.BacktestRun) error {
	if run == nil {
		return errors.New("run cannot be nil")
	}
	if run.ID == "" {
		return errors.New("run id is required")
	}
	return r.db.Transaction(func(tx *gorm.DB) error {
		return tx.Create(run).Error
	})
}

// SaveRuns stores every run of a grid search atomically.
func (r *BacktestRepository) SaveRuns(runs []models.BacktestRun) error {
	if len(runs) == 0 {
		return nil
	}
	return r.db.Transaction(func(tx *gorm.DB) error {
		for i := range runs {
			if runs[i].ID == "" {
				return errors.New("run id is required")
			}
			if err := tx.Create(&runs[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// FindByID loads a run with its trades; a missing run is (nil, nil).
func (r *BacktestRepository) FindByID(id string) (*models.BacktestRun, error) {
	if id == "" {
		return nil, errors.New("invalid id")
	}
	var run models.BacktestRun
	err := r.db.Preload("Trades", func(db *gorm.DB) *gorm.DB {
		return db.Order("seq ASC")
	}).First(&run, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &run, err
}

// FindBySymbol lists the most recent runs for a symbol, newest first.
func (r *BacktestRepository) FindBySymbol(symbol string, limit int) ([]models.BacktestRun, error) {
	if symbol == "" {
		return nil, errors.New("invalid symbol")
	}
	var runs []models.BacktestRun
	q := r.db.Where("symbol = ?", symbol).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&runs).Error
	return runs, err
}

// FindByGrid lists the runs of one grid search in rank order.
func (r *BacktestRepository) FindByGrid(gridID string) ([]models.BacktestRun, error) {
	if gridID == "" {
		return nil, errors.New("invalid grid id")
	}
	var runs []models.BacktestRun
	err := r.db.Where("grid_id = ?", gridID).Order("rank ASC").Find(&runs).Error
	return runs, err
}
