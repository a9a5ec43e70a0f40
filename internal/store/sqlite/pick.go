package sqlite

import (
	"context"
	"errors"
	"strings"

	"packcall/internal/store/model"

	"gorm.io/gorm"
)

type pickRepository struct {
	db *gorm.DB
}

func NewPickRepo(db *gorm.DB) *pickRepository {
	return &pickRepository{db: db}
}

func (r *pickRepository) Insert(ctx context.Context, pick *model.PickModel) error {
	if pick == nil {
		return errors.New("pick cannot be nil")
	}
	return r.db.WithContext(ctx).Create(pick).Error
}

func (r *pickRepository) ListByRun(ctx context.Context, runID string) ([]model.PickModel, error) {
	var picks []model.PickModel
	if err := r.db.WithContext(ctx).
		Where("run_id = ?", runID).
		Order("lane ASC, rank ASC").
		Find(&picks).Error; err != nil {
		return nil, err
	}
	return picks, nil
}

func (r *pickRepository) ListRecent(ctx context.Context, ticker string, limit int) ([]model.PickModel, error) {
	var picks []model.PickModel
	if limit <= 0 {
		limit = 100
	}
	q := r.db.WithContext(ctx).Order("run_ts DESC, id DESC").Limit(limit)
	if t := strings.ToUpper(strings.TrimSpace(ticker)); t != "" {
		q = q.Where("ticker = ?", t)
	}
	if err := q.Find(&picks).Error; err != nil {
		return nil, err
	}
	return picks, nil
}
