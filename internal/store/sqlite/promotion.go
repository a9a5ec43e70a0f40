package sqlite

import (
	"context"
	"errors"
	"strings"

	"packcall/internal/store/model"

	"gorm.io/gorm"
)

type promotionRepository struct {
	db *gorm.DB
}

func NewPromotionRepo(db *gorm.DB) *promotionRepository {
	return &promotionRepository{db: db}
}

func (r *promotionRepository) Insert(ctx context.Context, rec *model.PromotionModel) error {
	if rec == nil {
		return errors.New("promotion cannot be nil")
	}
	return r.db.WithContext(ctx).Create(rec).Error
}

func (r *promotionRepository) ListByRun(ctx context.Context, runID string) ([]model.PromotionModel, error) {
	var recs []model.PromotionModel
	if err := r.db.WithContext(ctx).
		Where("run_id = ?", runID).
		Order("id ASC").
		Find(&recs).Error; err != nil {
		return nil, err
	}
	return recs, nil
}

func (r *promotionRepository) ListRecent(ctx context.Context, ticker string, limit int) ([]model.PromotionModel, error) {
	var recs []model.PromotionModel
	if limit <= 0 {
		limit = 100
	}
	q := r.db.WithContext(ctx).Order("created_at DESC, id DESC").Limit(limit)
	if t := strings.ToUpper(strings.TrimSpace(ticker)); t != "" {
		q = q.Where("ticker = ?", t)
	}
	if err := q.Find(&recs).Error; err != nil {
		return nil, err
	}
	return recs, nil
}

type positionRepository struct {
	db *gorm.DB
}

func NewPositionRepo(db *gorm.DB) *positionRepository {
	return &positionRepository{db: db}
}

func (r *positionRepository) Insert(ctx context.Context, pos *model.PositionModel) error {
	if pos == nil {
		return errors.New("position cannot be nil")
	}
	return r.db.WithContext(ctx).Create(pos).Error
}

// FindOpen returns the OPEN position for the exact contract key, or nil when
// there is none. The promotion engine uses this as its idempotency guard.
func (r *positionRepository) FindOpen(ctx context.Context, ticker, expiry, right string, strike float64) (*model.PositionModel, error) {
	var pos model.PositionModel
	err := r.db.WithContext(ctx).
		Where("ticker = ? AND expiry = ? AND option_right = ? AND strike = ? AND status = ?",
			strings.ToUpper(strings.TrimSpace(ticker)), expiry, strings.ToUpper(right), strike, model.PositionOpen).
		First(&pos).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &pos, nil
}

func (r *positionRepository) ListOpen(ctx context.Context) ([]model.PositionModel, error) {
	var positions []model.PositionModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", model.PositionOpen).
		Order("opened_at DESC, id DESC").
		Find(&positions).Error; err != nil {
		return nil, err
	}
	return positions, nil
}

func (r *positionRepository) MarkClosed(ctx context.Context, id int64, closedAt int64) error {
	return r.db.WithContext(ctx).
		Model(&model.PositionModel{}).
		Where("id = ?", id).
		Updates(map[string]any{"status": model.PositionClosed, "closed_at": closedAt}).Error
}
