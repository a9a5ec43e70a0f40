package sqlite

import (
	"context"
	"errors"
	"strings"

	"packcall/internal/store/model"

	"gorm.io/gorm"
)

// failureRepository and auditRepository back the two append-only audit
// streams. Neither exposes update or delete.
type failureRepository struct {
	db *gorm.DB
}

func NewFailureRepo(db *gorm.DB) *failureRepository {
	return &failureRepository{db: db}
}

func (r *failureRepository) Insert(ctx context.Context, rec *model.FailureModel) error {
	if rec == nil {
		return errors.New("failure record cannot be nil")
	}
	return r.db.WithContext(ctx).Create(rec).Error
}

func (r *failureRepository) ListByRun(ctx context.Context, runID string) ([]model.FailureModel, error) {
	var recs []model.FailureModel
	if err := r.db.WithContext(ctx).
		Where("run_id = ?", runID).
		Order("ticker ASC, id ASC").
		Find(&recs).Error; err != nil {
		return nil, err
	}
	return recs, nil
}

func (r *failureRepository) ListRecent(ctx context.Context, ticker string, limit int) ([]model.FailureModel, error) {
	var recs []model.FailureModel
	if limit <= 0 {
		limit = 100
	}
	q := r.db.WithContext(ctx).Order("run_ts DESC, id DESC").Limit(limit)
	if t := strings.ToUpper(strings.TrimSpace(ticker)); t != "" {
		q = q.Where("ticker = ?", t)
	}
	if err := q.Find(&recs).Error; err != nil {
		return nil, err
	}
	return recs, nil
}

type auditRepository struct {
	db *gorm.DB
}

func NewAuditRepo(db *gorm.DB) *auditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) Insert(ctx context.Context, rec *model.AuditModel) error {
	if rec == nil {
		return errors.New("audit record cannot be nil")
	}
	return r.db.WithContext(ctx).Create(rec).Error
}

func (r *auditRepository) ListByRun(ctx context.Context, runID string) ([]model.AuditModel, error) {
	var recs []model.AuditModel
	if err := r.db.WithContext(ctx).
		Where("run_id = ?", runID).
		Order("ticker ASC, id ASC").
		Find(&recs).Error; err != nil {
		return nil, err
	}
	return recs, nil
}

func (r *auditRepository) ListRecent(ctx context.Context, ticker string, limit int) ([]model.AuditModel, error) {
	var recs []model.AuditModel
	if limit <= 0 {
		limit = 100
	}
	q := r.db.WithContext(ctx).Order("run_ts DESC, id DESC").Limit(limit)
	if t := strings.ToUpper(strings.TrimSpace(ticker)); t != "" {
		q = q.Where("ticker = ?", t)
	}
	if err := q.Find(&recs).Error; err != nil {
		return nil, err
	}
	return recs, nil
}
