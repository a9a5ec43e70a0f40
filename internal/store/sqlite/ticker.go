package sqlite

import (
	"context"
	"errors"
	"strings"
	"time"

	"packcall/internal/store/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type tickerRepository struct {
	db *gorm.DB
}

func NewTickerRepo(db *gorm.DB) *tickerRepository {
	return &tickerRepository{db: db}
}

func (r *tickerRepository) Upsert(ctx context.Context, ticker string, enabled bool) error {
	t := strings.ToUpper(strings.TrimSpace(ticker))
	if t == "" {
		return errors.New("ticker cannot be empty")
	}
	rec := model.TickerModel{Ticker: t, Enabled: enabled, AddedAtUnix: time.Now().Unix()}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "ticker"}},
		DoUpdates: clause.AssignmentColumns([]string{"enabled"}),
	}).Create(&rec).Error
}

func (r *tickerRepository) ListEnabled(ctx context.Context) ([]string, error) {
	var recs []model.TickerModel
	if err := r.db.WithContext(ctx).
		Where("enabled = ?", true).
		Order("ticker ASC").
		Find(&recs).Error; err != nil {
		return nil, err
	}
	out := make([]string, 0, len(recs))
	for _, rec := range recs {
		out = append(out, rec.Ticker)
	}
	return out, nil
}
