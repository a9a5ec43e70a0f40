package store

import (
	"context"

	"packcall/internal/store/model"
)

// UnitOfWork defines a transaction scope. A pipeline run opens one per ticker
// so the validated row and its audit rows land together or not at all.
type UnitOfWork interface {
	Commit() error
	Rollback() error

	Picks() PickRepository
	Failures() FailureRepository
	Audits() AuditRepository
	Promotions() PromotionRepository
	Positions() PositionRepository
}

// Store is the entry point for database access.
type Store interface {
	Begin(ctx context.Context) (UnitOfWork, error)

	Picks() PickRepository
	Failures() FailureRepository
	Audits() AuditRepository
	Promotions() PromotionRepository
	Positions() PositionRepository
	Tickers() TickerRepository

	Close() error
}

// PickRepository handles validated candidate rows.
type PickRepository interface {
	Insert(ctx context.Context, pick *model.PickModel) error
	ListByRun(ctx context.Context, runID string) ([]model.PickModel, error)
	ListRecent(ctx context.Context, ticker string, limit int) ([]model.PickModel, error)
}

// FailureRepository handles the append-only failure stream.
type FailureRepository interface {
	Insert(ctx context.Context, rec *model.FailureModel) error
	ListByRun(ctx context.Context, runID string) ([]model.FailureModel, error)
	ListRecent(ctx context.Context, ticker string, limit int) ([]model.FailureModel, error)
}

// AuditRepository handles the append-only numeric-check stream.
type AuditRepository interface {
	Insert(ctx context.Context, rec *model.AuditModel) error
	ListByRun(ctx context.Context, runID string) ([]model.AuditModel, error)
	ListRecent(ctx context.Context, ticker string, limit int) ([]model.AuditModel, error)
}

// PromotionRepository handles promotion decisions.
type PromotionRepository interface {
	Insert(ctx context.Context, rec *model.PromotionModel) error
	ListByRun(ctx context.Context, runID string) ([]model.PromotionModel, error)
	ListRecent(ctx context.Context, ticker string, limit int) ([]model.PromotionModel, error)
}

// PositionRepository handles tracked contracts.
type PositionRepository interface {
	Insert(ctx context.Context, pos *model.PositionModel) error
	FindOpen(ctx context.Context, ticker, expiry, right string, strike float64) (*model.PositionModel, error)
	ListOpen(ctx context.Context) ([]model.PositionModel, error)
	MarkClosed(ctx context.Context, id int64, closedAt int64) error
}

// TickerRepository handles the watchlist.
type TickerRepository interface {
	Upsert(ctx context.Context, ticker string, enabled bool) error
	ListEnabled(ctx context.Context) ([]string, error)
}
