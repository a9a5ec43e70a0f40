package sqlite

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"packcall/internal/store"
	"packcall/internal/store/model"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type SqliteStore struct {
	db *gorm.DB
}

func NewSqliteStore(path string) (*SqliteStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("database path cannot be empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&cache=shared", path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, err
	}
	return newSqliteStore(db)
}

func NewSqliteStoreFromDB(db *gorm.DB) (*SqliteStore, error) {
	if db == nil {
		return nil, fmt.Errorf("gorm db cannot be nil")
	}
	return newSqliteStore(db)
}

func newSqliteStore(db *gorm.DB) (*SqliteStore, error) {
	models := []interface{}{
		&model.PickModel{},
		&model.FailureModel{},
		&model.AuditModel{},
		&model.PromotionModel{},
		&model.PositionModel{},
		&model.TickerModel{},
	}
	if err := db.AutoMigrate(models...); err != nil {
		return nil, err
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(2)
		sqlDB.SetMaxIdleConns(2)
	}
	return &SqliteStore{db: db}, nil
}

func (s *SqliteStore) Begin(ctx context.Context) (store.UnitOfWork, error) {
	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	return &gormUnitOfWork{tx: tx}, nil
}

func (s *SqliteStore) Picks() store.PickRepository           { return NewPickRepo(s.db) }
func (s *SqliteStore) Failures() store.FailureRepository     { return NewFailureRepo(s.db) }
func (s *SqliteStore) Audits() store.AuditRepository         { return NewAuditRepo(s.db) }
func (s *SqliteStore) Promotions() store.PromotionRepository { return NewPromotionRepo(s.db) }
func (s *SqliteStore) Positions() store.PositionRepository   { return NewPositionRepo(s.db) }
func (s *SqliteStore) Tickers() store.TickerRepository       { return NewTickerRepo(s.db) }

func (s *SqliteStore) Close() error {
	if s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

type gormUnitOfWork struct {
	tx *gorm.DB
}

func (u *gormUnitOfWork) Picks() store.PickRepository           { return NewPickRepo(u.tx) }
func (u *gormUnitOfWork) Failures() store.FailureRepository     { return NewFailureRepo(u.tx) }
func (u *gormUnitOfWork) Audits() store.AuditRepository         { return NewAuditRepo(u.tx) }
func (u *gormUnitOfWork) Promotions() store.PromotionRepository { return NewPromotionRepo(u.tx) }
func (u *gormUnitOfWork) Positions() store.PositionRepository   { return NewPositionRepo(u.tx) }

func (u *gormUnitOfWork) Commit() error {
	return u.tx.Commit().Error
}

func (u *gormUnitOfWork) Rollback() error {
	return u.tx.Rollback().Error
}
