package audit

import (
	"context"
	"sync/atomic"

	"packcall/internal/logger"
	"packcall/internal/pick"
	"packcall/internal/store"
	"packcall/internal/store/model"
)

// Logger is the passive sink for the two append-only streams: pipeline
// failures and numeric-check audit rows. A write that fails is reported and
// counted, never surfaced to the pipeline; no record is ever updated or
// deleted.
type Logger struct {
	store   store.Store
	dropped atomic.Int64
}

func NewLogger(st store.Store) *Logger {
	return &Logger{store: st}
}

// RecordFailure appends one failure record, best effort.
func (l *Logger) RecordFailure(ctx context.Context, rec pick.FailureRecord) {
	if err := l.store.Failures().Insert(ctx, FailureModel(rec)); err != nil {
		l.dropped.Add(1)
		logger.Warnf("failure record dropped (ticker=%s stage=%s): %v", rec.Ticker, rec.Stage, err)
	}
}

// RecordChecks appends audit rows, best effort. Used for the rejection path,
// where there is no candidate transaction to join.
func (l *Logger) RecordChecks(ctx context.Context, recs []pick.AuditRecord) {
	for _, rec := range recs {
		if err := l.store.Audits().Insert(ctx, CheckModel(rec)); err != nil {
			l.dropped.Add(1)
			logger.Warnf("audit record dropped (ticker=%s field=%s): %v", rec.Ticker, rec.Field, err)
		}
	}
}

// AppendChecksTx writes audit rows inside an open unit of work so they commit
// atomically with the validated candidate. Unlike the best-effort paths this
// returns the error: a broken transaction must roll back as a whole.
func (l *Logger) AppendChecksTx(ctx context.Context, uow store.UnitOfWork, recs []pick.AuditRecord) error {
	for _, rec := range recs {
		if err := uow.Audits().Insert(ctx, CheckModel(rec)); err != nil {
			return err
		}
	}
	return nil
}

// Dropped reports how many records have been lost to sink errors since start.
func (l *Logger) Dropped() int64 {
	return l.dropped.Load()
}

// FailureModel converts a pipeline failure into its storage row.
func FailureModel(rec pick.FailureRecord) *model.FailureModel {
	return &model.FailureModel{
		RunID:         rec.RunID,
		RunTS:         rec.RunTS.Unix(),
		Ticker:        rec.Ticker,
		Stage:         rec.Stage,
		Reason:        rec.Reason,
		Detail:        rec.Detail,
		SourceTag:     rec.SourceTag,
		CreatedAtUnix: rec.RunTS.Unix(),
	}
}

// CheckModel converts a numeric-check record into its storage row.
func CheckModel(rec pick.AuditRecord) *model.AuditModel {
	return &model.AuditModel{
		RunID:         rec.RunID,
		RunTS:         rec.RunTS.Unix(),
		Ticker:        rec.Ticker,
		Stage:         rec.Stage,
		Field:         rec.Field,
		Expected:      rec.Expected,
		Actual:        rec.Actual,
		OK:            rec.OK,
		SourceRef:     rec.SourceRef,
		CreatedAtUnix: rec.RunTS.Unix(),
	}
}
