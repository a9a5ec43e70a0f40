package runlog

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Record is one pipeline run summary. Appended once per run; never updated
// afterwards.
type Record struct {
	ID         int64  `json:"id"`
	RunID      string `json:"run_id"`
	Trigger    string `json:"trigger"`
	StartedAt  int64  `json:"started_at"`
	FinishedAt int64  `json:"finished_at"`
	Tickers    int    `json:"tickers"`
	Validated  int    `json:"validated"`
	Failures   int    `json:"failures"`
	Promotions int    `json:"promotions"`
	Note       string `json:"note,omitempty"`
}

// Journal is an append-only run log on its own sqlite file, kept apart from
// the domain store so journal writes can never interfere with run
// transactions.
type Journal struct {
	mu   sync.Mutex
	db   *sql.DB
	path string
}

func Open(path string) (*Journal, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("run log path cannot be empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&cache=shared", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if err := ensureSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Journal{db: db, path: path}, nil
}

func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.db == nil {
		return nil
	}
	err := j.db.Close()
	j.db = nil
	return err
}

// Append writes one run record.
func (j *Journal) Append(ctx context.Context, rec Record) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.db == nil {
		return fmt.Errorf("run log is closed")
	}
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO runs (run_id, trigger_kind, started_at, finished_at, tickers, validated, failures, promotions, note, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RunID, rec.Trigger, rec.StartedAt, rec.FinishedAt,
		rec.Tickers, rec.Validated, rec.Failures, rec.Promotions,
		rec.Note, time.Now().Unix())
	return err
}

// Recent returns the latest runs, newest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Record, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.db == nil {
		return nil, fmt.Errorf("run log is closed")
	}
	if limit <= 0 {
		limit = 50
	}
	rows, err := j.db.QueryContext(ctx, `
		SELECT id, run_id, trigger_kind, started_at, finished_at, tickers, validated, failures, promotions, note
		FROM runs ORDER BY started_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.RunID, &rec.Trigger, &rec.StartedAt, &rec.FinishedAt,
			&rec.Tickers, &rec.Validated, &rec.Failures, &rec.Promotions, &rec.Note); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func ensureSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			trigger_kind TEXT,
			started_at INTEGER NOT NULL,
			finished_at INTEGER,
			tickers INTEGER,
			validated INTEGER,
			failures INTEGER,
			promotions INTEGER,
			note TEXT,
			created_at INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);`,
		`CREATE INDEX IF NOT EXISTS idx_runs_run_id ON runs(run_id);`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
