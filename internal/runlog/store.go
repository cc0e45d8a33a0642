package runlog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"git.home.luguber.info/inful/codemap/internal/foundation/errors"
)

// InMemory opens a private database that disappears on Close.
const InMemory = ":memory:"

// Run is one update invocation.
type Run struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Outcome    string
	Planned    int
	Updated    int
	Failed     int
	Skipped    int
	Error      string
}

// ModuleResult is the recorded outcome of one planned module.
type ModuleResult struct {
	RunID    string
	ModuleID string
	Cause    string
	Outcome  string
	Attempts int
	Duration time.Duration
	Removed  bool
	Error    string
	// Context is the classified error context, if any.
	Context map[string]any
}

// Store is the SQLite run log.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open opens (creating if needed) the run log at path. Use InMemory for tests.
func Open(path string) (*Store, error) {
	if path != InMemory {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, errors.IOFailure("failed to create run log directory").
				WithCause(err).WithContext("path", path).Build()
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single connection keeps :memory: databases shared across calls.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.initialize(); err != nil {
		_ = db.Close()
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to initialize run log").
			WithContext("path", path).Build()
	}
	return s, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		started_at INTEGER NOT NULL,
		finished_at INTEGER,
		outcome TEXT NOT NULL DEFAULT 'running',
		planned INTEGER NOT NULL DEFAULT 0,
		updated INTEGER NOT NULL DEFAULT 0,
		failed INTEGER NOT NULL DEFAULT 0,
		skipped INTEGER NOT NULL DEFAULT 0,
		error TEXT NOT NULL DEFAULT ''
	);
	CREATE TABLE IF NOT EXISTS module_results (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL REFERENCES runs(id),
		module_id TEXT NOT NULL,
		cause TEXT NOT NULL,
		outcome TEXT NOT NULL,
		attempts INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL,
		removed INTEGER NOT NULL,
		error TEXT NOT NULL DEFAULT '',
		context TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_results_run ON module_results(run_id);
	CREATE INDEX IF NOT EXISTS idx_results_module ON module_results(module_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// BeginRun records the start of a run.
func (s *Store) BeginRun(ctx context.Context, id string, startedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, "INSERT INTO runs (id, started_at) VALUES (?, ?)", id, startedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// RecordResults appends module results of a run in one transaction.
func (s *Store) RecordResults(ctx context.Context, results []ModuleResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	for _, r := range results {
		var contextJSON []byte
		if len(r.Context) > 0 {
			contextJSON, err = json.Marshal(r.Context)
			if err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("marshal context: %w", err)
			}
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO module_results (run_id, module_id, cause, outcome, attempts, duration_ms, removed, error, context)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			r.RunID, r.ModuleID, r.Cause, r.Outcome, r.Attempts, r.Duration.Milliseconds(), r.Removed, r.Error, contextJSON,
		)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert module result: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit module results: %w", err)
	}
	return nil
}

// FinishRun stores the final counters of a run.
func (s *Store) FinishRun(ctx context.Context, run Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, outcome = ?, planned = ?, updated = ?, failed = ?, skipped = ?, error = ? WHERE id = ?`,
		run.FinishedAt.UnixMilli(), run.Outcome, run.Planned, run.Updated, run.Failed, run.Skipped, run.Error, run.ID,
	)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("run %s was never started", run.ID)
	}
	return nil
}

// Runs returns up to limit runs, newest first.
func (s *Store) Runs(ctx context.Context, limit int) ([]Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started_at, finished_at, outcome, planned, updated, failed, skipped, error
		 FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var r Run
		var started int64
		var finished sql.NullInt64
		if err := rows.Scan(&r.ID, &started, &finished, &r.Outcome, &r.Planned, &r.Updated, &r.Failed, &r.Skipped, &r.Error); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.StartedAt = time.UnixMilli(started).UTC()
		if finished.Valid {
			r.FinishedAt = time.UnixMilli(finished.Int64).UTC()
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}

// Results returns the module results of a run ordered by module id.
func (s *Store) Results(ctx context.Context, runID string) ([]ModuleResult, error) {
	return s.queryResults(ctx,
		`SELECT run_id, module_id, cause, outcome, attempts, duration_ms, removed, error, context
		 FROM module_results WHERE run_id = ? ORDER BY module_id, id`, runID)
}

// History returns the latest results of a module across runs, newest first.
func (s *Store) History(ctx context.Context, moduleID string, limit int) ([]ModuleResult, error) {
	return s.queryResults(ctx,
		`SELECT run_id, module_id, cause, outcome, attempts, duration_ms, removed, error, context
		 FROM module_results WHERE module_id = ? ORDER BY id DESC LIMIT ?`, moduleID, limit)
}

func (s *Store) queryResults(ctx context.Context, query string, args ...any) ([]ModuleResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query module results: %w", err)
	}
	defer rows.Close()

	var out []ModuleResult
	for rows.Next() {
		var r ModuleResult
		var durationMS int64
		var contextJSON []byte
		if err := rows.Scan(&r.RunID, &r.ModuleID, &r.Cause, &r.Outcome, &r.Attempts, &durationMS, &r.Removed, &r.Error, &contextJSON); err != nil {
			return nil, fmt.Errorf("scan module result: %w", err)
		}
		r.Duration = time.Duration(durationMS) * time.Millisecond
		if len(contextJSON) > 0 {
			if err := json.Unmarshal(contextJSON, &r.Context); err != nil {
				return nil, fmt.Errorf("unmarshal context: %w", err)
			}
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}

// Close closes the database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
