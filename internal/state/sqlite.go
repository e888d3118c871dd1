package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	// Pure-Go SQLite driver, registered as "sqlite".
	_ "modernc.org/sqlite"

	"github.com/leapstack-labs/txt2sql/internal/engine"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new SQLite state store instance.
// If logger is nil, a discard logger is used.
func NewSQLiteStore(logger *slog.Logger) *SQLiteStore {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &SQLiteStore{logger: logger}
}

// Open opens the database at path, creating its directory, and migrates it.
// Use ":memory:" for an in-memory database.
func Open(path string, logger *slog.Logger) (*SQLiteStore, error) {
	s := NewSQLiteStore(logger)
	if err := s.Open(path); err != nil {
		return nil, err
	}
	if err := s.Migrate(); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

// Open opens a connection to the SQLite database.
func (s *SQLiteStore) Open(path string) error {
	dsn := path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return fmt.Errorf("failed to create state directory: %w", err)
			}
		}
		dsn += "&_pragma=journal_mode(WAL)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// One connection keeps ":memory:" a single database and serializes writers.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	s.db = db
	s.path = path
	s.logger.Debug("state store opened", slog.String("path", path))
	return nil
}

// Close closes the SQLite database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Path returns the database path the store was opened with.
func (s *SQLiteStore) Path() string { return s.path }

// SaveRun inserts a run and its attempts in one transaction.
func (s *SQLiteStore) SaveRun(ctx context.Context, run *Run) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, question, target, status, final_sql, error, attempts,
			max_attempts, row_count, duration_ms, started_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Question, run.Target, run.Status, run.SQL, run.Error, run.Attempts,
		run.MaxAttempts, run.RowCount, run.DurationMS, run.StartedAt.UTC(), run.CompletedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save run %s: %w", run.ID, err)
	}

	for i, a := range run.History {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO run_attempts (run_id, seq, sql, error) VALUES (?, ?, ?, ?)`,
			run.ID, i+1, a.SQL, a.Error,
		); err != nil {
			return fmt.Errorf("failed to save attempt %d of run %s: %w", i+1, run.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run %s: %w", run.ID, err)
	}
	s.logger.Debug("run saved", slog.String("run_id", run.ID), slog.String("status", run.Status))
	return nil
}

const runColumns = `id, question, target, status, final_sql, error, attempts, max_attempts,
	row_count, duration_ms, started_at, completed_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (*Run, error) {
	r := &Run{}
	err := sc.Scan(&r.ID, &r.Question, &r.Target, &r.Status, &r.SQL, &r.Error, &r.Attempts,
		&r.MaxAttempts, &r.RowCount, &r.DurationMS, &r.StartedAt, &r.CompletedAt)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// GetRun retrieves a run by ID, including its attempts.
func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	run, err := scanRun(s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT sql, error FROM run_attempts WHERE run_id = ? ORDER BY seq`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get attempts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var a Attempt
		if err := rows.Scan(&a.SQL, &a.Error); err != nil {
			return nil, fmt.Errorf("failed to scan attempt: %w", err)
		}
		run.History = append(run.History, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read attempts: %w", err)
	}
	return run, nil
}

// ListRuns retrieves the most recent runs up to the given limit, newest
// first. Attempts are not loaded.
func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs ORDER BY started_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []*Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return runs, nil
}

// RunFromReport converts an engine report into a storable run.
func RunFromReport(r *engine.Report) *Run {
	run := &Run{
		ID:          r.RunID,
		Question:    r.Question,
		Target:      r.Target,
		Status:      string(r.Status),
		SQL:         r.SQL,
		Error:       r.Error,
		Attempts:    r.Attempts,
		MaxAttempts: r.MaxAttempts,
		RowCount:    len(r.Rows),
		DurationMS:  r.DurationMS,
		StartedAt:   r.StartedAt,
		CompletedAt: r.StartedAt.Add(r.Duration),
	}
	for _, a := range r.History {
		run.History = append(run.History, Attempt{SQL: a.SQL, Error: a.Error})
	}
	return run
}

// Recorder returns an engine observer that saves every finished run.
// Save failures are logged and never affect the run.
func Recorder(ctx context.Context, store Store, logger *slog.Logger) engine.Observer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return func(ev engine.Event) {
		if ev.Kind != engine.EventFinished || ev.Report == nil {
			return
		}
		if err := store.SaveRun(context.WithoutCancel(ctx), RunFromReport(ev.Report)); err != nil {
			logger.Warn("failed to record run", slog.String("run_id", ev.RunID), slog.String("error", err.Error()))
		}
	}
}
