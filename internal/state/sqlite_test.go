package state

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/txt2sql/internal/engine"
	"github.com/leapstack-labs/txt2sql/internal/testutil"
)

func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), ".txt2sql", "history.db"), testutil.NewTestLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func sampleRun(id, question string, started time.Time) *Run {
	return &Run{
		ID:          id,
		Question:    question,
		Target:      "SQLite: ecommerce.db",
		Status:      "success",
		SQL:         "SELECT name FROM customers",
		Attempts:    1,
		MaxAttempts: 3,
		RowCount:    2,
		DurationMS:  42,
		StartedAt:   started,
		CompletedAt: started.Add(42 * time.Millisecond),
		History: []Attempt{
			{SQL: "SELECT name FROM customer", Error: "no such table: customer"},
			{SQL: "SELECT name FROM customers"},
		},
	}
}

func TestSQLiteStore_OpenMemory(t *testing.T) {
	store, err := Open(":memory:", nil)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	version, err := store.GetMigrationVersion()
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)
}

func TestSQLiteStore_MigrateIsIdempotent(t *testing.T) {
	store := setupTestStore(t)
	require.NoError(t, store.Migrate())

	version, err := store.GetMigrationVersion()
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)
}

func TestSQLiteStore_NotOpened(t *testing.T) {
	store := NewSQLiteStore(nil)
	ctx := context.Background()

	assert.Error(t, store.Migrate())
	assert.Error(t, store.SaveRun(ctx, &Run{}))
	_, err := store.GetRun(ctx, "x")
	assert.Error(t, err)
	_, err = store.ListRuns(ctx, 10)
	assert.Error(t, err)
	assert.NoError(t, store.Close())
}

func TestSQLiteStore_SaveAndGet(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	started := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, store.SaveRun(ctx, sampleRun("run-1", "who buys?", started)))

	got, err := store.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, "who buys?", got.Question)
	assert.Equal(t, "SQLite: ecommerce.db", got.Target)
	assert.Equal(t, "success", got.Status)
	assert.Equal(t, "SELECT name FROM customers", got.SQL)
	assert.Equal(t, 1, got.Attempts)
	assert.Equal(t, 3, got.MaxAttempts)
	assert.Equal(t, 2, got.RowCount)
	assert.Equal(t, int64(42), got.DurationMS)
	assert.True(t, started.Equal(got.StartedAt), "started_at = %v", got.StartedAt)
	require.Len(t, got.History, 2)
	assert.Equal(t, "no such table: customer", got.History[0].Error)
	assert.Empty(t, got.History[1].Error)
}

func TestSQLiteStore_DuplicateID(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	run := sampleRun("dup", "q", time.Now())

	require.NoError(t, store.SaveRun(ctx, run))
	assert.Error(t, store.SaveRun(ctx, run))
}

func TestSQLiteStore_GetRunNotFound(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.GetRun(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRunNotFound))
}

func TestSQLiteStore_ListRuns(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, store.SaveRun(ctx, sampleRun(id, "q "+id, base.Add(time.Duration(i)*time.Minute))))
	}

	tests := []struct {
		name  string
		limit int
		want  []string
	}{
		{"all", 10, []string{"c", "b", "a"}},
		{"limited", 2, []string{"c", "b"}},
		{"zero means unlimited", 0, []string{"c", "b", "a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runs, err := store.ListRuns(ctx, tt.limit)
			require.NoError(t, err)
			ids := make([]string, len(runs))
			for i, r := range runs {
				ids[i] = r.ID
				assert.Nil(t, r.History)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestRunFromReport(t *testing.T) {
	started := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	report := &engine.Report{
		RunID:       "r1",
		Status:      engine.StatusSuccess,
		Question:    "q",
		Target:      "SQLite: x.db",
		SQL:         "SELECT 1",
		Rows:        [][]any{{1}, {2}},
		Attempts:    0,
		MaxAttempts: 3,
		StartedAt:   started,
		Duration:    1500 * time.Millisecond,
		DurationMS:  1500,
		History:     []engine.Attempt{{SQL: "SELECT 1"}},
	}

	run := RunFromReport(report)
	assert.Equal(t, "r1", run.ID)
	assert.Equal(t, "success", run.Status)
	assert.Equal(t, 2, run.RowCount)
	assert.Equal(t, started.Add(1500*time.Millisecond), run.CompletedAt)
	assert.Equal(t, []Attempt{{SQL: "SELECT 1"}}, run.History)
}

func TestRecorder(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	rec := Recorder(ctx, store, testutil.NewTestLogger(t))

	rec(engine.Event{Kind: engine.EventExecuted, RunID: "ignored"})
	rec(engine.Event{Kind: engine.EventFinished, RunID: "r2", Report: &engine.Report{
		RunID:     "r2",
		Status:    engine.StatusFailed,
		Question:  "q",
		Target:    "t",
		Error:     "Failed to execute SQL after 0 attempts. Last error: boom",
		StartedAt: time.Now(),
		History:   []engine.Attempt{{SQL: "SELEC 1", Error: "boom"}},
	}})

	runs, err := store.ListRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "r2", runs[0].ID)
	assert.Equal(t, "failed", runs[0].Status)

	// A second save of the same run is logged, not fatal.
	rec(engine.Event{Kind: engine.EventFinished, RunID: "r2", Report: &engine.Report{RunID: "r2", StartedAt: time.Now()}})
}
