// Package state records the history of answered questions in SQLite.
package state

import (
	"context"
	"errors"
	"time"
)

// ErrRunNotFound is returned by GetRun for an unknown id.
var ErrRunNotFound = errors.New("run not found")

// Run is one recorded question and how it ended.
type Run struct {
	ID          string
	Question    string
	Target      string
	Status      string
	SQL         string
	Error       string
	Attempts    int
	MaxAttempts int
	RowCount    int
	DurationMS  int64
	StartedAt   time.Time
	CompletedAt time.Time
	History     []Attempt
}

// Attempt is one executed statement within a run.
type Attempt struct {
	SQL   string
	Error string
}

// Store persists runs.
type Store interface {
	SaveRun(ctx context.Context, run *Run) error
	GetRun(ctx context.Context, id string) (*Run, error)
	ListRuns(ctx context.Context, limit int) ([]*Run, error)
	Close() error
}
