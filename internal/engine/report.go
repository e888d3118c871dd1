package engine

import "time"

// Status is the terminal status of a run.
type Status string

// Run statuses.
const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed" // correction cycles exhausted
	StatusFatal   Status = "fatal"  // not retried
	StatusSchema  Status = "schema" // answered with the schema description
)

// Attempt is one executed candidate and its error, if any.
type Attempt struct {
	SQL   string `json:"sql"`
	Error string `json:"error,omitempty"`
}

// Report is the externally visible result of a run.
type Report struct {
	RunID       string        `json:"run_id"`
	Status      Status        `json:"status"`
	Question    string        `json:"question"`
	Target      string        `json:"target"`
	SQL         string        `json:"sql,omitempty"`
	Columns     []string      `json:"columns,omitempty"`
	Rows        [][]any       `json:"rows,omitempty"`
	Message     string        `json:"message,omitempty"`
	Error       string        `json:"error,omitempty"`
	Attempts    int           `json:"attempts"`
	MaxAttempts int           `json:"max_attempts"`
	StartedAt   time.Time     `json:"started_at"`
	Duration    time.Duration `json:"-"`
	DurationMS  int64         `json:"duration_ms"`
	History     []Attempt     `json:"history,omitempty"`

	err error
}

// Err returns the *FatalError or *ExhaustedError behind a fatal or failed
// run, and nil otherwise.
func (r *Report) Err() error { return r.err }

// HasRows reports whether the report carries a result set.
func (r *Report) HasRows() bool {
	return r.Status == StatusSuccess && r.Columns != nil
}

func (rs *RunState) report(target string, started time.Time) *Report {
	elapsed := time.Since(started)
	r := &Report{
		RunID:       rs.ID,
		Question:    rs.Question,
		Target:      target,
		SQL:         rs.Candidate,
		Attempts:    rs.Attempts,
		MaxAttempts: rs.MaxAttempts,
		StartedAt:   started,
		Duration:    elapsed,
		DurationMS:  elapsed.Milliseconds(),
		History:     rs.History,
	}

	o := rs.outcome
	r.Status = o.status
	switch o.status {
	case StatusSuccess:
		if o.result.HasRows() {
			r.Columns = o.result.Columns()
			r.Rows = o.result.Rows()
		} else {
			r.Message = o.result.Status()
		}
	case StatusSchema:
		r.Message = rs.SchemaText
	case StatusFailed, StatusFatal:
		r.err = o.err
		r.Error = o.err.Error()
	}
	return r
}
