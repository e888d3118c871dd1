package engine

import (
	"github.com/leapstack-labs/txt2sql/pkg/adapter"
	"github.com/leapstack-labs/txt2sql/pkg/core"
)

// State is a step of the generate/execute/correct loop.
type State int

// Loop states. Done is terminal.
const (
	StateFetchingSchema State = iota
	StateGenerating
	StateExecuting
	StateCorrecting
	StateDone
)

func (s State) String() string {
	switch s {
	case StateFetchingSchema:
		return "fetching_schema"
	case StateGenerating:
		return "generating"
	case StateExecuting:
		return "executing"
	case StateCorrecting:
		return "correcting"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// RunState is owned by a single Run call and passed by pointer through the
// state handlers. Each handler writes only the fields it owns.
type RunState struct {
	ID       string
	Question string
	Adapter  adapter.Adapter

	// Captured once in FetchingSchema.
	Schema     core.SchemaDescription
	SchemaText string

	// Overwritten by Generating and Correcting.
	Candidate string
	// Set by Executing, cleared whenever a new candidate is produced.
	LastError string

	// Correction cycles so far. Never exceeds MaxAttempts.
	Attempts    int
	MaxAttempts int

	History []Attempt

	outcome *outcome
}

type outcome struct {
	status Status
	result core.ExecutionOutcome
	err    error
}

// setOutcome records the terminal outcome. It may be called once per run.
func (rs *RunState) setOutcome(o outcome) {
	if rs.outcome != nil {
		panic("engine: run outcome set twice")
	}
	rs.outcome = &o
}

// Finished reports whether the terminal outcome has been set.
func (rs *RunState) Finished() bool { return rs.outcome != nil }
