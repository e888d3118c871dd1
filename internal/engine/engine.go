// Package engine runs the self-correcting text-to-SQL loop: fetch the
// schema, generate a candidate statement, execute it and, on failure, ask the
// generator for a correction, bounded by an attempt limit.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/leapstack-labs/txt2sql/internal/llm"
	"github.com/leapstack-labs/txt2sql/pkg/adapter"
	"github.com/leapstack-labs/txt2sql/pkg/extract"
)

// DefaultMaxAttempts is the default number of correction cycles.
const DefaultMaxAttempts = 3

// Engine is stateless configuration; each Run gets its own RunState, so
// concurrent runs are safe.
type Engine struct {
	adapter     adapter.Adapter
	generator   llm.Generator
	maxAttempts int
	logger      *slog.Logger
	observer    Observer
}

// Config holds engine configuration.
type Config struct {
	// Adapter is the database target (required)
	Adapter adapter.Adapter
	// Generator produces SQL from prompts (required)
	Generator llm.Generator
	// MaxAttempts is the number of correction cycles; zero means a single execution
	MaxAttempts int
	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
	// Observer receives loop events (optional)
	Observer Observer
}

// New creates an engine.
func New(cfg Config) (*Engine, error) {
	if cfg.Adapter == nil {
		return nil, errors.New("engine: adapter is required")
	}
	if cfg.Generator == nil {
		return nil, errors.New("engine: generator is required")
	}
	if cfg.MaxAttempts < 0 {
		return nil, fmt.Errorf("engine: max attempts must be >= 0, got %d", cfg.MaxAttempts)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Engine{
		adapter:     cfg.Adapter,
		generator:   cfg.Generator,
		maxAttempts: cfg.MaxAttempts,
		logger:      logger,
		observer:    cfg.Observer,
	}, nil
}

// Adapter returns the engine's database target.
func (e *Engine) Adapter() adapter.Adapter { return e.adapter }

// MaxAttempts returns the configured correction limit.
func (e *Engine) MaxAttempts() int { return e.maxAttempts }

// RunOption customizes a single run.
type RunOption func(*RunState)

// WithMaxAttempts overrides the correction limit for one run. Negative values are ignored.
func WithMaxAttempts(n int) RunOption {
	return func(rs *RunState) {
		if n >= 0 {
			rs.MaxAttempts = n
		}
	}
}

// Run answers one question. It always returns a report; Report.Err is
// non-nil for failed and fatal runs.
func (e *Engine) Run(ctx context.Context, question string, opts ...RunOption) *Report {
	started := time.Now()
	rs := &RunState{
		ID:          uuid.NewString(),
		Question:    question,
		Adapter:     e.adapter,
		MaxAttempts: e.maxAttempts,
	}
	for _, opt := range opts {
		opt(rs)
	}

	log := e.logger.With(slog.String("run_id", rs.ID))
	log.Debug("starting run", slog.String("question", question), slog.Int("max_attempts", rs.MaxAttempts))

	// A step reaching StateDone without an outcome falls through to the
	// step default and ends the run as fatal.
	state := StateFetchingSchema
	for !rs.Finished() {
		if err := ctx.Err(); err != nil {
			rs.setOutcome(outcome{status: StatusFatal, err: &FatalError{Stage: state, Err: err}})
			continue
		}

		next, err := e.step(ctx, state, rs)
		if err != nil {
			log.Debug("run aborted", slog.String("state", state.String()), slog.String("error", err.Error()))
			rs.setOutcome(outcome{status: StatusFatal, err: &FatalError{Stage: state, Err: err}})
			continue
		}

		log.Debug("transition",
			slog.String("state", state.String()),
			slog.String("next", next.String()),
			slog.Int("attempt", rs.Attempts))
		state = next
	}

	report := rs.report(e.adapter.DescribeConnection(), started)
	log.Info("run finished",
		slog.String("status", string(report.Status)),
		slog.Int("attempts", report.Attempts),
		slog.Duration("duration", report.Duration))
	e.emit(Event{RunID: rs.ID, Kind: EventFinished, Report: report})
	return report
}

func (e *Engine) step(ctx context.Context, state State, rs *RunState) (State, error) {
	switch state {
	case StateFetchingSchema:
		return e.fetchSchema(ctx, rs)
	case StateGenerating:
		return e.generate(ctx, rs)
	case StateExecuting:
		return e.execute(ctx, rs)
	case StateCorrecting:
		return e.correct(ctx, rs)
	default:
		return StateDone, fmt.Errorf("no handler for state %s", state)
	}
}

func (e *Engine) emit(ev Event) {
	if e.observer != nil {
		e.observer(ev)
	}
}

func (e *Engine) fetchSchema(ctx context.Context, rs *RunState) (State, error) {
	schema, err := rs.Adapter.DescribeSchema(ctx)
	if err != nil {
		return StateDone, err
	}
	rs.Schema = schema
	rs.SchemaText = schema.String()
	e.emit(Event{RunID: rs.ID, Kind: EventSchemaFetched, Schema: rs.SchemaText})
	return StateGenerating, nil
}

func (e *Engine) generate(ctx context.Context, rs *RunState) (State, error) {
	if IsSchemaQuestion(rs.Question) {
		rs.setOutcome(outcome{status: StatusSchema})
		return StateDone, nil
	}

	prompt := GenerationPrompt(rs.Adapter.Dialect(), rs.SchemaText, rs.Question)
	stmt, err := e.ask(ctx, rs, StepGenerate, prompt)
	if err != nil {
		return StateDone, err
	}

	rs.Candidate = stmt
	rs.LastError = ""
	rs.Attempts = 0
	e.emit(Event{RunID: rs.ID, Kind: EventCandidate, Step: StepGenerate, Attempt: 1, SQL: stmt})
	return StateExecuting, nil
}

func (e *Engine) execute(ctx context.Context, rs *RunState) (State, error) {
	out := rs.Adapter.Execute(ctx, rs.Candidate)
	attempt := Attempt{SQL: rs.Candidate, Error: out.Message()}
	rs.History = append(rs.History, attempt)
	e.emit(Event{RunID: rs.ID, Kind: EventExecuted, Attempt: len(rs.History), SQL: attempt.SQL, Error: attempt.Error})

	if out.Succeeded() {
		rs.setOutcome(outcome{status: StatusSuccess, result: out})
		return StateDone, nil
	}

	rs.LastError = out.Message()
	if rs.Attempts >= rs.MaxAttempts {
		rs.setOutcome(outcome{
			status: StatusFailed,
			err:    &ExhaustedError{Attempts: rs.MaxAttempts, LastError: rs.LastError},
		})
		return StateDone, nil
	}
	rs.Attempts++
	return StateCorrecting, nil
}

func (e *Engine) correct(ctx context.Context, rs *RunState) (State, error) {
	prompt := CorrectionPrompt(rs.Adapter.Dialect(), rs.SchemaText, rs.Question, rs.Candidate, rs.LastError)
	stmt, err := e.ask(ctx, rs, StepCorrect, prompt)
	if err != nil {
		return StateDone, err
	}

	rs.Candidate = stmt
	rs.LastError = ""
	e.emit(Event{RunID: rs.ID, Kind: EventCandidate, Step: StepCorrect, Attempt: rs.Attempts + 1, SQL: stmt})
	return StateExecuting, nil
}

// ask calls the generator and extracts one statement from its response.
func (e *Engine) ask(ctx context.Context, rs *RunState, step, prompt string) (string, error) {
	e.emit(Event{RunID: rs.ID, Kind: EventGeneratorCalled, Step: step})

	response, err := e.generator.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("generator call failed: %w", err)
	}

	stmt, err := extract.SQL(response)
	if err != nil {
		e.logger.Debug("unusable generator response",
			slog.String("run_id", rs.ID),
			slog.String("step", step),
			slog.String("response", response))
		return "", err
	}
	return stmt, nil
}
