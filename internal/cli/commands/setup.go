// Package commands implements the txt2sql subcommands.
package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/txt2sql/internal/cli/output"
	"github.com/leapstack-labs/txt2sql/internal/config"
	"github.com/leapstack-labs/txt2sql/internal/engine"
	"github.com/leapstack-labs/txt2sql/internal/llm"
	"github.com/leapstack-labs/txt2sql/internal/metrics"
	"github.com/leapstack-labs/txt2sql/internal/state"
	"github.com/leapstack-labs/txt2sql/pkg/adapter"
	"github.com/spf13/cobra"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
}

// NewCommandContext reads the config and logger stored on the command context
// by the root command and builds a renderer for the configured output mode.
func NewCommandContext(cmd *cobra.Command) (*CommandContext, error) {
	cfg := config.FromContext(cmd.Context())
	if cfg == nil {
		return nil, fmt.Errorf("configuration not loaded")
	}
	if cfg.Target == nil {
		cfg.Target = &config.TargetConfig{}
		config.ApplyTargetDefaults(cfg.Target)
	}
	return &CommandContext{
		Cfg:      cfg,
		Logger:   config.GetLogger(cmd.Context()),
		Renderer: output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.OutputFormat)),
	}, nil
}

// newGenerator builds the text generator. Tests replace it.
var newGenerator = func(cfg config.LLMConfig) (llm.Generator, error) {
	return llm.NewOpenAI(llm.OpenAIConfig{
		BaseURL:     cfg.BaseURL,
		APIKey:      cfg.APIKey,
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
		Timeout:     cfg.Timeout,
	})
}

// Adapter builds the configured database adapter.
func (c *CommandContext) Adapter() (adapter.Adapter, error) {
	return adapter.New(*c.Cfg.Target, c.Logger)
}

// OpenStore opens the run history database at the configured state path.
func (c *CommandContext) OpenStore() (*state.SQLiteStore, error) {
	store, err := state.Open(c.Cfg.StatePath, c.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open history store: %w", err)
	}
	return store, nil
}

// Runtime is an engine plus the resources it owns.
type Runtime struct {
	Engine *engine.Engine
	// Store is nil when history is disabled
	Store state.Store
}

// Close releases the history store.
func (rt *Runtime) Close() {
	if rt.Store != nil {
		_ = rt.Store.Close()
	}
}

// NewRuntime wires adapter, generator, metrics, run history and the verbose
// progress printer into an engine.
func (c *CommandContext) NewRuntime(ctx context.Context) (*Runtime, error) {
	a, err := c.Adapter()
	if err != nil {
		return nil, err
	}
	gen, err := newGenerator(c.Cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("failed to create generator: %w", err)
	}

	rt := &Runtime{}
	observers := []engine.Observer{metrics.Observer()}
	if c.Cfg.History {
		store, err := c.OpenStore()
		if err != nil {
			return nil, err
		}
		rt.Store = store
		observers = append(observers, state.Recorder(ctx, store, c.Logger))
	}
	if c.Cfg.Verbose && c.Renderer.Mode() == output.ModeTable {
		observers = append(observers, progressPrinter(c.Renderer))
	}

	rt.Engine, err = engine.New(engine.Config{
		Adapter:     a,
		Generator:   gen,
		MaxAttempts: c.Cfg.MaxRetries,
		Logger:      c.Logger,
		Observer:    engine.MultiObserver(observers...),
	})
	if err != nil {
		rt.Close()
		return nil, err
	}
	return rt, nil
}
