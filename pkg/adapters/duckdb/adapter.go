package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/txt2sql/pkg/adapter"
	"github.com/leapstack-labs/txt2sql/pkg/core"

	_ "github.com/marcboeker/go-duckdb" // duckdb driver
)

const (
	driverName    = "duckdb"
	defaultSchema = "main"
)

// Adapter implements the adapter.Adapter interface for DuckDB.
type Adapter struct {
	adapter.BaseSQLAdapter
	schema string
	params *Params
}

// New creates a DuckDB adapter for the database file in cfg.Database.
// An in-memory database (":memory:") is accepted but every call sees a fresh, empty database.
func New(cfg core.TargetConfig, logger *slog.Logger) (*Adapter, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if err := adapter.CheckRequired("duckdb", adapter.RequiredField{Key: "database", Value: cfg.Database}); err != nil {
		return nil, err
	}

	params, err := parseParams(cfg.Params)
	if err != nil {
		return nil, &adapter.ConfigurationError{Type: "duckdb", Reason: "invalid params", Err: err}
	}

	if cfg.Database == ":memory:" {
		logger.Warn("duckdb in-memory database does not persist between calls")
	}

	schema := cfg.Schema
	if schema == "" {
		schema = defaultSchema
	}

	a := &Adapter{
		BaseSQLAdapter: adapter.BaseSQLAdapter{
			DriverName:  driverName,
			DSN:         cfg.Database,
			Target:      "DuckDB: " + cfg.Database,
			DialectName: "DuckDB",
			Logger:      logger,
		},
		schema: schema,
		params: params,
	}
	if stmts := params.sessionStatements(); len(stmts) > 0 {
		a.AfterConnect = a.applySession
	}
	return a, nil
}

// applySession installs extensions, applies settings and creates secrets on a fresh handle.
func (a *Adapter) applySession(ctx context.Context, db *sql.DB) error {
	for _, stmt := range a.params.sessionStatements() {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply session statement: %w", err)
		}
	}
	return nil
}

// DescribeSchema reads tables and columns of the configured schema from information_schema.
func (a *Adapter) DescribeSchema(ctx context.Context) (core.SchemaDescription, error) {
	return a.Introspect(ctx, func(ctx context.Context, db *sql.DB) ([]core.Table, error) {
		return a.DescribeInformationSchema(ctx, db, a.schema, adapter.QuestionPlaceholder)
	})
}

// Ensure Adapter implements adapter.Adapter interface
var _ adapter.Adapter = (*Adapter)(nil)
