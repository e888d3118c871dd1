// Package adapter provides the database adapter contract and registry
// for txt2sql's generate/execute/correct loop.
//
// This package contains the public contract that all database adapters must implement.
// Concrete adapter implementations are in pkg/adapters/ subdirectories and
// register themselves from init().
package adapter

import (
	"context"
	"database/sql"

	"github.com/leapstack-labs/txt2sql/pkg/core"
)

// Adapter hides per-backend connection, introspection and execution
// differences behind one contract. Every call opens its own connection.
type Adapter interface {
	// Connect opens a fresh single-connection handle and pings it.
	// The caller owns the handle and must close it.
	Connect(ctx context.Context) (*sql.DB, error)

	// DescribeSchema lists user tables and their ordered columns.
	DescribeSchema(ctx context.Context) (core.SchemaDescription, error)

	// Execute runs one statement. Failures, connect failures included,
	// are returned as a failure outcome rather than an error.
	Execute(ctx context.Context, statement string) core.ExecutionOutcome

	// DescribeConnection returns a redacted description of the target.
	DescribeConnection() string

	// Dialect returns the dialect name used in prompts.
	Dialect() string
}
