// Package duckdb provides a DuckDB database adapter for txt2sql.
//
// This file registers the DuckDB adapter with the adapter registry.
// Import this package with a blank identifier to register the adapter:
//
//	import _ "github.com/leapstack-labs/txt2sql/pkg/adapters/duckdb"
package duckdb

import (
	"log/slog"

	"github.com/leapstack-labs/txt2sql/pkg/adapter"
	"github.com/leapstack-labs/txt2sql/pkg/core"
)

func init() {
	adapter.Register("duckdb", driverName, func(cfg core.TargetConfig, logger *slog.Logger) (adapter.Adapter, error) {
		return New(cfg, logger)
	})
}
