// Package oracle provides an Oracle database adapter for txt2sql, backed by
// the pure-Go go-ora driver.
//
// This file registers the Oracle adapter with the adapter registry.
// Import this package with a blank identifier to register the adapter:
//
//	import _ "github.com/leapstack-labs/txt2sql/pkg/adapters/oracle"
package oracle

import (
	"log/slog"

	"github.com/leapstack-labs/txt2sql/pkg/adapter"
	"github.com/leapstack-labs/txt2sql/pkg/core"
)

func init() {
	adapter.Register("oracle", driverName, func(cfg core.TargetConfig, logger *slog.Logger) (adapter.Adapter, error) {
		return New(cfg, logger)
	})
}
