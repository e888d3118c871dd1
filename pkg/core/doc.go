// Package core defines the shared language of txt2sql.
//
// This package contains:
//   - Connection configuration (TargetConfig)
//   - Introspection results (SchemaDescription, Table, Column)
//   - Execution results (ExecutionOutcome)
//
// The Golden Rule: pkg/core imports ONLY the standard library.
// All other packages depend on core, not the reverse.
package core
