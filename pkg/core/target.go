package core

import (
	"fmt"
	"strings"
)

// TargetConfig holds database target configuration.
// Which fields are required depends on Type.
type TargetConfig struct {
	Type string `koanf:"type"` // sqlite, duckdb, oracle, postgres

	// File-based databases (SQLite, DuckDB); database name for PostgreSQL
	Database string `koanf:"database"`

	// Oracle network descriptor (host:port/service_name)
	DSN string `koanf:"dsn"`

	// Network databases
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`

	// Schema limits introspection to one namespace where the backend has them
	Schema string `koanf:"schema"`

	// Additional driver-specific options (e.g. sslmode)
	Options map[string]string `koanf:"options"`

	// Params holds adapter-specific configuration (e.g. DuckDB settings, SQLite pragmas)
	Params map[string]any `koanf:"params"`
}

// Kind returns the normalized backend kind.
func (t TargetConfig) Kind() string {
	return strings.ToLower(strings.TrimSpace(t.Type))
}

// String returns a redacted description of the target. The password is never included.
func (t TargetConfig) String() string {
	switch t.Kind() {
	case "oracle":
		return fmt.Sprintf("%s@%s", t.User, t.DSN)
	case "postgres":
		return fmt.Sprintf("%s@%s:%d/%s", t.User, t.Host, t.Port, t.Database)
	default:
		return t.Database
	}
}
