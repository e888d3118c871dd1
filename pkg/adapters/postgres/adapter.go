package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the pgx database/sql driver

	"github.com/leapstack-labs/txt2sql/pkg/adapter"
	"github.com/leapstack-labs/txt2sql/pkg/core"
)

const (
	driverName    = "pgx"
	defaultHost   = "localhost"
	defaultPort   = 5432
	defaultSchema = "public"
)

// Adapter implements the adapter.Adapter interface for PostgreSQL.
type Adapter struct {
	adapter.BaseSQLAdapter
	schema string
}

// New creates a PostgreSQL adapter instance.
// If logger is nil, a discard logger is used.
func New(cfg core.TargetConfig, logger *slog.Logger) (*Adapter, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if err := adapter.CheckRequired("postgres", adapter.RequiredField{Key: "database", Value: cfg.Database}); err != nil {
		return nil, err
	}

	if cfg.Host == "" {
		cfg.Host = defaultHost
	}
	if cfg.Port == 0 {
		cfg.Port = defaultPort
	}

	dsn := buildPostgresDSN(cfg)
	if _, err := pgx.ParseConfig(dsn); err != nil {
		return nil, &adapter.ConfigurationError{Type: "postgres", Reason: "invalid connection settings", Err: err}
	}

	schema := cfg.Schema
	if schema == "" {
		schema = defaultSchema
	}

	return &Adapter{
		BaseSQLAdapter: adapter.BaseSQLAdapter{
			DriverName:  driverName,
			DSN:         dsn,
			Target:      "PostgreSQL: " + cfg.String(),
			DialectName: "PostgreSQL",
			Logger:      logger,
		},
		schema: schema,
	}, nil
}

// buildPostgresDSN constructs a PostgreSQL key=value connection string.
// Options other than sslmode are appended sorted by key.
func buildPostgresDSN(cfg core.TargetConfig) string {
	host := cfg.Host
	if host == "" {
		host = defaultHost
	}

	port := cfg.Port
	if port == 0 {
		port = defaultPort
	}

	sslmode := "disable"
	if mode, ok := cfg.Options["sslmode"]; ok {
		sslmode = mode
	}

	dsn := fmt.Sprintf("host=%s port=%d dbname=%s sslmode=%s",
		quoteValue(host), port, quoteValue(cfg.Database), quoteValue(sslmode))

	if cfg.User != "" {
		dsn += " user=" + quoteValue(cfg.User)
	}
	if cfg.Password != "" {
		dsn += " password=" + quoteValue(cfg.Password)
	}

	keys := make([]string, 0, len(cfg.Options))
	for k := range cfg.Options {
		if k != "sslmode" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		dsn += fmt.Sprintf(" %s=%s", k, quoteValue(cfg.Options[k]))
	}

	return dsn
}

// quoteValue single-quotes a DSN value when it is empty or contains spaces,
// quotes or backslashes.
func quoteValue(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`)
	return "'" + r.Replace(v) + "'"
}

// DescribeSchema reads tables and columns of the configured schema from information_schema.
func (a *Adapter) DescribeSchema(ctx context.Context) (core.SchemaDescription, error) {
	return a.Introspect(ctx, func(ctx context.Context, db *sql.DB) ([]core.Table, error) {
		return a.DescribeInformationSchema(ctx, db, a.schema, adapter.DollarPlaceholder)
	})
}

// Ensure Adapter implements adapter.Adapter interface
var _ adapter.Adapter = (*Adapter)(nil)
