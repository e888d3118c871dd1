package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strings"

	"github.com/go-viper/mapstructure/v2"

	"github.com/leapstack-labs/txt2sql/pkg/adapter"
	"github.com/leapstack-labs/txt2sql/pkg/core"

	_ "modernc.org/sqlite" // sqlite driver
)

const driverName = "sqlite"

// Params holds SQLite-specific configuration.
// Parsed from core.TargetConfig.Params using mapstructure.
type Params struct {
	// Pragmas applied to every connection (e.g. foreign_keys: "1", busy_timeout: "5000")
	Pragmas map[string]string `mapstructure:"pragmas"`
}

// Adapter implements the adapter.Adapter interface for SQLite.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a SQLite adapter for the database file in cfg.Database.
// If logger is nil, a discard logger is used.
func New(cfg core.TargetConfig, logger *slog.Logger) (*Adapter, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if err := adapter.CheckRequired("sqlite", adapter.RequiredField{Key: "database", Value: cfg.Database}); err != nil {
		return nil, err
	}

	params, err := parseParams(cfg.Params)
	if err != nil {
		return nil, &adapter.ConfigurationError{Type: "sqlite", Reason: "invalid params", Err: err}
	}

	return &Adapter{
		BaseSQLAdapter: adapter.BaseSQLAdapter{
			DriverName:  driverName,
			DSN:         buildDSN(cfg.Database, params.Pragmas),
			Target:      "SQLite: " + cfg.Database,
			DialectName: "SQLite",
			Logger:      logger,
		},
	}, nil
}

func parseParams(raw map[string]any) (*Params, error) {
	p := &Params{}
	if len(raw) == 0 {
		return p, nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           p,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(raw); err != nil {
		return nil, err
	}
	return p, nil
}

// buildDSN appends pragmas in the driver's _pragma=name(value) form, sorted by name.
func buildDSN(path string, pragmas map[string]string) string {
	if len(pragmas) == 0 {
		return path
	}
	names := make([]string, 0, len(pragmas))
	for name := range pragmas {
		names = append(names, name)
	}
	sort.Strings(names)

	q := url.Values{}
	for _, name := range names {
		q.Add("_pragma", fmt.Sprintf("%s(%s)", name, pragmas[name]))
	}
	return path + "?" + q.Encode()
}

// DescribeSchema lists tables from sqlite_master and their columns via PRAGMA table_info.
func (a *Adapter) DescribeSchema(ctx context.Context) (core.SchemaDescription, error) {
	return a.Introspect(ctx, a.describe)
}

func (a *Adapter) describe(ctx context.Context, db *sql.DB) ([]core.Table, error) {
	names, err := adapter.QueryStrings(ctx, db, `
		SELECT name FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name
	`)
	if err != nil {
		return nil, &adapter.IntrospectionError{Target: a.Target, Err: err}
	}

	tables := make([]core.Table, 0, len(names))
	for _, name := range names {
		columns, err := tableInfo(ctx, db, name)
		if err != nil {
			return nil, &adapter.IntrospectionError{Target: a.Target, Table: name, Err: err}
		}
		tables = append(tables, core.Table{Name: name, Columns: columns})
	}
	return tables, nil
}

func tableInfo(ctx context.Context, db *sql.DB, table string) ([]core.Column, error) {
	query := fmt.Sprintf("PRAGMA table_info(%s)", quoteIdent(table)) //nolint:gosec // identifier is quoted
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var columns []core.Column
	for rows.Next() {
		var (
			cid     int
			name    string
			typ     string
			notNull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &dflt, &pk); err != nil {
			return nil, err
		}
		columns = append(columns, core.Column{
			Name:     name,
			Type:     typ,
			Nullable: notNull == 0,
			Position: cid + 1,
		})
	}
	return columns, rows.Err()
}

func quoteIdent(value string) string {
	return `"` + strings.ReplaceAll(value, `"`, `""`) + `"`
}

// Ensure Adapter implements adapter.Adapter interface
var _ adapter.Adapter = (*Adapter)(nil)
