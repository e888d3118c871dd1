package oracle

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	go_ora "github.com/sijms/go-ora/v2"

	"github.com/leapstack-labs/txt2sql/pkg/adapter"
	"github.com/leapstack-labs/txt2sql/pkg/core"
)

const (
	driverName  = "oracle"
	defaultPort = 1521
)

// characterTypes render with their length in schema descriptions.
var characterTypes = map[string]bool{
	"VARCHAR2":  true,
	"CHAR":      true,
	"NVARCHAR2": true,
	"NCHAR":     true,
}

// Adapter implements the adapter.Adapter interface for Oracle.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates an Oracle adapter from a user, password and an easy-connect
// descriptor (host[:port]/service_name).
// If logger is nil, a discard logger is used.
func New(cfg core.TargetConfig, logger *slog.Logger) (*Adapter, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if err := adapter.CheckRequired("oracle",
		adapter.RequiredField{Key: "user", Value: cfg.User},
		adapter.RequiredField{Key: "password", Value: cfg.Password},
		adapter.RequiredField{Key: "dsn", Value: cfg.DSN},
	); err != nil {
		return nil, err
	}

	host, port, service, err := parseEasyConnect(cfg.DSN)
	if err != nil {
		return nil, &adapter.ConfigurationError{Type: "oracle", Reason: "invalid dsn", Err: err}
	}

	return &Adapter{
		BaseSQLAdapter: adapter.BaseSQLAdapter{
			DriverName:  driverName,
			DSN:         go_ora.BuildUrl(host, port, service, cfg.User, cfg.Password, cfg.Options),
			Target:      "Oracle: " + cfg.String(),
			DialectName: "Oracle",
			Logger:      logger,
		},
	}, nil
}

// parseEasyConnect splits "host[:port]/service_name".
func parseEasyConnect(dsn string) (host string, port int, service string, err error) {
	dsn = strings.TrimPrefix(strings.TrimSpace(dsn), "//")
	hostPort, service, ok := strings.Cut(dsn, "/")
	if !ok || hostPort == "" || service == "" {
		return "", 0, "", fmt.Errorf("expected host[:port]/service_name, got %q", dsn)
	}

	host, portStr, hasPort := strings.Cut(hostPort, ":")
	port = defaultPort
	if hasPort {
		port, err = strconv.Atoi(portStr)
		if err != nil || port <= 0 {
			return "", 0, "", fmt.Errorf("invalid port %q", portStr)
		}
	}
	return host, port, service, nil
}

// DescribeSchema lists user_tables and their user_tab_columns ordered by column_id.
func (a *Adapter) DescribeSchema(ctx context.Context) (core.SchemaDescription, error) {
	return a.Introspect(ctx, a.describe)
}

func (a *Adapter) describe(ctx context.Context, db *sql.DB) ([]core.Table, error) {
	names, err := adapter.QueryStrings(ctx, db, "SELECT table_name FROM user_tables ORDER BY table_name")
	if err != nil {
		return nil, &adapter.IntrospectionError{Target: a.Target, Err: err}
	}

	tables := make([]core.Table, 0, len(names))
	for _, name := range names {
		columns, err := tableColumns(ctx, db, name)
		if err != nil {
			return nil, &adapter.IntrospectionError{Target: a.Target, Table: name, Err: err}
		}
		tables = append(tables, core.Table{Name: name, Columns: columns})
	}
	return tables, nil
}

func tableColumns(ctx context.Context, db *sql.DB, table string) ([]core.Column, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT column_name, data_type, data_length, nullable
		FROM user_tab_columns
		WHERE table_name = :1
		ORDER BY column_id
	`, table)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var columns []core.Column
	for rows.Next() {
		var (
			name     string
			typ      string
			length   sql.NullInt64
			nullable string
		)
		if err := rows.Scan(&name, &typ, &length, &nullable); err != nil {
			return nil, err
		}
		if !characterTypes[typ] {
			length = sql.NullInt64{}
		}
		columns = append(columns, core.Column{
			Name:     name,
			Type:     adapter.FormatType(typ, length),
			Nullable: nullable == "Y",
			Position: len(columns) + 1,
		})
	}
	return columns, rows.Err()
}

// Ensure Adapter implements adapter.Adapter interface
var _ adapter.Adapter = (*Adapter)(nil)
