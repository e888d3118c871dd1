package adapter

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/txt2sql/pkg/core"
)

// Opener opens a database handle. Defaults to sql.Open.
type Opener func(driverName, dsn string) (*sql.DB, error)

// BaseSQLAdapter provides common database/sql functionality for adapters.
// Embed this struct in concrete adapter implementations to get standard
// Connect, Execute, DescribeConnection and Dialect implementations.
type BaseSQLAdapter struct {
	DriverName  string
	DSN         string
	Target      string // redacted description, e.g. "SQLite: ecommerce.db"
	DialectName string
	Logger      *slog.Logger
	Open        Opener

	// AfterConnect runs on every fresh handle before it is used,
	// e.g. to load extensions or apply session settings.
	AfterConnect func(ctx context.Context, db *sql.DB) error
}

func (b *BaseSQLAdapter) log() *slog.Logger {
	if b.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return b.Logger
}

// Connect opens a fresh single-connection handle and pings it.
func (b *BaseSQLAdapter) Connect(ctx context.Context) (*sql.DB, error) {
	open := b.Open
	if open == nil {
		open = sql.Open
	}

	b.log().Debug("connecting", slog.String("target", b.Target))

	db, err := open(b.DriverName, b.DSN)
	if err != nil {
		return nil, &ConnectionError{Target: b.Target, Err: err}
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, &ConnectionError{Target: b.Target, Err: err}
	}

	if b.AfterConnect != nil {
		if err := b.AfterConnect(ctx, db); err != nil {
			_ = db.Close()
			return nil, &ConnectionError{Target: b.Target, Err: err}
		}
	}
	return db, nil
}

func (b *BaseSQLAdapter) closeDB(db *sql.DB) {
	if err := db.Close(); err != nil {
		b.log().Debug("closing database connection failed", slog.String("error", err.Error()))
	}
}

// DescribeConnection returns the redacted target description.
func (b *BaseSQLAdapter) DescribeConnection() string {
	return b.Target
}

// Dialect returns the dialect name used in prompts.
func (b *BaseSQLAdapter) Dialect() string {
	return b.DialectName
}

// Execute runs one statement on a fresh connection and always closes it.
func (b *BaseSQLAdapter) Execute(ctx context.Context, statement string) core.ExecutionOutcome {
	stmt := core.TrimTerminators(statement)
	if stmt == "" {
		return core.FailureOutcome("empty statement")
	}

	db, err := b.Connect(ctx)
	if err != nil {
		return core.FailureOutcome(err.Error())
	}
	defer b.closeDB(db)

	if core.IsRowReturning(stmt) {
		b.log().Debug("executing query", slog.String("sql", stmt))
		//nolint:rowserrcheck // checked in scanRows
		rows, err := db.QueryContext(ctx, stmt)
		if err != nil {
			return core.FailureOutcome(err.Error())
		}
		columns, values, err := scanRows(rows)
		if err != nil {
			return core.FailureOutcome(err.Error())
		}
		return core.RowsOutcome(columns, values)
	}

	b.log().Debug("executing statement", slog.String("sql", stmt))
	res, err := db.ExecContext(ctx, stmt)
	if err != nil {
		return core.FailureOutcome(err.Error())
	}
	affected, err := res.RowsAffected()
	if err != nil {
		affected = 0
	}
	return core.StatusOutcome(fmt.Sprintf("Query OK. Rows affected: %d", affected))
}

// Introspect connects, runs the backend catalog queries in fn and closes the
// connection even when fn fails. Errors from fn become IntrospectionErrors.
func (b *BaseSQLAdapter) Introspect(ctx context.Context, fn func(ctx context.Context, db *sql.DB) ([]core.Table, error)) (core.SchemaDescription, error) {
	db, err := b.Connect(ctx)
	if err != nil {
		return core.SchemaDescription{}, err
	}
	defer b.closeDB(db)

	tables, err := fn(ctx, db)
	if err != nil {
		var ie *IntrospectionError
		if !errors.As(err, &ie) {
			err = &IntrospectionError{Target: b.Target, Err: err}
		}
		return core.SchemaDescription{}, err
	}

	b.log().Debug("schema described", slog.Int("tables", len(tables)))
	return core.SchemaDescription{Tables: tables}, nil
}

// QueryStrings runs a query returning a single string column.
func QueryStrings(ctx context.Context, db *sql.DB, query string, args ...any) ([]string, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// FormatType appends a length to a type name when one is reported.
func FormatType(typ string, length sql.NullInt64) string {
	if length.Valid && length.Int64 > 0 {
		return fmt.Sprintf("%s(%d)", typ, length.Int64)
	}
	return typ
}

// Placeholder formats the n-th (1-based) bind parameter for a backend.
type Placeholder func(n int) string

// QuestionPlaceholder formats bind parameters as ?.
func QuestionPlaceholder(int) string { return "?" }

// DollarPlaceholder formats bind parameters as $n.
func DollarPlaceholder(n int) string { return fmt.Sprintf("$%d", n) }

// DescribeInformationSchema reads user tables and columns of one schema
// from information_schema. Character types carry their maximum length.
func (b *BaseSQLAdapter) DescribeInformationSchema(ctx context.Context, db *sql.DB, schema string, p Placeholder) ([]core.Table, error) {
	//nolint:gosec // Placeholders are safe - they come from Placeholder funcs
	tablesQuery := fmt.Sprintf(`
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = %s AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`, p(1))

	names, err := QueryStrings(ctx, db, tablesQuery, schema)
	if err != nil {
		return nil, &IntrospectionError{Target: b.Target, Err: err}
	}

	//nolint:gosec // Placeholders are safe - they come from Placeholder funcs
	columnsQuery := fmt.Sprintf(`
		SELECT
			column_name,
			data_type,
			character_maximum_length,
			is_nullable,
			ordinal_position
		FROM information_schema.columns
		WHERE table_schema = %s AND table_name = %s
		ORDER BY ordinal_position
	`, p(1), p(2))

	tables := make([]core.Table, 0, len(names))
	for _, name := range names {
		columns, err := b.scanInformationSchemaColumns(ctx, db, columnsQuery, schema, name)
		if err != nil {
			return nil, &IntrospectionError{Target: b.Target, Table: name, Err: err}
		}
		tables = append(tables, core.Table{Name: name, Columns: columns})
	}
	return tables, nil
}

func (b *BaseSQLAdapter) scanInformationSchemaColumns(ctx context.Context, db *sql.DB, query, schema, table string) ([]core.Column, error) {
	rows, err := db.QueryContext(ctx, query, schema, table)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var columns []core.Column
	for rows.Next() {
		var (
			col      core.Column
			typ      string
			length   sql.NullInt64
			nullable string
		)
		if err := rows.Scan(&col.Name, &typ, &length, &nullable, &col.Position); err != nil {
			return nil, err
		}
		col.Type = FormatType(typ, length)
		col.Nullable = nullable == "YES"
		columns = append(columns, col)
	}
	return columns, rows.Err()
}

// scanRows reads a whole result set and normalizes driver byte slices to strings.
func scanRows(rows *sql.Rows) ([]string, [][]any, error) {
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}

	result := make([][]any, 0)
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, err
		}
		result = append(result, normalizeValues(values))
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}
	return columns, result, nil
}

func normalizeValues(values []any) []any {
	normalized := make([]any, len(values))
	for i, value := range values {
		switch typed := value.(type) {
		case []byte:
			normalized[i] = string(typed)
		default:
			normalized[i] = typed
		}
	}
	return normalized
}
