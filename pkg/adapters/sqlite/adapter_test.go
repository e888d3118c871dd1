package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/txt2sql/pkg/adapter"
	"github.com/leapstack-labs/txt2sql/pkg/core"
	"github.com/leapstack-labs/txt2sql/internal/testutil"
)

func newTestAdapter(t *testing.T) *Adapter {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ecommerce.db")
	a, err := New(core.TargetConfig{Type: "sqlite", Database: path}, testutil.NewTestLogger(t))
	require.NoError(t, err)

	ctx := context.Background()
	for _, stmt := range []string{
		`CREATE TABLE customers (id INTEGER PRIMARY KEY, name TEXT NOT NULL, email TEXT, city TEXT)`,
		`CREATE TABLE orders (id INTEGER PRIMARY KEY, customer_id INTEGER NOT NULL REFERENCES customers(id), total REAL)`,
		`INSERT INTO customers (name, email, city) VALUES ('Ann', 'ann@example.com', 'New York'), ('Bob', 'bob@example.com', 'Boston')`,
	} {
		out := a.Execute(ctx, stmt)
		require.True(t, out.Succeeded(), out.Message())
	}
	return a
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     core.TargetConfig
		wantDSN string
		wantErr string
	}{
		{
			name:    "plain path",
			cfg:     core.TargetConfig{Type: "sqlite", Database: "ecommerce.db"},
			wantDSN: "ecommerce.db",
		},
		{
			name: "pragmas sorted into dsn",
			cfg: core.TargetConfig{Type: "sqlite", Database: "shop.db", Params: map[string]any{
				"pragmas": map[string]any{"foreign_keys": 1, "busy_timeout": "5000"},
			}},
			wantDSN: "shop.db?_pragma=busy_timeout%285000%29&_pragma=foreign_keys%281%29",
		},
		{
			name:    "missing database",
			cfg:     core.TargetConfig{Type: "sqlite"},
			wantErr: "missing required field(s): database",
		},
		{
			name:    "unknown param",
			cfg:     core.TargetConfig{Type: "sqlite", Database: "x.db", Params: map[string]any{"journal": "wal"}},
			wantErr: "invalid params",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := New(tt.cfg, nil)
			if tt.wantErr != "" {
				var cfgErr *adapter.ConfigurationError
				require.ErrorAs(t, err, &cfgErr)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantDSN, a.DSN)
			assert.Equal(t, "SQLite: "+tt.cfg.Database, a.DescribeConnection())
			assert.Equal(t, "SQLite", a.Dialect())
		})
	}
}

func TestSelfRegistration(t *testing.T) {
	assert.True(t, adapter.IsRegistered("sqlite"))
	assert.True(t, adapter.DriverAvailable("sqlite"))

	a, err := adapter.New(core.TargetConfig{Type: "sqlite", Database: "ecommerce.db"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "SQLite: ecommerce.db", a.DescribeConnection())
}

func TestAdapter_DescribeSchema(t *testing.T) {
	a := newTestAdapter(t)

	schema, err := a.DescribeSchema(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"customers", "orders"}, schema.TableNames())
	assert.Equal(t,
		"Table: customers\n"+
			"  - id (INTEGER) NULL\n"+
			"  - name (TEXT) NOT NULL\n"+
			"  - email (TEXT) NULL\n"+
			"  - city (TEXT) NULL\n\n"+
			"Table: orders\n"+
			"  - id (INTEGER) NULL\n"+
			"  - customer_id (INTEGER) NOT NULL\n"+
			"  - total (REAL) NULL",
		schema.String())
}

func TestAdapter_Execute(t *testing.T) {
	a := newTestAdapter(t)
	ctx := context.Background()

	t.Run("select", func(t *testing.T) {
		out := a.Execute(ctx, "SELECT name, email FROM customers WHERE city = 'New York';")
		require.True(t, out.HasRows(), out.Message())
		assert.Equal(t, []string{"name", "email"}, out.Columns())
		assert.Equal(t, [][]any{{"Ann", "ann@example.com"}}, out.Rows())
	})

	t.Run("update reports rows affected", func(t *testing.T) {
		out := a.Execute(ctx, "UPDATE customers SET city = 'NYC' WHERE city = 'New York'")
		require.True(t, out.Succeeded(), out.Message())
		assert.Equal(t, "Query OK. Rows affected: 1", out.Status())
	})

	t.Run("bad table is a failure value", func(t *testing.T) {
		out := a.Execute(ctx, "SELECT * FROM nope")
		assert.False(t, out.Succeeded())
		assert.Contains(t, out.Message(), "no such table")
	})
}

func TestAdapter_DescribeSchema_MissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "db.sqlite")
	a, err := New(core.TargetConfig{Type: "sqlite", Database: path}, nil)
	require.NoError(t, err)

	_, err = a.DescribeSchema(context.Background())
	var connErr *adapter.ConnectionError
	require.ErrorAs(t, err, &connErr)
}
