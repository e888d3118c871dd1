package adapter

import (
	"context"
	"log/slog"
	"testing"

	_ "github.com/DATA-DOG/go-sqlmock" // registers the sqlmock driver
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/txt2sql/pkg/core"
)

type fakeAdapter struct {
	BaseSQLAdapter
}

func (f *fakeAdapter) DescribeSchema(context.Context) (core.SchemaDescription, error) {
	return core.SchemaDescription{}, nil
}

func newFake(cfg core.TargetConfig, logger *slog.Logger) (Adapter, error) {
	if err := CheckRequired(cfg.Kind(), RequiredField{Key: "database", Value: cfg.Database}); err != nil {
		return nil, err
	}
	return &fakeAdapter{BaseSQLAdapter{
		DriverName:  "sqlmock",
		Target:      "Fake: " + cfg.Database,
		DialectName: "Fake",
		Logger:      logger,
	}}, nil
}

func init() {
	Register("fake_test", "sqlmock", newFake)
	Register("nodriver_test", "no_such_driver", newFake)
}

func TestConfigurationError_Error(t *testing.T) {
	err := &ConfigurationError{
		Type:      "fake_db",
		Reason:    "unknown adapter type",
		Available: []string{"duckdb", "oracle", "postgres", "sqlite"},
	}

	msg := err.Error()
	assert.Contains(t, msg, "fake_db", "error should mention the unknown type")
	assert.Contains(t, msg, "duckdb, oracle, postgres, sqlite")
	assert.Contains(t, msg, "txt2sql.yaml", "error should mention config file")
}

func TestRegister(t *testing.T) {
	assert.True(t, IsRegistered("fake_test"))
	assert.False(t, IsRegistered("unknown_db"))

	driver, ok := DriverName("fake_test")
	assert.True(t, ok)
	assert.Equal(t, "sqlmock", driver)

	assert.Contains(t, ListAdapters(), "fake_test")
	assert.True(t, DriverAvailable("fake_test"))
	assert.False(t, DriverAvailable("nodriver_test"))
	assert.False(t, DriverAvailable("unknown_db"))
}

func TestNew(t *testing.T) {
	tests := []struct {
		name       string
		cfg        core.TargetConfig
		wantErr    bool
		errContain string
		driverErr  bool
	}{
		{
			name:       "empty type",
			cfg:        core.TargetConfig{},
			wantErr:    true,
			errContain: "adapter type not specified",
		},
		{
			name:       "unknown type lists available",
			cfg:        core.TargetConfig{Type: "mystery"},
			wantErr:    true,
			errContain: "fake_test",
		},
		{
			name:      "driver not registered",
			cfg:       core.TargetConfig{Type: "nodriver_test", Database: "x"},
			wantErr:   true,
			driverErr: true,
		},
		{
			name:       "missing required field",
			cfg:        core.TargetConfig{Type: "fake_test"},
			wantErr:    true,
			errContain: "missing required field(s): database",
		},
		{
			name: "type is normalized",
			cfg:  core.TargetConfig{Type: " FAKE_TEST ", Database: "shop"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := New(tt.cfg, nil)
			if !tt.wantErr {
				require.NoError(t, err)
				assert.Equal(t, "Fake: shop", a.DescribeConnection())
				assert.Equal(t, "Fake", a.Dialect())
				return
			}

			require.Error(t, err)
			var cfgErr *ConfigurationError
			require.ErrorAs(t, err, &cfgErr)
			if tt.errContain != "" {
				assert.Contains(t, err.Error(), tt.errContain)
			}
			if tt.driverErr {
				assert.ErrorIs(t, err, ErrDriverUnavailable)
			}
		})
	}
}

func TestCheckRequired(t *testing.T) {
	err := CheckRequired("oracle",
		RequiredField{Key: "user", Value: ""},
		RequiredField{Key: "password", Value: "secret"},
		RequiredField{Key: "dsn", Value: "  "},
	)
	require.Error(t, err)
	assert.Equal(t, "invalid oracle target: missing required field(s): user, dsn", err.Error())
	assert.NotContains(t, err.Error(), "secret")

	assert.NoError(t, CheckRequired("sqlite", RequiredField{Key: "database", Value: "x.db"}))
}
