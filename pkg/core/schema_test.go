package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSchemaDescription_String(t *testing.T) {
	tests := []struct {
		name     string
		schema   SchemaDescription
		expected string
	}{
		{
			name:     "empty schema",
			schema:   SchemaDescription{},
			expected: "",
		},
		{
			name: "single table",
			schema: SchemaDescription{Tables: []Table{{
				Name: "customers",
				Columns: []Column{
					{Name: "id", Type: "INTEGER", Nullable: false, Position: 1},
					{Name: "email", Type: "TEXT", Nullable: true, Position: 2},
				},
			}}},
			expected: "Table: customers\n  - id (INTEGER) NOT NULL\n  - email (TEXT) NULL",
		},
		{
			name: "tables separated by blank line",
			schema: SchemaDescription{Tables: []Table{
				{Name: "a", Columns: []Column{{Name: "x", Type: "INT", Nullable: true}}},
				{Name: "b", Columns: []Column{{Name: "y", Type: "VARCHAR2(20)"}}},
			}},
			expected: "Table: a\n  - x (INT) NULL\n\nTable: b\n  - y (VARCHAR2(20)) NOT NULL",
		},
		{
			name: "untyped column",
			schema: SchemaDescription{Tables: []Table{
				{Name: "loose", Columns: []Column{{Name: "v", Nullable: true}}},
			}},
			expected: "Table: loose\n  - v NULL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.schema.String())
		})
	}
}

func TestSchemaDescription_TableNames(t *testing.T) {
	s := SchemaDescription{Tables: []Table{{Name: "orders"}, {Name: "customers"}}}
	assert.Equal(t, []string{"orders", "customers"}, s.TableNames())
}

func TestTargetConfig_String(t *testing.T) {
	tests := []struct {
		name     string
		target   TargetConfig
		expected string
	}{
		{"sqlite", TargetConfig{Type: "sqlite", Database: "ecommerce.db"}, "ecommerce.db"},
		{"oracle", TargetConfig{Type: "Oracle", User: "hr", Password: "welcome", DSN: "localhost:1521/XE"}, "hr@localhost:1521/XE"},
		{"postgres", TargetConfig{Type: "postgres", User: "app", Password: "secret", Host: "db", Port: 5432, Database: "shop"}, "app@db:5432/shop"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.target.String()
			assert.Equal(t, tt.expected, got)
			if tt.target.Password != "" {
				assert.NotContains(t, got, tt.target.Password)
			}
		})
	}
}
