package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsRowReturning(t *testing.T) {
	tests := []struct {
		name      string
		statement string
		want      bool
	}{
		{"plain select", "SELECT 1", true},
		{"lowercase select", "select name from customers", true},
		{"leading whitespace", "\n\t  SELECT 1", true},
		{"cte", "WITH x AS (SELECT 1) SELECT * FROM x", true},
		{"parenthesized", "(SELECT 1) UNION (SELECT 2)", true},
		{"line comment", "-- top customers\nSELECT * FROM customers", true},
		{"block comment", "/* report */ select 1", true},
		{"insert", "INSERT INTO t VALUES (1)", false},
		{"update", "update t set a = 1", false},
		{"create", "CREATE TABLE t (id INT)", false},
		{"selection is not select", "SELECTION", false},
		{"unterminated comment", "/* SELECT", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRowReturning(tt.statement))
		})
	}
}

func TestTrimTerminators(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"no terminator", "SELECT 1", "SELECT 1"},
		{"single", "SELECT 1;", "SELECT 1"},
		{"repeated with spaces", "  SELECT 1 ; ;\n", "SELECT 1"},
		{"inner semicolon kept", "SELECT ';' AS s;", "SELECT ';' AS s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TrimTerminators(tt.input))
		})
	}
}
