package duckdb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseParams(t *testing.T) {
	tests := []struct {
		name string
		raw  map[string]any
		want *Params
	}{
		{"nil", nil, &Params{}},
		{
			name: "settings coerced to strings",
			raw:  map[string]any{"settings": map[string]any{"threads": 4, "memory_limit": "2GB"}},
			want: &Params{Settings: map[string]string{"threads": "4", "memory_limit": "2GB"}},
		},
		{
			name: "extensions",
			raw:  map[string]any{"extensions": []any{"httpfs", "json"}},
			want: &Params{Extensions: []string{"httpfs", "json"}},
		},
		{
			name: "secret gets a default name and a single scope",
			raw: map[string]any{"secrets": []any{map[string]any{
				"type":    "s3",
				"scope":   "s3://warehouse",
				"options": map[string]any{"provider": "credential_chain"},
			}}},
			want: &Params{Secrets: []Secret{{
				Name:    "txt2sql_secret_0",
				Type:    "s3",
				Scope:   []string{"s3://warehouse"},
				Options: map[string]string{"provider": "credential_chain"},
			}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseParams(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseParams_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		raw     map[string]any
		wantErr string
	}{
		{"unknown key", map[string]any{"extension": []any{"httpfs"}}, "decode"},
		{"extension injection", map[string]any{"extensions": []any{"httpfs; DROP TABLE t"}}, "invalid extension"},
		{"setting name", map[string]any{"settings": map[string]any{"a b": "1"}}, "invalid setting"},
		{"secret without type", map[string]any{"secrets": []any{map[string]any{"name": "s"}}}, "type is required"},
		{"secret option key", map[string]any{"secrets": []any{map[string]any{
			"type": "gcs", "options": map[string]any{"key id": "x"},
		}}}, "invalid option"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseParams(tt.raw)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestSecret_CreateSQL(t *testing.T) {
	s := Secret{
		Name:    "lake",
		Type:    "gcs",
		Scope:   []string{"gs://a", "gs://b"},
		Options: map[string]string{"secret": "it's", "key_id": "k1", "provider": "config"},
	}
	assert.Equal(t,
		"CREATE OR REPLACE SECRET lake (TYPE gcs, KEY_ID 'k1', PROVIDER config, SECRET 'it''s', SCOPE ('gs://a', 'gs://b'))",
		s.createSQL())
}

func TestParams_SessionStatements(t *testing.T) {
	p, err := parseParams(map[string]any{
		"extensions": []any{"httpfs"},
		"settings":   map[string]any{"threads": "4", "memory_limit": "2GB"},
		"secrets":    []any{map[string]any{"type": "s3"}},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"INSTALL httpfs",
		"LOAD httpfs",
		"SET memory_limit = '2GB'",
		"SET threads = '4'",
		"CREATE OR REPLACE SECRET txt2sql_secret_0 (TYPE s3)",
	}, p.sessionStatements())

	assert.Empty(t, (&Params{}).sessionStatements())
}
