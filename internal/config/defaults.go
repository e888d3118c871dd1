package config

import (
	"github.com/leapstack-labs/txt2sql/internal/engine"
	"github.com/leapstack-labs/txt2sql/internal/llm"
)

// Default configuration values.
const (
	DefaultTargetType   = "sqlite"
	DefaultSQLitePath   = "ecommerce.db"
	DefaultPostgresPort = 5432
	DefaultStateFile    = ".txt2sql/history.db"
	DefaultOutput       = "table"
	DefaultLogFormat    = "text"
	DefaultServerAddr   = ":8080"
	DefaultMaxRetries   = engine.DefaultMaxAttempts
	DefaultBaseURL      = llm.DefaultBaseURL
	DefaultModel        = llm.DefaultModel
	DefaultLLMTimeout   = llm.DefaultTimeout
)

// OutputFormats lists the values accepted by --output.
var OutputFormats = []string{"table", "json", "csv", "md"}

func defaults() map[string]any {
	return map[string]any{
		"max_retries":     DefaultMaxRetries,
		"output":          DefaultOutput,
		"verbose":         false,
		"log_format":      DefaultLogFormat,
		"state_path":      DefaultStateFile,
		"history":         true,
		"server.addr":     DefaultServerAddr,
		"llm.model":       DefaultModel,
		"llm.temperature": 0.0,
		"llm.timeout":     DefaultLLMTimeout.String(),
	}
}

// ApplyTargetDefaults fills in the default target and per-type defaults.
func ApplyTargetDefaults(t *TargetConfig) {
	if t == nil {
		return
	}
	if t.Type == "" {
		t.Type = DefaultTargetType
	}
	switch t.Kind() {
	case "sqlite":
		if t.Database == "" {
			t.Database = DefaultSQLitePath
		}
	case "postgres":
		if t.Port == 0 {
			t.Port = DefaultPostgresPort
		}
	}
}

// ApplyLLMDefaults fills in empty generator settings.
func ApplyLLMDefaults(c *LLMConfig) {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultLLMTimeout
	}
}
