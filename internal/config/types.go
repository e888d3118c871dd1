// Package config loads txt2sql configuration from defaults, txt2sql.yaml,
// environment variables and command-line flags.
package config

import (
	"time"

	"github.com/leapstack-labs/txt2sql/pkg/core"
)

// TargetConfig is an alias for the shared target configuration.
// This allows CLI code to use config.TargetConfig without importing pkg/core.
type TargetConfig = core.TargetConfig

// LLMConfig configures the OpenAI-compatible generator.
type LLMConfig struct {
	BaseURL     string        `koanf:"base_url"`
	APIKey      string        `koanf:"api_key"`
	Model       string        `koanf:"model"`
	Temperature float64       `koanf:"temperature"`
	Timeout     time.Duration `koanf:"timeout"`
}

// ServerConfig configures `txt2sql serve`.
type ServerConfig struct {
	Addr string `koanf:"addr"`
}

// Config holds all configuration options.
type Config struct {
	Target       *TargetConfig `koanf:"target"`
	LLM          LLMConfig     `koanf:"llm"`
	MaxRetries   int           `koanf:"max_retries"`
	OutputFormat string        `koanf:"output"`
	Verbose      bool          `koanf:"verbose"`
	LogFormat    string        `koanf:"log_format"`
	StatePath    string        `koanf:"state_path"`
	History      bool          `koanf:"history"`
	Server       ServerConfig  `koanf:"server"`

	// FileUsed is the config file that was loaded, if any.
	FileUsed string `koanf:"-"`
}

const redactedValue = "********"

// Redacted returns a copy safe to print: passwords and API keys are masked.
func (c *Config) Redacted() *Config {
	out := *c
	if c.Target != nil {
		t := *c.Target
		if t.Password != "" {
			t.Password = redactedValue
		}
		out.Target = &t
	}
	if out.LLM.APIKey != "" {
		out.LLM.APIKey = redactedValue
	}
	return &out
}
