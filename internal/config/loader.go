package config

import (
	"fmt"
	"os"
	"regexp"
	"slices"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/leapstack-labs/txt2sql/pkg/adapter"
)

// Config file names searched in the working directory, in order.
const (
	ConfigFileName    = "txt2sql.yaml"
	ConfigFileNameAlt = "txt2sql.yml"
)

// EnvPrefix is the prefix for configuration environment variables.
// A double underscore separates nested keys: TXT2SQL_TARGET__PASSWORD.
const EnvPrefix = "TXT2SQL_"

// flagKeys maps command-line flags to configuration keys. Flags not listed
// here are command options and never reach the config.
var flagKeys = map[string]string{
	"db-type":         "target.type",
	"sqlite-path":     "target.database",
	"duckdb-path":     "target.database",
	"oracle-user":     "target.user",
	"oracle-password": "target.password",
	"oracle-dsn":      "target.dsn",
	"pg-host":         "target.host",
	"pg-port":         "target.port",
	"pg-user":         "target.user",
	"pg-password":     "target.password",
	"pg-database":     "target.database",
	"pg-sslmode":      "target.options.sslmode",
	"schema":          "target.schema",
	"max-retries":     "max_retries",
	"llm-url":         "llm.base_url",
	"model":           "llm.model",
	"temperature":     "llm.temperature",
	"output":          "output",
	"verbose":         "verbose",
	"log-format":      "log_format",
	"state":           "state_path",
	"addr":            "server.addr",
}

// findConfigFile finds the config file to use.
// Priority: explicit path > txt2sql.yaml > txt2sql.yml
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range []string{ConfigFileName, ConfigFileNameAlt} {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// Load loads configuration from file, environment variables, and flags.
// Precedence (highest to lowest): flags > env vars > config file > defaults.
// ORACLE_* and OPENAI_* variables fill target and generator fields left empty.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file
	used := findConfigFile(cfgFile)
	if used != "" {
		if err := k.Load(file.Provider(used), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", used, err)
		}
	}

	// 3. Environment variables: TXT2SQL_TARGET__TYPE -> target.type
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Explicitly set flags
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			if f.Name == "no-history" {
				return "history", false
			}
			key, ok := flagKeys[f.Name]
			if !ok {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.FileUsed = used

	if cfg.Target == nil {
		cfg.Target = &TargetConfig{}
	}
	applyLegacyEnv(&cfg)
	ApplyTargetDefaults(cfg.Target)
	ApplyLLMDefaults(&cfg.LLM)
	expandTargetEnvVars(cfg.Target)
	cfg.LLM.APIKey = expandEnvVars(cfg.LLM.APIKey)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// applyLegacyEnv honours the ORACLE_USER, ORACLE_PASSWORD, ORACLE_DSN,
// OPENAI_API_KEY and OPENAI_URL variables for fields still empty.
func applyLegacyEnv(cfg *Config) {
	t := cfg.Target
	if t.Kind() == "oracle" {
		fillFromEnv(&t.User, "ORACLE_USER")
		fillFromEnv(&t.Password, "ORACLE_PASSWORD")
		fillFromEnv(&t.DSN, "ORACLE_DSN")
	}
	fillFromEnv(&cfg.LLM.APIKey, "OPENAI_API_KEY")
	fillFromEnv(&cfg.LLM.BaseURL, "OPENAI_URL")
}

func fillFromEnv(dst *string, name string) {
	if *dst != "" {
		return
	}
	if v := os.Getenv(name); v != "" {
		*dst = v
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.MaxRetries < 0 {
		return fmt.Errorf("max_retries must be >= 0, got %d", c.MaxRetries)
	}
	if !slices.Contains(OutputFormats, c.OutputFormat) {
		return fmt.Errorf("unknown output format %q (expected one of %s)", c.OutputFormat, strings.Join(OutputFormats, ", "))
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("unknown log format %q (expected text or json)", c.LogFormat)
	}
	if err := ValidateTarget(c.Target); err != nil {
		return fmt.Errorf("invalid target configuration: %w", err)
	}
	return nil
}

// ValidateTarget checks that the target type names a registered adapter.
// Field-level checks happen when the adapter is constructed.
func ValidateTarget(t *TargetConfig) error {
	if t == nil || t.Kind() == "" {
		return &adapter.ConfigurationError{Reason: "target type is required", Available: adapter.ListAdapters()}
	}
	if !adapter.IsRegistered(t.Kind()) {
		return &adapter.ConfigurationError{
			Type:      t.Kind(),
			Reason:    "unknown adapter type",
			Available: adapter.ListAdapters(),
		}
	}
	return nil
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars expands ${VAR} patterns with environment variable values.
// Unset variables are left as written.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if val := os.Getenv(match[2 : len(match)-1]); val != "" {
			return val
		}
		return match
	})
}

// expandTargetEnvVars expands environment variables in sensitive target fields.
func expandTargetEnvVars(t *TargetConfig) {
	t.Password = expandEnvVars(t.Password)
	t.User = expandEnvVars(t.User)
	t.Host = expandEnvVars(t.Host)
	t.Database = expandEnvVars(t.Database)
	t.DSN = expandEnvVars(t.DSN)
}
