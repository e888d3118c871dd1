// Package cli provides the command-line interface for txt2sql.
package cli

import (
	"fmt"
	"os"

	"github.com/leapstack-labs/txt2sql/internal/cli/commands"
	"github.com/leapstack-labs/txt2sql/internal/config"
	"github.com/leapstack-labs/txt2sql/pkg/adapter"
	"github.com/spf13/cobra"
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "txt2sql",
		Short: "txt2sql - ask your database questions in plain English",
		Long: `txt2sql translates natural-language questions into SQL with a language model,
runs the statement against SQLite, DuckDB, PostgreSQL or Oracle, and feeds any
database error back to the model until the statement works or the retry limit
is reached.

Configuration is read from txt2sql.yaml, TXT2SQL_* environment variables and
flags, in increasing order of precedence.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Skip config loading for help and completion commands
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			cfg, err := config.Load(cfgFile, cmd.Flags())
			if err != nil {
				return err
			}

			logger := config.NewLogger(cmd.ErrOrStderr(), cfg.LogFormat, cfg.Verbose)
			ctx := config.WithConfig(cmd.Context(), cfg)
			ctx = config.WithLogger(ctx, logger)
			cmd.SetContext(ctx)

			if cfg.FileUsed != "" {
				logger.Debug("using config file", "path", cfg.FileUsed)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate(`{{.Name}} {{.Version}}
` + fmt.Sprintf("commit %s, built %s\n", GitCommit, BuildDate))

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default: ./txt2sql.yaml)")

	// Target
	pf.String("db-type", "", "Database type: sqlite, duckdb, postgres, oracle (default sqlite)")
	pf.String("sqlite-path", "", "Path to the SQLite database (default ecommerce.db)")
	pf.String("duckdb-path", "", "Path to the DuckDB database")
	pf.String("oracle-user", "", "Oracle user")
	pf.String("oracle-password", "", "Oracle password")
	pf.String("oracle-dsn", "", "Oracle network descriptor (host:port/service)")
	pf.String("pg-host", "", "PostgreSQL host")
	pf.Int("pg-port", 0, "PostgreSQL port (default 5432)")
	pf.String("pg-user", "", "PostgreSQL user")
	pf.String("pg-password", "", "PostgreSQL password")
	pf.String("pg-database", "", "PostgreSQL database")
	pf.String("pg-sslmode", "", "PostgreSQL sslmode")
	pf.String("schema", "", "Schema to introspect (postgres, duckdb)")

	// Loop and model
	pf.Int("max-retries", config.DefaultMaxRetries, "Maximum correction attempts after the first execution")
	pf.String("llm-url", "", "Base URL of the OpenAI-compatible API (default "+config.DefaultBaseURL+")")
	pf.String("model", "", "Model name (default "+config.DefaultModel+")")
	pf.Float64("temperature", 0, "Sampling temperature")

	// Output and state
	pf.StringP("output", "o", "", "Output format: table, json, csv, md")
	pf.BoolP("verbose", "v", false, "Print generated SQL and debug logs")
	pf.String("log-format", "", "Log format: text, json")
	pf.String("state", "", "Path to the run history database (default "+config.DefaultStateFile+")")
	pf.Bool("no-history", false, "Do not record runs")

	_ = rootCmd.RegisterFlagCompletionFunc("output", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return config.OutputFormats, cobra.ShellCompDirectiveNoFileComp
	})
	_ = rootCmd.RegisterFlagCompletionFunc("db-type", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return adapter.ListAdapters(), cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(commands.NewVersionCommand(Version))
	rootCmd.AddCommand(commands.NewAskCommand())
	rootCmd.AddCommand(commands.NewSchemaCommand())
	rootCmd.AddCommand(commands.NewExecCommand())
	rootCmd.AddCommand(commands.NewAdaptersCommand())
	rootCmd.AddCommand(commands.NewDoctorCommand())
	rootCmd.AddCommand(commands.NewHistoryCommand())
	rootCmd.AddCommand(commands.NewServeCommand())
	rootCmd.AddCommand(NewCompletionCommand())

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

// NewCompletionCommand creates the completion command.
func NewCompletionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for txt2sql.

To load completions:

Bash:
  $ source <(txt2sql completion bash)

Zsh:
  $ txt2sql completion zsh > "${fpath[1]}/_txt2sql"

Fish:
  $ txt2sql completion fish | source

PowerShell:
  PS> txt2sql completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(out)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
			return nil
		},
	}
	return cmd
}
