package commands

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/leapstack-labs/txt2sql/internal/cli/output"
	"github.com/leapstack-labs/txt2sql/internal/engine"
	"github.com/spf13/cobra"
)

// DefaultQuestion is asked when no question is given.
const DefaultQuestion = "Show me the names and email addresses of customers from New York"

// AskOptions holds options for the ask command.
type AskOptions struct {
	Interactive bool
}

// NewAskCommand creates the ask command.
func NewAskCommand() *cobra.Command {
	opts := &AskOptions{}
	cmd := &cobra.Command{
		Use:   "ask [question...]",
		Short: "Answer a question in plain English with SQL",
		Long: `Translate a natural-language question into SQL for the configured database,
run it, and print the result.

When the statement fails, the database error is sent back to the model and a
corrected statement is tried, up to --max-retries times.`,
		Example: `  # Ask against the default SQLite database
  txt2sql ask "How many orders did each customer place?"

  # Ask against PostgreSQL and print JSON
  txt2sql ask --db-type postgres --pg-host db --pg-database shop -o json "Top 5 products by revenue"

  # Start an interactive session
  txt2sql ask --interactive`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAsk(cmd, args, opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.Interactive, "interactive", "i", false, "Start an interactive session")

	return cmd
}

func runAsk(cmd *cobra.Command, args []string, opts *AskOptions) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	rt, err := cc.NewRuntime(cmd.Context())
	if err != nil {
		return err
	}
	defer rt.Close()

	if opts.Interactive {
		if !output.IsTerminal(os.Stdin) {
			return fmt.Errorf("--interactive requires a terminal")
		}
		return runAskREPL(cmd, cc, rt.Engine)
	}

	question := strings.TrimSpace(strings.Join(args, " "))
	if question == "" {
		question = DefaultQuestion
	}
	return ask(cmd.Context(), cc.Renderer, rt.Engine, question)
}

// ask runs one question and renders the report. Failed and fatal runs
// return their error after rendering.
func ask(ctx context.Context, r *output.Renderer, eng *engine.Engine, question string) error {
	report := eng.Run(ctx, question)
	if err := renderReport(r, report); err != nil {
		return err
	}
	return report.Err()
}

func renderReport(r *output.Renderer, report *engine.Report) error {
	if r.Mode() == output.ModeJSON {
		return r.JSON(report)
	}

	switch report.Status {
	case engine.StatusSuccess:
		if report.HasRows() {
			return r.Results(report.Columns, report.Rows)
		}
		r.Success(report.Message)
	case engine.StatusSchema:
		r.Println(report.Message)
	case engine.StatusFailed:
		if report.SQL != "" {
			printSQL(r, "LAST SQL", report.SQL)
		}
	}
	return nil
}

// progressPrinter prints each candidate statement and execution failure to
// stderr while a run is in progress.
func progressPrinter(r *output.Renderer) engine.Observer {
	return func(ev engine.Event) {
		switch ev.Kind {
		case engine.EventCandidate:
			title := fmt.Sprintf("GENERATED SQL (Attempt %d)", ev.Attempt)
			if ev.Step == engine.StepCorrect {
				title = fmt.Sprintf("REVISED SQL (Attempt %d)", ev.Attempt)
			}
			printSQL(r, title, ev.SQL)
		case engine.EventExecuted:
			if ev.Error != "" {
				w := r.ErrWriter()
				_, _ = fmt.Fprintln(w, r.Styles().Error.Render("SQL EXECUTION FAILED"))
				_, _ = fmt.Fprintln(w, ev.Error)
				_, _ = fmt.Fprintln(w)
			}
		}
	}
}

func printSQL(r *output.Renderer, title, sql string) {
	w := r.ErrWriter()
	_, _ = fmt.Fprintln(w, r.Styles().Header2.Render(title))
	_, _ = fmt.Fprintln(w, r.Styles().SQL.Render(sql))
	_, _ = fmt.Fprintln(w)
}
