package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/leapstack-labs/txt2sql/internal/cli/output"
	"github.com/leapstack-labs/txt2sql/internal/state"
	"github.com/spf13/cobra"
)

// HistoryOptions holds options for the history command.
type HistoryOptions struct {
	Limit int
}

// RunOutput is the JSON form of a recorded run.
type RunOutput struct {
	ID          string          `json:"id"`
	Question    string          `json:"question"`
	Target      string          `json:"target"`
	Status      string          `json:"status"`
	SQL         string          `json:"sql,omitempty"`
	Error       string          `json:"error,omitempty"`
	Attempts    int             `json:"attempts"`
	MaxAttempts int             `json:"max_attempts"`
	RowCount    int             `json:"row_count"`
	DurationMS  int64           `json:"duration_ms"`
	StartedAt   time.Time       `json:"started_at"`
	History     []AttemptOutput `json:"history,omitempty"`
}

// AttemptOutput is one executed statement within RunOutput.
type AttemptOutput struct {
	SQL   string `json:"sql"`
	Error string `json:"error,omitempty"`
}

func toRunOutput(run *state.Run) RunOutput {
	out := RunOutput{
		ID:          run.ID,
		Question:    run.Question,
		Target:      run.Target,
		Status:      run.Status,
		SQL:         run.SQL,
		Error:       run.Error,
		Attempts:    run.Attempts,
		MaxAttempts: run.MaxAttempts,
		RowCount:    run.RowCount,
		DurationMS:  run.DurationMS,
		StartedAt:   run.StartedAt,
	}
	for _, a := range run.History {
		out.History = append(out.History, AttemptOutput{SQL: a.SQL, Error: a.Error})
	}
	return out
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand() *cobra.Command {
	opts := &HistoryOptions{}
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recently answered questions",
		Long: `List the most recent runs recorded in the history database, newest first.
Use "history show <id>" to see every statement a run tried.`,
		Example: `  txt2sql history
  txt2sql history --limit 5 -o json
  txt2sql history show 1f0c...`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHistory(cmd, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 20, "Maximum number of runs to list (0 for all)")
	cmd.AddCommand(newHistoryShowCommand())

	return cmd
}

func newHistoryShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one recorded run and its attempts",
		Args:  cobra.ExactArgs(1),
		RunE:  runHistoryShow,
	}
}

func runHistory(cmd *cobra.Command, opts *HistoryOptions) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	store, err := cc.OpenStore()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	runs, err := store.ListRuns(cmd.Context(), opts.Limit)
	if err != nil {
		return err
	}

	r := cc.Renderer
	if r.Mode() == output.ModeJSON {
		out := make([]RunOutput, 0, len(runs))
		for _, run := range runs {
			out = append(out, toRunOutput(run))
		}
		return r.JSON(out)
	}

	if len(runs) == 0 {
		r.Println("No runs recorded yet")
		return nil
	}

	rows := make([][]any, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, []any{
			run.ID,
			run.StartedAt.Local().Format(time.DateTime),
			run.Status,
			fmt.Sprintf("%d/%d", run.Attempts, run.MaxAttempts),
			truncate(run.Question, 60),
		})
	}
	return r.Results([]string{"id", "started", "status", "attempts", "question"}, rows)
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	store, err := cc.OpenStore()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	run, err := store.GetRun(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	r := cc.Renderer
	if r.Mode() == output.ModeJSON {
		return r.JSON(toRunOutput(run))
	}

	r.Header(1, run.Question)
	r.Println(output.FormatKeyValue("id", run.ID))
	r.Println(output.FormatKeyValue("target", run.Target))
	r.Println(output.FormatKeyValue("status", run.Status))
	r.Println(output.FormatKeyValue("attempts", fmt.Sprintf("%d/%d", run.Attempts, run.MaxAttempts)))
	r.Println(output.FormatKeyValue("rows", fmt.Sprintf("%d", run.RowCount)))
	r.Println(output.FormatKeyValue("duration", (time.Duration(run.DurationMS) * time.Millisecond).String()))
	if run.Error != "" {
		r.Println(output.FormatKeyValue("error", run.Error))
	}

	for i, a := range run.History {
		r.Println("")
		r.Header(2, fmt.Sprintf("Attempt %d", i+1))
		r.Println(r.Styles().SQL.Render(a.SQL))
		if a.Error != "" {
			r.Println(r.Styles().Error.Render(a.Error))
		}
	}
	return nil
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if len([]rune(s)) <= n {
		return s
	}
	return string([]rune(s)[:n-3]) + "..."
}
