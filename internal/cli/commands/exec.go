package commands

import (
	"errors"
	"strings"

	"github.com/leapstack-labs/txt2sql/internal/cli/output"
	"github.com/spf13/cobra"
)

// ExecOutput is the JSON output for the exec command.
type ExecOutput struct {
	SQL     string   `json:"sql"`
	OK      bool     `json:"ok"`
	Columns []string `json:"columns,omitempty"`
	Rows    [][]any  `json:"rows,omitempty"`
	Status  string   `json:"status,omitempty"`
	Error   string   `json:"error,omitempty"`
}

// NewExecCommand creates the exec command.
func NewExecCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "exec <sql>",
		Short: "Run a SQL statement directly against the configured database",
		Long: `Execute one statement through the database adapter without involving the
model. Row-returning statements print their result set; others print the
number of affected rows.`,
		Example: `  txt2sql exec "SELECT name, city FROM customers"
  txt2sql exec -o csv "SELECT * FROM orders"`,
		Args: cobra.MinimumNArgs(1),
		RunE: runExec,
	}
}

func runExec(cmd *cobra.Command, args []string) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	a, err := cc.Adapter()
	if err != nil {
		return err
	}

	stmt := strings.TrimSpace(strings.Join(args, " "))
	outcome := a.Execute(cmd.Context(), stmt)

	r := cc.Renderer
	if r.Mode() == output.ModeJSON {
		if err := r.JSON(ExecOutput{
			SQL:     stmt,
			OK:      outcome.Succeeded(),
			Columns: outcome.Columns(),
			Rows:    outcome.Rows(),
			Status:  outcome.Status(),
			Error:   outcome.Message(),
		}); err != nil {
			return err
		}
	} else if outcome.HasRows() {
		if err := r.Results(outcome.Columns(), outcome.Rows()); err != nil {
			return err
		}
	} else if outcome.Succeeded() {
		r.Success(outcome.Status())
	}

	if !outcome.Succeeded() {
		return errors.New(outcome.Message())
	}
	return nil
}
