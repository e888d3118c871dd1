package commands

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/leapstack-labs/txt2sql/internal/cli/output"
	"github.com/leapstack-labs/txt2sql/internal/config"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// Check statuses.
const (
	CheckOK   = "ok"
	CheckFail = "fail"
	CheckSkip = "skip"
)

// DoctorOptions holds options for the doctor command.
type DoctorOptions struct {
	Timeout time.Duration
}

// CheckResult is the outcome of one doctor check.
type CheckResult struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Detail string `json:"detail"`
}

// modelLister is implemented by generators that can enumerate their models.
type modelLister interface {
	ListModels(ctx context.Context) ([]string, error)
}

// NewDoctorCommand creates the doctor command.
func NewDoctorCommand() *cobra.Command {
	opts := &DoctorOptions{}
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check database, model server and history store connectivity",
		Long: `Run connectivity checks in parallel:

  - database:  connect to the configured target and introspect its schema
  - generator: reach the model server and confirm the configured model is served
  - history:   open the run history database and report its migration version

Exits with an error when any check fails.`,
		Example: `  txt2sql doctor
  txt2sql doctor --timeout 5s -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDoctor(cmd, opts)
		},
	}

	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 10*time.Second, "Timeout for all checks")

	return cmd
}

func runDoctor(cmd *cobra.Command, opts *DoctorOptions) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), opts.Timeout)
	defer cancel()

	checks := []func(context.Context, *CommandContext) CheckResult{
		checkDatabase,
		checkGenerator,
		checkHistory,
	}
	results := make([]CheckResult, len(checks))

	var g errgroup.Group
	for i, check := range checks {
		g.Go(func() error {
			results[i] = check(ctx, cc)
			return nil
		})
	}
	_ = g.Wait()

	if err := renderChecks(cc.Renderer, results); err != nil {
		return err
	}

	failed := 0
	for _, res := range results {
		if res.Status == CheckFail {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d checks failed", failed, len(results))
	}
	return nil
}

func renderChecks(r *output.Renderer, results []CheckResult) error {
	if r.Mode() == output.ModeJSON {
		return r.JSON(results)
	}
	rows := make([][]any, 0, len(results))
	for _, res := range results {
		rows = append(rows, []any{res.Name, res.Status, res.Detail})
	}
	return r.Results([]string{"check", "status", "detail"}, rows)
}

func checkDatabase(ctx context.Context, cc *CommandContext) CheckResult {
	res := CheckResult{Name: "database"}
	a, err := cc.Adapter()
	if err != nil {
		res.Status, res.Detail = CheckFail, err.Error()
		return res
	}
	schema, err := a.DescribeSchema(ctx)
	if err != nil {
		res.Status, res.Detail = CheckFail, err.Error()
		return res
	}
	res.Status = CheckOK
	res.Detail = fmt.Sprintf("%s (%d %s)", a.DescribeConnection(), len(schema.Tables), pluralize(len(schema.Tables), "table", "tables"))
	return res
}

func checkGenerator(ctx context.Context, cc *CommandContext) CheckResult {
	res := CheckResult{Name: "generator"}
	gen, err := newGenerator(cc.Cfg.LLM)
	if err != nil {
		res.Status, res.Detail = CheckFail, err.Error()
		return res
	}
	lister, ok := gen.(modelLister)
	if !ok {
		res.Status, res.Detail = CheckSkip, "generator cannot list models"
		return res
	}
	models, err := lister.ListModels(ctx)
	if err != nil {
		res.Status, res.Detail = CheckFail, err.Error()
		return res
	}

	model := cc.Cfg.LLM.Model
	if model == "" {
		model = config.DefaultModel
	}
	if !slices.Contains(models, model) {
		res.Status = CheckFail
		res.Detail = fmt.Sprintf("model %q not served (%d available)", model, len(models))
		return res
	}
	res.Status, res.Detail = CheckOK, "model "+model
	return res
}

func checkHistory(_ context.Context, cc *CommandContext) CheckResult {
	res := CheckResult{Name: "history"}
	if !cc.Cfg.History {
		res.Status, res.Detail = CheckSkip, "history disabled"
		return res
	}
	store, err := cc.OpenStore()
	if err != nil {
		res.Status, res.Detail = CheckFail, err.Error()
		return res
	}
	defer func() { _ = store.Close() }()

	version, err := store.GetMigrationVersion()
	if err != nil {
		res.Status, res.Detail = CheckFail, err.Error()
		return res
	}
	res.Status = CheckOK
	res.Detail = fmt.Sprintf("%s (schema version %d)", store.Path(), version)
	return res
}

func pluralize(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
