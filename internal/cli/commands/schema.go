package commands

import (
	"github.com/leapstack-labs/txt2sql/internal/cli/output"
	"github.com/spf13/cobra"
)

// SchemaOutput is the JSON output for the schema command.
type SchemaOutput struct {
	Target  string        `json:"target"`
	Dialect string        `json:"dialect"`
	Tables  []SchemaTable `json:"tables"`
}

// SchemaTable is one table in SchemaOutput.
type SchemaTable struct {
	Name    string         `json:"name"`
	Columns []SchemaColumn `json:"columns"`
}

// SchemaColumn is one column in SchemaTable.
type SchemaColumn struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Nullable bool   `json:"nullable"`
}

// NewSchemaCommand creates the schema command.
func NewSchemaCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Show the tables and columns of the configured database",
		Long: `Introspect the configured database and print its user tables and columns
in the same format the model sees in prompts.`,
		Example: `  txt2sql schema
  txt2sql schema --db-type duckdb --duckdb-path warehouse.duckdb -o json`,
		Args: cobra.NoArgs,
		RunE: runSchema,
	}
}

func runSchema(cmd *cobra.Command, _ []string) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	a, err := cc.Adapter()
	if err != nil {
		return err
	}

	schema, err := a.DescribeSchema(cmd.Context())
	if err != nil {
		return err
	}

	r := cc.Renderer
	switch r.Mode() {
	case output.ModeJSON:
		out := SchemaOutput{Target: a.DescribeConnection(), Dialect: a.Dialect(), Tables: []SchemaTable{}}
		for _, t := range schema.Tables {
			st := SchemaTable{Name: t.Name, Columns: []SchemaColumn{}}
			for _, c := range t.Columns {
				st.Columns = append(st.Columns, SchemaColumn{Name: c.Name, Type: c.Type, Nullable: c.Nullable})
			}
			out.Tables = append(out.Tables, st)
		}
		return r.JSON(out)

	case output.ModeCSV, output.ModeMarkdown:
		rows := make([][]any, 0)
		for _, t := range schema.Tables {
			for _, c := range t.Columns {
				rows = append(rows, []any{t.Name, c.Name, c.Type, c.Nullable})
			}
		}
		return r.Results([]string{"table", "column", "type", "nullable"}, rows)

	default:
		r.Header(1, a.DescribeConnection())
		if len(schema.Tables) == 0 {
			r.Warning("No user tables found")
			return nil
		}
		r.Println(schema.String())
		return nil
	}
}
