package commands

import (
	"github.com/leapstack-labs/txt2sql/internal/cli/output"
	"github.com/leapstack-labs/txt2sql/pkg/adapter"
	"github.com/spf13/cobra"
)

// AdapterInfo describes one registered backend.
type AdapterInfo struct {
	Name      string `json:"name"`
	Driver    string `json:"driver"`
	Available bool   `json:"available"`
}

// NewAdaptersCommand creates the adapters command.
func NewAdaptersCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "adapters",
		Short: "List the database backends this binary supports",
		Long: `List every registered database backend with its database/sql driver name
and whether that driver is linked into this binary.`,
		Args: cobra.NoArgs,
		RunE: runAdapters,
	}
}

// ListAdapterInfo returns the registered backends in name order.
func ListAdapterInfo() []AdapterInfo {
	names := adapter.ListAdapters()
	infos := make([]AdapterInfo, 0, len(names))
	for _, name := range names {
		driver, _ := adapter.DriverName(name)
		infos = append(infos, AdapterInfo{
			Name:      name,
			Driver:    driver,
			Available: adapter.DriverAvailable(name),
		})
	}
	return infos
}

func runAdapters(cmd *cobra.Command, _ []string) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	r := cc.Renderer
	infos := ListAdapterInfo()

	if r.Mode() == output.ModeJSON {
		return r.JSON(infos)
	}

	rows := make([][]any, 0, len(infos))
	for _, info := range infos {
		status := "yes"
		if !info.Available {
			status = "no"
		}
		rows = append(rows, []any{info.Name, info.Driver, status})
	}
	return r.Results([]string{"adapter", "driver", "available"}, rows)
}
