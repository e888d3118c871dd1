package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/leapstack-labs/txt2sql/internal/server"
	"github.com/spf13/cobra"
)

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Long: `Start an HTTP server exposing:

  POST /v1/ask        {"question": "...", "max_retries": 2}
  GET  /v1/schema
  GET  /v1/runs       ?limit=N
  GET  /v1/runs/{id}
  GET  /healthz
  GET  /metrics

The server stops gracefully on SIGINT or SIGTERM.`,
		Example: `  txt2sql serve --addr :9090`,
		Args:    cobra.NoArgs,
		RunE:    runServe,
	}

	cmd.Flags().String("addr", "", "Listen address (default :8080)")

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := cc.NewRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	srv, err := server.New(server.Config{
		Engine: rt.Engine,
		Store:  rt.Store,
		Addr:   cc.Cfg.Server.Addr,
		Logger: cc.Logger,
	})
	if err != nil {
		return err
	}

	cc.Renderer.Printf("Serving %s on %s\n", rt.Engine.Adapter().DescribeConnection(), cc.Cfg.Server.Addr)
	return srv.Serve(ctx)
}
