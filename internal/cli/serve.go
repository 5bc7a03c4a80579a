package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/pcegraph/internal/server"
	"github.com/matzehuels/pcegraph/pkg/metrics"
)

func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr       string
		topologies []string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve graph computation over HTTP",
		Long: `Serve graph computation over HTTP.

Routes:
  POST /v1/graph                compute a graph (JSON request body)
  GET  /v1/topologies           list stored networks
  GET  /v1/topologies/{network} summarize a stored network
  GET  /healthz                 liveness and build information
  GET  /metrics                 Prometheus metrics`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			if addr == "" {
				addr = c.Config.Server.Addr
			}

			runner, err := c.newRunner(ctx, topologies)
			if err != nil {
				return err
			}
			defer runner.Close()

			reg := metrics.DefaultRegistry()
			reg.Register()

			srv := server.New(runner, server.Options{
				Addr:         addr,
				ReadTimeout:  c.Config.Server.ReadTimeout,
				WriteTimeout: c.Config.Server.WriteTimeout,
				Metrics:      reg.Handler(),
				Defaults:     c.Config.ApplyCompute,
				Logger:       logger,
			})
			printInfo("Listening on %s", StyleHighlight.Render(addr))
			return srv.Run(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	cmd.Flags().StringArrayVarP(&topologies, "topology", "t", nil, "serve these snapshot files from memory instead of the store (repeatable)")
	return cmd
}
