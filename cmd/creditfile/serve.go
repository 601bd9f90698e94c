package main

import (
	"github.com/spf13/cobra"

	"creditfile/internal/app"
)

func newServeCmd(c *cli) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP scoring API",
		Long: `Run the HTTP scoring API until interrupted.

Endpoints:
  POST /api/v1/reports    score an uploaded .xlsx report (multipart field "file")
  GET  /api/v1/features   list the published features
  GET  /api/health        health, /ready and /live checks
  GET  /metrics           Prometheus metrics when metrics are enabled

Examples:
  creditfile serve                 # port from the config (default 8080)
  creditfile serve --port 9090`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("port") {
				c.cfg.Server.Port = port
			}
			if err := c.cfg.EnsureDirectories(); err != nil {
				return err
			}

			a, err := app.New(c.cfg, c.logger)
			if err != nil {
				return err
			}
			return a.Run(cmd.Context())
		},
	}
	cmd.Flags().IntVar(&port, "port", 0, "port to listen on (overrides the config)")
	return cmd
}
