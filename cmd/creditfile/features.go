package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"creditfile/internal/app"
	api "creditfile/pkg/contracts/api/v1"
)

func newFeaturesCmd(c *cli) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "features",
		Short: "List the published features in classifier order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pipeline := c.cfg.Pipeline
			pipeline.Score = false
			svc, err := app.NewReportService(pipeline, c.logger)
			if err != nil {
				return err
			}
			names := svc.FeatureNames()

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(api.FeatureListResponse{Features: names, Count: len(names)})
			}
			for _, name := range names {
				fmt.Fprintln(out, name)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the list as JSON")
	return cmd
}
