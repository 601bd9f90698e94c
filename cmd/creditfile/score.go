package main

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"creditfile/internal/exporter"
	"creditfile/internal/files"
	"creditfile/internal/infrastructure"
	"creditfile/internal/services"
)

func newScoreCmd(c *cli) *cobra.Command {
	var (
		outDir     string
		workers    int
		showRecord bool
		scoring    scoringFlags
	)

	cmd := &cobra.Command{
		Use:   "score [files or directories...]",
		Short: "Process credit reports and export records and features",
		Long: `Process credit report workbooks once.

Arguments may name .xlsx files or directories; directories contribute the
workbooks directly inside them. Without arguments the configured input
directory is used. Each report is exported as <name>.json and the batch's
feature vectors are written to features.csv in the output directory.

Examples:
  creditfile score                          # every report in the input dir
  creditfile score juan.xlsx pedro.xlsx
  creditfile score reports/ --out results/
  creditfile score juan.xlsx --model model.yaml --show-record`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := c.cfg
			if cmd.Flags().Changed("workers") {
				cfg.Pipeline.Workers = workers
			}
			scoring.apply(cmd, &cfg.Pipeline)
			if outDir == "" {
				outDir = cfg.Paths.OutputDir
			}
			if len(args) == 0 {
				args = []string{cfg.Paths.InputDir}
			}

			ctx := infrastructure.WithTraceID(cmd.Context(), uuid.New().String())
			logger := c.logger.With(slog.String("run_id", infrastructure.GetTraceID(ctx)))

			found, err := files.NewDiscovery("", logger).Resolve(args...)
			if err != nil {
				return err
			}
			if len(found) == 0 {
				return services.ErrNoReportsFound
			}
			paths := make([]string, len(found))
			for i, f := range found {
				paths[i] = f.Path
			}

			p, err := newPipeline(cfg, outDir, logger)
			if err != nil {
				return err
			}
			defer p.close(ctx)

			results, batchErr := p.reports.ProcessBatch(ctx, paths)

			rows := make([]exporter.FeatureRow, 0, len(results))
			for _, res := range results {
				if res.Failed() {
					continue
				}
				if err := p.export(res); err != nil {
					return err
				}
				rows = append(rows, featureRow(res))
			}
			if err := p.features.WriteFeatures(exporter.FeaturesFile, p.reports.FeatureNames(), rows); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if showRecord {
				for _, res := range results {
					printRecord(out, res)
				}
			}
			if err := printResults(out, results); err != nil {
				return err
			}
			sum := services.Summarize(results)
			printSummary(out, sum)

			if batchErr != nil {
				return batchErr
			}
			if sum.Failed > 0 {
				return fmt.Errorf("%d of %d reports failed", sum.Failed, sum.Total)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outDir, "out", "o", "", "output directory (default: the configured output dir)")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "reports processed at once (overrides the config)")
	cmd.Flags().BoolVar(&showRecord, "show-record", false, "print each normalized record and its missing fields")
	scoring.register(cmd)
	return cmd
}
