package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"creditfile/internal/exporter"
	"creditfile/internal/files"
	"creditfile/internal/services"
	"creditfile/internal/validation"
)

func newWatchCmd(c *cli) *cobra.Command {
	var (
		inDir      string
		outDir     string
		archiveDir string
		settle     time.Duration
		showRecord bool
		scoring    scoringFlags
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Process reports as they are written into a directory",
		Long: `Watch a directory and process every .xlsx report created or rewritten in
it once the file stops changing. Records are exported as <name>.json and
feature vectors appended to features.csv in the output directory.

Examples:
  creditfile watch
  creditfile watch --in inbox/ --out results/ --archive done/`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := c.cfg
			if inDir == "" {
				inDir = cfg.Paths.InputDir
			}
			if outDir == "" {
				outDir = cfg.Paths.OutputDir
			}
			scoring.apply(cmd, &cfg.Pipeline)
			if !cmd.Flags().Changed("settle") {
				settle = cfg.Pipeline.WatchSettle
			}
			if err := os.MkdirAll(inDir, 0755); err != nil {
				return fmt.Errorf("failed to create input directory: %w", err)
			}
			if err := validation.NewFileValidator(c.logger).ValidateInputDirectory(inDir); err != nil {
				return err
			}

			p, err := newPipeline(cfg, outDir, c.logger)
			if err != nil {
				return err
			}
			defer p.close(cmd.Context())

			watcher, err := files.NewWatcher(inDir, settle, c.logger)
			if err != nil {
				return err
			}

			var archiver *files.Archiver
			if archiveDir != "" {
				archiver = files.NewArchiver(archiveDir, c.logger)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Watching %s (Ctrl+C to stop)\n", inDir)
			return watcher.Run(cmd.Context(), func(ctx context.Context, f files.FileInfo) {
				res := p.reports.ProcessFile(ctx, f.Path)
				if err := p.handleWatched(res); err != nil {
					p.logger.ErrorContext(ctx, "Export failed",
						slog.String("file", f.Path),
						slog.String("error", err.Error()))
					return
				}
				if showRecord {
					printRecord(out, res)
				}
				printResults(out, []services.Result{res})

				if archiver != nil && !res.Failed() {
					if _, err := archiver.Archive(f.Path); err != nil {
						p.logger.WarnContext(ctx, "Archive failed",
							slog.String("file", f.Path),
							slog.String("error", err.Error()))
					}
				}
			})
		},
	}

	cmd.Flags().StringVar(&inDir, "in", "", "directory to watch (default: the configured input dir)")
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "output directory (default: the configured output dir)")
	cmd.Flags().StringVar(&archiveDir, "archive", "", "move processed reports into this directory")
	cmd.Flags().DurationVar(&settle, "settle", files.DefaultSettle, "how long a file must stay unchanged")
	cmd.Flags().BoolVar(&showRecord, "show-record", false, "print each normalized record and its missing fields")
	scoring.register(cmd)
	return cmd
}

// handleWatched exports one watched report and appends its features
func (p *pipeline) handleWatched(res services.Result) error {
	if res.Failed() {
		return nil
	}
	if err := p.export(res); err != nil {
		return err
	}
	return p.features.AppendFeatures(exporter.FeaturesFile, p.reports.FeatureNames(), featureRow(res))
}
