package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"creditfile/internal/app"
	"creditfile/internal/config"
	"creditfile/internal/exporter"
	"creditfile/internal/infrastructure"
	"creditfile/internal/services"
	"creditfile/internal/validation"
	"creditfile/pkg/contracts/domain"
)

// pipeline bundles the report service with its exporters
type pipeline struct {
	reports   *services.ReportService
	records   *exporter.JSONWriter
	features  *exporter.CSVWriter
	providers *infrastructure.OTelProviders
	logger    *slog.Logger
}

// newPipeline builds the batch pipeline writing into outDir. Only tracing is
// set up; there is no endpoint to serve metrics from.
func newPipeline(cfg *config.Config, outDir string, logger *slog.Logger) (*pipeline, error) {
	otelCfg := infrastructure.NewOTelConfig(cfg.Telemetry)
	otelCfg.EnableMetrics = false
	providers, err := infrastructure.InitializeOTel(otelCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	reports, err := app.NewReportService(cfg.Pipeline, logger, services.WithTracer(providers.Tracer))
	if err != nil {
		providers.Shutdown(context.Background())
		return nil, err
	}
	records, err := exporter.NewJSONWriter(outDir, cfg.Pipeline.ValidateSchema, logger)
	if err != nil {
		providers.Shutdown(context.Background())
		return nil, err
	}

	return &pipeline{
		reports:   reports,
		records:   records,
		features:  exporter.NewCSVWriter(outDir, logger),
		providers: providers,
		logger:    logger,
	}, nil
}

// export writes the record of a processed report. Failed reports have no
// record and are skipped.
func (p *pipeline) export(res services.Result) error {
	if res.Failed() {
		return nil
	}
	missing := res.Missing
	if missing == nil {
		missing = map[string][]string{}
	}
	_, err := p.records.Write(exporter.Document{
		NormalizedRecord: *res.Record,
		CreditScore:      res.Score,
		ScoreModel:       res.Model,
		MissingFields:    missing,
	})
	return err
}

func (p *pipeline) close(ctx context.Context) {
	if err := p.providers.Shutdown(context.WithoutCancel(ctx)); err != nil {
		p.logger.Warn("Telemetry shutdown failed", slog.String("error", err.Error()))
	}
}

func featureRow(res services.Result) exporter.FeatureRow {
	return exporter.FeatureRow{Filename: res.Filename, Vector: res.Features}
}

// scoringFlags override the configured scoring for one command
type scoringFlags struct {
	score bool
	model string
}

func (f *scoringFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.score, "score", false, "compute credit scores (overrides pipeline.score)")
	cmd.Flags().StringVar(&f.model, "model", "", "model artifact to score with; implies --score")
}

func (f *scoringFlags) apply(cmd *cobra.Command, cfg *config.PipelineConfig) {
	if cmd.Flags().Changed("score") {
		cfg.Score = f.score
	}
	if f.model != "" {
		cfg.ModelFile = f.model
		if !cmd.Flags().Changed("score") {
			cfg.Score = true
		}
	}
}

// printRecord dumps the normalized record of a processed report followed
// by its missing essential fields, for review by the loan officer
func printRecord(w io.Writer, res services.Result) {
	if res.Failed() {
		return
	}
	rec := res.Record
	fmt.Fprintf(w, "DATA VALIDATION: %s\n", res.Filename)
	fmt.Fprintf(w, "filename: %s\n", rec.Filename)
	fmt.Fprintf(w, "last_modified: %s\n", rec.LastModified)
	printFields(w, "personal_data", rec.PersonalData, 0)
	printFields(w, "income_source_details", rec.IncomeSourceDetails, 0)
	fmt.Fprintln(w, "income_analysis")
	printFields(w, "income", rec.IncomeAnalysis.Income, 1)
	printFields(w, "expense", rec.IncomeAnalysis.Expense, 1)
	printFields(w, "summary", rec.IncomeAnalysis.Summary, 1)
	printFields(w, "officer_assessment", rec.OfficerAssessment, 0)
	if res.Score != nil {
		fmt.Fprintf(w, "credit_score: %d (model %s)\n", *res.Score, res.Model)
	}

	fmt.Fprintln(w, "MISSING DATA")
	if len(res.Missing) == 0 {
		fmt.Fprintln(w, "    None")
	}
	for _, section := range validation.Sections(res.Missing) {
		fmt.Fprintf(w, "    %s: [%s]\n", section, strings.Join(res.Missing[section], ", "))
	}
	fmt.Fprintln(w)
}

func printFields(w io.Writer, name string, fields domain.Fields, level int) {
	indent := strings.Repeat("    ", level)
	fmt.Fprintf(w, "%s%s\n", indent, name)
	for _, f := range fields.Items() {
		fmt.Fprintf(w, "%s    %s: %s\n", indent, f.Name, valueText(f.Value))
	}
}

func valueText(v domain.Value) string {
	switch {
	case v.Missing():
		return "NULL"
	case v.IsList():
		return "[" + v.String() + "]"
	default:
		return v.String()
	}
}

// printResults renders one line per report: its score and what is missing
func printResults(w io.Writer, results []services.Result) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FILE\tSCORE\tSTATUS")
	for _, res := range results {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", res.Filename, scoreText(res), statusText(res))
	}
	return tw.Flush()
}

// printSummary renders the batch totals
func printSummary(w io.Writer, sum services.BatchSummary) {
	fmt.Fprintf(w, "\n%d reports: %d scored, %d incomplete, %d failed\n",
		sum.Total, sum.Scored, sum.Incomplete, sum.Failed)
}

func scoreText(res services.Result) string {
	if res.Score == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *res.Score)
}

func statusText(res services.Result) string {
	if res.Failed() {
		return "failed: " + res.Err.Error()
	}

	var parts []string
	if len(res.Missing) > 0 {
		sections := validation.Sections(res.Missing)
		for i, section := range sections {
			sections[i] = fmt.Sprintf("%s (%s)", section, strings.Join(res.Missing[section], ", "))
		}
		parts = append(parts, "missing "+strings.Join(sections, "; "))
	}
	if len(res.Skipped) > 0 {
		parts = append(parts, "skipped "+strings.Join(res.Skipped, ", "))
	}
	if len(parts) == 0 {
		return "complete"
	}
	return strings.Join(parts, "; ")
}
