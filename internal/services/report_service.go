package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/errgroup"

	"creditfile/internal/dataprocessing"
	apperrors "creditfile/internal/errors"
	"creditfile/internal/features"
	"creditfile/internal/infrastructure"
	"creditfile/internal/normalize"
	"creditfile/internal/scoring"
	"creditfile/internal/validation"
	"creditfile/pkg/contracts/domain"
)

// Result is the outcome of processing one credit report. Err is set only
// when the workbook could not be read; every other problem degrades to
// skipped sections, missing fields or NaN features.
type Result struct {
	Filename string
	Record   *domain.NormalizedRecord
	Features domain.FeatureVector
	Details  features.Details
	Skipped  []string
	Missing  map[string][]string
	Score    *int
	Model    string
	Duration time.Duration
	Err      error
}

// Failed reports whether the document could not be processed
func (r Result) Failed() bool {
	return r.Err != nil
}

// ReportService runs the report pipeline: load, segment and extract,
// normalize, derive features, check essentials and score
type ReportService struct {
	engine  *features.Engine
	scorer  *scoring.Scorer
	tracer  trace.Tracer
	metrics *infrastructure.PipelineMetrics
	workers int
	logger  *slog.Logger
}

// ReportServiceOption configures a ReportService
type ReportServiceOption func(*ReportService)

// WithScorer enables credit scoring
func WithScorer(scorer *scoring.Scorer) ReportServiceOption {
	return func(s *ReportService) { s.scorer = scorer }
}

// WithTracer records a span per pipeline stage
func WithTracer(tracer trace.Tracer) ReportServiceOption {
	return func(s *ReportService) {
		if tracer != nil {
			s.tracer = tracer
		}
	}
}

// WithMetrics records document metrics
func WithMetrics(metrics *infrastructure.PipelineMetrics) ReportServiceOption {
	return func(s *ReportService) { s.metrics = metrics }
}

// WithWorkers bounds the number of documents a batch processes at once
func WithWorkers(n int) ReportServiceOption {
	return func(s *ReportService) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithLogger sets the service logger
func WithLogger(logger *slog.Logger) ReportServiceOption {
	return func(s *ReportService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewReportService creates a report service around a feature engine
func NewReportService(engine *features.Engine, opts ...ReportServiceOption) (*ReportService, error) {
	if engine == nil {
		return nil, ErrNoEngine
	}
	s := &ReportService{
		engine:  engine,
		tracer:  tracenoop.NewTracerProvider().Tracer(infrastructure.MeterName),
		workers: 1,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = infrastructure.WithComponent(s.logger, "report_service")
	return s, nil
}

// FeatureNames returns the published feature list
func (s *ReportService) FeatureNames() []string {
	return s.engine.FeatureNames()
}

// Scoring reports whether results carry a credit score
func (s *ReportService) Scoring() bool {
	return s.scorer != nil
}

// ProcessFile processes a report on disk
func (s *ReportService) ProcessFile(ctx context.Context, path string) Result {
	details, err := dataprocessing.StatFile(path)
	if err != nil {
		return s.fail(ctx, path, time.Now(), apperrors.NewParsingError("failed to read report", err).WithContext("path", path))
	}
	return s.process(ctx, details, func() (*dataprocessing.Grid, error) {
		return dataprocessing.LoadFile(path)
	})
}

// ProcessReader processes a report received as a byte stream
func (s *ReportService) ProcessReader(ctx context.Context, r io.Reader, details dataprocessing.FileDetails) Result {
	return s.process(ctx, details, func() (*dataprocessing.Grid, error) {
		return dataprocessing.LoadReader(r)
	})
}

func (s *ReportService) process(ctx context.Context, details dataprocessing.FileDetails, load func() (*dataprocessing.Grid, error)) Result {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		return Result{Filename: details.Filename, Err: err}
	}

	ctx, span := s.tracer.Start(ctx, "report.process",
		trace.WithAttributes(attribute.String("report.filename", details.Filename)))
	defer span.End()

	var grid *dataprocessing.Grid
	err := s.stage(ctx, "report.load", func(context.Context) error {
		var err error
		grid, err = load()
		return err
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return s.fail(ctx, details.Filename, start,
			apperrors.NewParsingError("failed to read workbook", err).WithContext("filename", details.Filename))
	}

	res := Result{Filename: details.Filename}

	var parsed *dataprocessing.ParsedRecord
	_ = s.stage(ctx, "report.parse", func(ctx context.Context) error {
		parsed = dataprocessing.ParseReport(grid, details)
		for section := range parsed.Skipped {
			res.Skipped = append(res.Skipped, string(section))
		}
		sort.Strings(res.Skipped)
		infrastructure.SetSpanAttributes(ctx, map[string]interface{}{
			"report.rows":             grid.Rows(),
			"report.sections_skipped": res.Skipped,
		})
		return nil
	})

	_ = s.stage(ctx, "report.normalize", func(context.Context) error {
		record := normalize.Normalize(parsed)
		res.Record = &record
		res.Missing = validation.MissingFields(res.Record)
		return nil
	})

	_ = s.stage(ctx, "report.features", func(ctx context.Context) error {
		res.Features, res.Details = s.engine.Build(res.Record)
		if res.Details.SolverErr != nil {
			infrastructure.AddSpanEvent(ctx, "loan.solver_failed", map[string]interface{}{
				"error": res.Details.SolverErr.Error(),
			})
		}
		return nil
	})

	if s.scorer != nil {
		_ = s.stage(ctx, "report.score", func(ctx context.Context) error {
			score, err := s.scorer.Score(res.Features)
			if err != nil {
				infrastructure.WithError(s.logger, err).WarnContext(ctx, "Scoring failed",
					slog.String("filename", res.Filename))
				return err
			}
			res.Score = &score
			res.Model = s.scorer.Model()
			return nil
		})
	}

	res.Duration = time.Since(start)
	s.metrics.RecordDocument(ctx, infrastructure.DocumentOutcome{
		Duration:        res.Duration,
		SkippedSections: res.Skipped,
		MissingFields:   res.Missing,
		Imputed:         res.Details.Imputed,
		SolverErr:       res.Details.SolverErr,
		Score:           res.Score,
	})

	attrs := []any{
		slog.String("filename", res.Filename),
		slog.Int("sections_skipped", len(res.Skipped)),
		slog.Int("sections_missing_fields", len(res.Missing)),
		slog.Bool("amortization_imputed", res.Details.Imputed),
		slog.Duration("duration", res.Duration),
	}
	if res.Score != nil {
		attrs = append(attrs,
			slog.Int("credit_score", *res.Score),
			slog.String("model", res.Model))
	}
	s.logger.InfoContext(ctx, "Report processed", attrs...)
	return res
}

// stage runs fn inside a child span
func (s *ReportService) stage(ctx context.Context, name string, fn func(context.Context) error) error {
	ctx, span := s.tracer.Start(ctx, name)
	defer span.End()

	if err := fn(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

func (s *ReportService) fail(ctx context.Context, filename string, start time.Time, err error) Result {
	res := Result{Filename: filename, Err: err, Duration: time.Since(start)}
	s.metrics.RecordDocument(ctx, infrastructure.DocumentOutcome{Duration: res.Duration, Failed: true})
	infrastructure.WithError(s.logger, err).ErrorContext(ctx, "Report failed",
		slog.String("filename", filename))
	return res
}

// ProcessBatch processes paths with at most the configured number of
// documents in flight. Results keep the order of paths. A failed document
// never stops the others; cancelling ctx stops scheduling new documents,
// whose results then carry the context error.
func (s *ReportService) ProcessBatch(ctx context.Context, paths []string) ([]Result, error) {
	ctx = infrastructure.EnsureTraceID(ctx)
	s.logger.InfoContext(ctx, "Batch started",
		slog.Int("documents", len(paths)),
		slog.Int("workers", s.workers))

	results := make([]Result, len(paths))
	scheduled := 0

	var g errgroup.Group
	g.SetLimit(s.workers)
	for i, path := range paths {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			results[i] = s.ProcessFile(ctx, path)
			return nil
		})
		scheduled++
	}
	g.Wait()

	for i := scheduled; i < len(paths); i++ {
		results[i] = Result{Filename: paths[i], Err: ctx.Err()}
	}

	summary := Summarize(results)
	s.logger.InfoContext(ctx, "Batch finished",
		slog.Int("documents", summary.Total),
		slog.Int("failed", summary.Failed),
		slog.Int("scored", summary.Scored),
		slog.Int("incomplete", summary.Incomplete))

	if err := ctx.Err(); err != nil {
		return results, fmt.Errorf("batch interrupted after %d of %d documents: %w", scheduled, len(paths), err)
	}
	return results, nil
}

// BatchSummary counts the outcomes of a batch
type BatchSummary struct {
	Total      int
	Failed     int
	Scored     int
	Incomplete int
}

// Summarize counts failed, scored and incomplete documents. A document is
// incomplete when any essential field is missing.
func Summarize(results []Result) BatchSummary {
	sum := BatchSummary{Total: len(results)}
	for _, r := range results {
		switch {
		case r.Failed():
			sum.Failed++
			continue
		case r.Score != nil:
			sum.Scored++
		}
		if len(r.Missing) > 0 {
			sum.Incomplete++
		}
	}
	return sum
}
