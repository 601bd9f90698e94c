package services

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"creditfile/internal/dataprocessing"
	apperrors "creditfile/internal/errors"
	"creditfile/internal/features"
	"creditfile/internal/infrastructure"
	"creditfile/internal/loan"
	"creditfile/internal/scoring"
	"creditfile/internal/shared/testutil"
)

func newService(t *testing.T, opts ...ReportServiceOption) *ReportService {
	t.Helper()
	engine, err := features.NewEngine(features.DefaultBagOfWords())
	require.NoError(t, err)

	model, scaler, err := scoring.DefaultModel(engine.FeatureNames())
	require.NoError(t, err)

	logger, _ := testutil.NewTestLogger(t)
	opts = append([]ReportServiceOption{WithScorer(scoring.NewScorer(model, scaler)), WithLogger(logger)}, opts...)
	svc, err := NewReportService(engine, opts...)
	require.NoError(t, err)
	return svc
}

func writeCorrupt(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("not a workbook"), 0644))
	return path
}

func TestNewReportServiceRequiresEngine(t *testing.T) {
	_, err := NewReportService(nil)
	assert.ErrorIs(t, err, ErrNoEngine)
}

func TestProcessFile(t *testing.T) {
	svc := newService(t)
	path := testutil.SampleReport().SaveWorkbook(t, t.TempDir(), "juan.xlsx")

	res := svc.ProcessFile(context.Background(), path)
	require.NoError(t, res.Err)
	assert.False(t, res.Failed())
	assert.Equal(t, "juan.xlsx", res.Filename)

	require.NotNil(t, res.Record)
	assert.Equal(t, "juan.xlsx", res.Record.Filename)
	assert.NotEmpty(t, res.Record.LastModified)
	name, ok := res.Record.PersonalData.Get("name")
	require.True(t, ok)
	assert.Equal(t, "Juan Dela Cruz", name.String())

	assert.Equal(t, map[string][]string{
		"personal_data":           {"present_address", "parents_address"},
		"income_analysis.summary": {"monthly_amortization"},
	}, res.Missing)

	require.Equal(t, len(features.ModelFeatures()), res.Features.Len())
	amort, ok := res.Features.Get("num__monthly_amortization")
	require.True(t, ok)
	assert.InDelta(t, loan.Payment(85000, features.DefaultInterestRate, 24), amort, 1e-6)
	assert.True(t, res.Details.Imputed)

	require.NotNil(t, res.Score)
	assert.GreaterOrEqual(t, *res.Score, scoring.MinScore)
	assert.LessOrEqual(t, *res.Score, scoring.MaxScore)
	assert.Equal(t, "baseline-linear", res.Model)
}

func TestProcessFileWithoutScorer(t *testing.T) {
	engine, err := features.NewEngine(features.DefaultBagOfWords())
	require.NoError(t, err)
	svc, err := NewReportService(engine)
	require.NoError(t, err)
	assert.False(t, svc.Scoring())

	path := testutil.SampleReport().SaveWorkbook(t, t.TempDir(), "juan.xlsx")
	res := svc.ProcessFile(context.Background(), path)
	require.NoError(t, res.Err)
	assert.Nil(t, res.Score)
	assert.Empty(t, res.Model)
}

func TestProcessFileUnreadable(t *testing.T) {
	svc := newService(t)
	dir := t.TempDir()

	for _, path := range []string{writeCorrupt(t, dir, "broken.xlsx"), filepath.Join(dir, "absent.xlsx")} {
		res := svc.ProcessFile(context.Background(), path)
		require.Error(t, res.Err, path)
		assert.True(t, res.Failed())
		assert.Nil(t, res.Record)

		var appErr *apperrors.AppError
		require.True(t, errors.As(res.Err, &appErr))
		assert.Equal(t, apperrors.ErrTypeParsing, appErr.Type)
	}
}

func TestProcessReader(t *testing.T) {
	svc := newService(t)
	path := testutil.SampleReport().SaveWorkbook(t, t.TempDir(), "juan.xlsx")
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	details := dataprocessing.FileDetails{Filename: "upload.xlsx", LastModified: testutil.SampleModifiedTime}
	res := svc.ProcessReader(context.Background(), bytes.NewReader(data), details)
	require.NoError(t, res.Err)
	assert.Equal(t, "upload.xlsx", res.Record.Filename)
	assert.Equal(t, dataprocessing.FormatTimestamp(testutil.SampleModifiedTime), res.Record.LastModified)

	res = svc.ProcessReader(context.Background(), bytes.NewReader([]byte("junk")), details)
	assert.Error(t, res.Err)
}

func TestProcessBatch(t *testing.T) {
	svc := newService(t, WithWorkers(2))
	dir := t.TempDir()
	paths := []string{
		testutil.SampleReport().SaveWorkbook(t, dir, "a.xlsx"),
		writeCorrupt(t, dir, "b.xlsx"),
		testutil.SampleReport().SaveWorkbook(t, dir, "c.xlsx"),
	}

	results, err := svc.ProcessBatch(context.Background(), paths)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "a.xlsx", results[0].Filename)
	assert.Equal(t, "b.xlsx", results[1].Filename)
	assert.Equal(t, "c.xlsx", results[2].Filename)
	assert.NoError(t, results[0].Err)
	assert.Error(t, results[1].Err, "a broken document fails alone")
	assert.NoError(t, results[2].Err)

	assert.Equal(t, BatchSummary{Total: 3, Failed: 1, Scored: 2, Incomplete: 2}, Summarize(results))
}

func TestProcessBatchCancelled(t *testing.T) {
	svc := newService(t)
	dir := t.TempDir()
	paths := []string{
		testutil.SampleReport().SaveWorkbook(t, dir, "a.xlsx"),
		testutil.SampleReport().SaveWorkbook(t, dir, "b.xlsx"),
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	results, err := svc.ProcessBatch(ctx, paths)
	require.ErrorIs(t, err, context.Canceled)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.ErrorIs(t, r.Err, context.Canceled)
	}
}

func TestProcessTelemetry(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	defer tp.Shutdown(context.Background())

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	metrics, err := infrastructure.CreatePipelineMetrics(mp.Meter("test"))
	require.NoError(t, err)

	svc := newService(t, WithTracer(tp.Tracer("test")), WithMetrics(metrics))
	dir := t.TempDir()
	svc.ProcessFile(context.Background(), testutil.SampleReport().SaveWorkbook(t, dir, "juan.xlsx"))
	svc.ProcessFile(context.Background(), writeCorrupt(t, dir, "broken.xlsx"))

	names := make(map[string]int)
	for _, span := range exporter.GetSpans() {
		names[span.Name]++
	}
	assert.Equal(t, 2, names["report.process"])
	assert.Equal(t, 2, names["report.load"])
	for _, stage := range []string{"report.parse", "report.normalize", "report.features", "report.score"} {
		assert.Equal(t, 1, names[stage], stage)
	}

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	var processed int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "documents_processed_total" {
				continue
			}
			for _, dp := range m.Data.(metricdata.Sum[int64]).DataPoints {
				processed += dp.Value
			}
		}
	}
	assert.Equal(t, int64(2), processed)
}

type failingClassifier struct{}

func (failingClassifier) Predict([]float64) (float64, error) {
	return 0, errors.New("model unavailable")
}

type identityScaler struct{}

func (identityScaler) Scale(raw float64) float64 { return raw }

func TestProcessFileScoringFailure(t *testing.T) {
	engine, err := features.NewEngine(features.DefaultBagOfWords())
	require.NoError(t, err)
	logger, handler := testutil.NewTestLogger(t)
	svc, err := NewReportService(engine,
		WithScorer(scoring.NewScorer(failingClassifier{}, identityScaler{})),
		WithLogger(logger))
	require.NoError(t, err)

	path := testutil.SampleReport().SaveWorkbook(t, t.TempDir(), "juan.xlsx")
	res := svc.ProcessFile(context.Background(), path)

	// the record is still exported, only the score is withheld
	require.NoError(t, res.Err)
	require.NotNil(t, res.Record)
	assert.Nil(t, res.Score)
	assert.Empty(t, res.Model)
	testutil.AssertLogContains(t, handler, slog.LevelWarn, "Scoring failed")
}
