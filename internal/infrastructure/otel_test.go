package infrastructure

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"creditfile/internal/config"
	"creditfile/internal/shared/testutil"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func sum(t *testing.T, m metricdata.Metrics) int64 {
	t.Helper()
	data, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "%s is not an int64 sum", m.Name)
	var total int64
	for _, dp := range data.DataPoints {
		total += dp.Value
	}
	return total
}

func TestInitializeOTelDisabled(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	providers, err := InitializeOTel(&OTelConfig{ServiceName: ServiceName}, logger)
	require.NoError(t, err)

	assert.Nil(t, providers.TracerProvider)
	assert.Nil(t, providers.MeterProvider)
	assert.Nil(t, providers.PrometheusHTTP)

	// no-op instruments are still usable
	_, span := providers.Tracer.Start(context.Background(), "noop")
	span.End()
	m, err := CreatePipelineMetrics(providers.Meter)
	require.NoError(t, err)
	m.RecordDocument(context.Background(), DocumentOutcome{Duration: time.Second})

	assert.NoError(t, providers.Shutdown(context.Background()))
}

func TestInitializeOTelEnabled(t *testing.T) {
	var traces bytes.Buffer
	cfg := DefaultOTelConfig()
	cfg.EnableTracing = true
	cfg.TraceWriter = &traces

	providers, err := InitializeOTel(cfg, nil)
	require.NoError(t, err)
	require.NotNil(t, providers.TracerProvider)
	require.NotNil(t, providers.PrometheusHTTP)

	m, err := CreatePipelineMetrics(providers.Meter)
	require.NoError(t, err)
	score := 70
	m.RecordDocument(context.Background(), DocumentOutcome{Duration: 20 * time.Millisecond, Score: &score})

	_, span := providers.Tracer.Start(context.Background(), "report.process")
	span.End()

	rec := httptest.NewRecorder()
	providers.PrometheusHTTP.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "documents_processed_total")

	require.NoError(t, providers.Shutdown(context.Background()))
	assert.Contains(t, traces.String(), "report.process")
}

func TestInitializeOTelUnknownExporter(t *testing.T) {
	_, err := InitializeOTel(&OTelConfig{EnableTracing: true, TraceExporter: "zipkin"}, nil)
	assert.ErrorContains(t, err, "unsupported trace exporter")
}

func TestRecordDocument(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m, err := CreatePipelineMetrics(mp.Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()
	score := 55
	m.RecordDocument(ctx, DocumentOutcome{
		Duration:        10 * time.Millisecond,
		SkippedSections: []string{"officer_assessment"},
		MissingFields:   map[string][]string{"personal_data": {"present_address", "parents_address"}},
		Imputed:         true,
		Score:           &score,
	})
	m.RecordDocument(ctx, DocumentOutcome{Failed: true, SolverErr: errors.New("never amortizes")})
	m.RecordHTTPRequest(ctx, http.MethodPost, "/api/v1/reports", http.StatusOK, time.Millisecond)
	m.TrackActiveRequest(ctx, 1)

	metrics := collect(t, reader)
	assert.Equal(t, int64(2), sum(t, metrics["documents_processed_total"]))
	assert.Equal(t, int64(1), sum(t, metrics["sections_skipped_total"]))
	assert.Equal(t, int64(2), sum(t, metrics["missing_essential_fields_total"]))
	assert.Equal(t, int64(1), sum(t, metrics["amortization_imputed_total"]))
	assert.Equal(t, int64(1), sum(t, metrics["loan_solver_failures_total"]))
	assert.Equal(t, int64(1), sum(t, metrics["http_requests_total"]))
	assert.Equal(t, int64(1), sum(t, metrics["http_active_requests"]))
	assert.Contains(t, metrics, "credit_score")

	var nilMetrics *PipelineMetrics
	assert.NotPanics(t, func() {
		nilMetrics.RecordDocument(ctx, DocumentOutcome{})
		nilMetrics.RecordHTTPRequest(ctx, "GET", "/", 200, 0)
		nilMetrics.TrackActiveRequest(ctx, 1)
	})
}

func TestSpanHelpers(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	defer tp.Shutdown(context.Background())

	ctx, span := tp.Tracer("test").Start(context.Background(), "stage")
	assert.NotEmpty(t, TraceIDFromContext(ctx))

	SetSpanAttributes(ctx, map[string]interface{}{"document": "juan.xlsx", "rows": 84, "sections": []string{"personal_data"}})
	AddSpanEvent(ctx, "section.skipped", map[string]interface{}{"section": "officer_assessment"})
	RecordError(ctx, errors.New("unreadable"))
	span.End()

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "stage", spans[0].Name)
	assert.Len(t, spans[0].Attributes, 3)
	require.Len(t, spans[0].Events, 2) // section.skipped + exception
	assert.Equal(t, "section.skipped", spans[0].Events[0].Name)
	assert.Equal(t, "unreadable", spans[0].Status.Description)

	assert.Empty(t, TraceIDFromContext(context.Background()))
}

func TestLoggerUsesSpanTraceID(t *testing.T) {
	tp := sdktrace.NewTracerProvider()
	defer tp.Shutdown(context.Background())

	var buf bytes.Buffer
	logger, _, err := NewLogger(config.LoggingConfig{Level: "info", Format: "json", Output: "console"}, &buf)
	require.NoError(t, err)

	ctx, span := tp.Tracer("test").Start(context.Background(), "report.process")
	logger.InfoContext(ctx, "in span")
	logger.InfoContext(WithTraceID(ctx, "req-1"), "request id wins")
	span.End()

	entries := decodeLines(t, buf.Bytes())
	require.Len(t, entries, 2)
	assert.Equal(t, span.SpanContext().TraceID().String(), entries[0]["trace_id"])
	assert.Equal(t, "req-1", entries[1]["trace_id"])
}
