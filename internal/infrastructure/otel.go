package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.28.0"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"creditfile/internal/config"
	"creditfile/pkg/contracts"
)

const (
	ServiceName = "creditfile"
	MeterName   = "creditfile"
)

// OTelConfig holds OpenTelemetry configuration
type OTelConfig struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	TraceExporter  string // "stdout" or "none"
	EnableMetrics  bool
	EnableTracing  bool
	SampleRatio    float64
	TraceWriter    io.Writer
}

// OTelProviders holds the OpenTelemetry providers. Tracer and Meter are
// always usable; they are no-ops when the matching signal is disabled.
type OTelProviders struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
	Tracer         trace.Tracer
	Meter          metric.Meter
	PrometheusHTTP http.Handler
	Logger         *slog.Logger
}

// NewOTelConfig maps the telemetry section of the configuration
func NewOTelConfig(cfg config.TelemetryConfig) *OTelConfig {
	return &OTelConfig{
		ServiceName:    ServiceName,
		ServiceVersion: contracts.Version,
		Environment:    cfg.Environment,
		TraceExporter:  cfg.TraceExporter,
		EnableMetrics:  cfg.MetricsEnabled,
		EnableTracing:  cfg.TracingEnabled,
		SampleRatio:    cfg.SampleRate,
		TraceWriter:    os.Stderr,
	}
}

// DefaultOTelConfig returns the configuration for the default telemetry section
func DefaultOTelConfig() *OTelConfig {
	return NewOTelConfig(config.Default().Telemetry)
}

// InitializeOTel sets up tracing and metrics providers
func InitializeOTel(cfg *OTelConfig, logger *slog.Logger) (*OTelProviders, error) {
	if cfg == nil {
		cfg = DefaultOTelConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	ctx := context.Background()

	res := createResource(cfg)
	providers := &OTelProviders{
		Tracer: tracenoop.NewTracerProvider().Tracer(MeterName),
		Meter:  metricnoop.NewMeterProvider().Meter(MeterName),
		Logger: logger,
	}

	if cfg.EnableTracing {
		if err := initializeTracing(ctx, cfg, res, providers); err != nil {
			return nil, fmt.Errorf("failed to initialize tracing: %w", err)
		}
	}
	if cfg.EnableMetrics {
		if err := initializeMetrics(ctx, cfg, res, providers); err != nil {
			return nil, fmt.Errorf("failed to initialize metrics: %w", err)
		}
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	logger.DebugContext(ctx, "OpenTelemetry initialized",
		slog.String("service", cfg.ServiceName),
		slog.String("version", cfg.ServiceVersion),
		slog.String("environment", cfg.Environment),
		slog.Bool("tracing_enabled", cfg.EnableTracing),
		slog.Bool("metrics_enabled", cfg.EnableMetrics))

	return providers, nil
}

func createResource(cfg *OTelConfig) *resource.Resource {
	hostname, _ := os.Hostname()
	return resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.ServiceVersion),
		semconv.DeploymentEnvironmentName(cfg.Environment),
		attribute.String("service.instance.id", fmt.Sprintf("%s-%d", hostname, time.Now().Unix())),
	)
}

func initializeTracing(ctx context.Context, cfg *OTelConfig, res *resource.Resource, providers *OTelProviders) error {
	var exporter sdktrace.SpanExporter
	switch cfg.TraceExporter {
	case "stdout":
		w := cfg.TraceWriter
		if w == nil {
			w = os.Stderr
		}
		exp, err := stdouttrace.New(stdouttrace.WithWriter(w), stdouttrace.WithPrettyPrint())
		if err != nil {
			return fmt.Errorf("failed to create trace exporter: %w", err)
		}
		exporter = exp
	case "none", "":
		return nil
	default:
		return fmt.Errorf("unsupported trace exporter: %s", cfg.TraceExporter)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.TraceIDRatioBased(cfg.SampleRatio)),
	)
	providers.TracerProvider = tp
	providers.Tracer = tp.Tracer(MeterName, trace.WithInstrumentationVersion(cfg.ServiceVersion))
	otel.SetTracerProvider(tp)

	providers.Logger.DebugContext(ctx, "Tracing initialized",
		slog.String("exporter", cfg.TraceExporter),
		slog.Float64("sample_ratio", cfg.SampleRatio))
	return nil
}

func initializeMetrics(ctx context.Context, cfg *OTelConfig, res *resource.Resource, providers *OTelProviders) error {
	registry := promclient.NewRegistry()
	exporter, err := prometheus.New(prometheus.WithRegisterer(registry))
	if err != nil {
		return fmt.Errorf("failed to create prometheus exporter: %w", err)
	}
	providers.PrometheusHTTP = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)
	providers.MeterProvider = mp
	providers.Meter = mp.Meter(MeterName, metric.WithInstrumentationVersion(cfg.ServiceVersion))
	otel.SetMeterProvider(mp)

	providers.Logger.DebugContext(ctx, "Metrics initialized", slog.String("exporter", "prometheus"))
	return nil
}

// Shutdown flushes and stops the providers
func (p *OTelProviders) Shutdown(ctx context.Context) error {
	var errs []error
	if p.TracerProvider != nil {
		if err := p.TracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer provider shutdown: %w", err))
		}
	}
	if p.MeterProvider != nil {
		if err := p.MeterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter provider shutdown: %w", err))
		}
	}
	return errors.Join(errs...)
}

// PipelineMetrics holds the report pipeline and HTTP instruments
type PipelineMetrics struct {
	DocumentsProcessed  metric.Int64Counter
	DocumentDuration    metric.Float64Histogram
	SectionsSkipped     metric.Int64Counter
	MissingFields       metric.Int64Counter
	AmortizationImputed metric.Int64Counter
	SolverFailures      metric.Int64Counter
	CreditScores        metric.Int64Histogram

	HTTPRequestsTotal   metric.Int64Counter
	HTTPRequestDuration metric.Float64Histogram
	HTTPActiveRequests  metric.Int64UpDownCounter
}

// CreatePipelineMetrics registers the pipeline instruments on meter
func CreatePipelineMetrics(meter metric.Meter) (*PipelineMetrics, error) {
	var (
		m    PipelineMetrics
		errs []error
		err  error
	)
	collect := func(e error) {
		if e != nil {
			errs = append(errs, e)
		}
	}

	m.DocumentsProcessed, err = meter.Int64Counter("documents_processed_total",
		metric.WithDescription("Total number of credit reports processed"))
	collect(err)
	m.DocumentDuration, err = meter.Float64Histogram("document_duration_seconds",
		metric.WithDescription("Time to process one credit report"),
		metric.WithUnit("s"))
	collect(err)
	m.SectionsSkipped, err = meter.Int64Counter("sections_skipped_total",
		metric.WithDescription("Report sections that could not be located or parsed"))
	collect(err)
	m.MissingFields, err = meter.Int64Counter("missing_essential_fields_total",
		metric.WithDescription("Essential fields absent from processed reports"))
	collect(err)
	m.AmortizationImputed, err = meter.Int64Counter("amortization_imputed_total",
		metric.WithDescription("Monthly amortizations computed from loan terms"))
	collect(err)
	m.SolverFailures, err = meter.Int64Counter("loan_solver_failures_total",
		metric.WithDescription("Loan parameter solves that produced no payment"))
	collect(err)
	m.CreditScores, err = meter.Int64Histogram("credit_score",
		metric.WithDescription("Distribution of assigned credit scores"),
		metric.WithExplicitBucketBoundaries(10, 20, 30, 40, 50, 60, 70, 80, 90, 100))
	collect(err)

	m.HTTPRequestsTotal, err = meter.Int64Counter("http_requests_total",
		metric.WithDescription("Total number of HTTP requests"))
	collect(err)
	m.HTTPRequestDuration, err = meter.Float64Histogram("http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"))
	collect(err)
	m.HTTPActiveRequests, err = meter.Int64UpDownCounter("http_active_requests",
		metric.WithDescription("Number of active HTTP requests"))
	collect(err)

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return &m, nil
}

// DocumentOutcome summarizes one processed report for metrics
type DocumentOutcome struct {
	Duration        time.Duration
	Failed          bool
	SkippedSections []string
	MissingFields   map[string][]string
	Imputed         bool
	SolverErr       error
	Score           *int
}

// RecordDocument records the metrics of one processed report
func (m *PipelineMetrics) RecordDocument(ctx context.Context, out DocumentOutcome) {
	if m == nil {
		return
	}

	status := "success"
	if out.Failed {
		status = "failure"
	}
	statusAttr := metric.WithAttributes(attribute.String("status", status))
	m.DocumentsProcessed.Add(ctx, 1, statusAttr)
	m.DocumentDuration.Record(ctx, out.Duration.Seconds(), statusAttr)

	for _, section := range out.SkippedSections {
		m.SectionsSkipped.Add(ctx, 1, metric.WithAttributes(attribute.String("section", section)))
	}
	for section, names := range out.MissingFields {
		m.MissingFields.Add(ctx, int64(len(names)), metric.WithAttributes(attribute.String("section", section)))
	}
	if out.Imputed {
		m.AmortizationImputed.Add(ctx, 1)
	}
	if out.SolverErr != nil {
		m.SolverFailures.Add(ctx, 1)
	}
	if out.Score != nil {
		m.CreditScores.Record(ctx, int64(*out.Score))
	}
}

// RecordHTTPRequest records one finished HTTP request
func (m *PipelineMetrics) RecordHTTPRequest(ctx context.Context, method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("http.method", method),
		attribute.String("http.route", route),
		attribute.Int("http.status_code", status),
	)
	m.HTTPRequestsTotal.Add(ctx, 1, attrs)
	m.HTTPRequestDuration.Record(ctx, duration.Seconds(), attrs)
}

// TrackActiveRequest adjusts the in-flight request gauge
func (m *PipelineMetrics) TrackActiveRequest(ctx context.Context, delta int64) {
	if m == nil {
		return
	}
	m.HTTPActiveRequests.Add(ctx, delta)
}

// TraceIDFromContext extracts the span trace ID for log correlation
func TraceIDFromContext(ctx context.Context) string {
	spanCtx := trace.SpanContextFromContext(ctx)
	if spanCtx.IsValid() {
		return spanCtx.TraceID().String()
	}
	return ""
}

// AddSpanEvent adds an event to the current span
func AddSpanEvent(ctx context.Context, name string, attributes map[string]interface{}) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.AddEvent(name, trace.WithAttributes(toAttributes(attributes)...))
}

// RecordError records an error on the current span
func RecordError(ctx context.Context, err error, options ...trace.EventOption) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.RecordError(err, options...)
	span.SetStatus(codes.Error, err.Error())
}

// SetSpanAttributes sets attributes on the current span
func SetSpanAttributes(ctx context.Context, attributes map[string]interface{}) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.SetAttributes(toAttributes(attributes)...)
}

func toAttributes(values map[string]interface{}) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, len(values))
	for k, v := range values {
		switch val := v.(type) {
		case string:
			attrs = append(attrs, attribute.String(k, val))
		case int:
			attrs = append(attrs, attribute.Int(k, val))
		case int64:
			attrs = append(attrs, attribute.Int64(k, val))
		case float64:
			attrs = append(attrs, attribute.Float64(k, val))
		case bool:
			attrs = append(attrs, attribute.Bool(k, val))
		case []string:
			attrs = append(attrs, attribute.StringSlice(k, val))
		default:
			attrs = append(attrs, attribute.String(k, fmt.Sprintf("%v", val)))
		}
	}
	return attrs
}
