package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"creditfile/internal/infrastructure"
)

// OTelMiddleware records HTTP metrics and annotates the server span that
// otelhttp opened for the request
type OTelMiddleware struct {
	metrics *infrastructure.PipelineMetrics
	logger  *slog.Logger
}

// NewOTelMiddleware creates the middleware. metrics may be nil when metrics
// are disabled.
func NewOTelMiddleware(metrics *infrastructure.PipelineMetrics, logger *slog.Logger) *OTelMiddleware {
	return &OTelMiddleware{
		metrics: metrics,
		logger:  logger.With(slog.String("component", "otel_middleware")),
	}
}

// Handler returns the middleware handler function
func (m *OTelMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		span := trace.SpanFromContext(ctx)
		if span.SpanContext().IsValid() {
			ctx = infrastructure.WithTraceID(ctx, span.SpanContext().TraceID().String())
			r = r.WithContext(ctx)
		}

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		m.metrics.TrackActiveRequest(ctx, 1)
		defer m.metrics.TrackActiveRequest(ctx, -1)

		start := time.Now()
		next.ServeHTTP(ww, r)
		duration := time.Since(start)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := getRoutePattern(r)
		m.metrics.RecordHTTPRequest(ctx, r.Method, route, status, duration)

		span.SetAttributes(
			attribute.String("http.route", route),
			attribute.Int("http.response.status_code", status),
			attribute.Int("http.response.body.size", ww.BytesWritten()),
		)
		if status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(status))
		}

		m.logger.DebugContext(ctx, "HTTP request measured",
			slog.String("route", route),
			slog.Int("status_code", status),
			slog.Duration("duration", duration))
	})
}

// getRoutePattern extracts the route pattern from request context
func getRoutePattern(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx != nil && rctx.RoutePattern() != "" {
		return rctx.RoutePattern()
	}
	return r.URL.Path
}
