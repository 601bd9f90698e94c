package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	apierrors "creditfile/internal/errors"
	"creditfile/internal/infrastructure"
	"creditfile/internal/shared/testutil"
)

func ok(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func errorHandler(t *testing.T) (*apierrors.ErrorHandler, *testutil.BufferedSlogHandler) {
	t.Helper()
	logger, handler := testutil.NewTestLogger(t)
	return apierrors.NewErrorHandler(logger, false), handler
}

func TestRequestID(t *testing.T) {
	var seen, trace string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = chimw.GetReqID(r.Context())
		trace = infrastructure.GetTraceID(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Len(t, seen, 36)
	assert.Equal(t, seen, trace)
	assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "client-id")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "client-id", seen)
	assert.Equal(t, "client-id", rec.Header().Get(RequestIDHeader))
}

func TestGetRequestID(t *testing.T) {
	ctx := infrastructure.WithTraceID(context.Background(), "trace")
	assert.Equal(t, "trace", GetRequestID(ctx))

	ctx = context.WithValue(ctx, chimw.RequestIDKey, "req")
	assert.Equal(t, "req", GetRequestID(ctx))
}

func TestRateLimiter(t *testing.T) {
	eh, logs := errorHandler(t)
	logger, limiterLogs := testutil.NewTestLogger(t)
	h := NewRateLimiter(0.5, 2, eh, logger).Handler(http.HandlerFunc(ok))

	codes := make([]int, 3)
	var last *httptest.ResponseRecorder
	for i := range codes {
		last = httptest.NewRecorder()
		h.ServeHTTP(last, httptest.NewRequest(http.MethodGet, "/api/v1/features", nil))
		codes[i] = last.Code
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
	assert.Equal(t, "2", last.Header().Get("Retry-After"))

	var problem map[string]any
	require.NoError(t, json.Unmarshal(last.Body.Bytes(), &problem))
	assert.Equal(t, apierrors.TypeRateLimit, problem["type"])

	testutil.AssertLogContains(t, limiterLogs, slog.LevelWarn, "rate limit exceeded")
	testutil.AssertLogContains(t, logs, slog.LevelWarn, "request failed")
}

func TestTimeout(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	eh, _ := errorHandler(t)

	h := Timeout(10*time.Millisecond, logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
		eh.HandleError(w, r, r.Context().Err())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/reports", nil))
	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
	testutil.AssertLogContains(t, logs, slog.LevelError, "request timeout")

	logs.Clear()
	rec = httptest.NewRecorder()
	Timeout(time.Second, logger)(http.HandlerFunc(ok)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, logs.Count())
}

func TestSecurityHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	SecurityHeaders(http.HandlerFunc(ok)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Empty(t, rec.Header().Get("Strict-Transport-Security"))
}

func TestContentTypeValidator(t *testing.T) {
	eh, _ := errorHandler(t)
	h := ContentTypeValidator(eh, "multipart/form-data")(http.HandlerFunc(ok))

	tests := []struct {
		name        string
		method      string
		contentType string
		want        int
	}{
		{"get passes", http.MethodGet, "", http.StatusOK},
		{"multipart", http.MethodPost, "multipart/form-data; boundary=x", http.StatusOK},
		{"missing", http.MethodPost, "", http.StatusBadRequest},
		{"malformed", http.MethodPost, "multipart/", http.StatusBadRequest},
		{"json", http.MethodPost, "application/json", http.StatusUnsupportedMediaType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/", strings.NewReader("body"))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestBodyLimit(t *testing.T) {
	eh, _ := errorHandler(t)
	var readErr error
	h := BodyLimit(4, eh)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := make([]byte, 16)
		_, readErr = r.Body.Read(buf)
		for readErr == nil {
			_, readErr = r.Body.Read(buf)
		}
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("too long")))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	// undeclared length is capped while reading
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("too long"))
	req.ContentLength = -1
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	var tooLarge *http.MaxBytesError
	assert.ErrorAs(t, readErr, &tooLarge)
}

func TestOTelMiddleware(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	metrics, err := infrastructure.CreatePipelineMetrics(provider.Meter("test"))
	require.NoError(t, err)

	logger, _ := testutil.NewTestLogger(t)
	r := chi.NewRouter()
	r.Use(NewOTelMiddleware(metrics, logger).Handler)
	r.Get("/api/health/{check}", ok)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health/live", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	var routes []string
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "http_requests_total" {
				continue
			}
			sum := m.Data.(metricdata.Sum[int64])
			for _, dp := range sum.DataPoints {
				route, _ := dp.Attributes.Value("http.route")
				routes = append(routes, route.AsString())
				assert.Equal(t, int64(1), dp.Value)
			}
		}
	}
	assert.Equal(t, []string{"/api/health/{check}"}, routes)
}

func TestOTelMiddlewareWithoutMetrics(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	rec := httptest.NewRecorder()
	NewOTelMiddleware(nil, logger).Handler(http.HandlerFunc(ok)).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
