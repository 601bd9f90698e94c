package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"creditfile/internal/config"
	apierrors "creditfile/internal/errors"
	"creditfile/internal/features"
	"creditfile/internal/shared/testutil"
	api "creditfile/pkg/contracts/api/v1"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Paths.OutputDir = filepath.Join(t.TempDir(), "output")
	cfg.Server.Port = 0
	cfg.Pipeline.Score = true
	cfg.Telemetry.TracingEnabled = false
	return cfg
}

func newApp(t *testing.T, cfg *config.Config) *Application {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	a, err := New(cfg, logger)
	require.NoError(t, err)
	t.Cleanup(func() { a.OTelProviders.Shutdown(context.Background()) })
	return a
}

func serve(a *Application, method, target string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	a.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func upload(t *testing.T) (*bytes.Buffer, string) {
	t.Helper()
	path := testutil.SampleReport().SaveWorkbook(t, t.TempDir(), "juan.xlsx")
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile(api.FormFile, "juan.xlsx")
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &body, mw.FormDataContentType()
}

func TestRoutes(t *testing.T) {
	a := newApp(t, testConfig(t))

	rec := serve(a, http.MethodGet, "/api/health", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))

	rec = serve(a, http.MethodGet, "/api/health/ready", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(a, http.MethodGet, "/api/v1/features", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list api.FeatureListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Equal(t, features.ModelFeatures(), list.Features)

	rec = serve(a, http.MethodGet, "/api/v1/missing", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestScoreUpload(t *testing.T) {
	a := newApp(t, testConfig(t))

	body, ct := upload(t)
	rec := serve(a, http.MethodPost, "/api/v1/reports", body, ct)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "juan.xlsx", resp["filename"])
	assert.Contains(t, resp, "credit_score")
	assert.Equal(t, "baseline-linear", resp["score_model"])
	assert.Equal(t, rec.Header().Get("X-Request-ID"), resp["trace_id"])

	rec = serve(a, http.MethodPost, "/api/v1/reports", bytes.NewBufferString("{}"), "application/json")
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestUploadTooLarge(t *testing.T) {
	cfg := testConfig(t)
	cfg.Server.MaxUploadSize = 1024
	a := newApp(t, cfg)

	body, ct := upload(t)
	rec := serve(a, http.MethodPost, "/api/v1/reports", body, ct)
	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	var problem map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	assert.Equal(t, "PAYLOAD_TOO_LARGE", problem["error_code"])
	assert.Equal(t, float64(1024), problem["details"].(map[string]any)["max_size"])
}

func TestMetricsEndpoint(t *testing.T) {
	a := newApp(t, testConfig(t))

	body, ct := upload(t)
	require.Equal(t, http.StatusOK, serve(a, http.MethodPost, "/api/v1/reports", body, ct).Code)

	rec := serve(a, http.MethodGet, "/metrics", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "documents_processed_total")
	assert.Contains(t, rec.Body.String(), "http_requests_total")
}

func TestMetricsDisabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.Telemetry.MetricsEnabled = false
	a := newApp(t, cfg)

	assert.Nil(t, a.Metrics)
	assert.Equal(t, http.StatusNotFound, serve(a, http.MethodGet, "/metrics", nil, "").Code)
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig(t)
	cfg.Server.RateLimit.RPS = 0.001
	cfg.Server.RateLimit.Burst = 1
	a := newApp(t, cfg)

	assert.Equal(t, http.StatusOK, serve(a, http.MethodGet, "/api/v1/features", nil, "").Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(a, http.MethodGet, "/api/v1/features", nil, "").Code)
	// health checks are not rate limited
	assert.Equal(t, http.StatusOK, serve(a, http.MethodGet, "/api/health", nil, "").Code)
}

func TestNewReportService(t *testing.T) {
	logger, handler := testutil.NewTestLogger(t)
	cfg := config.Default().Pipeline

	svc, err := NewReportService(cfg, logger)
	require.NoError(t, err)
	assert.False(t, svc.Scoring(), "scoring is off unless configured")
	assert.Empty(t, handler.GetRecordsByLevel(slog.LevelWarn))

	cfg.Score = true
	svc, err = NewReportService(cfg, logger)
	require.NoError(t, err)
	assert.True(t, svc.Scoring())
	testutil.AssertLogContains(t, handler, slog.LevelWarn, "built-in baseline model")

	cfg.ModelFile = filepath.Join(t.TempDir(), "missing.yaml")
	_, err = NewReportService(cfg, logger)
	assert.ErrorContains(t, err, "failed to load model")
	var appErr *apierrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apierrors.ErrTypeConfig, appErr.Type)
	assert.Equal(t, cfg.ModelFile, appErr.Context["file"])

	cfg.ModelFile = ""
	cfg.VocabularyFile = filepath.Join(t.TempDir(), "missing.txt")
	_, err = NewReportService(cfg, logger)
	assert.ErrorContains(t, err, "failed to load vocabulary")
}

func TestRunStopsOnCancel(t *testing.T) {
	a := newApp(t, testConfig(t))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	require.Eventually(t, func() bool { return a.Addr() != "" }, 5*time.Second, 10*time.Millisecond)

	resp, err := http.Get("http://" + a.Addr() + "/api/health/live")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
