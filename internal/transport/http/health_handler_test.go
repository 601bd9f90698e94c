package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"creditfile/internal/config"
	"creditfile/internal/services"
	"creditfile/internal/shared/testutil"
)

func newHealthRouter(t *testing.T, paths config.PathsConfig, reports *services.ReportService) http.Handler {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	h := NewHealthHandler(services.NewHealthService("1.0.0-test", paths, reports, logger), logger)
	r := chi.NewRouter()
	r.Mount("/api/health", h.Routes())
	return r
}

func getStatus(t *testing.T, router http.Handler, target string) (int, services.HealthStatus) {
	t.Helper()
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))

	var status services.HealthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	return rec.Code, status
}

func TestHealthHandler(t *testing.T) {
	paths := config.PathsConfig{OutputDir: filepath.Join(t.TempDir(), "output")}
	router := newHealthRouter(t, paths, newReportService(t))

	code, status := getStatus(t, router, "/api/health")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", status.Status)
	assert.Equal(t, "1.0.0-test", status.Version)

	code, status = getStatus(t, router, "/api/health/ready")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ready", status.Status)

	code, status = getStatus(t, router, "/api/health/live")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "alive", status.Status)
}

func TestHealthHandlerNotReady(t *testing.T) {
	blocked := filepath.Join(t.TempDir(), "blocked")
	require.NoError(t, os.WriteFile(blocked, nil, 0644))
	router := newHealthRouter(t, config.PathsConfig{OutputDir: blocked}, nil)

	code, status := getStatus(t, router, "/api/health/ready")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "not_ready", status.Status)
	assert.Equal(t, "not_ready", status.Services["output"].Status)
}
