package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"creditfile/internal/config"
	"creditfile/internal/shared/testutil"
)

func TestHealthCheck(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	hs := NewHealthService("1.2.0", config.PathsConfig{}, nil, logger)

	status := hs.HealthCheck(context.Background())
	assert.Equal(t, "ok", status.Status)
	assert.Equal(t, "1.2.0", status.Version)

	live := hs.LivenessCheck(context.Background())
	assert.Equal(t, "alive", live.Status)
	assert.Contains(t, live.Runtime, "goroutines")
}

func TestReadinessCheck(t *testing.T) {
	logger, handler := testutil.NewTestLogger(t)
	out := filepath.Join(t.TempDir(), "out")

	hs := NewHealthService("1.2.0", config.PathsConfig{OutputDir: out}, newService(t), logger)
	status := hs.ReadinessCheck(context.Background())
	assert.Equal(t, "ready", status.Status)
	assert.Equal(t, "ready", status.Services["pipeline"].Status)
	assert.Contains(t, status.Services["pipeline"].Message, "scoring enabled")
	assert.DirExists(t, out)

	// a file where the output directory should be
	blocked := filepath.Join(t.TempDir(), "blocked")
	require.NoError(t, os.WriteFile(blocked, nil, 0644))
	hs = NewHealthService("1.2.0", config.PathsConfig{OutputDir: blocked}, nil, logger)
	status = hs.ReadinessCheck(context.Background())
	assert.Equal(t, "not_ready", status.Status)
	assert.Equal(t, "not_ready", status.Services["pipeline"].Status)
	assert.Equal(t, "not_ready", status.Services["output"].Status)
	assert.True(t, handler.ContainsMessage("Service not ready"))
}
