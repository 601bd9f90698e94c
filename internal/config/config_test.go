package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, DefaultWorkers, cfg.Pipeline.Workers)
	assert.Equal(t, DefaultInterestRate, cfg.Pipeline.InterestRate)
	assert.True(t, cfg.Pipeline.ValidateSchema)
	assert.False(t, cfg.Pipeline.Score, "scoring needs an explicit opt-in")
	assert.Empty(t, cfg.Pipeline.ModelFile)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, int64(10<<20), cfg.Server.MaxUploadSize)
	assert.Equal(t, "console", cfg.Logging.Output)
}

func TestLoadLayering(t *testing.T) {
	path := writeConfig(t, `
logging:
  level: debug
pipeline:
  workers: 2
  interest_rate: 0.02
server:
  port: 9000
  read_timeout: 5s
`)

	t.Run("file overrides defaults", func(t *testing.T) {
		cfg, err := Load(path)
		require.NoError(t, err)

		assert.Equal(t, "debug", cfg.Logging.Level)
		assert.Equal(t, 2, cfg.Pipeline.Workers)
		assert.Equal(t, 0.02, cfg.Pipeline.InterestRate)
		assert.Equal(t, 9000, cfg.Server.Port)
		assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
		// untouched keys keep their defaults
		assert.Equal(t, 60*time.Second, cfg.Server.WriteTimeout)
		assert.Equal(t, DefaultOutputDir, cfg.Paths.OutputDir)
	})

	t.Run("environment overrides file", func(t *testing.T) {
		t.Setenv("CREDITFILE_PIPELINE_WORKERS", "8")
		t.Setenv("CREDITFILE_SERVER_READ_TIMEOUT", "2s")
		t.Setenv("CREDITFILE_PATHS_OUTPUT_DIR", "/tmp/scored")
		t.Setenv("CREDITFILE_SERVER_RATE_LIMIT_ENABLED", "false")

		cfg, err := Load(path)
		require.NoError(t, err)

		assert.Equal(t, 8, cfg.Pipeline.Workers)
		assert.Equal(t, 2*time.Second, cfg.Server.ReadTimeout)
		assert.Equal(t, "/tmp/scored", cfg.Paths.OutputDir)
		assert.False(t, cfg.Server.RateLimit.Enabled)
		assert.Equal(t, 9000, cfg.Server.Port)
	})
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"unknown key", "pipeline:\n  worker: 3\n", "field worker not found"},
		{"bad level", "logging:\n  level: loud\n", "Logging.Level must be one of"},
		{"zero workers", "pipeline:\n  workers: 0\n", "Pipeline.Workers must be at least 1"},
		{"rate out of range", "pipeline:\n  interest_rate: 1.5\n", "Pipeline.InterestRate must be less than 1"},
		{"bad port", "server:\n  port: 70000\n", "Server.Port must be at most 65535"},
		{"file output needs a path", "logging:\n  output: file\n  file_path: \"\"\n", "Logging.FilePath is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadBadEnvironment(t *testing.T) {
	t.Setenv("CREDITFILE_PIPELINE_WORKERS", "many")
	_, err := Load(writeConfig(t, "{}\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "env")
}

func TestResolvePaths(t *testing.T) {
	cfg := Default()
	cfg.Pipeline.ModelFile = "models/custom.yaml"
	cfg.Paths.InputDir = "/srv/reports"

	base := t.TempDir()
	require.NoError(t, cfg.ResolvePaths(base))

	assert.Equal(t, "/srv/reports", cfg.Paths.InputDir)
	assert.Equal(t, filepath.Join(base, DefaultOutputDir), cfg.Paths.OutputDir)
	assert.Equal(t, filepath.Join(base, "models", "custom.yaml"), cfg.Pipeline.ModelFile)
	assert.Empty(t, cfg.Pipeline.VocabularyFile)
}

func TestEnsureDirectories(t *testing.T) {
	cfg := Default()
	cfg.Logging.Output = "both"
	require.NoError(t, cfg.ResolvePaths(t.TempDir()))
	require.NoError(t, cfg.EnsureDirectories())

	for _, dir := range []string{cfg.Paths.OutputDir, cfg.Paths.LogsDir, filepath.Dir(cfg.Logging.FilePath)} {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}

func TestExampleConfigMatchesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "configs", "config.example.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}
