package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// ResolvePaths makes every relative path in the configuration absolute
// against base. An empty base means the current working directory.
func (c *Config) ResolvePaths(base string) error {
	if base == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to get working directory: %w", err)
		}
		base = wd
	}

	for _, p := range []*string{
		&c.Paths.InputDir,
		&c.Paths.OutputDir,
		&c.Paths.LogsDir,
		&c.Logging.FilePath,
		&c.Pipeline.VocabularyFile,
		&c.Pipeline.ModelFile,
	} {
		*p = resolve(base, *p)
	}
	return nil
}

func resolve(base, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Clean(filepath.Join(base, path))
}

// EnsureDirectories creates the directories the application writes to
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.OutputDir}
	if c.Logging.Output == "file" || c.Logging.Output == "both" {
		dirs = append(dirs, filepath.Dir(c.Logging.FilePath))
	}
	if c.Paths.LogsDir != "" {
		dirs = append(dirs, c.Paths.LogsDir)
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// LogPathResolution logs the resolved paths for troubleshooting
func (c *Config) LogPathResolution(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Debug("Resolved paths",
		slog.String("input_dir", c.Paths.InputDir),
		slog.String("output_dir", c.Paths.OutputDir),
		slog.String("logs_dir", c.Paths.LogsDir),
		slog.String("log_file", c.Logging.FilePath),
		slog.String("vocabulary_file", c.Pipeline.VocabularyFile),
		slog.String("model_file", c.Pipeline.ModelFile))
}
