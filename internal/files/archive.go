package files

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// Archiver moves processed reports out of a watched directory
type Archiver struct {
	dir    string
	logger *slog.Logger
}

// NewArchiver creates an archiver that moves files into dir
func NewArchiver(dir string, logger *slog.Logger) *Archiver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Archiver{dir: dir, logger: logger.With(slog.String("component", "archiver"))}
}

// Archive moves path into the archive directory and returns the new path.
// An archived file with the same name is replaced.
func (a *Archiver) Archive(path string) (string, error) {
	dst := filepath.Join(a.dir, filepath.Base(path))

	a.logger.Info("Archiving report",
		slog.String("src", path),
		slog.String("dst", dst))

	if err := os.MkdirAll(a.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}

	// rename is atomic on the same file system
	if err := os.Rename(path, dst); err == nil {
		return dst, nil
	}
	if err := copyFile(path, dst); err != nil {
		return "", err
	}
	if err := os.Remove(path); err != nil {
		return "", fmt.Errorf("failed to remove archived source: %w", err)
	}
	return dst, nil
}

func copyFile(src, dst string) error {
	srcFile, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open source file: %w", err)
	}
	defer srcFile.Close()

	dstFile, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create destination file: %w", err)
	}
	defer dstFile.Close()

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		return fmt.Errorf("failed to copy file content: %w", err)
	}
	return dstFile.Sync()
}
