package files

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	apperrors "creditfile/internal/errors"
	"creditfile/internal/validation"
)

// FileInfo describes a discovered report workbook
type FileInfo struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
}

func newFileInfo(path string, info os.FileInfo) FileInfo {
	return FileInfo{
		Path:    path,
		Name:    info.Name(),
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}
}

// Discovery finds report workbooks. Relative paths resolve against the
// base path.
type Discovery struct {
	basePath  string
	validator *validation.FileValidator
	logger    *slog.Logger
}

// NewDiscovery creates a discovery rooted at basePath
func NewDiscovery(basePath string, logger *slog.Logger) *Discovery {
	if logger == nil {
		logger = slog.Default()
	}
	return &Discovery{
		basePath:  basePath,
		validator: validation.NewFileValidator(logger),
		logger:    logger.With(slog.String("component", "discovery")),
	}
}

// FindWorkbooks lists the .xlsx reports directly inside dir, oldest first.
// Lock files and subdirectories are skipped.
func (d *Discovery) FindWorkbooks(dir string) ([]FileInfo, error) {
	fullPath := d.resolve(dir)

	entries, err := os.ReadDir(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", fullPath, err)
	}

	var files []FileInfo
	for _, entry := range entries {
		if entry.IsDir() || validation.CheckWorkbookName(entry.Name()) != nil {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, newFileInfo(filepath.Join(fullPath, entry.Name()), info))
	}

	sortByModTime(files)
	d.logger.Debug("Workbooks discovered",
		slog.String("directory", fullPath),
		slog.Int("count", len(files)))
	return files, nil
}

// Resolve expands a mix of workbook paths and directories into the list of
// reports to process. Explicitly named files must be readable workbooks.
func (d *Discovery) Resolve(paths ...string) ([]FileInfo, error) {
	var files []FileInfo
	seen := make(map[string]bool)
	add := func(f FileInfo) {
		if !seen[f.Path] {
			seen[f.Path] = true
			files = append(files, f)
		}
	}

	for _, p := range paths {
		fullPath := d.resolve(p)
		info, err := os.Stat(fullPath)
		if os.IsNotExist(err) {
			return nil, apperrors.NewNotFoundError(fullPath)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", fullPath, err)
		}
		if !info.IsDir() {
			if err := d.validator.ValidateWorkbook(fullPath); err != nil {
				return nil, err
			}
			add(newFileInfo(fullPath, info))
			continue
		}
		found, err := d.FindWorkbooks(fullPath)
		if err != nil {
			return nil, err
		}
		for _, f := range found {
			add(f)
		}
	}
	return files, nil
}

func (d *Discovery) resolve(path string) string {
	if filepath.IsAbs(path) || d.basePath == "" {
		return path
	}
	return filepath.Join(d.basePath, path)
}

func sortByModTime(files []FileInfo) {
	sort.SliceStable(files, func(i, j int) bool {
		if !files[i].ModTime.Equal(files[j].ModTime) {
			return files[i].ModTime.Before(files[j].ModTime)
		}
		return files[i].Name < files[j].Name
	})
}
