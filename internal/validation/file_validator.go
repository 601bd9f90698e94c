package validation

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrNotWorkbook is returned for files without the .xlsx extension
	ErrNotWorkbook = errors.New("not an xlsx workbook")
	// ErrLockFile is returned for the "~$" lock files spreadsheet editors
	// leave next to open workbooks
	ErrLockFile = errors.New("spreadsheet lock file")
)

// WorkbookPattern matches credit report workbooks
const WorkbookPattern = "*.xlsx"

// FileValidator checks report inputs and output locations
type FileValidator struct {
	logger *slog.Logger
}

// NewFileValidator creates a validator. A nil logger uses slog.Default.
func NewFileValidator(logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{
		logger: logger.With(slog.String("component", "file_validator")),
	}
}

// ValidateInputDirectory checks that dir exists and is a directory. Finding
// no workbooks is logged, not an error.
func (v *FileValidator) ValidateInputDirectory(dir string) error {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		v.logger.Error("Input directory does not exist",
			slog.String("directory", dir))
		return fmt.Errorf("input directory %s does not exist", dir)
	}
	if err != nil {
		return fmt.Errorf("failed to stat directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		v.logger.Error("Input path is not a directory",
			slog.String("path", dir))
		return fmt.Errorf("%s is not a directory", dir)
	}

	n, err := v.CountWorkbooks(dir)
	if err != nil {
		return err
	}
	if n == 0 {
		v.logger.Warn("No workbooks found",
			slog.String("directory", dir))
		return nil
	}
	v.logger.Info("Input directory validated",
		slog.String("directory", dir),
		slog.Int("files_found", n))
	return nil
}

// ValidateOutputDirectory creates dir if needed and checks it is writable
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		v.logger.Error("Failed to create output directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".write_test")
	if err != nil {
		v.logger.Error("Output directory is not writable",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("output directory %s is not writable: %w", dir, err)
	}
	tmp.Close()
	os.Remove(tmp.Name())

	v.logger.Debug("Output directory validated",
		slog.String("directory", dir))
	return nil
}

// ValidateFile checks that path is a readable regular file
func (v *FileValidator) ValidateFile(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return fmt.Errorf("file %s does not exist", path)
	}
	if err != nil {
		return fmt.Errorf("failed to stat file %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory, not a file", path)
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("file %s is not readable: %w", path, err)
	}
	file.Close()

	v.logger.Debug("File validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}

// CheckWorkbookName rejects lock files and names without the .xlsx extension
func CheckWorkbookName(name string) error {
	base := filepath.Base(name)
	if strings.HasPrefix(base, "~$") {
		return fmt.Errorf("%s: %w", base, ErrLockFile)
	}
	if ext := strings.ToLower(filepath.Ext(base)); ext != ".xlsx" {
		return fmt.Errorf("%s: %w", base, ErrNotWorkbook)
	}
	return nil
}

// ValidateWorkbook checks that path is a readable, non-lock .xlsx file
func (v *FileValidator) ValidateWorkbook(path string) error {
	if err := CheckWorkbookName(path); err != nil {
		v.logger.Warn("Skipping file",
			slog.String("file", path),
			slog.String("reason", err.Error()))
		return err
	}
	return v.ValidateFile(path)
}

// CountWorkbooks counts the report workbooks directly inside dir
func (v *FileValidator) CountWorkbooks(dir string) (int, error) {
	matches, err := filepath.Glob(filepath.Join(dir, WorkbookPattern))
	if err != nil {
		return 0, fmt.Errorf("failed to count files: %w", err)
	}

	n := 0
	for _, match := range matches {
		info, err := os.Stat(match)
		if err == nil && !info.IsDir() && CheckWorkbookName(match) == nil {
			n++
		}
	}
	return n, nil
}
