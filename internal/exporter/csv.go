package exporter

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	apperrors "creditfile/internal/errors"
	"creditfile/pkg/contracts/domain"
)

// FeaturesFile is the batch feature export written next to the records
const FeaturesFile = "features.csv"

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVWriter writes CSV files under an output directory
type CSVWriter struct {
	dir    string
	logger *slog.Logger
}

// NewCSVWriter creates a writer rooted at dir
func NewCSVWriter(dir string, logger *slog.Logger) *CSVWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVWriter{dir: dir, logger: logger.With(slog.String("component", "csv_writer"))}
}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	Headers   []string
	Records   [][]string
	Append    bool
	BOMPrefix bool // UTF-8 BOM so Excel detects the encoding
}

// WriteCSV writes a CSV file. When appending to a file that does not exist
// yet the headers and BOM are written first.
func (w *CSVWriter) WriteCSV(name string, options WriteOptions) error {
	fullPath := w.resolvePath(name)

	w.logger.Info("Writing CSV file",
		slog.String("file_path", fullPath),
		slog.Int("record_count", len(options.Records)),
		slog.Bool("append", options.Append))

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return apperrors.NewStorageError("failed to create directory", err)
	}

	fresh := true
	flags := os.O_CREATE | os.O_WRONLY
	if options.Append {
		if info, err := os.Stat(fullPath); err == nil && info.Size() > 0 {
			fresh = false
		}
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}

	file, err := os.OpenFile(fullPath, flags, 0644)
	if err != nil {
		return apperrors.NewStorageError("failed to open file", err).WithContext("path", fullPath)
	}
	defer file.Close()

	if fresh && options.BOMPrefix {
		if _, err := file.Write(utf8BOM); err != nil {
			return apperrors.NewStorageError("failed to write BOM", err)
		}
	}

	writer := csv.NewWriter(file)
	if fresh && len(options.Headers) > 0 {
		if err := writer.Write(options.Headers); err != nil {
			return fmt.Errorf("failed to write headers: %w", err)
		}
	}
	for i, record := range options.Records {
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// FeatureRow is one document's line of the feature export
type FeatureRow struct {
	Filename string
	Vector   domain.FeatureVector
}

// FeatureHeader returns the export header: filename then the features
func FeatureHeader(names []string) []string {
	return append([]string{"filename"}, names...)
}

// Record renders the row with NaN as an empty cell
func (r FeatureRow) Record() []string {
	out := make([]string, 0, r.Vector.Len()+1)
	out = append(out, r.Filename)
	for _, x := range r.Vector.Values {
		out = append(out, domain.FormatFeature(x, ""))
	}
	return out
}

// WriteFeatures replaces name with the given rows
func (w *CSVWriter) WriteFeatures(name string, names []string, rows []FeatureRow) error {
	return w.WriteCSV(name, WriteOptions{
		Headers:   FeatureHeader(names),
		Records:   featureRecords(rows),
		BOMPrefix: true,
	})
}

// AppendFeatures adds rows to name, creating it with a header if needed
func (w *CSVWriter) AppendFeatures(name string, names []string, rows ...FeatureRow) error {
	return w.WriteCSV(name, WriteOptions{
		Headers:   FeatureHeader(names),
		Records:   featureRecords(rows),
		Append:    true,
		BOMPrefix: true,
	})
}

func featureRecords(rows []FeatureRow) [][]string {
	records := make([][]string, len(rows))
	for i, r := range rows {
		records[i] = r.Record()
	}
	return records
}

func (w *CSVWriter) resolvePath(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(w.dir, name)
}
