package exporter

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	apperrors "creditfile/internal/errors"
	"creditfile/pkg/contracts/domain"
)

// Document is the exported form of a normalized record
type Document struct {
	domain.NormalizedRecord
	CreditScore   *int                `json:"credit_score,omitempty"`
	ScoreModel    string              `json:"score_model,omitempty"`
	MissingFields map[string][]string `json:"missing_fields"`
}

// OutputName maps a report file name onto its JSON export name
func OutputName(filename string) string {
	base := filepath.Base(filename)
	if i := strings.LastIndex(base, "."); i > 0 {
		base = base[:i]
	}
	return base + ".json"
}

// JSONWriter writes indented record documents, optionally checked against
// the record schema first
type JSONWriter struct {
	dir    string
	schema *jsonschema.Schema
	logger *slog.Logger
}

// NewJSONWriter creates a writer rooted at dir. With validate set every
// document is checked against CompileRecordSchema before it is written.
func NewJSONWriter(dir string, validate bool, logger *slog.Logger) (*JSONWriter, error) {
	if logger == nil {
		logger = slog.Default()
	}
	w := &JSONWriter{dir: dir, logger: logger.With(slog.String("component", "json_writer"))}
	if validate {
		schema, err := CompileRecordSchema()
		if err != nil {
			return nil, err
		}
		w.schema = schema
	}
	return w, nil
}

// Encode renders doc as indented JSON
func (w *JSONWriter) Encode(doc Document) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "    ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", doc.Filename, err)
	}
	if w.schema == nil {
		return data, nil
	}

	var decoded any
	if err := json.Unmarshal(data, &decoded); err != nil {
		return nil, fmt.Errorf("failed to decode %s for validation: %w", doc.Filename, err)
	}
	if err := w.schema.Validate(decoded); err != nil {
		return nil, apperrors.NewAppValidationError(fmt.Sprintf("%s does not match the record schema: %v", doc.Filename, err))
	}
	return data, nil
}

// Write stores doc as <report name>.json and returns the path
func (w *JSONWriter) Write(doc Document) (string, error) {
	data, err := w.Encode(doc)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return "", apperrors.NewStorageError("failed to create output directory", err)
	}
	path := filepath.Join(w.dir, OutputName(doc.Filename))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", apperrors.NewStorageError("failed to write record", err).WithContext("path", path)
	}

	w.logger.Info("Record exported",
		slog.String("file", path),
		slog.Int("missing_sections", len(doc.MissingFields)))
	return path, nil
}
