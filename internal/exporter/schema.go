package exporter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"creditfile/internal/normalize"
)

const schemaURL = "record.schema.json"

// topLevelSections lists the record sections in document order
var topLevelSections = []string{"personal_data", "income_source_details", "income_analysis", "officer_assessment"}

// RecordSchema builds the JSON schema of an exported record. Every section
// is a closed object whose keys are its canonical vocabulary.
func RecordSchema(vocabularies map[string]normalize.Vocabulary) map[string]any {
	value := map[string]any{
		"type":  []string{"string", "array", "null"},
		"items": map[string]any{"type": []string{"string", "null"}},
	}
	section := func(path string) map[string]any {
		props := make(map[string]any)
		for _, name := range vocabularies[path].Names() {
			props[name] = map[string]any{"$ref": "#/$defs/value"}
		}
		return map[string]any{
			"type":                 "object",
			"properties":           props,
			"additionalProperties": false,
		}
	}

	properties := map[string]any{
		"filename":      map[string]any{"type": "string"},
		"last_modified": map[string]any{"type": "string"},
		"credit_score":  map[string]any{"type": "integer", "minimum": 1, "maximum": 100},
		"score_model":   map[string]any{"type": "string"},
		"missing_fields": map[string]any{
			"type": "object",
			"additionalProperties": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string"},
			},
		},
	}
	nested := make(map[string]map[string]any)
	for path := range vocabularies {
		parent, child, ok := strings.Cut(path, ".")
		if !ok {
			properties[path] = section(path)
			continue
		}
		if nested[parent] == nil {
			nested[parent] = make(map[string]any)
		}
		nested[parent][child] = section(path)
	}
	for parent, children := range nested {
		properties[parent] = map[string]any{
			"type":                 "object",
			"properties":           children,
			"additionalProperties": false,
		}
	}

	return map[string]any{
		"$schema":              "https://json-schema.org/draft/2020-12/schema",
		"$defs":                map[string]any{"value": value},
		"type":                 "object",
		"required":             append([]string{"filename", "last_modified"}, topLevelSections...),
		"properties":           properties,
		"additionalProperties": false,
	}
}

// CompileRecordSchema compiles RecordSchema over the canonical vocabularies
func CompileRecordSchema() (*jsonschema.Schema, error) {
	doc, err := json.Marshal(RecordSchema(normalize.Vocabularies()))
	if err != nil {
		return nil, fmt.Errorf("failed to encode record schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource(schemaURL, bytes.NewReader(doc)); err != nil {
		return nil, fmt.Errorf("failed to load record schema: %w", err)
	}
	schema, err := compiler.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("failed to compile record schema: %w", err)
	}
	return schema, nil
}
