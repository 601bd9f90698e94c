// Package exporter writes scoring results to disk.
//
// JSONWriter stores one indented document per report: the normalized
// record, its credit score and the essential fields it is missing. When
// validation is enabled the document is checked first against a JSON
// schema generated from the canonical vocabularies, so a record can never
// carry a key outside the schema.
//
// CSVWriter writes the batch feature export: a "filename" column followed
// by the published features, NaN as an empty cell and a UTF-8 BOM for
// Excel.
//
// Example usage:
//
//	records, err := exporter.NewJSONWriter(outDir, true, logger)
//	if err != nil {
//		return err
//	}
//	path, err := records.Write(exporter.Document{NormalizedRecord: rec, MissingFields: missing})
//
//	csvw := exporter.NewCSVWriter(outDir, logger)
//	err = csvw.WriteFeatures(exporter.FeaturesFile, names, rows)
package exporter
