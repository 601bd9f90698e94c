// Package validation checks report inputs before parsing and normalized
// records after it.
//
// FileValidator guards the file system side: input directories, output
// directories and workbook names. MissingFields reports which of the
// EssentialFields a normalized record lacks, keyed by section path, so a
// credit officer can complete the report.
package validation
