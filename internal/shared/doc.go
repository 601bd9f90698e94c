// Package shared holds code used across the creditfile packages that
// belongs to no single stage of the pipeline.
//
// # Test Utilities
//
// The testutil subpackage provides:
//
//   - ReportSheet, a sparse builder for credit report grids that can be
//     rendered as rows or saved as an .xlsx workbook
//   - SampleReport, a complete report used as the common fixture of the
//     parser, normalizer, feature and service tests
//   - BufferedSlogHandler and NewTestLogger for asserting on slog output
//
// Example:
//
//	logger, handler := testutil.NewTestLogger(t)
//	path := testutil.SampleReport().SaveWorkbook(t, t.TempDir(), "juan.xlsx")
//	// ... run code under test with logger ...
//	testutil.AssertLogContains(t, handler, slog.LevelInfo, "Report parsed")
package shared
