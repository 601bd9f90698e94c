// Package services implements the credit report pipeline behind the CLI and
// the HTTP API.
//
// ReportService runs one document through every stage:
//
//	load workbook -> locate sections -> extract -> normalize
//	    -> essential field check -> features -> credit score
//
// Only an unreadable workbook fails a document. Absent sections, missing
// fields and malformed values degrade the result instead; they are reported
// in Result.Skipped, Result.Missing and as NaN features.
//
// Batches fan out over an errgroup bounded by the configured worker count.
// Documents share only the read-only engine and scorer, so a failed
// document never affects its siblings. Cancelling the context stops new
// documents from being scheduled.
//
// HealthService backs the liveness and readiness endpoints.
package services
