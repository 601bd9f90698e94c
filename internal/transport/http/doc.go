// Package http implements the HTTP handlers of the creditfile service. It
// is a thin layer over the services package: handlers parse and validate
// the request, call a service and render the result.
//
// # Endpoints
//
//	POST /api/v1/reports     score an uploaded .xlsx credit report
//	GET  /api/v1/features    list the published features in classifier order
//	GET  /api/health         basic health
//	GET  /api/health/ready   readiness of the pipeline and output directory
//	GET  /api/health/live    liveness with runtime details
//
// # Uploads
//
// A report is sent as multipart/form-data with the workbook in the "file"
// field and an optional RFC 3339 "modified_at" field. Passing score=false
// in the query leaves the credit score out of the response.
//
// # Errors
//
// Failures are rendered as RFC 7807 problem details through
// errors.ErrorHandler:
//
//	400  missing file, lock file name, empty upload or bad form values
//	413  upload larger than the configured limit
//	415  file name without the .xlsx extension
//	422  workbook that cannot be read
//	504  request cancelled or timed out
package http
