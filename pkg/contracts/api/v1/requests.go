// Package api contains the HTTP contract of the creditfile service.
// Version v1 represents the current stable API version.
package api

import "time"

// ReportUploadRequest describes a multipart report upload. The workbook
// itself travels in the "file" form field; modified_at optionally carries
// the original modification time (RFC 3339) for the record's last_modified.
type ReportUploadRequest struct {
	Filename   string    `json:"filename" validate:"required,max=255,xlsxname"`
	Size       int64     `json:"size" validate:"gt=0"`
	ModifiedAt time.Time `json:"modified_at"`
	Score      bool      `json:"score"`
}

// FormFile is the multipart field holding the workbook
const FormFile = "file"

// FormModifiedAt is the optional multipart field holding the modification time
const FormModifiedAt = "modified_at"
