package services

import "errors"

// Report service errors
var (
	ErrNoReportsFound = errors.New("no reports found")
	ErrNoEngine       = errors.New("report service requires a feature engine")
)
