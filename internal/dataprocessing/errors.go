package dataprocessing

import (
	"errors"
	"fmt"
)

var (
	// ErrSectionNotFound means the section's starting tag never matched
	ErrSectionNotFound = errors.New("section not found")
	// ErrOutOfRange means a hard-coded layout offset fell outside the section
	ErrOutOfRange = errors.New("layout offset out of range")
	// ErrEmptySubtable means a subtable block held no cells at all
	ErrEmptySubtable = errors.New("subtable is empty")
)

// SectionError records why a section contributed nothing to a parsed record
type SectionError struct {
	Section Section `json:"section"`
	Err     error   `json:"-"`
}

// Error implements the error interface
func (e *SectionError) Error() string {
	return fmt.Sprintf("section %s: %v", e.Section, e.Err)
}

// Unwrap exposes the underlying cause
func (e *SectionError) Unwrap() error {
	return e.Err
}

// offsetError describes a single failed positional lookup
func offsetError(row, col int) error {
	return fmt.Errorf("%w: row %d, column %d", ErrOutOfRange, row, col)
}
