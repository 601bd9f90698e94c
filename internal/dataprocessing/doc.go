// Package dataprocessing turns a credit report workbook into a ParsedRecord
// of raw keys and raw values.
//
// # Architecture
//
// Parsing runs in three steps:
//
// 1. Grid loading: the first worksheet is read as text into a rectangular Grid
// 2. Segmentation: section tags are matched in document order to find the row range of each section
// 3. Extraction: each section is read with its own positional rules
//
// # Usage
//
//	rec, err := dataprocessing.ParseFile("juan-dela-cruz.xlsx")
//	if err != nil {
//	    return err
//	}
//	for section, reason := range rec.Skipped {
//	    slog.Debug("section skipped", "section", section, "reason", reason)
//	}
//
// # Layout Assumptions
//
// The report template is fixed. Row and column offsets inside each section
// are hard-coded: the personal data block splits into applicant and spouse
// halves at column 15, the income block keeps its sources in columns 0 and 4
// and its adjudication in columns 15 and 24, and the credit assessment reads
// columns 3 and 8. Keys keep the spelling found in the sheet; mapping them
// onto canonical names is the normalize package's job.
//
// # Error Handling
//
// Only an unreadable workbook fails a parse. A section whose tag is missing
// or whose layout is too small is left out of the record and its cause
// (ErrSectionNotFound, ErrOutOfRange, ErrEmptySubtable wrapped in a
// SectionError) is kept in ParsedRecord.Skipped.
package dataprocessing
