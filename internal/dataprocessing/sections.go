package dataprocessing

import (
	"regexp"
)

// Section names a logical part of the credit report
type Section string

const (
	SectionPersonalData        Section = "personal_data"
	SectionDependents          Section = "dependents"
	SectionCharacterReferences Section = "character_references"
	SectionIncomeData          Section = "income_data"
	SectionClientReputation    Section = "client_reputation"
	SectionOtherCreditors      Section = "other_creditors"
	SectionClientAssets        Section = "client_assets"
	SectionCreditAssessment    Section = "credit_assessment"
	// SectionEnd is the synthetic terminal tag at the grid length
	SectionEnd Section = "end"
)

// sectionTag pairs a section with the pattern that marks its first row
type sectionTag struct {
	section Section
	pattern *regexp.Regexp
}

// sectionTags lists the sections in document order
var sectionTags = []sectionTag{
	{SectionPersonalData, regexp.MustCompile(`name`)},
	{SectionDependents, regexp.MustCompile(`name of dependents|rela(?:sh|t)ionship`)},
	{SectionCharacterReferences, regexp.MustCompile(`address|contact number`)},
	{SectionIncomeData, regexp.MustCompile(`sources of income|adjudication`)},
	{SectionClientReputation, regexp.MustCompile(`(?:informant|contact).*remarks`)},
	{SectionOtherCreditors, regexp.MustCompile(`creditor`)},
	{SectionClientAssets, regexp.MustCompile(`encumbr`)},
	{SectionCreditAssessment, regexp.MustCompile(`remarks`)},
}

// Sections returns the report sections in document order
func Sections() []Section {
	out := make([]Section, len(sectionTags))
	for i, tag := range sectionTags {
		out[i] = tag.section
	}
	return out
}

// Bounds is a half-open row range [Start, End)
type Bounds struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns the number of rows in the range
func (b Bounds) Len() int {
	return b.End - b.Start
}

// Offset shifts both ends of the range
func (b Bounds) Offset(start, end int) Bounds {
	return Bounds{Start: b.Start + start, End: b.End + end}
}

// SectionBounds maps each located section to its row range. A section whose
// tag was never found has no entry.
type SectionBounds map[Section]Bounds

// Lookup returns the bounds of a section or ErrSectionNotFound
func (sb SectionBounds) Lookup(s Section) (Bounds, error) {
	b, ok := sb[s]
	if !ok {
		return Bounds{}, &SectionError{Section: s, Err: ErrSectionNotFound}
	}
	return b, nil
}

// LocateSections scans rows top to bottom for the section tags. Matching is
// strictly sequential: only the tag of the next expected section is tested,
// and scanning stops once every tag has been found.
func LocateSections(g *Grid) SectionBounds {
	type location struct {
		section Section
		row     int
	}

	var found []location
	next := 0
	for row := 0; row < g.Rows() && next < len(sectionTags); row++ {
		tag := sectionTags[next]
		if tag.pattern.MatchString(g.Corpus(row)) {
			found = append(found, location{tag.section, row})
			next++
		}
	}
	found = append(found, location{SectionEnd, g.Rows()})

	bounds := make(SectionBounds, len(found)-1)
	for i := 0; i < len(found)-1; i++ {
		bounds[found[i].section] = Bounds{Start: found[i].row, End: found[i+1].row}
	}
	return bounds
}
