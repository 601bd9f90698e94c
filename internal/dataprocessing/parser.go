package dataprocessing

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// personal data layout
const (
	// personalSplitCol is the first column of the spouse half
	personalSplitCol = 15
	// personalOptionalRow is the sub-row that, when filled, pushes the
	// remaining labels down by one
	personalOptionalRow = 7
)

var (
	applicantExceptions = map[int]bool{5: true, 8: true, 9: true, 14: true, 16: true, 17: true}
	spouseExceptions    = map[int]bool{5: true, 16: true}
)

// labelRange is an inclusive range of row labels. A negative To runs to
// the end of the section.
type labelRange struct {
	Name     string
	From, To int
}

// income data layout
var (
	incomeSourceRanges = []labelRange{
		{"employment", 2, 12},
		{"business", 14, 21},
		{"other_business_or_remittance", 23, 29},
		{"spouse", 31, 40},
	}
	adjudicationRanges = []labelRange{
		{"income", 2, 9},
		{"expense", 11, 31},
		{"summary", 32, -1},
	}
)

const (
	incomeKeyCol         = 0
	incomeValueCol       = 4
	adjudicationKeyCol   = 15
	adjudicationValueCol = 24
	remarkSeparator      = "|"
)

// credit assessment layout
const (
	assessmentLastRow  = 7
	assessmentKeyCol   = 3
	assessmentValueCol = 8
	remarksRow         = 9
	remarksCol         = 7
	preparedByCol      = 0
)

// subtableOffsets adjusts each tabular section's bounds
var subtableOffsets = []struct {
	section    Section
	start, end int
}{
	{SectionDependents, 0, -1},
	{SectionCharacterReferences, 0, 0},
	{SectionClientReputation, 0, 0},
	{SectionOtherCreditors, 0, -2},
	{SectionClientAssets, 0, 0},
}

// timeZone is the reporting offset applied to file modification times
var timeZone = time.FixedZone("UTC+8", 8*60*60)

// FileDetails identifies the source document of a record
type FileDetails struct {
	Filename     string
	LastModified time.Time
}

// StatFile reads the details of a report on disk
func StatFile(path string) (FileDetails, error) {
	info, err := os.Stat(path)
	if err != nil {
		return FileDetails{}, fmt.Errorf("failed to stat file: %w", err)
	}
	return FileDetails{
		Filename:     filepath.Base(path),
		LastModified: info.ModTime().In(timeZone),
	}, nil
}

// FormatTimestamp renders a modification time the way records carry it
func FormatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.In(timeZone).Format("2006-01-02 15:04:05")
}

// ParseFile loads and parses a credit report on disk
func ParseFile(path string) (*ParsedRecord, error) {
	details, err := StatFile(path)
	if err != nil {
		return nil, err
	}
	g, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseReport(g, details), nil
}

// ParseReport extracts every section it can find from a loaded grid. A
// section whose layout does not match is left nil and its cause recorded in
// Skipped; it never prevents the remaining sections from being parsed.
func ParseReport(g *Grid, details FileDetails) *ParsedRecord {
	bounds := LocateSections(g)
	rec := &ParsedRecord{
		Filename:     details.Filename,
		LastModified: details.LastModified,
		Bounds:       bounds,
		Subtables:    make(map[Section]*Subtable),
		Skipped:      make(map[Section]error),
	}

	if res := parsePersonalData(g, bounds); res.Present() {
		rec.PersonalData = res.Value
	} else {
		rec.skip(SectionPersonalData, res.Err)
	}

	if res := parseIncomeData(g, bounds); res.Present() {
		rec.IncomeData = res.Value
	} else {
		rec.skip(SectionIncomeData, res.Err)
	}

	if res := parseCreditAssessment(g, bounds); res.Present() {
		rec.Assessment = res.Value
	} else {
		rec.skip(SectionCreditAssessment, res.Err)
	}

	for _, o := range subtableOffsets {
		if res := parseSubtableSection(g, bounds, o.section, o.start, o.end); res.Present() {
			rec.Subtables[o.section] = res.Value
		} else {
			rec.skip(o.section, res.Err)
		}
	}

	slog.Debug("Report parsed",
		slog.String("filename", rec.Filename),
		slog.Int("sections_found", len(bounds)),
		slog.Int("sections_skipped", len(rec.Skipped)))

	return rec
}

func (p *ParsedRecord) skip(s Section, err error) {
	p.Skipped[s] = err
	slog.Debug("Section skipped",
		slog.String("filename", p.Filename),
		slog.String("section", string(s)),
		slog.String("reason", err.Error()))
}

// sectionGrid slices a located section out of the report
func sectionGrid(g *Grid, bounds SectionBounds, s Section) (*Grid, error) {
	b, err := bounds.Lookup(s)
	if err != nil {
		return nil, err
	}
	return g.Slice(b.Start, b.End), nil
}

func parsePersonalData(g *Grid, bounds SectionBounds) SectionResult[*PersonalData] {
	sg, err := sectionGrid(g, bounds, SectionPersonalData)
	if err != nil {
		return absent[*PersonalData](SectionPersonalData, err)
	}
	if sg.Rows() <= personalOptionalRow {
		return absent[*PersonalData](SectionPersonalData, offsetError(personalOptionalRow, 0))
	}

	l := newLayout(sg)
	if sg.RowPresent(personalOptionalRow) {
		l.shift(personalOptionalRow)
	}

	half := func(cols []int, exceptions map[int]bool) *KeyValues {
		rows := l.rowsBetween(0, -1, func(r int) bool {
			return !exceptions[l.label(r)]
		})
		return ExtractKeyValues(l.project(rows, cols))
	}

	pd := &PersonalData{
		Applicant: half(l.columnRange(0, personalSplitCol-1), applicantExceptions),
		Spouse:    half(l.columnRange(personalSplitCol, -1), spouseExceptions),
		Fixed:     &KeyValues{},
	}

	residence := ""
	switch {
	case l.anyIn(5, 8, 11):
		residence = "owned"
	case l.anyIn(5, 13, 15):
		residence = "rented"
	case l.anyIn(5, 17, 21):
		residence = "free_use"
	}
	pd.Fixed.Set("type_of_residence", residence)
	pd.Fixed.Set("dob", l.at(9, 2))
	pd.Fixed.Set("age", l.at(9, 9))
	pd.Fixed.Set("marital_status", l.at(9, 13))
	pd.Fixed.Set("parents_name_2", l.at(14, 3))
	pd.Fixed.Set("parents_address_2", l.at(16, 3))
	pd.Fixed.Set("spouse__parents_name_2", l.at(16, 19))
	pd.Fixed.Set("n_children", l.at(17, 2))
	pd.Fixed.Set("n_dependents", l.at(17, 11))

	if l.err != nil {
		return absent[*PersonalData](SectionPersonalData, l.err)
	}
	return present(pd)
}

func parseIncomeData(g *Grid, bounds SectionBounds) SectionResult[*IncomeData] {
	sg, err := sectionGrid(g, bounds, SectionIncomeData)
	if err != nil {
		return absent[*IncomeData](SectionIncomeData, err)
	}

	l := newLayout(sg)
	l.requireCols(incomeKeyCol, incomeValueCol, adjudicationKeyCol, adjudicationValueCol)
	if l.err != nil {
		return absent[*IncomeData](SectionIncomeData, l.err)
	}

	values, keep := coalesceRemarks(sg)
	left := make([][]string, sg.Rows())
	for r := range left {
		left[r] = []string{sg.At(r, incomeKeyCol), values[r]}
	}

	data := &IncomeData{}
	for _, lr := range incomeSourceRanges {
		var rows [][]string
		for _, r := range l.rowsBetween(lr.From, lr.To, func(r int) bool { return keep[r] }) {
			rows = append(rows, left[r])
		}
		data.Sources = append(data.Sources, Subsection{Name: lr.Name, Fields: ExtractKeyValues(rows)})
	}

	for _, lr := range adjudicationRanges {
		rows := l.rowsBetween(lr.From, lr.To, nil)
		kv := ExtractKeyValues(l.project(rows, []int{adjudicationKeyCol, adjudicationValueCol}))
		data.Adjudication = append(data.Adjudication, Subsection{Name: lr.Name, Fields: kv})
	}

	return present(data)
}

// coalesceRemarks folds multi-row remark cells of the income column. A row
// is a remark row once a key cell mentioning "remark" is seen, until a key
// cell without it appears. Each contiguous run of remark rows collapses onto
// its first row, whose value becomes the run's values joined by "|". The
// returned mask keeps ordinary rows and the first row of every run.
func coalesceRemarks(sg *Grid) (values []string, keep []bool) {
	n := sg.Rows()
	mask := make([]bool, n)
	state, known := false, false
	for r := 0; r < n; r++ {
		if key := sg.At(r, incomeKeyCol); key != "" {
			state, known = strings.Contains(strings.ToLower(key), "remark"), true
		}
		mask[r] = known && state
	}
	if n > 0 {
		mask[0] = false
	}

	values = make([]string, n)
	keep = make([]bool, n)
	for r := 0; r < n; r++ {
		values[r] = sg.At(r, incomeValueCol)
		start := mask[r] && (r == 0 || !mask[r-1])
		keep[r] = !mask[r] || start
		if !start {
			continue
		}

		var parts []string
		for j := r; j < n && mask[j]; j++ {
			if v := sg.At(j, incomeValueCol); v != "" {
				parts = append(parts, v)
			}
		}
		if len(parts) > 0 {
			values[r] = strings.Join(parts, remarkSeparator)
		}
	}
	return values, keep
}

func parseCreditAssessment(g *Grid, bounds SectionBounds) SectionResult[*KeyValues] {
	sg, err := sectionGrid(g, bounds, SectionCreditAssessment)
	if err != nil {
		return absent[*KeyValues](SectionCreditAssessment, err)
	}

	l := newLayout(sg)
	l.requireCols(assessmentKeyCol, assessmentValueCol)
	if l.err != nil {
		return absent[*KeyValues](SectionCreditAssessment, l.err)
	}

	rows := l.rowsBetween(0, assessmentLastRow, nil)
	kv := ExtractKeyValues(l.project(rows, []int{assessmentKeyCol, assessmentValueCol}))
	kv.Set("remarks", l.at(remarksRow, remarksCol))
	if l.err != nil {
		return absent[*KeyValues](SectionCreditAssessment, l.err)
	}

	preparedBy := ""
	for r := sg.Rows() - 1; r >= 0; r-- {
		if v := sg.At(r, preparedByCol); v != "" {
			preparedBy = v
			break
		}
	}
	if preparedBy == "" {
		return absent[*KeyValues](SectionCreditAssessment,
			fmt.Errorf("%w: no preparer in column %d", ErrOutOfRange, preparedByCol))
	}
	kv.Set("prepared_by", preparedBy)

	return present(kv)
}

func parseSubtableSection(g *Grid, bounds SectionBounds, s Section, startOffset, endOffset int) SectionResult[*Subtable] {
	b, err := bounds.Lookup(s)
	if err != nil {
		return absent[*Subtable](s, err)
	}
	b = b.Offset(startOffset, endOffset)

	st, err := ParseSubtable(g.Slice(b.Start, b.End))
	if err != nil {
		return absent[*Subtable](s, err)
	}
	return present(st)
}
