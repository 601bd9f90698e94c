package testutil

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
)

// Row offsets of each section in the sample report
const (
	PersonalDataRow        = 0
	DependentsRow          = 18
	CharacterReferencesRow = 23
	IncomeDataRow          = 26
	ClientReputationRow    = 62
	OtherCreditorsRow      = 65
	ClientAssetsRow        = 69
	CreditAssessmentRow    = 72
	ReportRows             = 84
	ReportCols             = 25
)

// ReportSheet is a sparse credit report laid out the way loan officers fill
// the template. Cells are addressed by grid coordinates, i.e. after the
// blank leading column of the workbook has been dropped.
type ReportSheet struct {
	rows, cols int
	cells      map[[2]int]string
}

// NewReportSheet returns an empty sheet of the given size
func NewReportSheet(rows, cols int) *ReportSheet {
	return &ReportSheet{rows: rows, cols: cols, cells: make(map[[2]int]string)}
}

// Set writes one cell
func (s *ReportSheet) Set(row, col int, value string) *ReportSheet {
	if row >= s.rows {
		s.rows = row + 1
	}
	if col >= s.cols {
		s.cols = col + 1
	}
	s.cells[[2]int{row, col}] = value
	return s
}

// SetRow writes consecutive (column, value) pairs into one row
func (s *ReportSheet) SetRow(row int, pairs ...any) *ReportSheet {
	for i := 0; i+1 < len(pairs); i += 2 {
		s.Set(row, pairs[i].(int), pairs[i+1].(string))
	}
	return s
}

// Clear blanks every cell of a row
func (s *ReportSheet) Clear(row int) *ReportSheet {
	for k := range s.cells {
		if k[0] == row {
			delete(s.cells, k)
		}
	}
	return s
}

// Rows renders the sheet as a dense grid
func (s *ReportSheet) Rows() [][]string {
	out := make([][]string, s.rows)
	for r := range out {
		out[r] = make([]string, s.cols)
	}
	for k, v := range s.cells {
		out[k[0]][k[1]] = v
	}
	return out
}

// RawRows renders the sheet the way the workbook stores it, with an empty
// index column in front
func (s *ReportSheet) RawRows() [][]string {
	rows := s.Rows()
	for i, row := range rows {
		rows[i] = append([]string{""}, row...)
	}
	return rows
}

// SaveWorkbook writes the sheet as an .xlsx file in dir and returns its path
func (s *ReportSheet) SaveWorkbook(t *testing.T, dir, name string) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	for r, row := range s.RawRows() {
		for c, v := range row {
			if v == "" {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				t.Fatalf("failed to name cell: %v", err)
			}
			if err := f.SetCellStr(sheet, cell, v); err != nil {
				t.Fatalf("failed to set cell %s: %v", cell, err)
			}
		}
	}

	path := filepath.Join(dir, name)
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("failed to save workbook: %v", err)
	}
	return path
}

// SampleModifiedTime is a fixed modification time for saved samples
var SampleModifiedTime = time.Date(2023, 10, 21, 6, 30, 0, 0, time.UTC)

// SampleReport builds a complete, well-formed credit report
func SampleReport() *ReportSheet {
	s := NewReportSheet(ReportRows, ReportCols)

	// personal data
	p := PersonalDataRow
	s.SetRow(p+0, 0, "Name of Applicant", 3, "Juan Dela Cruz", 15, "Name of Spouse", 18, "Maria Dela Cruz")
	s.SetRow(p+1, 0, "Contact Number", 3, "09171234567", 15, "Date of Birth", 18, "1987-03-02")
	s.SetRow(p+2, 0, "Place of Birth", 3, "Tarlac")
	s.SetRow(p+3, 0, "Educational Attainment", 3, "College Graduate", 15, "Educational Attainment", 18, "High School Graduate")
	s.SetRow(p+4, 0, "Nationality", 3, "Filipino", 15, "Contact Number", 18, "09181234567")
	s.SetRow(p+5, 0, "Type of Residence", 6, "Owned", 8, "X", 12, "Rented", 16, "Free Use", 15, "Type of Residence")
	s.SetRow(p+6, 0, "Length of Stay at Present Address", 3, "10 years")
	s.SetRow(p+8, 0, "Birth Details")
	s.SetRow(p+9, 0, "Date of Birth", 2, "1985-01-15", 7, "Age", 9, "38", 11, "Status", 13, "Married")
	s.SetRow(p+10, 0, "Units Applied", 3, "Honda Click 125i")
	s.SetRow(p+11, 0, "Amount Applied For", 3, "85,000")
	s.SetRow(p+12, 0, "Downpayment/Terms", 3, "5000/2y")
	s.SetRow(p+13, 0, "Date Applied", 3, "2023-10-01")
	s.SetRow(p+14, 0, "Parents Name", 3, "Rosa Dela Cruz")
	s.SetRow(p+15, 0, "Parents Name", 3, "Jose Dela Cruz", 15, "Parents Name", 18, "Ramon Santos")
	s.SetRow(p+16, 0, "Parents Address", 3, "Tarlac City", 19, "Luz Santos")
	s.SetRow(p+17, 0, "No. of Children", 2, "2", 7, "No. of Dependents", 11, "1")

	// dependents, the last row is a footer
	d := DependentsRow
	s.SetRow(d+0, 0, "Name of Dependents", 5, "Relationship", 8, "Age", 11, "School/Occupation")
	s.SetRow(d+1, 0, "Ana Dela Cruz", 5, "Daughter", 8, "5", 11, "Grade 1")
	s.SetRow(d+2, 0, "Ben Dela Cruz", 5, "Son", 8, "8 mo")
	s.SetRow(d+3, 0, "Lola Basyang", 5, "Grandmother", 8, "90")
	s.SetRow(d+4, 0, "Total Dependents", 8, "3")

	// character references
	c := CharacterReferencesRow
	s.SetRow(c+0, 0, "Name", 5, "Address", 10, "Contact Number", 14, "Relationship")
	s.SetRow(c+1, 0, "Pedro Penduko", 5, "Tarlac City", 10, "09190000000", 14, "Neighbor")

	// income data
	i := IncomeDataRow
	s.SetRow(i+0, 0, "Sources of Income", 15, "Income Adjudication")
	s.SetRow(i+1, 0, "Employment", 15, "Income")
	s.SetRow(i+2, 0, "Name of Employer", 4, "ABC Trucking", 15, "Applicant", 24, "15000")
	s.SetRow(i+3, 0, "Position/Employment Status", 4, "Driver/Regular", 15, "Spouse", 24, "8000")
	s.SetRow(i+4, 0, "Monthly Net Pay", 4, "15000", 15, "Business", 24, "5000")
	s.SetRow(i+5, 0, "Remarks", 4, "Verified with HR", 15, "Total Income", 24, "28000")
	s.SetRow(i+6, 4, "Pays on time")
	s.SetRow(i+7, 0, "Length of Service", 4, "5 years")
	s.SetRow(i+10, 15, "Expenses")
	s.SetRow(i+11, 15, "Living", 24, "6000")
	s.SetRow(i+12, 15, "Electric Bill", 24, "1200")
	s.SetRow(i+13, 15, "Cignal", 24, "500")
	s.SetRow(i+14, 0, "Business", 15, "Transpo", 24, "1500")
	s.SetRow(i+15, 0, "Business Name", 4, "Dela Cruz Sari-Sari", 15, "Total Expenses", 24, "9200")
	s.SetRow(i+16, 0, "Monthly Income", 4, "5000")
	s.SetRow(i+32, 15, "TOTAL MONTHLY INCOME", 24, "28000")
	s.SetRow(i+33, 15, "TOTAL EXPENSES", 24, "9200")
	s.SetRow(i+34, 15, "NET DISPOSABLE INCOME", 24, "18800")
	s.SetRow(i+35, 15, "Monthly Amortization")

	// client reputation
	r := ClientReputationRow
	s.SetRow(r+0, 0, "Informant", 5, "Contact No", 10, "Remarks")
	s.SetRow(r+1, 0, "Aling Nena", 5, "09191111111", 10, "Good payer")

	// other creditors, the last two rows are a footer
	o := OtherCreditorsRow
	s.SetRow(o+0, 0, "Other Creditors", 6, "Amount", 10, "Balance")
	s.SetRow(o+1, 0, "Home Credit", 6, "20000", 10, "5000")
	s.SetRow(o+2, 0, "Total", 6, "20000")

	// client assets
	a := ClientAssetsRow
	s.SetRow(a+0, 0, "Assets", 6, "Encumbrance")
	s.SetRow(a+1, 0, "Motorcycle", 6, "None")

	// credit assessment
	ca := CreditAssessmentRow
	s.SetRow(ca+0, 0, "Credit Assessment Remarks")
	s.SetRow(ca+1, 3, "Purpose of loan", 8, "Service to work")
	s.SetRow(ca+2, 3, "Who will use the unit", 8, "Applicant")
	s.SetRow(ca+3, 3, "Who will pay the for the unit", 8, "Applicant")
	s.SetRow(ca+4, 3, "User with/without license", 8, "With license")
	s.SetRow(ca+5, 3, "Cellular signal on the area", 8, "Strong")
	s.SetRow(ca+6, 3, "Previous/ Current account of Zurich/ Venture", 8, "None")
	s.SetRow(ca+7, 3, "Motorcyle unit/ vehicle that client owned  at the time of CI", 8, "None")
	s.SetRow(ca+9, 7, "Recommended for approval")
	s.SetRow(ca+11, 0, "Ana Reyes")

	return s
}
