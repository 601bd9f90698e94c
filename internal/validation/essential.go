package validation

import (
	"sort"
	"strings"

	"creditfile/pkg/contracts/domain"
)

// Requirement names the fields a record section must carry. Section is a
// dotted path into the record tree.
type Requirement struct {
	Section string
	Fields  []string
}

// EssentialFields are the fields a credit officer must fill in for a report
// to be complete
var EssentialFields = []Requirement{
	{
		Section: "personal_data",
		Fields: []string{
			"name",
			"present_address",
			"present_address_tenure",
			"contact_no",
			"birthplace",
			"education",
			"parents_name",
			"parents_address",
			"date_applied",
			"unit_applied",
			"loan_amount",
			"loan_terms",
			"housing_status",
			"dob",
			"age",
			"marital_status",
			"n_children",
			"n_dependents",
			"dependent_ages",
		},
	},
	{
		Section: "income_analysis.summary",
		Fields:  []string{"gross_income", "monthly_amortization"},
	},
	{
		Section: "officer_assessment",
		Fields: []string{
			"loan_purpose",
			"unit_payor",
			"unit_rider",
			"rider_license",
			"cell_signal_status",
			"prepared_by",
			"remarks",
		},
	},
}

// MissingFields maps each section path to its essential fields that are
// missing from the record. Sections with nothing missing are left out.
func MissingFields(record *domain.NormalizedRecord) map[string][]string {
	return Check(record, EssentialFields)
}

// Check is MissingFields against an arbitrary requirement list
func Check(record *domain.NormalizedRecord, requirements []Requirement) map[string][]string {
	missing := make(map[string][]string)
	root := record.Tree()
	for _, req := range requirements {
		node := root
		for _, key := range strings.Split(req.Section, ".") {
			node = node.Child(key)
		}
		for _, field := range req.Fields {
			if node.Child(field).Value.Missing() {
				missing[req.Section] = append(missing[req.Section], field)
			}
		}
	}
	return missing
}

// Sections returns the section paths of a missing-field report in sorted
// order
func Sections(missing map[string][]string) []string {
	sections := make([]string, 0, len(missing))
	for s := range missing {
		sections = append(sections, s)
	}
	sort.Strings(sections)
	return sections
}
