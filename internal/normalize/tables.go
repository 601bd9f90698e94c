package normalize

// Vocabulary is an ordered closed set of canonical field names. Order
// matters for prefix matching, where the first best candidate wins.
type Vocabulary struct {
	names []string
	set   map[string]bool
}

// NewVocabulary builds a vocabulary in declaration order
func NewVocabulary(names ...string) Vocabulary {
	v := Vocabulary{names: make([]string, 0, len(names)), set: make(map[string]bool, len(names))}
	for _, n := range names {
		if !v.set[n] {
			v.set[n] = true
			v.names = append(v.names, n)
		}
	}
	return v
}

// Contains reports vocabulary membership
func (v Vocabulary) Contains(name string) bool {
	return v.set[name]
}

// Names returns the vocabulary in declaration order
func (v Vocabulary) Names() []string {
	out := make([]string, len(v.names))
	copy(out, v.names)
	return out
}

// with returns a vocabulary extended by extra names
func (v Vocabulary) with(extra ...string) Vocabulary {
	return NewVocabulary(append(v.Names(), extra...)...)
}

// Personal data

// personalPreCorrections apply to raw keys. These labels only occur in the
// spouse half of the template.
var personalPreCorrections = map[string]string{
	"Date of Birth":    "spouse__dob",
	"Present Address":  "spouse__present_address",
	"Previous Address": "spouse__previous_address",
}

var personalPostCorrections = map[string]string{
	"amount_applied_for":                 "loan_amount",
	"contact_number":                     "contact_no",
	"downpayment_terms":                  "loan_terms",
	"educational_attainment":             "education",
	"length_of_stay_at_present_address":  "present_address_tenure",
	"length_of_stay_at_previous_address": "previous_address_tenure",
	"no_of_children":                     "n_children",
	"name_of_applicant":                  "name",
	"name_of_landlady_number":            "landlord",
	"name_of_spouse":                     "spouse__name",
	"parents_address_1":                  "spouse__parents_adress",
	"place_of_birth":                     "birthplace",
	"spouse__date_of_birth":              "spouse__dob",
	"spouse__educational_attainment":     "spouse__education",
	"type_of_residence":                  "housing_status",
	"unit_applied_collateral":            "unit_applied",
	"units_applied":                      "unit_applied",
}

// PersonalFields is the personal data vocabulary
var PersonalFields = NewVocabulary(
	"age",
	"birthplace",
	"contact_no",
	"date_applied",
	"dob",
	"education",
	"housing_status",
	"landlord",
	"loan_amount",
	"loan_terms",
	"marital_status",
	"n_children",
	"n_dependents",
	"name",
	"nationality",
	"parents_address",
	"parents_address_2",
	"parents_name",
	"parents_name_2",
	"present_address",
	"present_address_tenure",
	"previous_address",
	"previous_address_tenure",
	"spouse__dob",
	"spouse__education",
	"spouse__name",
	"spouse__parents_address",
	"spouse__parents_adress",
	"spouse__parents_name",
	"spouse__parents_name_2",
	"spouse__present_address",
	"spouse__previous_address",
	"unit_applied",
	DependentAgesField,
)

// DependentAgesField carries the ages column of the dependents table
const DependentAgesField = "dependent_ages"

// dependentAgeHeader is the dependents table column holding ages
const dependentAgeHeader = "Age"

// spousePrefix namespaces spouse keys that repeat an applicant key
const spousePrefix = "spouse__"

// Income source details

// incomeSourceCorrections maps flattened <subsection>__<key> names. Anything
// not listed is dropped.
var incomeSourceCorrections = map[string]string{
	"business__address_of_business":                                               "business__address",
	"business__business_name":                                                     "business__name",
	"business__business_permit_no":                                                "business__permit_no",
	"business__monthly_income":                                                    "business__monthly_income",
	"business__remarks":                                                           "business__remarks",
	"business__route_of_vehicle":                                                  "business__vehicle_route",
	"business__years_in_business":                                                 "business__tenure",
	"employment__address_of_employer":                                             "employment__address",
	"employment__contact_number_of_employer":                                      "employment__contact_no",
	"employment__length_of_service":                                               "employment__tenure",
	"employment__monthly_net_pay":                                                 "employment__monthly_income",
	"employment__monthly_pay":                                                     "employment__monthly_income",
	"employment__name_of_employer":                                                "employment__name",
	"employment__position_employement_status":                                     "employment__status",
	"employment__position_employment_status":                                      "employment__status",
	"employment__previous_employer_address":                                       "employment__previous_employer",
	"employment__remarks":                                                         "employment__remarks",
	"employment__verified_thru_name_contact_no":                                   "employment__verifier",
	"employment__verified_thru_name_contact_no_verified":                          "employment__verifier",
	"employment__years_in_operation_of_employer":                                  "employment__employer_tenure",
	"other_business_or_remittance__address_of_business":                           "remittance__address",
	"other_business_or_remittance__address_of_business_address_of_sender":         "remittance__address",
	"other_business_or_remittance__address_of_sender":                             "remittance__address",
	"other_business_or_remittance__business_name":                                 "remittance__name",
	"other_business_or_remittance__business_name_name_of_sender":                  "remittance__name",
	"other_business_or_remittance__name_of_sender":                                "remittance__name",
	"other_business_or_remittance__monthly_income":                                "remittance__monthly_income",
	"other_business_or_remittance__monthly_net_income_p":                          "remittance__monthly_income",
	"other_business_or_remittance__monthly_net_income_remittance":                 "remittance__monthly_income",
	"other_business_or_remittance__monthly_net_income_remittance_p":               "remittance__monthly_income",
	"other_business_or_remittance__nature_of_business":                            "remittance__industry",
	"other_business_or_remittance__nature_of_business_source_of_income_of_sender": "remittance__industry",
	"other_business_or_remittance__relationship_of_sender_to_credit_applicant":    "remittance__relationship",
	"other_business_or_remittance__remarks":                                       "remittance__remarks",
	"other_business_or_remittance__years_in_business":                             "remittance__tenure",
	"other_business_or_remittance__years_in_business_years_of_remittance":         "remittance__tenure",
	"other_business_or_remittance__years_of_remittance":                           "remittance__tenure",
	"spouse__address_of_employer":                                                 "spouse__employer_address",
	"spouse__address_of_business_address_of_sender":                               "spouse__employer_address",
	"spouse__contact_number_of_employer":                                          "spouse__employer_contact_no",
	"spouse__length_of_service":                                                   "spouse__employment_tenure",
	"spouse__monthly_net_income_remittance_p":                                     "spouse__income",
	"spouse__monthly_net_pay":                                                     "spouse__income",
	"spouse__monthly_pay":                                                         "spouse__income",
	"spouse__nature_of_business_source_of_income_of_sender":                       "spouse__income",
	"spouse__name_of_employer":                                                    "spouse__employer_name",
	"spouse__position_employement_status":                                         "spouse__employment_status",
	"spouse__position_employment_status":                                          "spouse__employment_status",
	"spouse__previous_employer_address":                                           "employment__previous_employer",
	"spouse__remarks":                                                             "spouse__remarks",
	"spouse__verified_thru_name_contact_no":                                       "spouse__employment_verifier",
	"spouse__years_in_operation_of_employer":                                      "spouse__employer_tenure",
}

// IncomeSourceFields is the income source details vocabulary
var IncomeSourceFields = NewVocabulary(
	"employment__name",
	"employment__address",
	"employment__contact_no",
	"employment__status",
	"employment__tenure",
	"employment__employer_tenure",
	"employment__monthly_income",
	"employment__previous_employer",
	"employment__verifier",
	"employment__remarks",
	"business__name",
	"business__address",
	"business__permit_no",
	"business__tenure",
	"business__vehicle_route",
	"business__monthly_income",
	"business__remarks",
	"remittance__name",
	"remittance__address",
	"remittance__industry",
	"remittance__relationship",
	"remittance__tenure",
	"remittance__monthly_income",
	"remittance__remarks",
	"spouse__employer_name",
	"spouse__employer_address",
	"spouse__employer_contact_no",
	"spouse__employer_tenure",
	"spouse__employment_status",
	"spouse__employment_tenure",
	"spouse__employment_verifier",
	"spouse__income",
	"spouse__remarks",
)

// Income analysis

// prefixThreshold is the match length a fallback match must exceed
const prefixThreshold = 3

var incomeBase = NewVocabulary(
	"applicant",
	"business",
	"others",
	"spouse",
	"total_income",
)

var incomeCorrections = map[string]string{
	"1": "primary",
	"2": "secondary",
}

// IncomeFields is the adjudicated income vocabulary. Numbered income lines
// are accepted through their corrections.
var IncomeFields = incomeBase.with("primary", "secondary")

var expenseBase = NewVocabulary(
	"living",
	"education",
	"amortization",
	"elementary",
	"high_school",
	"college",
	"misc",
	"others",
	"rental",
	"transportation",
	"maintenance",
	"house",
	"helper",
	"building",
	"electric",
	"water",
	"internet",
	"load",
	"total_expenses",
)

var expenseCorrections = map[string]string{
	"cignal": "internet",
}

// ExpenseFields is the adjudicated expense vocabulary
var ExpenseFields = expenseBase

// summaryCorrections apply to raw summary labels
var summaryCorrections = map[string]string{
	"Gross Disposable Income": "net_income",
	"LESS MONTHLY EXPENSES":   "total_expenses",
	"Monthly Amortization":    "monthly_amortization",
	"NET DISPOSABLE INCOME":   "net_disposable_income",
	"TOTAL EXPENSES":          "total_expenses",
	"TOTAL MONTHLY INCOME":    "gross_income",
}

// SummaryFields is the income summary vocabulary
var SummaryFields = NewVocabulary(
	"gross_income",
	"total_expenses",
	"net_income",
	"net_disposable_income",
	"monthly_amortization",
)

// Officer assessment

var assessmentCorrections = map[string]string{
	"Purpose of loan":                                              "loan_purpose",
	"Who will use the unit":                                        "unit_rider",
	"Who will pay the for the unit":                                "unit_payor",
	"User with/without license":                                    "rider_license",
	"Cellular signal on the area":                                  "cell_signal_status",
	"Previous/ Current account of Zurich/ Venture":                 "existing_account",
	"Motorcyle unit/ vehicle that client owned  at the time of CI": "other_units",
}

// AssessmentFields is the officer assessment vocabulary
var AssessmentFields = NewVocabulary(
	"loan_purpose",
	"unit_payor",
	"existing_account",
	"other_units",
	"cell_signal_status",
	"unit_rider",
	"rider_license",
	"remarks",
	"prepared_by",
)

// Vocabularies returns every section vocabulary keyed by its record path
func Vocabularies() map[string]Vocabulary {
	return map[string]Vocabulary{
		"personal_data":           PersonalFields,
		"income_source_details":   IncomeSourceFields,
		"income_analysis.income":  IncomeFields,
		"income_analysis.expense": ExpenseFields,
		"income_analysis.summary": SummaryFields,
		"officer_assessment":      AssessmentFields,
	}
}
