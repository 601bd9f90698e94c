package normalize

import (
	"regexp"
	"strings"

	"creditfile/internal/dataprocessing"
	"creditfile/pkg/contracts/domain"
)

var (
	separatorRun = regexp.MustCompile(`[/\s]+`)
	nonFieldChar = regexp.MustCompile(`[^a-z0-9_]`)
)

// Standardize reduces a raw label to a field name: lowercase, trimmed,
// slash and whitespace runs become "_" and any other character outside
// [a-z0-9_] is removed. An empty result becomes "_". Standardize is
// idempotent.
func Standardize(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = separatorRun.ReplaceAllString(name, "_")
	name = nonFieldChar.ReplaceAllString(name, "")
	if name == "" {
		return "_"
	}
	return name
}

// LongestPrefixMatch returns the vocabulary entry with the highest match
// length against query (see matchLen). The match is accepted only when
// that length is greater than threshold; ties go to the earliest entry.
func LongestPrefixMatch(query string, vocabulary Vocabulary, threshold int) (string, bool) {
	best, bestLen := "", 0
	for _, ref := range vocabulary.names {
		if n := matchLen(query, ref); n > bestLen {
			best, bestLen = ref, n
		}
	}
	if bestLen > threshold {
		return best, true
	}
	return "", false
}

// matchLen counts the shared leading characters of a and b plus the first
// mismatching position. When one string is a prefix of the other there is
// no mismatch and the count is the shorter length: "edu_fee" scores 4
// against "education", "food_x" scores 4 against both "food" and "fool".
func matchLen(a, b string) int {
	n := 0
	for n < len(a) && n < len(b) {
		if a[n] != b[n] {
			return n + 1
		}
		n++
	}
	return n
}

// Normalize maps a parsed report onto the canonical record. Keys that do
// not resolve to a vocabulary entry and values that are missing are
// dropped.
func Normalize(rec *dataprocessing.ParsedRecord) domain.NormalizedRecord {
	out := domain.NormalizedRecord{
		Filename:     rec.Filename,
		LastModified: dataprocessing.FormatTimestamp(rec.LastModified),
	}

	out.PersonalData = PersonalData(rec.PersonalData, rec.Subtable(dataprocessing.SectionDependents))
	if rec.IncomeData != nil {
		out.IncomeSourceDetails = IncomeSourceDetails(rec.IncomeData)
		out.IncomeAnalysis = IncomeAnalysis(rec.IncomeData)
	}
	out.OfficerAssessment = OfficerAssessment(rec.Assessment)
	return out
}

// PersonalData merges the applicant half, the spouse half and the fixed
// fields. Spouse keys that repeat an applicant key are prefixed with
// "spouse__" and fixed fields override scanned ones.
func PersonalData(pd *dataprocessing.PersonalData, dependents *dataprocessing.Subtable) domain.Fields {
	var out domain.Fields
	if pd == nil {
		return out
	}

	merged := &dataprocessing.KeyValues{}
	for _, kv := range pd.Applicant.Items() {
		merged.Set(kv.Key, kv.Value)
	}
	for _, kv := range pd.Spouse.Items() {
		key := kv.Key
		if pd.Applicant.Has(key) {
			key = spousePrefix + key
		}
		merged.Set(key, kv.Value)
	}
	for _, kv := range pd.Fixed.Items() {
		merged.Set(kv.Key, kv.Value)
	}

	for _, kv := range merged.Items() {
		key := kv.Key
		if c, ok := personalPreCorrections[key]; ok {
			key = c
		}
		key = Standardize(key)
		if c, ok := personalPostCorrections[key]; ok {
			key = c
		}
		if PersonalFields.Contains(key) && kv.Value != "" {
			out.Set(key, domain.Text(kv.Value))
		}
	}

	if ages, ok := dependents.Column(dependentAgeHeader); ok {
		out.Set(DependentAgesField, domain.List(ages))
	}
	return out
}

// IncomeSourceDetails flattens the income source subsections into
// <subsection>__<key> names and keeps the ones the correction table knows.
func IncomeSourceDetails(data *dataprocessing.IncomeData) domain.Fields {
	var out domain.Fields
	for _, sub := range data.Sources {
		for _, kv := range sub.Fields.Items() {
			key := Standardize(sub.Name + "__" + kv.Key)
			canonical, ok := incomeSourceCorrections[key]
			if ok && kv.Value != "" {
				out.Set(canonical, domain.Text(kv.Value))
			}
		}
	}
	return out
}

// IncomeAnalysis normalizes the adjudicated income, expense and summary
// lines
func IncomeAnalysis(data *dataprocessing.IncomeData) domain.IncomeAnalysis {
	return domain.IncomeAnalysis{
		Income:  lineItems(data.Adjudicated("income"), incomeBase, incomeCorrections),
		Expense: lineItems(data.Adjudicated("expense"), expenseBase, expenseCorrections),
		Summary: exactItems(data.Adjudicated("summary"), summaryCorrections, SummaryFields),
	}
}

// lineItems resolves each label by exact vocabulary match, then by the
// correction table, then by LongestPrefixMatch
func lineItems(kv *dataprocessing.KeyValues, vocabulary Vocabulary, corrections map[string]string) domain.Fields {
	var out domain.Fields
	for _, item := range kv.Items() {
		key := Standardize(item.Key)
		switch {
		case vocabulary.Contains(key):
		case corrections[key] != "":
			key = corrections[key]
		default:
			match, ok := LongestPrefixMatch(key, vocabulary, prefixThreshold)
			if !ok {
				continue
			}
			key = match
		}
		if item.Value != "" {
			out.Set(key, domain.Text(item.Value))
		}
	}
	return out
}

// exactItems resolves raw labels through a correction table only
func exactItems(kv *dataprocessing.KeyValues, corrections map[string]string, vocabulary Vocabulary) domain.Fields {
	var out domain.Fields
	for _, item := range kv.Items() {
		key, ok := corrections[item.Key]
		if ok && vocabulary.Contains(key) && item.Value != "" {
			out.Set(key, domain.Text(item.Value))
		}
	}
	return out
}

// OfficerAssessment corrects raw assessment labels and keeps canonical ones
func OfficerAssessment(kv *dataprocessing.KeyValues) domain.Fields {
	var out domain.Fields
	for _, item := range kv.Items() {
		key := item.Key
		if c, ok := assessmentCorrections[key]; ok {
			key = c
		}
		if AssessmentFields.Contains(key) && item.Value != "" {
			out.Set(key, domain.Text(item.Value))
		}
	}
	return out
}
