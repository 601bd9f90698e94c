package features

import (
	"math"
	"strings"

	"creditfile/pkg/contracts/domain"
)

const (
	minAge          = 0
	maxAge          = 80
	maxDependentAge = 21
	maxDependents   = 10
)

// ClampAge keeps ages within [0, 80]; anything else, NaN included, is NaN
func ClampAge(age float64) float64 {
	if age >= minAge && age <= maxAge {
		return age
	}
	return math.NaN()
}

// CleanDependentAges parses the dependents' age column. Ages written in
// months ("8 mo") are converted to years and ages outside [0, 80] are
// dropped. ok is false when the record has no age column at all, which is
// different from a column with no usable ages.
func CleanDependentAges(ages domain.Value) (cleaned []float64, ok bool) {
	if !ages.IsList() {
		if ages.Missing() {
			return nil, false
		}
		ages = domain.List([]string{ages.String()})
	}

	cleaned = []float64{}
	for _, raw := range ages.Items() {
		age := ParseNumber(raw)
		if strings.Contains(strings.ToLower(raw), "mo") {
			age /= 12
		}
		if age = ClampAge(age); !math.IsNaN(age) {
			cleaned = append(cleaned, age)
		}
	}
	return cleaned, true
}

// CorrectDependentCounts reconciles the reported dependent count with the
// age column. The dependent count is the larger of the two; the corrected
// count only includes dependents aged 21 or younger. Both are capped at 10
// and either is NaN when nothing supports it.
func CorrectDependentCounts(ages, reported domain.Value) (dependents, corrected float64) {
	cleaned, ok := CleanDependentAges(ages)

	dependents, corrected = math.NaN(), math.NaN()
	if ok {
		dependents = float64(len(cleaned))
		n := 0
		for _, age := range cleaned {
			if age <= maxDependentAge {
				n++
			}
		}
		corrected = math.Min(float64(n), maxDependents)
	}
	if r := ForceNumeric(reported); !math.IsNaN(r) && (math.IsNaN(dependents) || r > dependents) {
		dependents = r
	}
	if !math.IsNaN(dependents) {
		dependents = math.Min(dependents, maxDependents)
	}
	return dependents, corrected
}
