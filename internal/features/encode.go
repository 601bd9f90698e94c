package features

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"creditfile/pkg/contracts/domain"
)

// Unknown is the code of a categorical value that could not be classified
const Unknown = -1

var (
	nonNumeric     = regexp.MustCompile(`[^0-9.\-]`)
	punctuationRun = regexp.MustCompile(`[.,\-/()\s]+`)
	nonTextChar    = regexp.MustCompile(`[^a-z0-9 ]`)

	educationTertiary  = regexp.MustCompile(`col|bs|vo|ma?s|tesda`)
	educationSecondary = regexp.MustCompile(`hi|h\s*s|k12`)
)

var housingCodes = map[string]float64{
	"rented":   0,
	"free_use": 1,
	"owned":    2,
}

// ParseNumber reads a number out of free text by discarding every character
// other than digits, "." and "-". Text that still does not parse is NaN.
func ParseNumber(s string) float64 {
	s = nonNumeric.ReplaceAllString(s, "")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return f
}

// ForceNumeric is ParseNumber over a field value, NaN when missing
func ForceNumeric(v domain.Value) float64 {
	if v.Missing() {
		return math.NaN()
	}
	return ParseNumber(v.String())
}

// NormalizeText folds text to lowercase ASCII words: diacritics are
// decomposed and dropped, punctuation runs become a single space and
// anything else outside [a-z0-9 ] is removed.
func NormalizeText(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.Predicate(func(r rune) bool {
		return r > unicode.MaxASCII
	})))
	ascii, _, err := transform.String(t, s)
	if err != nil {
		ascii = s
	}
	ascii = strings.ToLower(ascii)
	ascii = strings.TrimSpace(punctuationRun.ReplaceAllString(ascii, " "))
	return nonTextChar.ReplaceAllString(ascii, "")
}

// EncodeEducation codes attainment: 2 tertiary, vocational or graduate, 1
// high school, 0 elementary
func EncodeEducation(v domain.Value) float64 {
	if v.Missing() {
		return Unknown
	}
	text := NormalizeText(v.String())
	switch {
	case educationTertiary.MatchString(text):
		return 2
	case educationSecondary.MatchString(text):
		return 1
	case strings.Contains(text, "elem"):
		return 0
	default:
		return Unknown
	}
}

// EncodeHousingStatus codes rented 0, free use 1, owned 2
func EncodeHousingStatus(v domain.Value) float64 {
	if v.Missing() {
		return Unknown
	}
	code, ok := housingCodes[strings.ToLower(v.String())]
	if !ok {
		return Unknown
	}
	return code
}

// EncodeMaritalStatus codes single 0, separated 1, common law or live-in 2,
// married 3. A missing status is NaN rather than Unknown.
func EncodeMaritalStatus(v domain.Value) float64 {
	if v.Missing() {
		return math.NaN()
	}
	text := strings.ToLower(v.String())
	switch {
	case strings.Contains(text, "sep"):
		return 1
	case strings.HasPrefix(text, "m"):
		return 3
	case strings.HasPrefix(text, "s"):
		return 0
	case strings.HasPrefix(text, "c"), strings.HasPrefix(text, "l"):
		return 2
	default:
		return Unknown
	}
}
