package features

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"creditfile/pkg/contracts/domain"
)

// ErrFeatureContract is returned when the engine cannot produce every
// published feature
var ErrFeatureContract = errors.New("feature map and published feature list disagree")

// BagOfWordsPrefix prefixes the vectorizer's feature names
const BagOfWordsPrefix = "bow__"

var modelFeatures = []string{
	"bow__115",
	"bow__125",
	"bow__125i",
	"bow__150",
	"bow__155",
	"bow__175",
	"bow__barako",
	"bow__black",
	"bow__click",
	"bow__es",
	"bow__fazzio",
	"bow__fi",
	"bow__honda",
	"bow__i",
	"bow__kawasaki",
	"bow__mio",
	"bow__raider",
	"bow__repo",
	"bow__smash",
	"bow__suzuki",
	"bow__tmx",
	"bow__yamaha",
	"cat__housing_status",
	"cat__marital_status",
	"cat__education",
	"cat__spouse_education",
	"num__loan_amount",
	"num__loan_downpayment",
	"num__loan_term",
	"num__monthly_amortization",
	"num__age",
	"num__n_children",
	"num__n_dependents",
	"num__n_dependents_corrected",
	"num__gross_income",
	"num__employment_income",
	"num__business_income",
	"num__spouse_income",
	"num__loan_downpayment_ratio",
	"num__amort_income_ratio",
}

// ModelFeatures returns the published feature list in classifier order
func ModelFeatures() []string {
	names := make([]string, len(modelFeatures))
	copy(names, modelFeatures)
	return names
}

// rawInputs are the feature map outputs the derivations read
var rawInputs = []string{
	"motorcycle_model", "loan_terms", "loan_amount", "dependent_ages",
	"n_dependents", "n_children", "age", "education", "housing_status",
	"marital_status", "spouse_education", "employment_income",
	"business_income", "spouse_income", "gross_income", "monthly_amortization",
}

var derivedFeatures = []string{
	"cat__housing_status", "cat__marital_status", "cat__education", "cat__spouse_education",
	"num__age", "num__n_children", "num__n_dependents", "num__n_dependents_corrected",
	"num__loan_amount", "num__loan_downpayment", "num__loan_term", "num__monthly_amortization",
	"num__gross_income", "num__employment_income", "num__business_income", "num__spouse_income",
	"num__amort_income_ratio", "num__loan_downpayment_ratio",
}

// Details carries diagnostics of one Build that are not part of the vector
type Details struct {
	// Info holds the info__ outputs of the feature map
	Info map[string]string
	// DependentAges are the cleaned dependent ages, nil without an age column
	DependentAges []float64
	// Imputed reports that the amortization was derived by the loan solver
	Imputed bool
	// SolverErr is set when imputation was attempted and failed
	SolverErr error
}

// Engine turns normalized records into feature vectors
type Engine struct {
	vectorizer   Vectorizer
	featureMap   MapNode
	interestRate float64
	logger       *slog.Logger
}

// Option configures an Engine
type Option func(*Engine)

// WithInterestRate sets the monthly rate used for amortization imputation
func WithInterestRate(rate float64) Option {
	return func(e *Engine) {
		e.interestRate = rate
	}
}

// WithFeatureMap replaces DefaultFeatureMap
func WithFeatureMap(m MapNode) Option {
	return func(e *Engine) {
		e.featureMap = m
	}
}

// WithLogger sets the engine logger
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// NewEngine validates that the feature map and the vectorizer together
// produce every published feature
func NewEngine(vectorizer Vectorizer, opts ...Option) (*Engine, error) {
	e := &Engine{
		vectorizer:   vectorizer,
		featureMap:   DefaultFeatureMap,
		interestRate: DefaultInterestRate,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}

	if vectorizer == nil {
		return nil, fmt.Errorf("%w: no vectorizer", ErrFeatureContract)
	}
	names := vectorizer.FeatureNames()
	if n := len(vectorizer.Transform("")); n != len(names) {
		return nil, fmt.Errorf("%w: vectorizer has %d names but produces %d values", ErrFeatureContract, len(names), n)
	}

	mapped := make(map[string]bool)
	for _, name := range Outputs(e.featureMap) {
		mapped[name] = true
	}
	var missing []string
	for _, name := range rawInputs {
		if !mapped[name] {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: feature map lacks %s", ErrFeatureContract, strings.Join(missing, ", "))
	}

	produced := make(map[string]bool)
	for _, name := range derivedFeatures {
		produced[name] = true
	}
	for _, name := range names {
		produced[BagOfWordsPrefix+name] = true
	}
	for _, name := range modelFeatures {
		if !produced[name] {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: nothing produces %s", ErrFeatureContract, strings.Join(missing, ", "))
	}
	return e, nil
}

// FeatureNames returns the published feature list
func (e *Engine) FeatureNames() []string {
	return ModelFeatures()
}

// Build derives the feature vector of a record. Unknown inputs become NaN,
// so the vector always has every published feature in order.
func (e *Engine) Build(record *domain.NormalizedRecord) (domain.FeatureVector, Details) {
	raw := Extract(e.featureMap, record.Tree())

	var details Details
	features := e.demographics(raw, &details)

	fin := newFinancials(raw)
	details.Imputed, details.SolverErr = fin.imputeAmortization(e.interestRate)
	if details.SolverErr != nil {
		e.logger.Debug("Amortization imputation failed",
			slog.String("filename", record.Filename),
			slog.Float64("loan_amount", fin.loanAmount),
			slog.Float64("term", fin.term),
			slog.String("error", details.SolverErr.Error()))
	}
	for name, v := range fin.features() {
		features[name] = v
	}

	details.Info = make(map[string]string)
	for name, v := range raw {
		if strings.HasPrefix(name, "info__") {
			details.Info[name] = v.String()
		}
	}

	vec := domain.FeatureVector{
		Names:  ModelFeatures(),
		Values: make([]float64, len(modelFeatures)),
	}
	for i, name := range modelFeatures {
		vec.Values[i] = features[name]
	}
	return vec, details
}

func (e *Engine) demographics(raw map[string]domain.Value, details *Details) map[string]float64 {
	features := make(map[string]float64, len(modelFeatures))

	model := ""
	if v := raw["motorcycle_model"]; !v.Missing() {
		model = NormalizeText(v.String())
	}
	counts := e.vectorizer.Transform(model)
	for i, name := range e.vectorizer.FeatureNames() {
		features[BagOfWordsPrefix+name] = counts[i]
	}

	if ages, ok := CleanDependentAges(raw["dependent_ages"]); ok {
		details.DependentAges = ages
	}
	dependents, corrected := CorrectDependentCounts(raw["dependent_ages"], raw["n_dependents"])

	features["num__age"] = ClampAge(ForceNumeric(raw["age"]))
	features["num__n_children"] = ForceNumeric(raw["n_children"])
	features["num__n_dependents"] = dependents
	features["num__n_dependents_corrected"] = corrected
	features["cat__housing_status"] = EncodeHousingStatus(raw["housing_status"])
	features["cat__marital_status"] = EncodeMaritalStatus(raw["marital_status"])
	features["cat__education"] = EncodeEducation(raw["education"])
	features["cat__spouse_education"] = EncodeEducation(raw["spouse_education"])
	return features
}
