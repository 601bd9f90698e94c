package features

import (
	"math"
	"strings"

	"creditfile/internal/loan"
	"creditfile/pkg/contracts/domain"
)

// DefaultInterestRate is the monthly rate used to impute a missing
// amortization
const DefaultInterestRate = 0.039881

const maxLoanTerm = 48

// ExpandLoanTerms splits "<downpayment>/<term>" loan terms. A term with a
// "y" is in years and converted to months; terms outside (0, 48] months
// are NaN.
func ExpandLoanTerms(v domain.Value) (downpayment, term float64) {
	if v.Missing() {
		return math.NaN(), math.NaN()
	}
	parts := strings.Split(v.String(), "/")
	downpayment, term = ParseNumber(parts[0]), math.NaN()
	if len(parts) > 1 {
		term = ParseNumber(parts[1])
		if strings.Contains(strings.ToLower(parts[1]), "y") {
			term *= 12
		}
		if !(term > 0 && term <= maxLoanTerm) {
			term = math.NaN()
		}
	}
	return downpayment, term
}

// financials holds the numeric loan and income inputs of one record
type financials struct {
	loanAmount          float64
	monthlyAmortization float64
	grossIncome         float64
	employmentIncome    float64
	businessIncome      float64
	spouseIncome        float64
	downpayment         float64
	term                float64
}

func newFinancials(raw map[string]domain.Value) financials {
	f := financials{
		loanAmount:          ForceNumeric(raw["loan_amount"]),
		monthlyAmortization: ForceNumeric(raw["monthly_amortization"]),
		grossIncome:         ForceNumeric(raw["gross_income"]),
		employmentIncome:    ForceNumeric(raw["employment_income"]),
		businessIncome:      ForceNumeric(raw["business_income"]),
		spouseIncome:        ForceNumeric(raw["spouse_income"]),
	}
	if f.grossIncome == 0 {
		f.grossIncome = math.NaN()
	}
	f.downpayment, f.term = ExpandLoanTerms(raw["loan_terms"])
	return f
}

// imputeAmortization fills a missing monthly amortization from the loan
// amount and term. It reports whether the solver ran and any solver error;
// on error the amortization stays NaN.
func (f *financials) imputeAmortization(rate float64) (bool, error) {
	if !math.IsNaN(f.monthlyAmortization) || math.IsNaN(f.loanAmount) || math.IsNaN(f.term) {
		return false, nil
	}
	l, err := loan.Solve(loan.Spec{
		Principal: loan.Float(f.loanAmount),
		Rate:      loan.Float(rate),
		Term:      loan.Float(f.term),
	})
	if err != nil {
		return true, err
	}
	f.monthlyAmortization = l.Payment
	return true, nil
}

// Ratio divides a by b, NaN when either is NaN or b is zero
func Ratio(a, b float64) float64 {
	if math.IsNaN(a) || math.IsNaN(b) || b == 0 {
		return math.NaN()
	}
	return a / b
}

func (f financials) features() map[string]float64 {
	return map[string]float64{
		"num__loan_amount":            f.loanAmount,
		"num__loan_downpayment":       f.downpayment,
		"num__loan_term":              f.term,
		"num__monthly_amortization":   f.monthlyAmortization,
		"num__gross_income":           f.grossIncome,
		"num__employment_income":      f.employmentIncome,
		"num__business_income":        f.businessIncome,
		"num__spouse_income":          f.spouseIncome,
		"num__amort_income_ratio":     Ratio(f.monthlyAmortization, f.grossIncome),
		"num__loan_downpayment_ratio": Ratio(f.downpayment, f.loanAmount),
	}
}
