package loan

import (
	"errors"
	"fmt"
	"math"
)

// Solver errors
var (
	// ErrInvalidLoanSpec is returned when a Spec does not leave exactly one parameter unknown
	ErrInvalidLoanSpec = errors.New("exactly one loan parameter must be unspecified")
	// ErrLoanNeverAmortizes is returned when the payment cannot retire the principal
	ErrLoanNeverAmortizes = errors.New("interest exceeds amortization")
	// ErrNoConvergence is returned when a numeric search gives up
	ErrNoConvergence = errors.New("loan solver did not converge")
)

const (
	// balanceTolerance is the fraction of the original principal treated as paid off
	balanceTolerance = 0.01
	// maxPeriods bounds the term simulation
	maxPeriods = 1_000_000
	// rateTolerance is the absolute tolerance of the rate search
	rateTolerance = 1e-5
	// maxRateIterations bounds the rate search
	maxRateIterations = 500
)

// Param identifies one of the four loan parameters.
type Param int

const (
	ParamPrincipal Param = iota
	ParamRate
	ParamTerm
	ParamPayment
)

// String returns the parameter name
func (p Param) String() string {
	switch p {
	case ParamPrincipal:
		return "principal"
	case ParamRate:
		return "rate"
	case ParamTerm:
		return "term"
	case ParamPayment:
		return "payment"
	default:
		return "unknown"
	}
}

// Spec describes a loan with one parameter left nil. Rate is the interest
// rate per period, Term is a number of periods and Payment is the periodic
// payment.
type Spec struct {
	Principal *float64
	Rate      *float64
	Term      *float64
	Payment   *float64
}

// Float returns a pointer to v for building a Spec.
func Float(v float64) *float64 {
	return &v
}

// Loan is a fully resolved loan.
type Loan struct {
	Principal float64 `json:"principal"`
	Rate      float64 `json:"rate"`
	Term      float64 `json:"term"`
	Payment   float64 `json:"payment"`
	Solved    Param   `json:"solved"`
}

// String implements fmt.Stringer
func (l Loan) String() string {
	return fmt.Sprintf("Loan(principal=%g, rate=%g, term=%g, payment=%g)",
		l.Principal, l.Rate, l.Term, l.Payment)
}

// Solve derives the unknown parameter of spec.
func Solve(spec Spec) (Loan, error) {
	unknown, err := spec.unknown()
	if err != nil {
		return Loan{}, err
	}

	l := Loan{Solved: unknown}
	if spec.Principal != nil {
		l.Principal = *spec.Principal
	}
	if spec.Rate != nil {
		l.Rate = *spec.Rate
	}
	if spec.Term != nil {
		l.Term = *spec.Term
	}
	if spec.Payment != nil {
		l.Payment = *spec.Payment
	}

	switch unknown {
	case ParamPayment:
		l.Payment = Payment(l.Principal, l.Rate, l.Term)
	case ParamPrincipal:
		l.Principal = principalFor(l.Payment, l.Rate, l.Term)
	case ParamTerm:
		term, err := solveTerm(l.Principal, l.Rate, l.Payment)
		if err != nil {
			return Loan{}, err
		}
		l.Term = term
	case ParamRate:
		rate, err := solveRate(l.Principal, l.Term, l.Payment)
		if err != nil {
			return Loan{}, err
		}
		l.Rate = rate
	}
	return l, nil
}

// unknown returns the single nil parameter of the spec.
func (s Spec) unknown() (Param, error) {
	params := []struct {
		param Param
		value *float64
	}{
		{ParamPayment, s.Payment},
		{ParamRate, s.Rate},
		{ParamTerm, s.Term},
		{ParamPrincipal, s.Principal},
	}

	var unknown Param
	count := 0
	for _, p := range params {
		if p.value == nil {
			unknown = p.param
			count++
		}
	}
	if count != 1 {
		return 0, fmt.Errorf("%w: %d unspecified", ErrInvalidLoanSpec, count)
	}
	return unknown, nil
}

// Payment is the closed-form periodic payment of an amortized loan.
// A zero rate degenerates to straight-line repayment.
func Payment(principal, rate, term float64) float64 {
	if rate == 0 {
		return principal / term
	}
	compounded := math.Pow(1+rate, term)
	return principal * rate * compounded / (compounded - 1)
}

// principalFor inverts Payment: feeding the reciprocal payment through the
// closed form yields the reciprocal principal.
func principalFor(payment, rate, term float64) float64 {
	return 1 / Payment(1/payment, rate, term)
}

// Simulate counts the periods needed for payment to retire principal,
// stopping once the balance is within 1% of the original principal.
func Simulate(principal, rate, payment float64) (int, error) {
	if payment <= principal*rate {
		return 0, ErrLoanNeverAmortizes
	}

	balance := principal
	lowerBound := balanceTolerance * principal
	periods := 0
	for balance > lowerBound {
		if periods >= maxPeriods {
			return 0, fmt.Errorf("%w: term exceeds %d periods", ErrNoConvergence, maxPeriods)
		}
		interestDue := rate * balance
		balance -= math.Min(payment-interestDue, balance)
		periods++
	}
	return periods, nil
}

func solveTerm(principal, rate, payment float64) (float64, error) {
	periods, err := Simulate(principal, rate, payment)
	if err != nil {
		return 0, err
	}
	return float64(periods), nil
}

// solveRate searches [0, 1] for the rate whose closed-form payment is
// closest to the target payment.
func solveRate(principal, term, payment float64) (float64, error) {
	if principal > payment*term {
		return 0, ErrLoanNeverAmortizes
	}

	objective := func(rate float64) float64 {
		diff := Payment(principal, rate, term) - payment
		return diff * diff
	}

	rate, err := minimizeBounded(objective, 0, 1, rateTolerance, maxRateIterations)
	if err != nil {
		return 0, err
	}
	return rate, nil
}
