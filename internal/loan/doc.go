// Package loan solves for the one missing parameter of an amortized loan.
//
// A loan is described by four quantities: principal, interest rate per
// period, term in periods and periodic payment. Given any three, Solve
// derives the fourth:
//
//   - payment: closed-form annuity formula
//   - principal: the same formula applied to the reciprocal payment
//   - term: period-by-period amortization until the balance falls within
//     1% of the original principal
//   - rate: bounded golden-section search on [0, 1]
//
// # Usage
//
//	l, err := loan.Solve(loan.Spec{
//	    Principal: loan.Float(10000),
//	    Rate:      loan.Float(0.0399),
//	    Term:      loan.Float(12),
//	})
//	if err != nil {
//	    return err
//	}
//	fmt.Println(l.Payment)
//
// # Errors
//
// ErrInvalidLoanSpec marks a programming error (zero or several unknowns).
// ErrLoanNeverAmortizes and ErrNoConvergence mean the derivation is not
// available; callers leave the dependent value missing.
package loan
