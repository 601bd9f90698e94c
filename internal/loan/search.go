package loan

import (
	"fmt"
	"math"
)

// invPhi is 1/φ, the golden-section shrink factor
var invPhi = (math.Sqrt(5) - 1) / 2

// minimizeBounded finds the minimum of a unimodal f on [lo, hi] by
// golden-section search. It stops once the bracket is narrower than tol.
func minimizeBounded(f func(float64) float64, lo, hi, tol float64, maxIter int) (float64, error) {
	a, b := lo, hi
	c := b - invPhi*(b-a)
	d := a + invPhi*(b-a)
	fc, fd := f(c), f(d)

	for i := 0; i < maxIter; i++ {
		if b-a <= tol {
			x := (a + b) / 2
			if fx := f(x); math.IsNaN(fx) || math.IsInf(fx, 0) {
				return 0, fmt.Errorf("%w: objective undefined at %g", ErrNoConvergence, x)
			}
			return x, nil
		}

		if fc < fd {
			b, d, fd = d, c, fc
			c = b - invPhi*(b-a)
			fc = f(c)
		} else {
			a, c, fc = c, d, fd
			d = a + invPhi*(b-a)
			fd = f(d)
		}
	}
	return 0, fmt.Errorf("%w: bracket [%g, %g] after %d iterations", ErrNoConvergence, a, b, maxIter)
}
