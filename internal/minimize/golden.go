package minimize

import (
	"math"

	"gonum.org/v1/gonum/floats/scalar"
)

// invPhi is the fraction of the bracket kept after each golden-section step.
const invPhi = 1 / math.Phi

// goldenSection narrows [lo, hi] by reusing one interior probe per
// iteration. On a tie the left sub-interval is dropped; either choice keeps
// the minimizer of a unimodal function.
func goldenSection(e *evaluator, lo, hi float64, s *Settings) (*Result, error) {
	a, b := lo, hi
	c := b - invPhi*(b-a)
	d := a + invPhi*(b-a)

	fc, err := e.eval(c)
	if err != nil {
		return nil, err
	}
	fd, err := e.eval(d)
	if err != nil {
		return nil, err
	}

	status := BoundsConverged
	iter := 0
	for !scalar.EqualWithinAbs(a, b, s.Tolerance) {
		if iter == s.MaxIterations {
			status = MaximumIterations
			break
		}
		iter++

		if fc < fd {
			b, d, fd = d, c, fc
			c = b - invPhi*(b-a)
			if fc, err = e.eval(c); err != nil {
				return nil, err
			}
		} else {
			a, c, fc = c, d, fd
			d = a + invPhi*(b-a)
			if fd, err = e.eval(d); err != nil {
				return nil, err
			}
		}
	}

	if _, err := e.eval(a + (b-a)/2); err != nil {
		return nil, err
	}
	return &Result{Iterations: iter, Lo: a, Hi: b, Status: status}, nil
}
