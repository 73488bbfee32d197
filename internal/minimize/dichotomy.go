package minimize

import "gonum.org/v1/gonum/floats/scalar"

// dichotomy compares two probes delta apart around the midpoint and keeps
// the half holding the smaller value. The bracket width tends to delta, so
// delta must stay below the tolerance for the loop to converge.
func dichotomy(e *evaluator, lo, hi float64, s *Settings) (*Result, error) {
	a, b := lo, hi
	half := s.delta() / 2

	status := BoundsConverged
	iter := 0
	for !scalar.EqualWithinAbs(a, b, s.Tolerance) {
		if iter == s.MaxIterations {
			status = MaximumIterations
			break
		}
		iter++

		mid := a + (b-a)/2
		x1, x2 := mid-half, mid+half
		f1, err := e.eval(x1)
		if err != nil {
			return nil, err
		}
		f2, err := e.eval(x2)
		if err != nil {
			return nil, err
		}
		if f1 <= f2 {
			b = x2
		} else {
			a = x1
		}
	}

	if _, err := e.eval(a + (b-a)/2); err != nil {
		return nil, err
	}
	return &Result{Iterations: iter, Lo: a, Hi: b, Status: status}, nil
}
