// Package prox computes the proximal operator of a scalar function,
//
//	prox(u) = argmin_x f(x) + (x-u)^2 / (2 rho)
//
// over a bounded interval, together with the majorize-minimize descent built
// from repeated prox steps and sweeps of the operator over rho and u.
//
// Every function here is a pure computation over its arguments and may be
// called from several goroutines at once.
package prox

import (
	"math"

	"github.com/cwbudde/proxsweep/internal/minimize"
)

// Settings selects the minimizer behind the operator. A nil Minimizer means
// the bracketing search with default settings.
type Settings struct {
	Minimizer minimize.Minimizer
}

func (s *Settings) minimizer() minimize.Minimizer {
	if s == nil || s.Minimizer == nil {
		return minimize.Local{}
	}
	return s.Minimizer
}

// Result is one evaluation of the operator.
type Result struct {
	U       float64 `json:"u"`
	Rho     float64 `json:"rho"`
	X       float64 `json:"x"`       // the prox point
	Value   float64 `json:"value"`   // h(X) = F + Penalty
	F       float64 `json:"f"`       // f(X)
	Penalty float64 `json:"penalty"` // (X-u)^2 / (2 rho)

	// Minimization is the raw search result. X differs from
	// Minimization.X only when the anchor itself scored better.
	Minimization *minimize.Result `json:"minimization"`
}

// Envelope returns h(x) = f(x) + (x-u)^2/(2 rho). It equals f at x = u and
// lies above f everywhere else.
func Envelope(f minimize.Func, u, rho float64) minimize.Func {
	return func(x float64) float64 {
		d := x - u
		return f(x) + d*d/(2*rho)
	}
}

// Prox minimizes the envelope of f anchored at u over [lo, hi].
//
// rho must be positive and finite and u finite; u may lie outside the
// interval. When u is inside the interval it is itself a candidate, so the
// returned Value never exceeds f(u) even if the search settles in a worse
// local basin of a multimodal envelope.
func Prox(u, rho float64, f minimize.Func, lo, hi float64, settings *Settings) (*Result, error) {
	if err := checkParams(u, rho); err != nil {
		return nil, err
	}

	h := Envelope(f, u, rho)
	m, err := settings.minimizer().Minimize(h, lo, hi)
	if err != nil {
		return nil, err
	}

	x, value := m.X, m.F
	if u >= lo && u <= hi {
		hu := h(u)
		if math.IsNaN(hu) || math.IsInf(hu, 0) {
			return nil, &minimize.NonFiniteObjectiveError{X: u, Value: hu}
		}
		if hu < value {
			x, value = u, hu
		}
	}

	d := x - u
	return &Result{
		U:            u,
		Rho:          rho,
		X:            x,
		Value:        value,
		F:            f(x),
		Penalty:      d * d / (2 * rho),
		Minimization: m,
	}, nil
}

func checkParams(u, rho float64) error {
	if !(rho > 0) || math.IsInf(rho, 1) {
		return &InvalidParameterError{Field: "rho", Value: rho, Reason: "must be positive and finite"}
	}
	if math.IsNaN(u) || math.IsInf(u, 0) {
		return &InvalidParameterError{Field: "u", Value: u, Reason: "must be finite"}
	}
	return nil
}
