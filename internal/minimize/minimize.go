// Package minimize finds the minimizer of a scalar function over a closed
// interval without derivatives.
//
// The search is a bracketing scheme (golden section by default) that assumes
// the objective is unimodal on the interval. When that assumption fails the
// result is a local minimizer found along the search path; no global
// guarantee is made.
package minimize

import (
	"fmt"
	"math"
)

// Func is a real-valued objective of one real argument.
type Func func(x float64) float64

// Method selects the interval-narrowing scheme.
type Method int

const (
	// GoldenSection keeps one interior probe per iteration and shrinks the
	// bracket by 1/φ each step.
	GoldenSection Method = iota
	// Dichotomy probes two points straddling the midpoint and halves the
	// bracket each step.
	Dichotomy
)

func (m Method) String() string {
	switch m {
	case GoldenSection:
		return "golden"
	case Dichotomy:
		return "dichotomy"
	}
	return "unknown"
}

// ParseMethod maps a method name to a Method.
func ParseMethod(name string) (Method, error) {
	switch name {
	case "", "golden", "golden-section":
		return GoldenSection, nil
	case "dichotomy", "bisection":
		return Dichotomy, nil
	}
	return 0, &SettingsError{Field: "Method", Reason: fmt.Sprintf("unknown method %q", name)}
}

// Status records why a search ended.
type Status int

const (
	// BoundsConverged means the bracket shrank to within the tolerance.
	BoundsConverged Status = iota + 1
	// MaximumIterations means the iteration cap ended the search first.
	MaximumIterations
)

func (s Status) String() string {
	switch s {
	case BoundsConverged:
		return "BoundsConverged"
	case MaximumIterations:
		return "MaximumIterations"
	}
	return "UnknownStatus"
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(text []byte) error {
	switch string(text) {
	case "BoundsConverged":
		*s = BoundsConverged
	case "MaximumIterations":
		*s = MaximumIterations
	default:
		return fmt.Errorf("minimize: unknown status %q", text)
	}
	return nil
}

// Settings controls a search. The zero value is not usable; start from
// DefaultSettings.
type Settings struct {
	Tolerance     float64 // absolute width at which the bracket counts as converged
	MaxIterations int     // hard stop on narrowing steps
	Method        Method

	// DichotomyDelta is the separation of the two Dichotomy probes. Zero
	// means Tolerance/4.
	DichotomyDelta float64
}

// DefaultSettings returns a golden-section search with a 1e-6 tolerance
// capped at 100 iterations.
func DefaultSettings() *Settings {
	return &Settings{
		Tolerance:     1e-6,
		MaxIterations: 100,
		Method:        GoldenSection,
	}
}

// Validate checks that the settings can drive a search.
func (s *Settings) Validate() error {
	if !(s.Tolerance > 0) || math.IsInf(s.Tolerance, 0) {
		return &SettingsError{Field: "Tolerance", Reason: "must be positive and finite"}
	}
	if s.MaxIterations <= 0 {
		return &SettingsError{Field: "MaxIterations", Reason: "must be positive"}
	}
	switch s.Method {
	case GoldenSection:
	case Dichotomy:
		if s.DichotomyDelta < 0 || s.DichotomyDelta >= s.Tolerance {
			return &SettingsError{Field: "DichotomyDelta", Reason: "must be non-negative and below Tolerance"}
		}
	default:
		return &SettingsError{Field: "Method", Reason: "unknown method"}
	}
	return nil
}

func (s *Settings) delta() float64 {
	if s.DichotomyDelta > 0 {
		return s.DichotomyDelta
	}
	return s.Tolerance / 4
}

// Result is the outcome of a single search.
type Result struct {
	X           float64 `json:"x"`           // best point found, always within [lo, hi]
	F           float64 `json:"f"`           // objective at X
	Iterations  int     `json:"iterations"`  // narrowing steps taken
	Evaluations int     `json:"evaluations"` // objective calls made
	Lo          float64 `json:"lo"`          // final bracket
	Hi          float64 `json:"hi"`
	Status      Status  `json:"status"`
}

// ConvergenceNotReached reports whether the iteration cap ended the search
// before the bracket met the tolerance. X is still the best point seen.
func (r *Result) ConvergenceNotReached() bool {
	return r.Status == MaximumIterations
}

// Minimizer is anything that can minimize g over [lo, hi].
type Minimizer interface {
	Minimize(g Func, lo, hi float64) (*Result, error)
}

// Local is the bracketing search as a Minimizer. A nil Settings means
// DefaultSettings.
type Local struct {
	Settings *Settings
}

func (l Local) Minimize(g Func, lo, hi float64) (*Result, error) {
	return Minimize(g, lo, hi, l.Settings)
}

// Minimize searches [lo, hi] for a minimizer of g. A nil settings means
// DefaultSettings.
//
// The interval is checked before g is called. A NaN or infinite value of g at
// any probe stops the search with a *NonFiniteObjectiveError. Hitting the
// iteration cap is not an error; see Result.ConvergenceNotReached.
func Minimize(g Func, lo, hi float64, settings *Settings) (*Result, error) {
	if err := CheckInterval(lo, hi); err != nil {
		return nil, err
	}
	if settings == nil {
		settings = DefaultSettings()
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	e := &evaluator{g: g}
	var (
		res *Result
		err error
	)
	switch settings.Method {
	case Dichotomy:
		res, err = dichotomy(e, lo, hi, settings)
	default:
		res, err = goldenSection(e, lo, hi, settings)
	}
	if err != nil {
		return nil, err
	}

	// Endpoints are candidates too, so a monotone objective returns the
	// bound itself rather than a point one tolerance inside it.
	for _, x := range [2]float64{lo, hi} {
		if _, err := e.eval(x); err != nil {
			return nil, err
		}
	}
	res.X, res.F = e.bestX, e.bestF
	res.Evaluations = e.n
	return res, nil
}

// CheckInterval reports whether [lo, hi] is a usable search interval.
func CheckInterval(lo, hi float64) error {
	if math.IsNaN(lo) || math.IsNaN(hi) || math.IsInf(lo, 0) || math.IsInf(hi, 0) || lo >= hi {
		return &InvalidIntervalError{Lo: lo, Hi: hi}
	}
	return nil
}

// evaluator counts calls, rejects non-finite values and remembers the best
// point seen. Ties keep the earlier point.
type evaluator struct {
	g     Func
	n     int
	seen  bool
	bestX float64
	bestF float64
}

func (e *evaluator) eval(x float64) (float64, error) {
	v := e.g(x)
	e.n++
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v, &NonFiniteObjectiveError{X: x, Value: v}
	}
	if !e.seen || v < e.bestF {
		e.seen = true
		e.bestX, e.bestF = x, v
	}
	return v, nil
}
