package opt

import (
	"log/slog"
	"math"

	"github.com/cwbudde/proxsweep/internal/minimize"
)

// DefaultWindow is the share of the interval the local search refines
// around the global seed.
const DefaultWindow = 0.1

// GlobalMinimizer scans the whole interval with a population-based
// optimizer, then runs the bracketing search on a window around the best
// point found. It trades evaluations for a better chance of landing in the
// lowest basin of a multimodal function; it is still not a global guarantee.
type GlobalMinimizer struct {
	Optimizer Optimizer
	Local     *minimize.Settings // nil means minimize.DefaultSettings
	Window    float64            // fraction of hi-lo; zero means DefaultWindow
}

// Minimize implements minimize.Minimizer.
func (g GlobalMinimizer) Minimize(f minimize.Func, lo, hi float64) (*minimize.Result, error) {
	if err := minimize.CheckInterval(lo, hi); err != nil {
		return nil, err
	}

	var (
		bad   *minimize.NonFiniteObjectiveError
		evals int
	)
	eval := func(p []float64) float64 {
		x := clamp(p[0], lo, hi)
		v := f(x)
		evals++
		if math.IsNaN(v) || math.IsInf(v, 0) {
			bad = &minimize.NonFiniteObjectiveError{X: x, Value: v}
			panic(abortScan{bad})
		}
		return v
	}

	best, cost, err := g.scan(eval, lo, hi)
	if bad != nil {
		return nil, bad
	}
	if err != nil {
		slog.Warn("Global scan failed, using local search over the full interval", "error", err)
		return minimize.Minimize(f, lo, hi, g.Local)
	}

	seed := clamp(best[0], lo, hi)
	window := g.Window
	if window <= 0 {
		window = DefaultWindow
	}
	half := window * (hi - lo) / 2
	a, b := math.Max(lo, seed-half), math.Min(hi, seed+half)

	res, err := minimize.Minimize(f, a, b, g.Local)
	if err != nil {
		return nil, err
	}
	res.Evaluations += evals
	if cost < res.F {
		res.X, res.F = seed, cost
	}

	slog.Debug("Global scan refined",
		"seed", seed,
		"seed_cost", cost,
		"x", res.X,
		"f", res.F,
		"evaluations", res.Evaluations,
	)
	return res, nil
}

// abortScan unwinds an optimizer run from inside its objective.
type abortScan struct{ err error }

// scan runs the optimizer over [lo, hi]. An eval that panics with abortScan
// ends the run at once and its error is returned.
func (g GlobalMinimizer) scan(eval func([]float64) float64, lo, hi float64) (best []float64, cost float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			a, ok := r.(abortScan)
			if !ok {
				panic(r)
			}
			best, cost, err = nil, 0, a.err
		}
	}()
	return g.Optimizer.Run(eval, []float64{lo}, []float64{hi})
}

func clamp(x, lo, hi float64) float64 {
	return math.Min(math.Max(x, lo), hi)
}
