package prox

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/proxsweep/internal/minimize"
	"github.com/cwbudde/proxsweep/internal/objective"
)

const lo, hi = -5.0, 5.0

func allObjectives(t *testing.T) []objective.Objective {
	t.Helper()
	var out []objective.Objective
	for _, name := range objective.Names() {
		o, err := objective.Lookup(name)
		require.NoError(t, err)
		out = append(out, o)
	}
	return out
}

func TestEnvelopeTouchesAtAnchor(t *testing.T) {
	for _, o := range allObjectives(t) {
		h := Envelope(o.Eval, 0.7, 0.3)
		assert.Equal(t, o.Eval(0.7), h(0.7), o.Name())
		for _, x := range Grid(lo, hi, 21) {
			assert.GreaterOrEqual(t, h(x), o.Eval(x), "%s at %v", o.Name(), x)
		}
	}
}

func TestProxQuadraticClosedForm(t *testing.T) {
	q := objective.Quadratic{Center: 1}
	for _, rho := range []float64{0.01, 0.25, 1, 4} {
		for _, u := range []float64{-3, -0.5, 0, 2.2} {
			want := (u + 2*rho*q.Center) / (1 + 2*rho)
			r, err := Prox(u, rho, q.Eval, lo, hi, nil)
			require.NoError(t, err)
			assert.InDelta(t, want, r.X, 1e-6, "rho=%v u=%v", rho, u)
			assert.InDelta(t, r.F+r.Penalty, r.Value, 1e-12)
		}
	}
}

func TestProxAbsoluteValueSoftThreshold(t *testing.T) {
	soft := func(u, rho float64) float64 {
		return math.Copysign(math.Max(math.Abs(u)-rho, 0), u)
	}
	for _, rho := range []float64{0.1, 0.5, 2} {
		for _, u := range []float64{-3, -0.3, 0, 0.05, 1.7} {
			r, err := Prox(u, rho, math.Abs, lo, hi, nil)
			require.NoError(t, err)
			assert.InDelta(t, soft(u, rho), r.X, 1e-6, "rho=%v u=%v", rho, u)
		}
	}
}

func TestProxLimitingBehavior(t *testing.T) {
	q := objective.Quadratic{Center: 1}

	r, err := Prox(-3, 0.001, q.Eval, lo, hi, nil)
	require.NoError(t, err)
	assert.InDelta(t, -3, r.X, 0.01)

	r, err = Prox(-3, 1000, q.Eval, lo, hi, nil)
	require.NoError(t, err)
	assert.InDelta(t, 1, r.X, 0.01)

	// Tiny rho pins every objective to the anchor.
	for _, o := range allObjectives(t) {
		r, err := Prox(0.7, 1e-7, o.Eval, lo, hi, nil)
		require.NoError(t, err)
		assert.InDelta(t, 0.7, r.X, 1e-5, o.Name())
	}
}

func TestProxEnvelopeMonotonicity(t *testing.T) {
	for _, o := range allObjectives(t) {
		for _, rho := range []float64{0.01, 0.5, 1, 10, 1000} {
			for _, u := range Grid(lo, hi, 41) {
				r, err := Prox(u, rho, o.Eval, lo, hi, nil)
				require.NoError(t, err)
				assert.LessOrEqual(t, r.Value, o.Eval(u), "%s rho=%v u=%v", o.Name(), rho, u)
				assert.GreaterOrEqual(t, r.X, lo)
				assert.LessOrEqual(t, r.X, hi)
			}
		}
	}
}

func TestProxAnchorOutsideInterval(t *testing.T) {
	q := objective.Quadratic{Center: 1}

	r, err := Prox(10, 1, q.Eval, lo, hi, nil)
	require.NoError(t, err)
	assert.InDelta(t, 4, r.X, 1e-6)

	r, err = Prox(100, 1, q.Eval, lo, hi, nil)
	require.NoError(t, err)
	assert.Equal(t, hi, r.X)
}

type fixedMinimizer struct{ x float64 }

func (m fixedMinimizer) Minimize(g minimize.Func, lo, hi float64) (*minimize.Result, error) {
	return &minimize.Result{X: m.x, F: g(m.x), Status: minimize.BoundsConverged}, nil
}

func TestProxPrefersAnchorOverWorseSearchResult(t *testing.T) {
	s := &Settings{Minimizer: fixedMinimizer{x: lo}}
	r, err := Prox(1, 0.5, objective.Quadratic{Center: 1}.Eval, lo, hi, s)
	require.NoError(t, err)
	assert.Equal(t, 1.0, r.X)
	assert.Equal(t, 0.0, r.Value)
	assert.Equal(t, lo, r.Minimization.X)
}

func TestProxInvalidParameters(t *testing.T) {
	f := objective.Quadratic{Center: 1}.Eval
	for _, rho := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		_, err := Prox(0, rho, f, lo, hi, nil)
		assert.ErrorIs(t, err, ErrInvalidParameter, "rho=%v", rho)

		var pe *InvalidParameterError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, "rho", pe.Field)
	}

	_, err := Prox(math.NaN(), 1, f, lo, hi, nil)
	var pe *InvalidParameterError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "u", pe.Field)

	_, err = Prox(0, 1, f, 5, 2, nil)
	assert.ErrorIs(t, err, minimize.ErrInvalidInterval)
}

func TestProxNonFiniteObjective(t *testing.T) {
	f := func(x float64) float64 { return math.Log(x) }
	_, err := Prox(1, 1, f, -1, 2, nil)
	assert.ErrorIs(t, err, minimize.ErrNonFiniteObjective)
}

func TestProxWithDichotomy(t *testing.T) {
	ms := minimize.DefaultSettings()
	ms.Method = minimize.Dichotomy
	s := &Settings{Minimizer: minimize.Local{Settings: ms}}

	r, err := Prox(-3, 1000, objective.Quadratic{Center: 1}.Eval, lo, hi, s)
	require.NoError(t, err)
	assert.InDelta(t, 1, r.X, 0.01)
}
