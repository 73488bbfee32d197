package minimize

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type quadratic struct {
	b float64
	c float64
}

func (q quadratic) Obj(x float64) float64 {
	return (x-q.b)*(x-q.b) + q.c
}

func bothMethods() map[string]*Settings {
	d := DefaultSettings()
	d.Method = Dichotomy
	return map[string]*Settings{
		"golden":    DefaultSettings(),
		"dichotomy": d,
	}
}

func TestMinimizeQuadratic(t *testing.T) {
	for name, settings := range bothMethods() {
		t.Run(name, func(t *testing.T) {
			for _, center := range []float64{-4.5, -1, 0, 0.3, 2.71828, 4.9} {
				q := quadratic{b: center, c: 5}
				res, err := Minimize(q.Obj, -5, 5, settings)
				require.NoError(t, err)

				assert.InDelta(t, center, res.X, settings.Tolerance, "center %v", center)
				assert.InDelta(t, 5.0, res.F, 1e-10)
				assert.Equal(t, BoundsConverged, res.Status)
				assert.False(t, res.ConvergenceNotReached())
				assert.LessOrEqual(t, res.Iterations, settings.MaxIterations)
			}
		})
	}
}

func TestMinimizeClampsToNearestBound(t *testing.T) {
	for name, settings := range bothMethods() {
		t.Run(name, func(t *testing.T) {
			q := quadratic{b: 10}
			res, err := Minimize(q.Obj, -3, 3, settings)
			require.NoError(t, err)
			assert.Equal(t, 3.0, res.X)
			assert.Equal(t, 49.0, res.F)

			q = quadratic{b: -10}
			res, err = Minimize(q.Obj, -3, 3, settings)
			require.NoError(t, err)
			assert.Equal(t, -3.0, res.X)
		})
	}
}

func TestMinimizeAbsoluteValueKink(t *testing.T) {
	for name, settings := range bothMethods() {
		t.Run(name, func(t *testing.T) {
			res, err := Minimize(math.Abs, -5, 5, settings)
			require.NoError(t, err)
			assert.Less(t, math.Abs(res.X), settings.Tolerance)
			assert.Equal(t, BoundsConverged, res.Status)
		})
	}

	// Kink away from the interval center.
	shifted := func(x float64) float64 { return math.Abs(x-1.25) + 0.5*math.Abs(x+2) }
	res, err := Minimize(shifted, -5, 5, nil)
	require.NoError(t, err)
	assert.InDelta(t, 1.25, res.X, 1e-6)
}

func TestMinimizeStopsWhenBracketWithinTolerance(t *testing.T) {
	for name, settings := range bothMethods() {
		t.Run(name, func(t *testing.T) {
			for _, tol := range []float64{1e-3, 1e-6, 1e-9} {
				settings.Tolerance = tol
				res, err := Minimize(quadratic{b: 0.7}.Obj, -5, 5, settings)
				require.NoError(t, err)
				assert.Equal(t, BoundsConverged, res.Status, "tol %v", tol)
				assert.LessOrEqual(t, res.Hi-res.Lo, tol, "tol %v", tol)
				assert.InDelta(t, 0.7, res.X, tol, "tol %v", tol)
			}
		})
	}
}

func TestMinimizeStaysInInterval(t *testing.T) {
	wiggly := func(x float64) float64 {
		return 0.5*math.Abs(x+1) + 0.5*math.Abs(x-2) + 0.3*math.Sin(5*x)
	}
	for _, iv := range [][2]float64{{-5, 5}, {0.1, 0.2}, {-100, -99}, {3, 40}} {
		res, err := Minimize(wiggly, iv[0], iv[1], nil)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, res.X, iv[0])
		assert.LessOrEqual(t, res.X, iv[1])
		assert.Equal(t, wiggly(res.X), res.F)
	}
}

func TestMinimizeReturnsBestProbe(t *testing.T) {
	// Two basins; whatever the path, the answer is never worse than a bound.
	g := func(x float64) float64 { return math.Cos(3*x) + 0.1*x }
	res, err := Minimize(g, -5, 5, nil)
	require.NoError(t, err)
	assert.LessOrEqual(t, res.F, g(-5))
	assert.LessOrEqual(t, res.F, g(5))
}

func TestMinimizeInvalidInterval(t *testing.T) {
	calls := 0
	g := func(x float64) float64 { calls++; return x * x }

	for _, iv := range [][2]float64{{5, 2}, {1, 1}, {math.NaN(), 1}, {0, math.Inf(1)}} {
		_, err := Minimize(g, iv[0], iv[1], nil)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidInterval))

		var ie *InvalidIntervalError
		require.ErrorAs(t, err, &ie)
	}
	assert.Zero(t, calls, "objective must not be evaluated for a bad interval")
}

func TestMinimizeNonFiniteObjective(t *testing.T) {
	calls := 0
	g := func(x float64) float64 {
		calls++
		if x > 1 {
			return math.NaN()
		}
		return x * x
	}
	_, err := Minimize(g, -5, 5, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNonFiniteObjective)

	var nf *NonFiniteObjectiveError
	require.ErrorAs(t, err, &nf)
	assert.Greater(t, nf.X, 1.0)
	assert.True(t, math.IsNaN(nf.Value))
	// The first golden probe to the right of 1 is the second evaluation.
	assert.Equal(t, 2, calls)

	inf := func(x float64) float64 { return 1 / x }
	_, err = Minimize(inf, 0, 1, nil)
	assert.ErrorIs(t, err, ErrNonFiniteObjective)
}

func TestMinimizeIterationCap(t *testing.T) {
	s := DefaultSettings()
	s.MaxIterations = 5
	q := quadratic{b: 1}
	res, err := Minimize(q.Obj, -5, 5, s)
	require.NoError(t, err)

	assert.Equal(t, MaximumIterations, res.Status)
	assert.True(t, res.ConvergenceNotReached())
	assert.Equal(t, 5, res.Iterations)
	assert.GreaterOrEqual(t, res.X, res.Lo-1e-12)
	assert.LessOrEqual(t, res.X, res.Hi+1e-12)
	// 2 initial probes, 1 per iteration, the midpoint, the two bounds.
	assert.Equal(t, 2+5+1+2, res.Evaluations)
}

func TestMinimizeCustomTolerance(t *testing.T) {
	s := DefaultSettings()
	s.Tolerance = 1e-10
	q := quadratic{b: math.Pi / 4}
	res, err := Minimize(q.Obj, -5, 5, s)
	require.NoError(t, err)
	assert.InDelta(t, math.Pi/4, res.X, 1e-10)
	assert.LessOrEqual(t, res.Hi-res.Lo, 1e-10)
}

func TestMinimizeDeterministic(t *testing.T) {
	g := func(x float64) float64 { return math.Abs(x-0.4) + 0.3*math.Sin(5*x) }
	first, err := Minimize(g, -5, 5, nil)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := Minimize(g, -5, 5, nil)
		require.NoError(t, err)
		assert.Equal(t, *first, *again)
	}
}

func TestSettingsValidate(t *testing.T) {
	cases := []struct {
		name  string
		edit  func(*Settings)
		field string
	}{
		{"zero tolerance", func(s *Settings) { s.Tolerance = 0 }, "Tolerance"},
		{"nan tolerance", func(s *Settings) { s.Tolerance = math.NaN() }, "Tolerance"},
		{"no iterations", func(s *Settings) { s.MaxIterations = 0 }, "MaxIterations"},
		{"bad method", func(s *Settings) { s.Method = Method(7) }, "Method"},
		{"wide delta", func(s *Settings) { s.Method = Dichotomy; s.DichotomyDelta = 1 }, "DichotomyDelta"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := DefaultSettings()
			tc.edit(s)
			_, err := Minimize(math.Abs, -1, 1, s)
			var se *SettingsError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, tc.field, se.Field)
		})
	}
}

func TestParseMethod(t *testing.T) {
	m, err := ParseMethod("golden")
	require.NoError(t, err)
	assert.Equal(t, GoldenSection, m)

	m, err = ParseMethod("bisection")
	require.NoError(t, err)
	assert.Equal(t, Dichotomy, m)
	assert.Equal(t, "dichotomy", m.String())

	_, err = ParseMethod("brent")
	assert.Error(t, err)
}

func TestLocalMinimizer(t *testing.T) {
	var m Minimizer = Local{}
	res, err := m.Minimize(quadratic{b: -2}.Obj, -5, 5)
	require.NoError(t, err)
	assert.InDelta(t, -2, res.X, 1e-6)
}

func TestStatusText(t *testing.T) {
	for _, st := range []Status{BoundsConverged, MaximumIterations} {
		text, err := st.MarshalText()
		require.NoError(t, err)
		var back Status
		require.NoError(t, back.UnmarshalText(text))
		assert.Equal(t, st, back)
	}
	var s Status
	assert.Error(t, s.UnmarshalText([]byte("Diverged")))
}
