package objective

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	for _, name := range Names() {
		o, err := Lookup(name)
		require.NoError(t, err)
		assert.Equal(t, name, o.Name())
		for _, x := range []float64{-5, -1, 0, 0.5, 2, 5} {
			v := o.Eval(x)
			assert.False(t, math.IsNaN(v) || math.IsInf(v, 0), "%s(%v) = %v", name, x, v)
		}
	}

	_, err := Lookup("rosenbrock")
	var ue *UnknownObjectiveError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, "rosenbrock", ue.Name)
}

func TestNames(t *testing.T) {
	assert.Equal(t, []string{"abs", "quadratic", "sumlogs", "wiggly"}, Names())
}

func TestValues(t *testing.T) {
	assert.Equal(t, 4.0, Quadratic{Center: 1}.Eval(-1))
	assert.Equal(t, 2.5, AbsoluteValue{}.Eval(-2.5))
	assert.InDelta(t, math.Log(2)*2, SumOfLogs{Data: []float64{-1, 1}}.Eval(0), 1e-15)
	assert.InDelta(t, 1.5+0.3*math.Sin(0), Wiggly{}.Eval(0), 1e-15)
	assert.Equal(t, 0.0, SumOfLogs{}.Eval(3))
}

func TestLookupReturnsFreshData(t *testing.T) {
	o, err := Lookup("sumlogs")
	require.NoError(t, err)
	o.(SumOfLogs).Data[0] = 100

	again, err := Lookup("sumlogs")
	require.NoError(t, err)
	assert.Equal(t, DefaultCauchyData, again.(SumOfLogs).Data)
}

func TestFunc(t *testing.T) {
	f := Func(Quadratic{Center: 2})
	assert.Equal(t, 1.0, f(3))
}
