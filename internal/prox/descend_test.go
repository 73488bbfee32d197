package prox

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/proxsweep/internal/objective"
)

func TestDescendIsMonotone(t *testing.T) {
	for _, o := range allObjectives(t) {
		for _, rho := range []float64{0.1, 1, 5} {
			for _, u0 := range []float64{-4.5, -2, 0.3, 3.7} {
				tr, err := Descend(context.Background(), u0, rho, o.Eval, lo, hi, &DescendOptions{MaxSteps: 25})
				require.NoError(t, err)
				require.NotEmpty(t, tr.Steps)

				values := tr.Values()
				for k := 1; k < len(values); k++ {
					assert.LessOrEqual(t, values[k], values[k-1],
						"%s rho=%v u0=%v step %d", o.Name(), rho, u0, k)
				}
				for k, s := range tr.Steps {
					assert.Equal(t, k, s.K)
					if k > 0 {
						assert.Equal(t, tr.Steps[k-1].X, s.U)
					}
				}
			}
		}
	}
}

func TestDescendReachesQuadraticMinimum(t *testing.T) {
	q := objective.Quadratic{Center: 1}
	tr, err := Descend(context.Background(), -4, 1, q.Eval, lo, hi, &DescendOptions{MaxSteps: 200, StepTolerance: 1e-5})
	require.NoError(t, err)

	assert.Equal(t, StopStationary, tr.Reason)
	assert.True(t, tr.Converged)
	assert.InDelta(t, 1, tr.FinalX, 1e-4)
	assert.Equal(t, -4.0, tr.U0)
	assert.Equal(t, 25.0, tr.F0)
}

func TestDescendStallDetection(t *testing.T) {
	opts := &DescendOptions{
		MaxSteps:      500,
		StepTolerance: 1e-15,
		Convergence:   ConvergenceConfig{Enabled: true, Patience: 2, Threshold: 1e-3},
	}
	tr, err := Descend(context.Background(), 4, 0.05, objective.AbsoluteValue{}.Eval, lo, hi, opts)
	require.NoError(t, err)
	assert.Contains(t, []StopReason{StopStalled, StopStationary}, tr.Reason)
	assert.Less(t, len(tr.Steps), 500)
}

func TestDescendMaxSteps(t *testing.T) {
	tr, err := Descend(context.Background(), -4, 0.01, objective.Quadratic{Center: 1}.Eval, lo, hi, &DescendOptions{MaxSteps: 3})
	require.NoError(t, err)
	assert.Len(t, tr.Steps, 3)
	assert.Equal(t, StopMaxSteps, tr.Reason)
	assert.False(t, tr.Converged)
}

func TestDescendCallback(t *testing.T) {
	var seen []Step
	opts := &DescendOptions{OnStep: func(s Step) error {
		seen = append(seen, s)
		if len(seen) == 2 {
			return ErrStopped
		}
		return nil
	}}
	tr, err := Descend(context.Background(), -4, 0.1, objective.Wiggly{}.Eval, lo, hi, opts)
	require.NoError(t, err)
	assert.Equal(t, StopCallback, tr.Reason)
	assert.Equal(t, seen, tr.Steps)

	boom := errors.New("boom")
	opts.OnStep = func(Step) error { return boom }
	tr, err = Descend(context.Background(), -4, 0.1, objective.Wiggly{}.Eval, lo, hi, opts)
	assert.ErrorIs(t, err, boom)
	assert.Len(t, tr.Steps, 1)
}

func TestDescendCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	tr, err := Descend(ctx, 0, 1, objective.AbsoluteValue{}.Eval, lo, hi, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, tr.Steps)
}

func TestDescendValidation(t *testing.T) {
	f := objective.AbsoluteValue{}.Eval
	_, err := Descend(context.Background(), 0, -1, f, lo, hi, nil)
	assert.ErrorIs(t, err, ErrInvalidParameter)

	_, err = Descend(context.Background(), 0, 1, f, 3, 3, nil)
	assert.Error(t, err)
}

func TestConvergenceTracker(t *testing.T) {
	c := NewConvergenceTracker(ConvergenceConfig{Enabled: true, Patience: 2, Threshold: 0.1})
	assert.False(t, c.Update(10))
	assert.False(t, c.Update(5)) // 50% better
	assert.False(t, c.Update(4.9))
	assert.Equal(t, 1, c.staleCount)
	assert.True(t, c.Update(4.8))

	// Values at zero use an absolute scale instead of dividing by zero.
	c = NewConvergenceTracker(ConvergenceConfig{Enabled: true, Patience: 2, Threshold: 0.1})
	assert.False(t, c.Update(0))
	assert.False(t, c.Update(0))
	assert.True(t, c.Update(0))

	off := NewConvergenceTracker(DisabledConvergenceConfig())
	for i := 0; i < 10; i++ {
		assert.False(t, off.Update(1))
	}
}
