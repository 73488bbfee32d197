package prox

import (
	"context"
	"errors"
	"math"

	"github.com/cwbudde/proxsweep/internal/minimize"
)

// StopReason says why a descent ended.
type StopReason string

const (
	StopMaxSteps   StopReason = "max_steps"
	StopStationary StopReason = "stationary"
	StopStalled    StopReason = "stalled"
	StopCallback   StopReason = "stopped"
)

// Step is one prox iteration: X = prox(U), F = f(X), Value = h(X, U).
type Step struct {
	K     int     `json:"k"`
	U     float64 `json:"u"`
	X     float64 `json:"x"`
	F     float64 `json:"f"`
	Value float64 `json:"value"`
}

// Trajectory is the sequence produced by iterating u <- prox(u).
type Trajectory struct {
	Rho       float64    `json:"rho"`
	Lo        float64    `json:"lo"`
	Hi        float64    `json:"hi"`
	U0        float64    `json:"u0"`
	F0        float64    `json:"f0"` // f(U0)
	Steps     []Step     `json:"steps"`
	Reason    StopReason `json:"reason"`
	FinalX    float64    `json:"finalX"`
	FinalF    float64    `json:"finalF"`
	Converged bool       `json:"converged"`
}

// DescendOptions tunes Descend. The zero value is usable.
type DescendOptions struct {
	Settings *Settings

	// MaxSteps bounds the number of prox steps (default 50).
	MaxSteps int

	// StepTolerance ends the descent once a step moves no further than this
	// (default 1e-6, the default search tolerance).
	StepTolerance float64

	// Convergence enables stall detection on f.
	Convergence ConvergenceConfig

	// OnStep is called after every step. Returning ErrStopped ends the
	// descent without an error; any other error is returned as is.
	OnStep func(Step) error
}

const (
	defaultMaxSteps      = 50
	defaultStepTolerance = 1e-6
)

// Descend iterates u_{k+1} = prox(u_k) from u0 with a fixed rho. Once the
// anchor is inside [lo, hi] the f-values never increase: each step's
// envelope lies above f and touches it at the anchor.
//
// A cancelled context ends the descent between steps; the partial
// trajectory is returned together with the context error.
func Descend(ctx context.Context, u0, rho float64, f minimize.Func, lo, hi float64, opts *DescendOptions) (*Trajectory, error) {
	if opts == nil {
		opts = &DescendOptions{}
	}
	if err := checkParams(u0, rho); err != nil {
		return nil, err
	}
	if err := minimize.CheckInterval(lo, hi); err != nil {
		return nil, err
	}
	maxSteps := opts.MaxSteps
	if maxSteps <= 0 {
		maxSteps = defaultMaxSteps
	}
	tol := opts.StepTolerance
	if tol <= 0 {
		tol = defaultStepTolerance
	}

	f0 := f(u0)
	if math.IsNaN(f0) || math.IsInf(f0, 0) {
		return nil, &minimize.NonFiniteObjectiveError{X: u0, Value: f0}
	}

	tr := &Trajectory{
		Rho:    rho,
		Lo:     lo,
		Hi:     hi,
		U0:     u0,
		F0:     f0,
		Reason: StopMaxSteps,
		FinalX: u0,
		FinalF: f0,
	}
	tracker := NewConvergenceTracker(opts.Convergence)
	tracker.Update(f0)

	u := u0
	for k := 0; k < maxSteps; k++ {
		if err := ctx.Err(); err != nil {
			return tr, err
		}

		r, err := Prox(u, rho, f, lo, hi, opts.Settings)
		if err != nil {
			return tr, err
		}
		step := Step{K: k, U: u, X: r.X, F: r.F, Value: r.Value}
		tr.Steps = append(tr.Steps, step)
		tr.FinalX, tr.FinalF = r.X, r.F

		if opts.OnStep != nil {
			if err := opts.OnStep(step); err != nil {
				if errors.Is(err, ErrStopped) {
					tr.Reason = StopCallback
					return tr, nil
				}
				return tr, err
			}
		}

		if math.Abs(r.X-u) <= tol {
			tr.Reason = StopStationary
			tr.Converged = true
			return tr, nil
		}
		if tracker.Update(r.F) {
			tr.Reason = StopStalled
			tr.Converged = true
			return tr, nil
		}
		u = r.X
	}
	return tr, nil
}

// Values returns f(U0) followed by f at every step.
func (t *Trajectory) Values() []float64 {
	out := make([]float64, 0, len(t.Steps)+1)
	out = append(out, t.F0)
	for _, s := range t.Steps {
		out = append(out, s.F)
	}
	return out
}
