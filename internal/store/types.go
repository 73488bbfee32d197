package store

import (
	"math"
	"time"

	"github.com/cwbudde/proxsweep/internal/opt"
	"github.com/cwbudde/proxsweep/internal/prox"
)

// RunConfig records the inputs of a descent run.
type RunConfig struct {
	Objective string  `json:"objective"`
	Rho       float64 `json:"rho"`
	U0        float64 `json:"u0"`
	Lo        float64 `json:"lo"`
	Hi        float64 `json:"hi"`
	MaxSteps  int     `json:"maxSteps"`

	// Search describes the minimizer used for every prox step.
	opt.Search
}

// Run is a finished descent as written to run.json.
type Run struct {
	ID        string          `json:"id"`
	Config    RunConfig       `json:"config"`
	F0        float64         `json:"f0"`
	Steps     []prox.Step     `json:"steps"`
	Reason    prox.StopReason `json:"reason"`
	FinalX    float64         `json:"finalX"`
	FinalF    float64         `json:"finalF"`
	Converged bool            `json:"converged"`
	Timestamp time.Time       `json:"timestamp"`
}

// RunInfo is the summary shown by listings.
type RunInfo struct {
	ID        string    `json:"id"`
	Objective string    `json:"objective"`
	Rho       float64   `json:"rho"`
	U0        float64   `json:"u0"`
	Steps     int       `json:"steps"`
	FinalX    float64   `json:"finalX"`
	FinalF    float64   `json:"finalF"`
	Converged bool      `json:"converged"`
	Timestamp time.Time `json:"timestamp"`
}

// NewRun builds a run from a finished trajectory.
func NewRun(id string, config RunConfig, tr *prox.Trajectory) *Run {
	return &Run{
		ID:        id,
		Config:    config,
		F0:        tr.F0,
		Steps:     tr.Steps,
		Reason:    tr.Reason,
		FinalX:    tr.FinalX,
		FinalF:    tr.FinalF,
		Converged: tr.Converged,
		Timestamp: time.Now(),
	}
}

// ToInfo summarizes the run.
func (r *Run) ToInfo() RunInfo {
	return RunInfo{
		ID:        r.ID,
		Objective: r.Config.Objective,
		Rho:       r.Config.Rho,
		U0:        r.Config.U0,
		Steps:     len(r.Steps),
		FinalX:    r.FinalX,
		FinalF:    r.FinalF,
		Converged: r.Converged,
		Timestamp: r.Timestamp,
	}
}

// Validate checks that the run is internally consistent.
func (r *Run) Validate() error {
	if r.ID == "" {
		return &ValidationError{Field: "ID", Reason: "cannot be empty"}
	}
	if r.Config.Objective == "" {
		return &ValidationError{Field: "Config.Objective", Reason: "cannot be empty"}
	}
	if !(r.Config.Rho > 0) || math.IsInf(r.Config.Rho, 0) {
		return &ValidationError{Field: "Config.Rho", Reason: "must be positive and finite"}
	}
	if !(r.Config.Lo < r.Config.Hi) {
		return &ValidationError{Field: "Config.Lo", Reason: "must be below Config.Hi"}
	}
	if r.Config.MaxSteps < 0 {
		return &ValidationError{Field: "Config.MaxSteps", Reason: "cannot be negative"}
	}
	if r.Timestamp.IsZero() {
		return &ValidationError{Field: "Timestamp", Reason: "cannot be zero"}
	}
	if len(r.Steps) == 0 {
		return &ValidationError{Field: "Steps", Reason: "cannot be empty"}
	}
	for i, s := range r.Steps {
		if s.K != i {
			return &ValidationError{Field: "Steps", Reason: "step numbers must count up from 0"}
		}
		if s.X < r.Config.Lo || s.X > r.Config.Hi {
			return &ValidationError{Field: "Steps", Reason: "prox point outside the interval"}
		}
	}
	last := r.Steps[len(r.Steps)-1]
	if last.X != r.FinalX {
		return &ValidationError{Field: "FinalX", Reason: "does not match the last step"}
	}
	return nil
}

// ValidationError represents a run validation error.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation error: " + e.Field + " " + e.Reason
}
