package server

import (
	"math"
	"net/http"

	"github.com/cwbudde/proxsweep/internal/minimize"
	"github.com/cwbudde/proxsweep/internal/objective"
	"github.com/cwbudde/proxsweep/internal/opt"
	"github.com/cwbudde/proxsweep/internal/prox"
)

// Default bracket and grid sizes for requests that leave them out.
const (
	DefaultLo          = -5.0
	DefaultHi          = 5.0
	DefaultPoints      = 101
	MaxPoints          = 10001
	MaxSweepRhos       = 1000
	defaultDescentStep = 50
)

// Interval is an optional [lo, hi]; missing ends take the defaults.
type Interval struct {
	Lo *float64 `json:"lo,omitempty"`
	Hi *float64 `json:"hi,omitempty"`
}

func (iv Interval) bounds() (float64, float64) {
	lo, hi := DefaultLo, DefaultHi
	if iv.Lo != nil {
		lo = *iv.Lo
	}
	if iv.Hi != nil {
		hi = *iv.Hi
	}
	return lo, hi
}

// MinimizeRequest is the body of POST /api/v1/minimize.
type MinimizeRequest struct {
	Objective string `json:"objective"`
	Interval
	opt.Search
}

// ProxRequest is the body of POST /api/v1/prox.
type ProxRequest struct {
	Objective string  `json:"objective"`
	U         float64 `json:"u"`
	Rho       float64 `json:"rho"`
	Interval
	opt.Search
}

// EnvelopeRequest is the body of POST /api/v1/envelope. The anchors are
// Points evenly spaced values covering the interval.
type EnvelopeRequest struct {
	Objective string  `json:"objective"`
	Rho       float64 `json:"rho"`
	Points    int     `json:"points,omitempty"`
	Interval
	opt.Search
}

// SweepRequest is the body of POST /api/v1/sweep.
type SweepRequest struct {
	Objective string    `json:"objective"`
	U         float64   `json:"u"`
	Rhos      []float64 `json:"rhos"`
	Interval
	opt.Search
}

// MinimizeResponse wraps a search result with the objective name.
type MinimizeResponse struct {
	Objective string `json:"objective"`
	*minimize.Result
}

// ProxResponse wraps a prox result with the objective name.
type ProxResponse struct {
	Objective string `json:"objective"`
	*prox.Result
}

// EnvelopeResponse carries the sampled prox map and Moreau envelope.
type EnvelopeResponse struct {
	Objective string            `json:"objective"`
	Rho       float64           `json:"rho"`
	Points    []prox.CurvePoint `json:"points"`
}

// SweepResponse carries prox(u) for each rho.
type SweepResponse struct {
	Objective string          `json:"objective"`
	U         float64         `json:"u"`
	Points    []prox.RhoPoint `json:"points"`
}

// ObjectivesResponse lists the registered objectives.
type ObjectivesResponse struct {
	Objectives []string `json:"objectives"`
}

// resolve looks up the objective and builds the minimizer.
func resolve(name string, search opt.Search) (objective.Objective, minimize.Minimizer, error) {
	if name == "" {
		return nil, nil, badRequest("objective is required")
	}
	o, err := objective.Lookup(name)
	if err != nil {
		return nil, nil, err
	}
	m, err := search.Minimizer()
	if err != nil {
		return nil, nil, err
	}
	return o, m, nil
}

// handleMinimize handles POST /api/v1/minimize
func (s *Server) handleMinimize(w http.ResponseWriter, r *http.Request) {
	var req MinimizeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		fail(w, err)
		return
	}
	o, m, err := resolve(req.Objective, req.Search)
	if err != nil {
		fail(w, err)
		return
	}

	lo, hi := req.bounds()
	res, err := m.Minimize(o.Eval, lo, hi)
	if err != nil {
		fail(w, err)
		return
	}
	s.metrics.observeEvaluations("minimize", res.Evaluations)
	writeJSON(w, http.StatusOK, MinimizeResponse{Objective: o.Name(), Result: res})
}

// handleProx handles POST /api/v1/prox
func (s *Server) handleProx(w http.ResponseWriter, r *http.Request) {
	var req ProxRequest
	if err := decodeJSON(w, r, &req); err != nil {
		fail(w, err)
		return
	}
	o, m, err := resolve(req.Objective, req.Search)
	if err != nil {
		fail(w, err)
		return
	}

	lo, hi := req.bounds()
	res, err := prox.Prox(req.U, req.Rho, o.Eval, lo, hi, &prox.Settings{Minimizer: m})
	if err != nil {
		fail(w, err)
		return
	}
	s.metrics.observeEvaluations("prox", res.Minimization.Evaluations)
	writeJSON(w, http.StatusOK, ProxResponse{Objective: o.Name(), Result: res})
}

// handleEnvelope handles POST /api/v1/envelope
func (s *Server) handleEnvelope(w http.ResponseWriter, r *http.Request) {
	var req EnvelopeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		fail(w, err)
		return
	}
	if req.Points == 0 {
		req.Points = DefaultPoints
	}
	if req.Points < 0 || req.Points > MaxPoints {
		fail(w, badRequest("points must be between 1 and %d", MaxPoints))
		return
	}
	o, m, err := resolve(req.Objective, req.Search)
	if err != nil {
		fail(w, err)
		return
	}

	lo, hi := req.bounds()
	if err := minimize.CheckInterval(lo, hi); err != nil {
		fail(w, err)
		return
	}
	curve, err := prox.EnvelopeCurve(r.Context(), o.Eval, req.Rho, prox.Grid(lo, hi, req.Points), lo, hi, &prox.Settings{Minimizer: m})
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, EnvelopeResponse{Objective: o.Name(), Rho: req.Rho, Points: curve})
}

// handleSweep handles POST /api/v1/sweep
func (s *Server) handleSweep(w http.ResponseWriter, r *http.Request) {
	var req SweepRequest
	if err := decodeJSON(w, r, &req); err != nil {
		fail(w, err)
		return
	}
	if len(req.Rhos) == 0 || len(req.Rhos) > MaxSweepRhos {
		fail(w, badRequest("rhos must hold between 1 and %d values", MaxSweepRhos))
		return
	}
	o, m, err := resolve(req.Objective, req.Search)
	if err != nil {
		fail(w, err)
		return
	}

	lo, hi := req.bounds()
	pts, err := prox.SweepRho(r.Context(), req.U, req.Rhos, o.Eval, lo, hi, &prox.Settings{Minimizer: m})
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SweepResponse{Objective: o.Name(), U: req.U, Points: pts})
}

// handleObjectives handles GET /api/v1/objectives
func (s *Server) handleObjectives(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ObjectivesResponse{Objectives: objective.Names()})
}

// validateJobConfig fills defaults and rejects configs a worker could not
// run.
func validateJobConfig(config *JobConfig) error {
	if config.Lo == 0 && config.Hi == 0 {
		config.Lo, config.Hi = DefaultLo, DefaultHi
	}
	if config.MaxSteps == 0 {
		config.MaxSteps = defaultDescentStep
	}
	if config.MaxSteps < 0 {
		return badRequest("maxSteps cannot be negative")
	}
	if _, _, err := resolve(config.Objective, config.Search); err != nil {
		return err
	}
	if err := minimize.CheckInterval(config.Lo, config.Hi); err != nil {
		return err
	}
	if !(config.Rho > 0) || math.IsInf(config.Rho, 0) {
		return &prox.InvalidParameterError{Field: "rho", Value: config.Rho, Reason: "must be positive and finite"}
	}
	if math.IsNaN(config.U0) || math.IsInf(config.U0, 0) {
		return &prox.InvalidParameterError{Field: "u", Value: config.U0, Reason: "must be finite"}
	}
	return nil
}
