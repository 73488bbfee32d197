package opt

import (
	"github.com/cwbudde/proxsweep/internal/minimize"
)

// Defaults for the global scan.
const (
	DefaultPopulation  = MinPopulation
	DefaultGlobalIters = 50
)

// Search is the user-facing description of how a one-dimensional search
// runs. The CLI flags and the HTTP requests both decode into it. Zero
// fields take the library defaults.
type Search struct {
	Method        string  `json:"method,omitempty" mapstructure:"method"`
	Tolerance     float64 `json:"tolerance,omitempty" mapstructure:"tol"`
	MaxIterations int     `json:"maxIterations,omitempty" mapstructure:"max-iter"`

	// Global puts a mayfly scan in front of the bracketing search.
	Global      bool  `json:"global,omitempty" mapstructure:"global"`
	Population  int   `json:"population,omitempty" mapstructure:"pop"`
	GlobalIters int   `json:"globalIterations,omitempty" mapstructure:"global-iters"`
	Seed        int64 `json:"seed,omitempty" mapstructure:"seed"`
}

// LocalSettings returns validated bracketing-search settings.
func (s Search) LocalSettings() (*minimize.Settings, error) {
	settings := minimize.DefaultSettings()
	method, err := minimize.ParseMethod(s.Method)
	if err != nil {
		return nil, err
	}
	settings.Method = method
	if s.Tolerance != 0 {
		settings.Tolerance = s.Tolerance
	}
	if s.MaxIterations != 0 {
		settings.MaxIterations = s.MaxIterations
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return settings, nil
}

// Minimizer builds the minimizer described by s.
func (s Search) Minimizer() (minimize.Minimizer, error) {
	local, err := s.LocalSettings()
	if err != nil {
		return nil, err
	}
	if !s.Global {
		return minimize.Local{Settings: local}, nil
	}

	pop := s.Population
	if pop == 0 {
		pop = DefaultPopulation
	}
	if pop < MinPopulation {
		return nil, &minimize.SettingsError{Field: "Population", Reason: "below the mayfly minimum of 20"}
	}
	iters := s.GlobalIters
	if iters == 0 {
		iters = DefaultGlobalIters
	}
	if iters < 0 {
		return nil, &minimize.SettingsError{Field: "GlobalIters", Reason: "must be positive"}
	}

	return GlobalMinimizer{
		Optimizer: NewMayfly(iters, pop, s.Seed),
		Local:     local,
	}, nil
}
