package minimize

import "fmt"

// ErrInvalidInterval matches any *InvalidIntervalError via errors.Is.
var ErrInvalidInterval = &InvalidIntervalError{}

// ErrNonFiniteObjective matches any *NonFiniteObjectiveError via errors.Is.
var ErrNonFiniteObjective = &NonFiniteObjectiveError{}

// InvalidIntervalError is returned when the search interval is empty,
// reversed or has a non-finite bound. It is a configuration error and is
// reported before the objective is evaluated.
type InvalidIntervalError struct {
	Lo float64
	Hi float64
}

func (e *InvalidIntervalError) Error() string {
	return fmt.Sprintf("invalid interval: lo=%g must be finite and less than hi=%g", e.Lo, e.Hi)
}

func (e *InvalidIntervalError) Is(target error) bool {
	_, ok := target.(*InvalidIntervalError)
	return ok
}

// NonFiniteObjectiveError is returned when the objective yields NaN or an
// infinity at a probed point. The search stops at the first such value.
type NonFiniteObjectiveError struct {
	X     float64
	Value float64
}

func (e *NonFiniteObjectiveError) Error() string {
	return fmt.Sprintf("objective is not finite at x=%g: %g", e.X, e.Value)
}

func (e *NonFiniteObjectiveError) Is(target error) bool {
	_, ok := target.(*NonFiniteObjectiveError)
	return ok
}

// SettingsError reports an unusable Settings field.
type SettingsError struct {
	Field  string
	Reason string
}

func (e *SettingsError) Error() string {
	return "invalid settings: " + e.Field + " " + e.Reason
}
