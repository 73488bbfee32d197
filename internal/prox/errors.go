package prox

import (
	"errors"
	"fmt"
)

// ErrInvalidParameter matches any *InvalidParameterError via errors.Is.
var ErrInvalidParameter = &InvalidParameterError{}

// ErrStopped may be returned from DescendOptions.OnStep to end a descent
// early. Descend then returns the trajectory so far without an error.
var ErrStopped = errors.New("prox: descent stopped by callback")

// InvalidParameterError reports a smoothness parameter or anchor the
// operator cannot use.
type InvalidParameterError struct {
	Field  string
	Value  float64
	Reason string
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("invalid parameter: %s=%g %s", e.Field, e.Value, e.Reason)
}

func (e *InvalidParameterError) Is(target error) bool {
	_, ok := target.(*InvalidParameterError)
	return ok
}
