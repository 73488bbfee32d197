// Package objective provides the named test functions used to exercise the
// proximal operator: a smooth quadratic, the absolute value, a Cauchy-style
// sum of logs and a non-convex "wiggly" function.
package objective

import (
	"math"
	"sort"

	"github.com/cwbudde/proxsweep/internal/minimize"
)

// Objective is a scalar function with a stable name.
type Objective interface {
	Eval(x float64) float64
	Name() string
}

// Func adapts an Objective to the minimizer's function type.
func Func(o Objective) minimize.Func {
	return o.Eval
}

// Quadratic is (x - Center)^2.
type Quadratic struct {
	Center float64
}

func (q Quadratic) Eval(x float64) float64 {
	d := x - q.Center
	return d * d
}

func (Quadratic) Name() string { return "quadratic" }

// AbsoluteValue is |x|, non-differentiable at the origin.
type AbsoluteValue struct{}

func (AbsoluteValue) Eval(x float64) float64 { return math.Abs(x) }

func (AbsoluteValue) Name() string { return "abs" }

// SumOfLogs is the Cauchy negative log-likelihood sum_i log(1 + (x - d_i)^2).
// It is non-convex once the data points are spread apart.
type SumOfLogs struct {
	Data []float64
}

func (s SumOfLogs) Eval(x float64) float64 {
	var sum float64
	for _, d := range s.Data {
		r := x - d
		sum += math.Log1p(r * r)
	}
	return sum
}

func (SumOfLogs) Name() string { return "sumlogs" }

// Wiggly is 0.5|x+1| + 0.5|x-2| + 0.3 sin(5x): two kinks plus an
// oscillation that creates several local minima.
type Wiggly struct{}

func (Wiggly) Eval(x float64) float64 {
	return 0.5*math.Abs(x+1) + 0.5*math.Abs(x-2) + 0.3*math.Sin(5*x)
}

func (Wiggly) Name() string { return "wiggly" }

// DefaultCauchyData are the observations behind the default SumOfLogs.
var DefaultCauchyData = []float64{-1.5, 0.5, 3}

var registry = map[string]func() Objective{
	"quadratic": func() Objective { return Quadratic{Center: 1} },
	"abs":       func() Objective { return AbsoluteValue{} },
	"sumlogs":   func() Objective { return SumOfLogs{Data: append([]float64(nil), DefaultCauchyData...)} },
	"wiggly":    func() Objective { return Wiggly{} },
}

// UnknownObjectiveError is returned by Lookup for an unregistered name.
type UnknownObjectiveError struct {
	Name string
}

func (e *UnknownObjectiveError) Error() string {
	return "unknown objective: " + e.Name
}

// Lookup returns the default instance of the named objective.
func Lookup(name string) (Objective, error) {
	ctor, ok := registry[name]
	if !ok {
		return nil, &UnknownObjectiveError{Name: name}
	}
	return ctor(), nil
}

// Names lists the registered objectives in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
