package opt

// Optimizer defines a bound-constrained, derivative-free search over a box.
// Run must call eval on its own goroutine; GlobalMinimizer stops a run by
// panicking out of eval.
type Optimizer interface {
	// Run executes the optimization
	// eval: objective function to minimize
	// lower, upper: parameter bounds; their length is the dimension
	// Returns: best parameters and best cost
	Run(eval func([]float64) float64, lower, upper []float64) ([]float64, float64, error)
}
