package opt

import (
	"fmt"
	"math/rand"

	"github.com/cwbudde/mayfly"
)

// MinPopulation is the smallest population the mayfly library accepts.
const MinPopulation = 20

// MayflyAdapter wraps the external Mayfly library to conform to our Optimizer interface
type MayflyAdapter struct {
	maxIters int
	popSize  int
	seed     int64
}

// NewMayfly creates a new Mayfly optimizer adapter. Runs with the same seed
// are reproducible.
func NewMayfly(maxIters, popSize int, seed int64) *MayflyAdapter {
	return &MayflyAdapter{
		maxIters: maxIters,
		popSize:  popSize,
		seed:     seed,
	}
}

// Run executes the Mayfly optimization using the external library.
// The library takes scalar bounds, so every dimension shares lower[0] and
// upper[0].
func (m *MayflyAdapter) Run(eval func([]float64) float64, lower, upper []float64) ([]float64, float64, error) {
	if len(lower) == 0 || len(lower) != len(upper) {
		return nil, 0, fmt.Errorf("mayfly: bounds must be non-empty and of equal length (got %d and %d)", len(lower), len(upper))
	}
	if m.popSize < MinPopulation {
		return nil, 0, fmt.Errorf("mayfly: population %d below minimum %d", m.popSize, MinPopulation)
	}
	if m.maxIters <= 0 {
		return nil, 0, fmt.Errorf("mayfly: max iterations must be positive")
	}

	config := mayfly.NewDefaultConfig()
	config.ObjectiveFunc = eval
	config.ProblemSize = len(lower)
	config.MaxIterations = m.maxIters
	config.NPop = m.popSize
	config.LowerBound = lower[0]
	config.UpperBound = upper[0]
	config.Rand = rand.New(rand.NewSource(m.seed))

	result, err := mayfly.Optimize(config)
	if err != nil {
		return nil, 0, fmt.Errorf("mayfly: %w", err)
	}
	return result.GlobalBest.Position, result.GlobalBest.Cost, nil
}
