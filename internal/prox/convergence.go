package prox

import "math"

// ConvergenceConfig defines when a descent counts as stalled.
type ConvergenceConfig struct {
	// Enabled controls whether stall detection is active
	Enabled bool

	// Patience is the number of consecutive steps without significant
	// improvement before the descent stops
	Patience int

	// Threshold is the minimum relative decrease of f that counts as progress.
	// Relative improvement = (last - f) / max(|last|, 1)
	Threshold float64
}

// DefaultConvergenceConfig stops after 3 steps that improve f by less than 1e-9.
func DefaultConvergenceConfig() ConvergenceConfig {
	return ConvergenceConfig{
		Enabled:   true,
		Patience:  3,
		Threshold: 1e-9,
	}
}

// DisabledConvergenceConfig never reports a stall.
func DisabledConvergenceConfig() ConvergenceConfig {
	return ConvergenceConfig{Enabled: false}
}

// ConvergenceTracker watches the f-values of a descent and detects stalls.
type ConvergenceTracker struct {
	config          ConvergenceConfig
	started         bool
	lastSignificant float64
	staleCount      int
}

// NewConvergenceTracker creates a tracker with the given config
func NewConvergenceTracker(config ConvergenceConfig) *ConvergenceTracker {
	return &ConvergenceTracker{config: config}
}

// Update records a new value and returns true once the descent has stalled.
func (c *ConvergenceTracker) Update(f float64) bool {
	if !c.config.Enabled {
		return false
	}

	if !c.started {
		c.started = true
		c.lastSignificant = f
		return false
	}

	rel := (c.lastSignificant - f) / math.Max(math.Abs(c.lastSignificant), 1)
	if rel >= c.config.Threshold {
		c.lastSignificant = f
		c.staleCount = 0
		return false
	}

	c.staleCount++
	return c.staleCount >= c.config.Patience
}
