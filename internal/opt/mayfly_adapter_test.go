package opt

import (
	"math"
	"testing"
)

func sphere(x []float64) float64 {
	var sum float64
	for _, v := range x {
		sum += v * v
	}
	return sum
}

func TestMayflyAdapterOnKink(t *testing.T) {
	kink := func(x []float64) float64 { return math.Abs(x[0] - 2) }

	best, cost, err := NewMayfly(100, 20, 42).Run(kink, []float64{-5}, []float64{5})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(best) != 1 {
		t.Fatalf("Expected 1 parameter, got %d", len(best))
	}
	if cost > 0.1 || math.Abs(best[0]-2) > 0.1 {
		t.Errorf("Expected x near 2, got x=%f cost=%f", best[0], cost)
	}
	if best[0] < -5 || best[0] > 5 {
		t.Errorf("x=%f left the bounds", best[0])
	}
}

func TestMayflyAdapterDeterministic(t *testing.T) {
	lower := []float64{-5}
	upper := []float64{5}
	shifted := func(x []float64) float64 { return (x[0] - 1.5) * (x[0] - 1.5) }

	_, cost1, err := NewMayfly(50, 20, 123).Run(shifted, lower, upper)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	_, cost2, err := NewMayfly(50, 20, 123).Run(shifted, lower, upper)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if cost1 != cost2 {
		t.Errorf("Non-deterministic: cost1=%f, cost2=%f", cost1, cost2)
	}
}

func TestMayflyAdapterRejectsBadConfig(t *testing.T) {
	if _, _, err := NewMayfly(50, 10, 1).Run(sphere, []float64{-1}, []float64{1}); err == nil {
		t.Error("Expected error for population below minimum")
	}
	if _, _, err := NewMayfly(0, 20, 1).Run(sphere, []float64{-1}, []float64{1}); err == nil {
		t.Error("Expected error for zero iterations")
	}
	if _, _, err := NewMayfly(50, 20, 1).Run(sphere, nil, nil); err == nil {
		t.Error("Expected error for empty bounds")
	}
}
