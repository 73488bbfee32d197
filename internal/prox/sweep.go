package prox

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"

	"github.com/cwbudde/proxsweep/internal/minimize"
)

// CurvePoint is the operator evaluated at one anchor of a grid.
type CurvePoint struct {
	U      float64 `json:"u"`
	F      float64 `json:"f"`      // f(U)
	X      float64 `json:"x"`      // prox(U)
	Moreau float64 `json:"moreau"` // h(X, U)
}

// RhoPoint is the operator evaluated for one smoothness parameter.
type RhoPoint struct {
	Rho   float64 `json:"rho"`
	X     float64 `json:"x"`
	F     float64 `json:"f"`
	Value float64 `json:"value"`
}

// Grid returns n evenly spaced points from lo to hi inclusive. n < 2 yields
// just lo, and n <= 0 yields nil.
func Grid(lo, hi float64, n int) []float64 {
	switch {
	case n <= 0:
		return nil
	case n == 1:
		return []float64{lo}
	}
	return floats.Span(make([]float64, n), lo, hi)
}

// EnvelopeCurve evaluates the prox point and the Moreau envelope at every
// anchor in us. Points are computed in parallel and returned in input
// order; the first error cancels the remaining work.
func EnvelopeCurve(ctx context.Context, f minimize.Func, rho float64, us []float64, lo, hi float64, settings *Settings) ([]CurvePoint, error) {
	out := make([]CurvePoint, len(us))
	err := forEach(ctx, len(us), func(i int) error {
		r, err := Prox(us[i], rho, f, lo, hi, settings)
		if err != nil {
			return err
		}
		out[i] = CurvePoint{U: us[i], F: f(us[i]), X: r.X, Moreau: r.Value}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SweepRho evaluates the prox point of u for every rho in rhos, in input
// order.
func SweepRho(ctx context.Context, u float64, rhos []float64, f minimize.Func, lo, hi float64, settings *Settings) ([]RhoPoint, error) {
	out := make([]RhoPoint, len(rhos))
	err := forEach(ctx, len(rhos), func(i int) error {
		r, err := Prox(u, rhos[i], f, lo, hi, settings)
		if err != nil {
			return err
		}
		out[i] = RhoPoint{Rho: rhos[i], X: r.X, F: r.F, Value: r.Value}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func forEach(ctx context.Context, n int, fn func(i int) error) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := 0; i < n; i++ {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return fn(i)
		})
	}
	return g.Wait()
}
