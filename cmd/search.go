package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cwbudde/proxsweep/internal/minimize"
	"github.com/cwbudde/proxsweep/internal/objective"
	"github.com/cwbudde/proxsweep/internal/opt"
)

// addSearchFlags registers the objective, interval and minimizer flags
// shared by the compute commands.
func addSearchFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("objective", "quadratic", "Objective ("+strings.Join(objective.Names(), ", ")+")")
	f.Float64("lo", -5, "Lower end of the search interval")
	f.Float64("hi", 5, "Upper end of the search interval")
	f.Float64("tol", 1e-6, "Bracket width at which a search stops")
	f.Int("max-iter", 100, "Iteration cap of one search")
	f.String("method", "golden", "Bracketing method (golden, dichotomy)")
	f.Bool("global", false, "Seed every search with a mayfly scan")
	f.Int("pop", opt.DefaultPopulation, "Mayfly population size (with --global)")
	f.Int("global-iters", opt.DefaultGlobalIters, "Mayfly iterations (with --global)")
	f.Int64("seed", 42, "Mayfly random seed (with --global)")
}

// problem is the resolved objective, interval and minimizer of a command.
type problem struct {
	objective objective.Objective
	minimizer minimize.Minimizer
	search    opt.Search
	lo, hi    float64
}

func (c *cli) problem() (*problem, error) {
	var s opt.Search
	if err := c.v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("failed to decode search settings: %w", err)
	}

	o, err := objective.Lookup(c.v.GetString("objective"))
	if err != nil {
		return nil, err
	}
	m, err := s.Minimizer()
	if err != nil {
		return nil, err
	}

	p := &problem{
		objective: o,
		minimizer: m,
		search:    s,
		lo:        c.v.GetFloat64("lo"),
		hi:        c.v.GetFloat64("hi"),
	}
	if err := minimize.CheckInterval(p.lo, p.hi); err != nil {
		return nil, err
	}
	return p, nil
}

func (c *cli) jsonOutput() bool {
	return c.v.GetString("output") == "json"
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
