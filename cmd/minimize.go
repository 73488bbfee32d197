package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
)

func (c *cli) minimizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "minimize",
		Short: "Minimize an objective over [lo, hi]",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := c.problem()
			if err != nil {
				return err
			}

			res, err := p.minimizer.Minimize(p.objective.Eval, p.lo, p.hi)
			if err != nil {
				return err
			}
			if res.ConvergenceNotReached() {
				slog.Warn("Iteration cap reached before the bracket converged",
					"bracket_lo", res.Lo, "bracket_hi", res.Hi)
			}

			out := cmd.OutOrStdout()
			if c.jsonOutput() {
				return printJSON(out, struct {
					Objective string  `json:"objective"`
					Lo        float64 `json:"lo"`
					Hi        float64 `json:"hi"`
					Result    any     `json:"result"`
				}{p.objective.Name(), p.lo, p.hi, res})
			}
			fmt.Fprintf(out, "objective:   %s on [%g, %g]\n", p.objective.Name(), p.lo, p.hi)
			fmt.Fprintf(out, "x:           %.10g\n", res.X)
			fmt.Fprintf(out, "f(x):        %.10g\n", res.F)
			fmt.Fprintf(out, "iterations:  %d\n", res.Iterations)
			fmt.Fprintf(out, "evaluations: %d\n", res.Evaluations)
			fmt.Fprintf(out, "status:      %s\n", res.Status)
			return nil
		},
	}
	addSearchFlags(cmd)
	return cmd
}
