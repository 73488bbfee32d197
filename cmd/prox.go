package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cwbudde/proxsweep/internal/prox"
)

func (c *cli) proxCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prox",
		Short: "Evaluate the proximal operator at one anchor",
		Long: `Computes prox(u) = argmin over [lo, hi] of f(x) + (x-u)^2/(2 rho) and the
Moreau envelope value at u.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := c.problem()
			if err != nil {
				return err
			}

			u, rho := c.v.GetFloat64("u"), c.v.GetFloat64("rho")
			res, err := prox.Prox(u, rho, p.objective.Eval, p.lo, p.hi, &prox.Settings{Minimizer: p.minimizer})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if c.jsonOutput() {
				return printJSON(out, struct {
					Objective string `json:"objective"`
					*prox.Result
				}{p.objective.Name(), res})
			}
			fmt.Fprintf(out, "objective: %s on [%g, %g]\n", p.objective.Name(), p.lo, p.hi)
			fmt.Fprintf(out, "u:         %.10g\n", res.U)
			fmt.Fprintf(out, "rho:       %.10g\n", res.Rho)
			fmt.Fprintf(out, "prox(u):   %.10g\n", res.X)
			fmt.Fprintf(out, "f(prox):   %.10g\n", res.F)
			fmt.Fprintf(out, "envelope:  %.10g\n", res.Value)
			return nil
		},
	}
	addSearchFlags(cmd)
	cmd.Flags().Float64("u", -3, "Anchor point")
	cmd.Flags().Float64("rho", 1, "Smoothness parameter (> 0)")
	return cmd
}
