package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cwbudde/proxsweep/internal/prox"
)

func (c *cli) sweepCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Evaluate prox(u) for a list of rho values",
		Long: `Shows how the prox point moves from the anchor (small rho) toward a
minimizer of f on the interval (large rho).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := c.problem()
			if err != nil {
				return err
			}
			rhos, err := cmd.Flags().GetFloat64Slice("rho")
			if err != nil {
				return err
			}

			u := c.v.GetFloat64("u")
			pts, err := prox.SweepRho(cmd.Context(), u, rhos, p.objective.Eval, p.lo, p.hi, &prox.Settings{Minimizer: p.minimizer})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if c.jsonOutput() {
				return printJSON(out, pts)
			}
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "RHO\tPROX\tF\tENVELOPE")
			for _, pt := range pts {
				fmt.Fprintf(w, "%g\t%.8g\t%.8g\t%.8g\n", pt.Rho, pt.X, pt.F, pt.Value)
			}
			return w.Flush()
		},
	}
	addSearchFlags(cmd)
	cmd.Flags().Float64("u", -3, "Anchor point")
	cmd.Flags().Float64Slice("rho", []float64{0.001, 0.01, 0.1, 1, 10, 100, 1000}, "Smoothness parameters")
	return cmd
}

func (c *cli) envelopeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "envelope",
		Short: "Sample the prox map and Moreau envelope across the interval",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := c.problem()
			if err != nil {
				return err
			}
			n := c.v.GetInt("points")
			if n < 1 {
				return fmt.Errorf("points must be positive")
			}

			rho := c.v.GetFloat64("rho")
			curve, err := prox.EnvelopeCurve(cmd.Context(), p.objective.Eval, rho, prox.Grid(p.lo, p.hi, n), p.lo, p.hi, &prox.Settings{Minimizer: p.minimizer})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if c.jsonOutput() {
				return printJSON(out, curve)
			}
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "U\tF(U)\tPROX(U)\tENVELOPE")
			for _, pt := range curve {
				fmt.Fprintf(w, "%.6g\t%.8g\t%.8g\t%.8g\n", pt.U, pt.F, pt.X, pt.Moreau)
			}
			return w.Flush()
		},
	}
	addSearchFlags(cmd)
	cmd.Flags().Float64("rho", 1, "Smoothness parameter (> 0)")
	cmd.Flags().Int("points", 21, "Number of evenly spaced anchors")
	return cmd
}
