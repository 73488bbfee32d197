package main

import (
	"fmt"
	"log/slog"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/cwbudde/proxsweep/internal/prox"
	"github.com/cwbudde/proxsweep/internal/store"
)

func (c *cli) descendCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "descend",
		Short: "Iterate u <- prox(u) from a starting anchor",
		Long: `Runs the proximal point method with a fixed rho. Each step's prox point
becomes the next anchor, so f never increases. With --save the run is written
to <data-dir>/runs/<id>/ together with a per-step trace.`,
		Args: cobra.NoArgs,
		RunE: c.runDescend,
	}
	addSearchFlags(cmd)
	f := cmd.Flags()
	f.Float64("u0", -3, "Starting anchor")
	f.Float64("rho", 1, "Smoothness parameter (> 0)")
	f.Int("max-steps", 50, "Maximum number of prox steps")
	f.Float64("step-tol", 1e-6, "Stop once a step moves less than this")
	f.Bool("save", false, "Persist the run and its trace")
	f.String("data-dir", "./data", "Base directory for saved runs")
	return cmd
}

func (c *cli) runDescend(cmd *cobra.Command, args []string) error {
	p, err := c.problem()
	if err != nil {
		return err
	}

	u0, rho := c.v.GetFloat64("u0"), c.v.GetFloat64("rho")
	config := store.RunConfig{
		Objective: p.objective.Name(),
		Rho:       rho,
		U0:        u0,
		Lo:        p.lo,
		Hi:        p.hi,
		MaxSteps:  c.v.GetInt("max-steps"),
		Search:    p.search,
	}

	out := cmd.OutOrStdout()
	var table *tabwriter.Writer
	if !c.jsonOutput() {
		table = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(table, "STEP\tU\tPROX\tF\tENVELOPE")
	}

	var (
		runStore *store.FSStore
		trace    *store.TraceWriter
		id       = uuid.New().String()
	)
	if c.v.GetBool("save") {
		runStore, err = store.NewFSStore(c.v.GetString("data-dir"))
		if err != nil {
			return fmt.Errorf("failed to create run store: %w", err)
		}
		trace, err = store.NewTraceWriter(runStore.BaseDir(), id, false)
		if err != nil {
			return err
		}
		defer trace.Close()
	}

	opts := &prox.DescendOptions{
		Settings:      &prox.Settings{Minimizer: p.minimizer},
		MaxSteps:      config.MaxSteps,
		StepTolerance: c.v.GetFloat64("step-tol"),
		Convergence:   prox.DefaultConvergenceConfig(),
		OnStep: func(s prox.Step) error {
			if table != nil {
				fmt.Fprintf(table, "%d\t%.8g\t%.8g\t%.8g\t%.8g\n", s.K, s.U, s.X, s.F, s.Value)
			}
			if trace != nil {
				return trace.WriteStep(s)
			}
			return nil
		},
	}

	tr, err := prox.Descend(cmd.Context(), u0, rho, p.objective.Eval, p.lo, p.hi, opts)
	if err != nil {
		return err
	}

	if runStore != nil {
		if err := trace.Close(); err != nil {
			return err
		}
		if err := runStore.SaveRun(store.NewRun(id, config, tr)); err != nil {
			return fmt.Errorf("failed to save run: %w", err)
		}
		slog.Info("Run saved", "run_id", id, "path", runStore.RunDir(id))
	}

	if c.jsonOutput() {
		return printJSON(out, struct {
			ID        string `json:"id,omitempty"`
			Objective string `json:"objective"`
			*prox.Trajectory
		}{savedID(runStore, id), p.objective.Name(), tr})
	}

	table.Flush()
	fmt.Fprintf(out, "\nf: %.8g -> %.8g after %d step(s) (%s)\n", tr.F0, tr.FinalF, len(tr.Steps), tr.Reason)
	if runStore != nil {
		fmt.Fprintf(out, "saved run %s\n", id)
	}
	return nil
}

func savedID(s *store.FSStore, id string) string {
	if s == nil {
		return ""
	}
	return id
}
