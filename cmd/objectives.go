package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cwbudde/proxsweep/internal/objective"
)

var objectiveHelp = map[string]string{
	"quadratic": "(x - 1)^2",
	"abs":       "|x|",
	"sumlogs":   "sum of log(1 + (x - d)^2) over d in {-1.5, 0.5, 3}",
	"wiggly":    "0.5|x + 1| + 0.5|x - 2| + 0.3 sin(5x)",
}

func (c *cli) objectivesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "objectives",
		Short: "List the available objectives",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if c.jsonOutput() {
				return printJSON(out, objective.Names())
			}
			for _, name := range objective.Names() {
				fmt.Fprintf(out, "%-10s %s\n", name, objectiveHelp[name])
			}
			return nil
		},
	}
}
