package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var version = "0.1.0"

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "proxsweep version %s\n", version)
		},
	}
}
