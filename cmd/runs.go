package main

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/cwbudde/proxsweep/internal/store"
)

func (c *cli) runsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Manage saved descent runs",
		Long:  `List, inspect and clean runs saved by "descend --save" or by the server.`,
	}
	cmd.PersistentFlags().String("data-dir", "./data", "Base directory for saved runs")

	list := &cobra.Command{
		Use:   "list",
		Short: "List saved runs",
		Args:  cobra.NoArgs,
		RunE:  c.runListRuns,
	}

	show := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show a saved run and its trace",
		Args:  cobra.ExactArgs(1),
		RunE:  c.runShowRun,
	}

	clean := &cobra.Command{
		Use:   "clean",
		Short: "Delete old runs",
		Long: `Delete runs by retention policy: keep only the newest N runs, delete runs
older than N days, or both.`,
		Args: cobra.NoArgs,
		RunE: c.runCleanRuns,
	}
	clean.Flags().Int("keep-last", 0, "Keep only the newest N runs (0 = keep all)")
	clean.Flags().Int("older-than", 0, "Delete runs older than N days (0 = no age limit)")
	clean.Flags().BoolP("force", "f", false, "Skip confirmation prompt")

	cmd.AddCommand(list, show, clean)
	return cmd
}

func (c *cli) openStore() (*store.FSStore, error) {
	st, err := store.NewFSStore(c.v.GetString("data-dir"))
	if err != nil {
		return nil, fmt.Errorf("failed to create run store: %w", err)
	}
	return st, nil
}

func (c *cli) runListRuns(cmd *cobra.Command, args []string) error {
	st, err := c.openStore()
	if err != nil {
		return err
	}
	infos, err := st.ListRuns()
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	out := cmd.OutOrStdout()
	if c.jsonOutput() {
		return printJSON(out, infos)
	}
	if len(infos) == 0 {
		fmt.Fprintln(out, "No runs found.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RUN ID\tTIMESTAMP\tOBJECTIVE\tRHO\tSTEPS\tFINAL X\tFINAL F\tSIZE")
	for _, info := range infos {
		size := "unknown"
		if n, err := getDirSize(st.RunDir(info.ID)); err == nil {
			size = formatBytes(n)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%g\t%d\t%.6g\t%.6g\t%s\n",
			shortID(info.ID),
			info.Timestamp.Format("2006-01-02 15:04:05"),
			info.Objective,
			info.Rho,
			info.Steps,
			info.FinalX,
			info.FinalF,
			size,
		)
	}
	w.Flush()

	fmt.Fprintf(out, "\nTotal runs: %d\n", len(infos))
	return nil
}

func (c *cli) runShowRun(cmd *cobra.Command, args []string) error {
	st, err := c.openStore()
	if err != nil {
		return err
	}
	run, err := st.LoadRun(args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if c.jsonOutput() {
		return printJSON(out, run)
	}

	cfg := run.Config
	fmt.Fprintf(out, "Run: %s\n", run.ID)
	fmt.Fprintf(out, "Saved: %s\n\n", run.Timestamp.Format(time.RFC3339))
	fmt.Fprintln(out, "Configuration:")
	fmt.Fprintf(out, "  Objective: %s on [%g, %g]\n", cfg.Objective, cfg.Lo, cfg.Hi)
	fmt.Fprintf(out, "  Rho: %g\n", cfg.Rho)
	fmt.Fprintf(out, "  Start: %g\n", cfg.U0)
	method := cfg.Method
	if method == "" {
		method = "golden"
	}
	if cfg.Global {
		method += " + mayfly"
	}
	fmt.Fprintf(out, "  Search: %s\n\n", method)

	fmt.Fprintln(out, "Result:")
	fmt.Fprintf(out, "  f: %.8g -> %.8g\n", run.F0, run.FinalF)
	fmt.Fprintf(out, "  x: %.8g\n", run.FinalX)
	fmt.Fprintf(out, "  Steps: %d (%s)\n", len(run.Steps), run.Reason)

	tr, err := store.NewTraceReader(st.BaseDir(), run.ID)
	if err != nil {
		slog.Debug("No trace for run", "run_id", run.ID, "error", err)
		return nil
	}
	defer tr.Close()
	entries, err := tr.ReadAll()
	if err != nil {
		return err
	}
	if len(entries) > 1 {
		elapsed := entries[len(entries)-1].Timestamp.Sub(entries[0].Timestamp)
		fmt.Fprintf(out, "  Trace: %d entries over %s\n", len(entries), elapsed.Round(time.Microsecond))
	}
	return nil
}

func (c *cli) runCleanRuns(cmd *cobra.Command, args []string) error {
	keepLast, olderThan := c.v.GetInt("keep-last"), c.v.GetInt("older-than")
	if keepLast == 0 && olderThan == 0 {
		return fmt.Errorf("must specify either --keep-last or --older-than")
	}

	st, err := c.openStore()
	if err != nil {
		return err
	}
	infos, err := st.ListRuns()
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	out := cmd.OutOrStdout()
	toDelete := selectRunsForDeletion(infos, keepLast, olderThan, time.Now())
	if len(toDelete) == 0 {
		fmt.Fprintln(out, "No runs match deletion criteria.")
		return nil
	}

	fmt.Fprintf(out, "Found %d run(s) to delete:\n", len(toDelete))
	for _, info := range toDelete {
		fmt.Fprintf(out, "  - %s (%s, %s)\n", shortID(info.ID), info.Objective, info.Timestamp.Format("2006-01-02 15:04:05"))
	}

	if !c.v.GetBool("force") {
		fmt.Fprint(out, "\nProceed with deletion? [y/N]: ")
		answer, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		answer = strings.TrimSpace(answer)
		if answer != "y" && answer != "Y" {
			fmt.Fprintln(out, "Aborted.")
			return nil
		}
	}

	deleted, failed := 0, 0
	for _, info := range toDelete {
		if err := st.DeleteRun(info.ID); err != nil {
			slog.Error("Failed to delete run", "run_id", info.ID, "error", err)
			failed++
			continue
		}
		slog.Info("Deleted run", "run_id", info.ID)
		deleted++
	}

	fmt.Fprintf(out, "\nDeleted %d run(s), %d failed.\n", deleted, failed)
	return nil
}

// selectRunsForDeletion applies the retention policy: runs older than
// olderThanDays, plus everything beyond the keepLast newest. Each run is
// returned at most once, oldest first.
func selectRunsForDeletion(infos []store.RunInfo, keepLast, olderThanDays int, now time.Time) []store.RunInfo {
	sorted := make([]store.RunInfo, len(infos))
	copy(sorted, infos)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	cutoff := now.AddDate(0, 0, -olderThanDays)
	excess := 0
	if keepLast > 0 && len(sorted) > keepLast {
		excess = len(sorted) - keepLast
	}

	var toDelete []store.RunInfo
	for i, info := range sorted {
		tooOld := olderThanDays > 0 && info.Timestamp.Before(cutoff)
		if tooOld || i < excess {
			toDelete = append(toDelete, info)
		}
	}
	return toDelete
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12] + "..."
	}
	return id
}

// getDirSize calculates the total size of a directory
func getDirSize(path string) (int64, error) {
	var size int64
	err := filepath.Walk(path, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			size += info.Size()
		}
		return nil
	})
	return size, err
}

// formatBytes formats bytes as human-readable string
func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
