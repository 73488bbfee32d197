package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/cwbudde/proxsweep/internal/server"
)

func (c *cli) statusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status [job-id]",
		Short: "Query server status or specific job",
		Long: `Queries the server for job status information.
If no job-id is provided, lists all jobs.
If job-id is provided, shows detailed status for that job.`,
		Args: cobra.MaximumNArgs(1),
		RunE: c.runStatus,
	}
	cmd.Flags().String("server", "http://localhost:8080", "Server URL")
	cmd.Flags().Duration("timeout", 10*time.Second, "Request timeout")
	return cmd
}

func (c *cli) runStatus(cmd *cobra.Command, args []string) error {
	client := &http.Client{Timeout: c.v.GetDuration("timeout")}
	base := c.v.GetString("server")
	out := cmd.OutOrStdout()

	if len(args) == 0 {
		var jobs []server.Job
		if err := getJSON(client, base+"/api/v1/jobs", &jobs); err != nil {
			return err
		}
		if c.jsonOutput() {
			return printJSON(out, jobs)
		}
		return printJobs(out, jobs)
	}

	var status server.JobStatus
	if err := getJSON(client, base+"/api/v1/jobs/"+url.PathEscape(args[0]), &status); err != nil {
		return err
	}
	if c.jsonOutput() {
		return printJSON(out, status)
	}
	printJobStatus(out, status)
	return nil
}

func getJSON(client *http.Client, u string, v any) error {
	resp, err := client.Get(u)
	if err != nil {
		return fmt.Errorf("failed to connect to server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		var e struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(body, &e) == nil && e.Error != "" {
			return fmt.Errorf("server returned %d: %s", resp.StatusCode, e.Error)
		}
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func printJobs(out io.Writer, jobs []server.Job) error {
	if len(jobs) == 0 {
		fmt.Fprintln(out, "No jobs found")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "JOB ID\tSTATE\tOBJECTIVE\tRHO\tSTEPS\tF")
	for _, job := range jobs {
		f := "-"
		if job.Last != nil {
			f = fmt.Sprintf("%.6g", job.Last.F)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%g\t%d\t%s\n",
			shortID(job.ID), job.State, job.Config.Objective, job.Config.Rho, job.Steps, f)
	}
	return w.Flush()
}

func printJobStatus(out io.Writer, status server.JobStatus) {
	fmt.Fprintf(out, "Job: %s\n", status.ID)
	fmt.Fprintf(out, "State: %s\n\n", status.State)

	cfg := status.Config
	fmt.Fprintln(out, "Configuration:")
	fmt.Fprintf(out, "  Objective: %s on [%g, %g]\n", cfg.Objective, cfg.Lo, cfg.Hi)
	fmt.Fprintf(out, "  Rho: %g\n", cfg.Rho)
	fmt.Fprintf(out, "  Start: %g\n", cfg.U0)
	fmt.Fprintf(out, "  Max steps: %d\n\n", cfg.MaxSteps)

	fmt.Fprintln(out, "Progress:")
	fmt.Fprintf(out, "  Steps: %d\n", status.Steps)
	if status.Last != nil {
		fmt.Fprintf(out, "  Current: x=%.8g f=%.8g\n", status.Last.X, status.Last.F)
	}
	if status.Reason != "" {
		fmt.Fprintf(out, "  Stopped: %s\n", status.Reason)
	}
	elapsed := time.Duration(status.Elapsed * float64(time.Second))
	fmt.Fprintf(out, "  Elapsed: %s\n", elapsed.Round(time.Millisecond))

	if status.Error != "" {
		fmt.Fprintf(out, "\nError: %s\n", status.Error)
	}
}
