package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cwbudde/proxsweep/internal/prox"
	"github.com/cwbudde/proxsweep/internal/store"
)

// traceDirer is implemented by stores that keep per-run directories on
// disk; descent steps are then streamed to trace.jsonl as they happen.
type traceDirer interface {
	BaseDir() string
}

// runJob executes a descent job. Every step is broadcast to SSE clients
// and, when the store keeps traces, appended to the run's trace. A
// completed run is saved to runStore when it is not nil.
func runJob(ctx context.Context, jm *JobManager, runStore store.Store, metrics *Metrics, jobID string) error {
	job, exists := jm.GetJob(jobID)
	if !exists {
		return fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
	}

	if err := ctx.Err(); err != nil {
		markJobCancelled(jm, metrics, jobID)
		return err
	}

	o, minimizer, err := resolve(job.Config.Objective, job.Config.Search)
	if err != nil {
		markJobFailed(jm, metrics, jobID, err)
		return err
	}

	jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateRunning
	})
	jm.broadcaster.Broadcast(ProgressEvent{JobID: jobID, State: StateRunning, Timestamp: time.Now()})

	slog.Info("Starting job",
		"job_id", jobID,
		"objective", job.Config.Objective,
		"rho", job.Config.Rho,
		"u0", job.Config.U0,
	)

	var trace *store.TraceWriter
	if td, ok := runStore.(traceDirer); ok {
		trace, err = store.NewTraceWriter(td.BaseDir(), jobID, false)
		if err != nil {
			slog.Warn("Trace disabled", "job_id", jobID, "error", err)
			trace = nil
		}
	}

	opts := &prox.DescendOptions{
		Settings:    &prox.Settings{Minimizer: minimizer},
		MaxSteps:    job.Config.MaxSteps,
		Convergence: prox.DefaultConvergenceConfig(),
		OnStep: func(step prox.Step) error {
			jm.UpdateJob(jobID, func(j *Job) {
				j.Steps = step.K + 1
				j.Last = &step
			})
			metrics.stepTaken()
			jm.broadcaster.Broadcast(ProgressEvent{
				JobID:     jobID,
				State:     StateRunning,
				Steps:     step.K + 1,
				Step:      &step,
				Timestamp: time.Now(),
			})
			if trace != nil {
				if err := trace.WriteStep(step); err != nil {
					slog.Warn("Failed to write trace entry", "job_id", jobID, "error", err)
				}
			}
			return nil
		},
	}

	start := time.Now()
	tr, err := prox.Descend(ctx, job.Config.U0, job.Config.Rho, o.Eval, job.Config.Lo, job.Config.Hi, opts)
	if trace != nil {
		if cerr := trace.Close(); cerr != nil {
			slog.Warn("Failed to close trace", "job_id", jobID, "error", cerr)
		}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		markJobCancelled(jm, metrics, jobID)
		return err
	}
	if err != nil {
		markJobFailed(jm, metrics, jobID, err)
		return err
	}

	if runStore != nil {
		if err := runStore.SaveRun(store.NewRun(jobID, job.Config, tr)); err != nil {
			slog.Error("Failed to save run", "job_id", jobID, "error", err)
		}
	}

	endTime := time.Now()
	var final Job
	jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateCompleted
		j.F0 = tr.F0
		j.Reason = tr.Reason
		j.Converged = tr.Converged
		j.EndTime = &endTime
		final = *j
	})
	metrics.jobFinished(StateCompleted)

	slog.Info("Job completed",
		"job_id", jobID,
		"elapsed", time.Since(start),
		"steps", len(tr.Steps),
		"reason", tr.Reason,
		"f0", tr.F0,
		"final_x", tr.FinalX,
		"final_f", tr.FinalF,
	)

	jm.broadcaster.Broadcast(eventFromJob(final))
	return nil
}

// markJobFailed marks a job as failed with an error message
func markJobFailed(jm *JobManager, metrics *Metrics, jobID string, err error) {
	endTime := time.Now()
	var final Job
	jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateFailed
		j.Error = err.Error()
		j.EndTime = &endTime
		final = *j
	})
	metrics.jobFinished(StateFailed)
	jm.broadcaster.Broadcast(eventFromJob(final))
	slog.Error("Job failed", "job_id", jobID, "error", err)
}

// markJobCancelled marks a job as cancelled
func markJobCancelled(jm *JobManager, metrics *Metrics, jobID string) {
	endTime := time.Now()
	var final Job
	jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateCancelled
		j.EndTime = &endTime
		final = *j
	})
	metrics.jobFinished(StateCancelled)
	jm.broadcaster.Broadcast(eventFromJob(final))
	slog.Info("Job cancelled", "job_id", jobID)
}
