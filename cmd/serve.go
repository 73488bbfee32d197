package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/cwbudde/proxsweep/internal/server"
	"github.com/cwbudde/proxsweep/internal/store"
)

func (c *cli) serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Long: `Serves the minimize, prox, envelope and sweep endpoints, runs descent jobs
in the background with live SSE progress, and exposes Prometheus metrics at
/metrics. Finished jobs are saved under --data-dir unless it is empty.`,
		Args: cobra.NoArgs,
		RunE: c.runServe,
	}
	cmd.Flags().String("addr", ":8080", "Listen address")
	cmd.Flags().String("data-dir", "./data", "Base directory for saved runs (empty = in memory only)")
	cmd.Flags().Duration("shutdown-timeout", 10*time.Second, "Grace period for running jobs on shutdown")
	return cmd
}

func (c *cli) runServe(cmd *cobra.Command, args []string) error {
	var runStore store.Store
	if dir := c.v.GetString("data-dir"); dir != "" {
		st, err := store.NewFSStore(dir)
		if err != nil {
			return fmt.Errorf("failed to create run store: %w", err)
		}
		runStore = st
	}

	srv := server.NewServer(c.v.GetString("addr"), runStore)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("Signal received, shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), c.v.GetDuration("shutdown-timeout"))
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}
