package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/cwbudde/proxsweep/internal/store"
)

// Server serves the prox API and runs descent jobs in the background.
type Server struct {
	jobManager *JobManager
	store      store.Store
	metrics    *Metrics
	addr       string
	server     *http.Server

	// jobs run under ctx so Shutdown can stop them.
	ctx     context.Context
	cancel  context.CancelFunc
	workers sync.WaitGroup
}

// NewServer creates a new HTTP server. runStore may be nil, in which case
// finished jobs are kept in memory only.
func NewServer(addr string, runStore store.Store) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		jobManager: NewJobManager(),
		store:      runStore,
		metrics:    NewMetrics(),
		addr:       addr,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/v1/minimize", s.handleMinimize)
	mux.HandleFunc("POST /api/v1/prox", s.handleProx)
	mux.HandleFunc("POST /api/v1/envelope", s.handleEnvelope)
	mux.HandleFunc("POST /api/v1/sweep", s.handleSweep)
	mux.HandleFunc("GET /api/v1/objectives", s.handleObjectives)

	mux.HandleFunc("POST /api/v1/jobs", s.handleCreateJob)
	mux.HandleFunc("GET /api/v1/jobs", s.handleListJobs)
	mux.HandleFunc("GET /api/v1/jobs/{id}", s.handleGetJob)
	mux.HandleFunc("DELETE /api/v1/jobs/{id}", s.handleCancelJob)
	mux.HandleFunc("GET /api/v1/jobs/{id}/stream", s.handleJobStream)

	mux.HandleFunc("GET /api/v1/runs", s.handleListRuns)
	mux.HandleFunc("GET /api/v1/runs/{id}", s.handleGetRun)

	mux.Handle("GET /metrics", s.metrics.Handler())

	return s.loggingMiddleware(s.corsMiddleware(mux))
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	slog.Info("Starting HTTP server", "addr", s.addr)
	return s.server.ListenAndServe()
}

// Shutdown cancels running jobs, waits for their workers and then shuts
// the listener down.
func (s *Server) Shutdown(ctx context.Context) error {
	slog.Info("Shutting down HTTP server", "running_jobs", len(s.jobManager.GetRunningJobs()))
	s.cancel()

	done := make(chan struct{})
	go func() {
		s.workers.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		slog.Warn("Timed out waiting for jobs to stop")
	}

	for _, job := range s.jobManager.ListJobs() {
		s.jobManager.broadcaster.CleanupJob(job.ID)
	}

	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// startJob runs the job on its own goroutine under the server context.
func (s *Server) startJob(id string) {
	ctx, cancel := context.WithCancel(s.ctx)
	s.jobManager.setCancel(id, cancel)

	s.workers.Add(1)
	go func() {
		defer s.workers.Done()
		defer s.jobManager.clearCancel(id)
		defer cancel()
		runJob(ctx, s.jobManager, s.store, s.metrics, id)
	}()
}

// handleCreateJob handles POST /api/v1/jobs
func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	var config JobConfig
	if err := decodeJSON(w, r, &config); err != nil {
		fail(w, err)
		return
	}
	if err := validateJobConfig(&config); err != nil {
		fail(w, err)
		return
	}

	job := s.jobManager.CreateJob(config)
	s.startJob(job.ID)

	writeJSON(w, http.StatusCreated, job)
}

// handleListJobs handles GET /api/v1/jobs
func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.jobManager.ListJobs())
}

// JobStatus is a job plus its elapsed time.
type JobStatus struct {
	Job
	Elapsed float64 `json:"elapsed"` // seconds
}

// handleGetJob handles GET /api/v1/jobs/{id}
func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	job, exists := s.jobManager.GetJob(id)
	if !exists {
		fail(w, fmt.Errorf("%w: %s", ErrJobNotFound, id))
		return
	}

	var elapsed time.Duration
	if job.EndTime != nil {
		elapsed = job.EndTime.Sub(job.StartTime)
	} else {
		elapsed = time.Since(job.StartTime)
	}
	writeJSON(w, http.StatusOK, JobStatus{Job: job, Elapsed: elapsed.Seconds()})
}

// handleCancelJob handles DELETE /api/v1/jobs/{id}
func (s *Server) handleCancelJob(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.jobManager.CancelJob(id); err != nil {
		fail(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// handleListRuns handles GET /api/v1/runs
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeJSON(w, http.StatusOK, []store.RunInfo{})
		return
	}
	infos, err := s.store.ListRuns()
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, infos)
}

// handleGetRun handles GET /api/v1/runs/{id}
func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if s.store == nil {
		fail(w, &store.NotFoundError{ID: id})
		return
	}
	run, err := s.store.LoadRun(id)
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// corsMiddleware adds CORS headers
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the response code for logs and metrics.
type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.code = code
	sr.ResponseWriter.WriteHeader(code)
}

// Flush keeps SSE working through the wrapper.
func (sr *statusRecorder) Flush() {
	if f, ok := sr.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// loggingMiddleware logs HTTP requests and records request metrics.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(rec, r)

		// The mux records the matched pattern on the request.
		s.metrics.observeRequest(r.Pattern, rec.code, time.Since(start))
		slog.Debug("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"route", r.Pattern,
			"status", rec.code,
			"duration", time.Since(start),
		)
	})
}
