package httpadapter

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/pm25-etl/internal/pipeline"
)

// RunTracker is the pipeline view the ops server needs: readiness for /readyz
// and the last run summary for /status.
type RunTracker interface {
	sharedobs.ReadinessChecker
	Status() pipeline.Status
}

// Server exposes liveness, readiness, run status and metrics while the ETL runs.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /status and /metrics
// routes. /readyz reports ready once the pipeline has completed a run.
func NewServer(addr string, runs RunTracker, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(runs))
	mux.HandleFunc("GET /status", s.statusHandler(runs))
	mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

func (s *Server) statusHandler(runs RunTracker) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(runs.Status()); err != nil {
			s.logger.Error("encode run status", "error", err)
		}
	}
}

// Start listens on the configured address and blocks until the server stops.
// A failed bind returns immediately; graceful shutdown returns http.ErrServerClosed.
func (s *Server) Start() error {
	s.logger.Info("ops server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the router so handlers can be tested without a listener.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}
