package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"brandlens/service"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"
)

// Server exposes the pipeline's trigger and read endpoints over HTTP
type Server struct {
	runService   service.RunService
	statsService service.StatsService
	httpServer   *http.Server
}

// NewServer creates a new API server
func NewServer(runService service.RunService, statsService service.StatsService, port string) *Server {
	s := &Server{
		runService:   runService,
		statsService: statsService,
	}
	s.httpServer = &http.Server{
		Addr:              ":" + port,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Router builds the chi router with all routes mounted
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Post("/runs", s.handleStartRun)
		r.Route("/domains/{domainID}", func(r chi.Router) {
			r.Get("/run-status", s.handleRunStatus)
			r.Get("/stats", s.handleStats)
			r.Get("/rankings", s.handleRankings)
		})
	})

	return r
}

// Start begins serving and blocks until the server stops
func (s *Server) Start() error {
	log.Infof("HTTP API listening on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server error: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests and stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Errorf("Failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
