// Package server exposes the check engine over HTTP for `wmt serve`.
//
// Routes:
//
//	GET  /healthz          liveness and build version
//	GET  /criteria         the checklist
//	GET  /criteria/{id}    one criterion, by id or checklist number
//	POST /check            run a check, returns the run result
//	GET  /runs/{id}        a stored run result
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/olamyy/wmt/pkg/check"
	"github.com/olamyy/wmt/pkg/criteria"
	"github.com/olamyy/wmt/pkg/errors"
	"github.com/olamyy/wmt/pkg/report"
	"github.com/olamyy/wmt/pkg/source"
)

const (
	// MaxPackages bounds the packages of one POST /check.
	MaxPackages = 200
	// maxBody bounds the size of a POST /check body.
	maxBody = 1 << 20
)

// Config holds the server dependencies.
type Config struct {
	Addr      string
	Runner    *check.Runner
	Registry  *criteria.Registry // defaults to criteria.Default()
	Store     report.Store       // defaults to an in-memory store
	Ecosystem source.Ecosystem   // for bare package names, defaults to cargo
	Timeout   time.Duration      // per request, defaults to 5 minutes
	Logger    *log.Logger
}

// Server serves the HTTP API.
type Server struct {
	cfg Config
	srv *http.Server
}

// New creates a server. cfg.Runner is required.
func New(cfg Config) (*Server, error) {
	if cfg.Runner == nil {
		return nil, errors.New(errors.ErrCodeContract, "server needs a runner")
	}
	if cfg.Registry == nil {
		cfg.Registry = criteria.Default()
	}
	if cfg.Store == nil {
		cfg.Store = report.NewMemoryStore()
	}
	if cfg.Ecosystem == "" {
		cfg.Ecosystem = source.Cargo
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Minute
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}

	s := &Server{cfg: cfg}
	s.srv = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", s.handleHealth)
	r.Get("/criteria", s.handleCriteria)
	r.Get("/criteria/{id}", s.handleCriterion)
	r.With(middleware.Timeout(s.cfg.Timeout)).Post("/check", s.handleCheck)
	r.Get("/runs/{id}", s.handleRun)
	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errc := make(chan error, 1)
	go func() {
		s.cfg.Logger.Info("listening", "addr", s.cfg.Addr)
		errc <- s.srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	s.cfg.Logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.cfg.Logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start).Round(time.Millisecond),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), ErrorResponse{
		Error: errors.UserMessage(err),
		Code:  string(errors.GetCode(err)),
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, errors.ErrCodeNotFound):
		return http.StatusNotFound
	case errors.Is(err, errors.ErrCodeContract):
		return http.StatusInternalServerError
	case errors.IsUsage(err):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
