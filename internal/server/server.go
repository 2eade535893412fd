// Package server exposes the daemon's status API: the current WorldView,
// the tick and command audit trail, and a pause switch for operators.
package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/me/agentpool/internal/loop"
	"github.com/me/agentpool/internal/store"
)

// Server is the autoscaler status API server.
type Server struct {
	router    chi.Router
	logger    *slog.Logger
	loop      *loop.Loop
	store     store.Store
	startTime time.Time
}

// New creates a new Server with all routes registered.
func New(l *loop.Loop, st store.Store, logger *slog.Logger) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		logger:    logger.With("component", "server"),
		loop:      l,
		store:     st,
		startTime: time.Now(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Handler returns the http.Handler for this server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() {
	r := s.router

	// Global middleware
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(s.logger))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/", s.handleDiscovery)
		r.Get("/health", s.handleHealth)
		r.Get("/status", s.handleStatus)
		r.Get("/ticks", s.handleListTicks)
		r.Get("/commands", s.handleListCommands)
		r.Post("/pause", s.handlePause)
		r.Post("/resume", s.handleResume)
	})
}
