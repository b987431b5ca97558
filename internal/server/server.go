// Package server implements the XBP Monitoring control-plane HTTP API.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dwsmith1983/xbp-monitoring/internal/reload"
	"github.com/dwsmith1983/xbp-monitoring/internal/scheduler"
	"github.com/dwsmith1983/xbp-monitoring/internal/server/handlers"
	"github.com/dwsmith1983/xbp-monitoring/internal/store"
)

// Server is the XBP Monitoring control-plane HTTP server.
type Server struct {
	router chi.Router
	addr   string
	srv    *http.Server
	logger *slog.Logger
}

// New creates a control-plane server bound to addr.
func New(addr string, st *store.Store, sched *scheduler.Scheduler, coord *reload.Coordinator, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{addr: addr, logger: logger}

	r := chi.NewRouter()
	r.Use(RequestIDMiddleware)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.SetHeader("Content-Type", "application/json"))
	r.Use(MaxBodyMiddleware(1 << 20))

	s.router = r
	s.registerRoutes(r, handlers.New(st, sched, coord, logger))
	return s
}

// Start begins serving HTTP requests and blocks until the server stops.
func (s *Server) Start() error {
	s.srv = &http.Server{
		Addr:         s.addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	s.logger.Info("control-plane server listening", "addr", s.addr)
	return s.srv.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.srv != nil {
		return s.srv.Shutdown(ctx)
	}
	return nil
}
