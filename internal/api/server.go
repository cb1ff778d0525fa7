package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/ignite/cancellation-letters/internal/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

// Deps are the collaborators the HTTP surface drives. Only Composer is
// required; the rest degrade gracefully when nil.
type Deps struct {
	Composer  Composer
	Suggester Suggester
	Mailer    Mailer
	Redis     *redis.Client
	Gatherer  prometheus.Gatherer
	Version   string
}

// Server represents the API server
type Server struct {
	config  config.ServerConfig
	handler http.Handler
	router  *chi.Mux
	server  *http.Server
}

// NewServer creates a new API server
func NewServer(cfg config.ServerConfig, deps Deps) (*Server, error) {
	handlers, err := NewHandlers(deps)
	if err != nil {
		return nil, err
	}
	health := NewHealthChecker(deps.Redis, deps.Version)
	router := SetupRoutes(handlers, health, deps.Gatherer, cfg.AllowedOrigins)

	return &Server{
		config:  cfg,
		handler: router,
		router:  router,
	}, nil
}

// ListenAndServe starts the HTTP server
func (s *Server) ListenAndServe(addr string) error {
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.handler,
		// Model calls dominate request time; the write timeout leaves room for
		// a slow completion plus the template fallback.
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      90 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Handler returns the HTTP handler for testing
func (s *Server) Handler() http.Handler {
	return s.handler
}
