// Package httpserver provides the HTTP API for the research paper finder.
package httpserver

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/helixir/research-paper-finder/internal/observability"
	"github.com/helixir/research-paper-finder/internal/research"
	"github.com/helixir/research-paper-finder/internal/search"
)

// ResearchService is the application service the handlers delegate to.
type ResearchService interface {
	Search(ctx context.Context, query string) (*research.SearchResponse, error)
	Chat(ctx context.Context, query string) (*research.ChatResponse, error)
	Health(ctx context.Context) research.HealthReport
	Stats() search.Stats
}

// Server is the HTTP API server.
type Server struct {
	router     chi.Router
	httpServer *http.Server
	service    ResearchService
	validate   *validator.Validate
	metrics    *observability.Metrics
	logger     zerolog.Logger
}

// Config holds HTTP server configuration.
type Config struct {
	Address         string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// NewServer creates a new HTTP server. metrics may be nil.
func NewServer(cfg Config, service ResearchService, metrics *observability.Metrics, logger zerolog.Logger) *Server {
	s := &Server{
		service:  service,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		metrics:  metrics,
		logger:   logger.With().Str("component", "http-server").Logger(),
	}

	s.router = s.buildRouter()

	s.httpServer = &http.Server{
		Addr:         cfg.Address,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// buildRouter creates the chi router with all middleware and routes.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(requestIDMiddleware)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(corsMiddleware)
	r.Use(jsonContentTypeMiddleware)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, codeNotFound, "endpoint not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
	})

	r.Get("/healthz", s.livenessHandler)
	r.Get("/readyz", s.readinessHandler)

	r.Post("/search", s.searchHandler)
	r.Post("/chat", s.chatHandler)
	r.Get("/health", s.healthHandler)
	r.Get("/stats", s.statsHandler)

	return r
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.Info().Str("address", s.httpServer.Addr).Msg("HTTP server starting")
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen on HTTP address: %w", err)
	}
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// livenessHandler reports that the process is serving.
func (s *Server) livenessHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// readinessHandler reports ready once at least one provider is enabled.
func (s *Server) readinessHandler(w http.ResponseWriter, r *http.Request) {
	providers := s.service.Stats().Providers
	if len(providers) == 0 {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status":    "not_ready",
			"providers": providers,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ready",
		"providers": providers,
	})
}
