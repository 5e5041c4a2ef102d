// Package server exposes the planning pipeline over HTTP: a blocking JSON
// endpoint, a streaming SSE endpoint, and readiness probes for the external
// capabilities the pipeline depends on.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/rs/cors"

	"github.com/briculinos/voyana/internal/config"
	"github.com/briculinos/voyana/internal/llm"
	"github.com/briculinos/voyana/internal/pipeline"
	"github.com/briculinos/voyana/internal/supply"
)

const serviceName = "voyana"

// Server wires the pipeline runner and the capability probes into an
// http.Server. Construct with New, then Start; Shutdown drains in-flight
// requests within the configured timeout.
type Server struct {
	runner  *pipeline.Runner
	llm     llm.Provider
	flights []supply.FlightProvider
	lodging []supply.LodgingProvider
	cfg     config.ServerConfig
	version string
	logger  *slog.Logger

	httpServer *http.Server
}

// New creates a Server. The llm provider and supply providers are only used
// for health probes; the runner owns its own copies for planning.
func New(runner *pipeline.Runner, llmProvider llm.Provider,
	flights []supply.FlightProvider, lodging []supply.LodgingProvider,
	cfg config.ServerConfig, version string, logger *slog.Logger,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		runner:  runner,
		llm:     llmProvider,
		flights: flights,
		lodging: lodging,
		cfg:     cfg,
		version: version,
		logger:  logger,
	}
	s.httpServer = &http.Server{
		Addr:              cfg.Address,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler builds the routed, CORS-wrapped handler. Exposed separately so
// tests can drive it through httptest without binding a port.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /api/plan", s.handlePlan)
	mux.HandleFunc("POST /api/plan/stream", s.handlePlanStream)
	mux.HandleFunc("GET /api/destinations", s.handleDestinations)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   s.cfg.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})
	return corsHandler.Handler(mux)
}

// Start listens on the configured address and blocks until the listener
// stops. A clean Shutdown returns nil.
func (s *Server) Start() error {
	s.logger.Info("http server listening", "address", s.cfg.Address)
	if err := s.httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
