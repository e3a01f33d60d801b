package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/me/asilo/internal/config"
	"github.com/me/asilo/internal/patients"
	"github.com/me/asilo/internal/ui"
)

// Server is the Asilo HTTP server: the dashboard pages and the JSON API.
type Server struct {
	router    chi.Router
	logger    *slog.Logger
	config    config.Config
	startTime time.Time
	fetcher   patients.Fetcher
	endpoint  string

	registry     *patients.Registry
	ownsRegistry bool
	viewOpts     []patients.Option
	metricsReg   *prometheus.Registry
	ui           *ui.UI
}

// Option configures optional Server dependencies.
type Option func(*Server)

// WithRegistry makes the server mount dashboard views in reg instead of a
// registry of its own. The caller owns reg and must close it.
func WithRegistry(reg *patients.Registry) Option {
	return func(s *Server) {
		s.registry = reg
	}
}

// WithMetricsRegistry exports the collectors of reg on the metrics endpoint.
func WithMetricsRegistry(reg *prometheus.Registry) Option {
	return func(s *Server) {
		s.metricsReg = reg
	}
}

// WithViewOptions sets the options applied to views the API mounts per
// request.
func WithViewOptions(opts ...patients.Option) Option {
	return func(s *Server) {
		s.viewOpts = opts
	}
}

// New creates a new Server with all routes registered.
func New(cfg config.Config, fetcher patients.Fetcher, logger *slog.Logger, opts ...Option) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		logger:    logger.With("component", "server"),
		config:    cfg,
		startTime: time.Now(),
		fetcher:   fetcher,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.metricsReg == nil {
		s.metricsReg = prometheus.NewRegistry()
		s.metricsReg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	if s.registry == nil {
		if s.viewOpts == nil {
			s.viewOpts = []patients.Option{
				patients.WithLogger(logger),
				patients.WithMetrics(patients.NewMetrics(s.metricsReg)),
			}
		}
		s.registry = patients.NewRegistry(context.Background(), fetcher, cfg.Registry(), s.viewOpts...)
		s.ownsRegistry = true
	}
	if endpoint, err := cfg.DirectoryClient().Endpoint(); err == nil {
		s.endpoint = endpoint
	}

	s.ui = ui.New(s.registry, logger)

	s.routes()
	return s
}

// Registry returns the registry holding the dashboard's mounted views.
func (s *Server) Registry() *patients.Registry {
	return s.registry
}

// Close unmounts every view if the server created its own registry.
func (s *Server) Close() {
	if s.ownsRegistry {
		s.registry.Close()
	}
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

	// Static files (JS, CSS)
	r.Handle("/static/*", ui.StaticHandler())

	// UI routes (HTML)
	s.ui.RegisterRoutes(r)
	r.NotFound(s.ui.HandleNotFound)

	if s.config.Metrics.Enabled {
		r.Handle(s.config.Metrics.Path, promhttp.HandlerFor(s.metricsReg, promhttp.HandlerOpts{
			Registry: s.metricsReg,
		}))
	}

	// API routes (JSON)
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(recoverJSON(s.logger))
		r.NotFound(s.handleAPINotFound)

		// Discovery
		r.Get("/", s.handleDiscovery)

		// Health
		r.Get("/health", s.handleHealth)

		// Patients
		r.Get("/patients", s.handleListPatients)
	})
}
