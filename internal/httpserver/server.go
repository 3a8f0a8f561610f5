// Package httpserver serves the connector plane's thin HTTP surface:
// health and metrics endpoints plus the credential-management routes the
// onboarding flow drives. The governed execution path is not exposed
// here — outbound calls go through the governed proxy, not this API.
package httpserver

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/wisbric/connectorplane/pkg/registry"
	"github.com/wisbric/connectorplane/pkg/vault"
)

// Server holds the HTTP server dependencies.
type Server struct {
	Router    *chi.Mux
	Logger    *slog.Logger
	DB        *pgxpool.Pool // optional; readiness skips the ping when nil
	Redis     *redis.Client // optional; readiness skips the ping when nil
	Metrics   *prometheus.Registry
	registry  *registry.Registry
	vault     *vault.Vault
	startedAt time.Time
}

// Options carries the optional knobs NewServer accepts beyond its
// required collaborators.
type Options struct {
	CORSAllowedOrigins []string
	MetricsPath        string
	DB                 *pgxpool.Pool
	Redis              *redis.Client
}

// NewServer creates an HTTP server with middleware, health/metrics
// endpoints, and the credential-management routes mounted.
func NewServer(logger *slog.Logger, metricsReg *prometheus.Registry, reg *registry.Registry, vlt *vault.Vault, opts Options) *Server {
	s := &Server{
		Router:    chi.NewRouter(),
		Logger:    logger,
		DB:        opts.DB,
		Redis:     opts.Redis,
		Metrics:   metricsReg,
		registry:  reg,
		vault:     vlt,
		startedAt: time.Now(),
	}

	origins := opts.CORSAllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	metricsPath := opts.MetricsPath
	if metricsPath == "" {
		metricsPath = "/metrics"
	}

	// Global middleware
	s.Router.Use(RequestID)
	s.Router.Use(Logger(logger))
	s.Router.Use(Metrics(metricsReg))
	s.Router.Use(middleware.Recoverer)
	s.Router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health endpoints
	s.Router.Get("/healthz", s.handleHealthz)
	s.Router.Get("/readyz", s.handleReadyz)

	// Prometheus metrics
	s.Router.Handle(metricsPath, promhttp.HandlerFor(metricsReg, promhttp.HandlerOpts{}))

	// Credential management surface
	s.Router.Route("/connectors/{connector_id}/credentials", func(r chi.Router) {
		r.Post("/", s.handleStoreCredential)
		r.Get("/status", s.handleCredentialStatus)
		r.Post("/validate", s.handleValidateCredentials)
		r.Delete("/{vault_key}", s.handleDeleteCredential)
	})

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Router.ServeHTTP(w, r)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	Respond(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if s.DB != nil {
		if err := s.DB.Ping(ctx); err != nil {
			s.Logger.Error("readiness check: database ping failed", "error", err)
			RespondError(w, http.StatusServiceUnavailable, "unavailable", "database not ready")
			return
		}
	}

	if s.Redis != nil {
		if err := s.Redis.Ping(ctx).Err(); err != nil {
			s.Logger.Error("readiness check: redis ping failed", "error", err)
			RespondError(w, http.StatusServiceUnavailable, "unavailable", "redis not ready")
			return
		}
	}

	Respond(w, http.StatusOK, map[string]string{"status": "ready"})
}
