package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"lumigente/internal/domain/auth"
	"lumigente/internal/domain/hierarchy"
	"lumigente/internal/domain/users"
	"lumigente/internal/platform/config"
	"lumigente/internal/platform/jobs"
	"lumigente/internal/platform/metrics"
	adminhandler "lumigente/internal/transport/http/handlers/admin"
	authhandler "lumigente/internal/transport/http/handlers/auth"
	hierarchyhandler "lumigente/internal/transport/http/handlers/hierarchy"
	usershandler "lumigente/internal/transport/http/handlers/users"
	"lumigente/internal/transport/http/middleware"
)

// Deps is everything the router needs. Ready backs /readyz; nil means always
// ready.
type Deps struct {
	Config     config.Config
	Auth       *auth.Service
	Directory  *users.Service
	Classifier *hierarchy.Classifier
	Resolver   hierarchyhandler.Resolver
	Access     *hierarchy.AccessTable
	Jobs       *jobs.Service
	SyncAll    jobs.RunFunc
	Syncer     adminhandler.UserSyncer
	Audit      adminhandler.AuditLister
	Metrics    *metrics.Collector
	Ready      func(context.Context) error
}

func NewRouter(d Deps) http.Handler {
	cfg := d.Config
	isProd := cfg.Environment == "production"

	collector := d.Metrics
	if !cfg.MetricsEnabled {
		collector = nil
	}

	router := chi.NewRouter()
	router.Use(chimw.Recoverer)
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(collector))
	router.Use(middleware.SecureHeaders(isProd))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	router.Use(middleware.Auth(cfg.SessionSecret, d.Auth, middleware.WithSessionCookie(cfg.SessionCookieName)))
	router.Use(middleware.RateLimit(cfg.RateLimitPerMinute, time.Minute))
	router.Use(middleware.SensitiveMutationRateLimit(cfg.RateLimitPerMinute, time.Minute))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if d.Ready != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := d.Ready(ctx); err != nil {
				http.Error(w, "db not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	router.Route("/api/v1", func(r chi.Router) {
		authhandler.NewHandler(d.Auth, cfg.SessionCookieName, isProd).RegisterRoutes(r)
		usershandler.NewHandler(d.Directory, d.Classifier).RegisterRoutes(r)
		hierarchyhandler.NewHandler(d.Classifier, d.Resolver, d.Directory, d.Access).RegisterRoutes(r)
		adminhandler.NewHandler(d.Jobs, d.SyncAll, d.Syncer, collector, d.Audit, d.Access).RegisterRoutes(r)
	})

	if cfg.FrontendDir != "" {
		router.Mount("/", spaHandler{staticPath: cfg.FrontendDir, indexPath: "index.html"})
	}
	return router
}
