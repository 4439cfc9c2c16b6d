package main

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/DukeRupert/csnm/internal/handler"
	"github.com/DukeRupert/csnm/internal/metrics"
	"github.com/DukeRupert/csnm/internal/middleware"
)

type routerConfig struct {
	Logger      *slog.Logger
	IsSecure    bool
	Reservation *handler.ReservationHandler
	Site        *handler.SiteHandler
	RateLimit   *middleware.RateLimitMiddleware
	MetricsAuth func(http.Handler) http.Handler
}

// newRouter assembles the middleware chain and every route of the site.
func newRouter(cfg routerConfig) http.Handler {
	r := chi.NewRouter()

	// ==========================================================================
	// Global middleware
	// ==========================================================================

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.NewRequestLoggingMiddleware(cfg.Logger).Handler)
	r.Use(chimw.Recoverer)
	r.Use(metrics.Middleware)
	r.Use(middleware.NewSecurityHeadersMiddleware(cfg.IsSecure).Handler)

	// ==========================================================================
	// Routes
	// ==========================================================================

	r.With(cfg.MetricsAuth).Handle("/metrics", promhttp.Handler())

	cfg.Reservation.RegisterRoutes(r, cfg.RateLimit.Limit)
	cfg.Site.RegisterRoutes(r)

	return r
}
