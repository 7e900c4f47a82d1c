// internal/app/router.go
package app

import (
	"net/http"

	"github.com/copperowls/website/internal/app/features/about"
	"github.com/copperowls/website/internal/app/features/contact"
	"github.com/copperowls/website/internal/app/features/home"
	"github.com/copperowls/website/internal/app/features/shared"
	"github.com/copperowls/website/internal/config"
	"github.com/copperowls/website/internal/delivery"
	"github.com/copperowls/website/internal/health"
	"github.com/copperowls/website/internal/logging"
	"github.com/copperowls/website/internal/metrics"
	"github.com/copperowls/website/internal/middleware"
	"github.com/copperowls/website/internal/ratelimit"
	"github.com/copperowls/website/internal/version"
	"github.com/copperowls/website/internal/web/static"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// newRouter builds the chi router with the standard middleware stack:
// - RequestID
// - RealIP
// - Recoverer (panic → 500)
// - body size limit
// - metrics HTTP middleware
// - request logging
// - security headers
// - compression (if enabled)
func newRouter(
	cfg *config.Config,
	logger *zap.Logger,
	deliverer delivery.Deliverer,
	limiter ratelimit.Limiter,
	checks map[string]health.Check,
) chi.Router {
	r := chi.NewRouter()

	// Request context & safety
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(logging.Recoverer(logger))

	r.Use(middleware.LimitBodySize(cfg.MaxRequestBodyBytes))

	r.Use(metrics.HTTPMetrics)
	r.Use(logging.RequestLogger(logger))

	r.Use(middleware.SecurityHeaders(middleware.DefaultSecurityHeadersOptions()))
	if cfg.EnableCompression {
		r.Use(chimw.Compress(5))
	}

	r.NotFound(middleware.NotFoundHandler(logger, shared.NotFoundRenderer(cfg.Site.Name)))
	r.MethodNotAllowed(middleware.MethodNotAllowedHandler(logger))

	// Pages
	homeH := home.NewHandler(logger, cfg.Site.Name)
	r.Get("/", homeH.ServeHome)
	r.Mount("/about", about.Routes(about.NewHandler(logger, cfg.Site.Name)))

	// Contact form, optionally CORS-enabled for fetch() clients on other
	// origins (e.g. a separately hosted landing page).
	contactH := contact.NewHandler(logger, cfg.Site.Name, deliverer, limiter)
	var contactHandler http.Handler = contact.Routes(contactH)
	if cfg.CORS.EnableCORS {
		contactHandler = cors.Handler(cors.Options{
			AllowedOrigins: cfg.CORS.CORSAllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		})(contactHandler)
	}
	r.Mount("/contact", contactHandler)

	// Operational endpoints
	health.Mount(r, checks, logger)
	version.Mount(r)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	// Static assets
	r.Handle("/static/*", static.Handler("/static", static.FS()))

	return r
}
