// internal/app/app.go
//
// Package app assembles the site: delivery backend, rate limiter, template
// engine, and the routed HTTP handler.
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/copperowls/website/internal/config"
	"github.com/copperowls/website/internal/delivery"
	"github.com/copperowls/website/internal/email"
	"github.com/copperowls/website/internal/health"
	"github.com/copperowls/website/internal/httputil"
	"github.com/copperowls/website/internal/metrics"
	"github.com/copperowls/website/internal/ratelimit"
	"github.com/copperowls/website/internal/web/templates"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// App holds the assembled site.
type App struct {
	Cfg    *config.Config
	Logger *zap.Logger

	handler http.Handler
	rdb     *redis.Client
}

// New wires the application from config. The ctx bounds background work
// (the rate-limit janitor); cancel it at shutdown.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	metrics.RegisterDefault(logger)
	httputil.SetLogger(logger)

	engine := templates.New()
	if err := engine.Boot(logger); err != nil {
		return nil, fmt.Errorf("boot templates: %w", err)
	}
	templates.UseEngine(engine, logger)

	deliverer, err := buildDeliverer(cfg, logger)
	if err != nil {
		return nil, err
	}

	a := &App{Cfg: cfg, Logger: logger}
	limiter := a.buildLimiter(ctx, cfg, logger)

	checks := map[string]health.Check{}
	if rc, ok := deliverer.(*delivery.RelayClient); ok {
		checks["relay"] = rc.Ping
	}
	if a.rdb != nil {
		rdb := a.rdb
		checks["redis"] = func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}
	}

	a.handler = newRouter(cfg, logger, deliverer, limiter, checks)
	return a, nil
}

// Handler returns the root HTTP handler.
func (a *App) Handler() http.Handler { return a.handler }

// Close releases resources held by the app.
func (a *App) Close() error {
	if a.rdb != nil {
		return a.rdb.Close()
	}
	return nil
}

// buildDeliverer selects the submission backend from config. Config
// validation already guaranteed the required keys for the chosen backend.
func buildDeliverer(cfg *config.Config, logger *zap.Logger) (delivery.Deliverer, error) {
	switch cfg.Contact.Backend {
	case "smtp":
		sender := email.NewSender(email.Config{
			Host:        cfg.SMTP.Host,
			Port:        cfg.SMTP.Port,
			Username:    cfg.SMTP.Username,
			Password:    cfg.SMTP.Password,
			FromAddress: cfg.SMTP.FromAddress,
			FromName:    cfg.SMTP.FromName,
			UseSSL:      cfg.SMTP.Port == 465,
		})
		logger.Info("contact delivery via smtp",
			zap.String("host", cfg.SMTP.Host),
			zap.String("to", cfg.Contact.To))
		return delivery.NewSMTPDeliverer(sender, cfg.Contact.To), nil
	case "relay":
		logger.Info("contact delivery via relay",
			zap.String("url", cfg.Contact.RelayURL))
		return delivery.NewRelayClient(
			cfg.Contact.RelayURL,
			cfg.Contact.RelayToken,
			cfg.Contact.RelayTimeout,
			logger,
		), nil
	default:
		return nil, fmt.Errorf("unknown contact backend %q", cfg.Contact.Backend)
	}
}

// buildLimiter returns the per-IP submission limiter: Redis-backed when an
// address is configured, in-process token buckets otherwise.
func (a *App) buildLimiter(ctx context.Context, cfg *config.Config, logger *zap.Logger) ratelimit.Limiter {
	if cfg.Redis.Addr != "" {
		a.rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		// Fixed window sized from the token-bucket settings: burst
		// submissions per 1/rate seconds gives the same steady-state cap.
		window := time.Duration(float64(cfg.Contact.SubmitBurst)/cfg.Contact.SubmitRate) * time.Second
		logger.Info("submission rate limiting via redis",
			zap.String("addr", cfg.Redis.Addr),
			zap.Int("limit", cfg.Contact.SubmitBurst),
			zap.Duration("window", window))
		return ratelimit.NewRedisLimiter(a.rdb, "owls", cfg.Contact.SubmitBurst, window)
	}

	kl := ratelimit.NewKeyLimiter(cfg.Contact.SubmitRate, cfg.Contact.SubmitBurst, 15*time.Minute)
	kl.StartJanitor(ctx, 2*time.Minute)
	return kl
}
