// cmd/website/main.go
package main

import (
	"context"

	"github.com/copperowls/website/internal/app"
	"github.com/copperowls/website/internal/config"
	"github.com/copperowls/website/internal/logging"
	"github.com/copperowls/website/internal/server"
	"github.com/copperowls/website/internal/version"
	"go.uber.org/zap"
)

func main() {
	// Bootstrap logger carries us until config tells us the real level.
	boot := logging.Bootstrap()

	cfg, err := config.Load(boot)
	if err != nil {
		boot.Fatal("configuration error", zap.Error(err))
	}

	logger := logging.MustBuild(cfg.LogLevel, cfg.Env)
	defer func() { _ = logger.Sync() }()

	logger.Info("starting",
		zap.String("site", cfg.Site.Name),
		zap.String("env", cfg.Env),
		zap.String("version", version.Version),
		zap.String("contact_backend", cfg.Contact.Backend),
	)
	if cfg.Env == "dev" {
		logger.Debug("effective config", zap.String("config", cfg.Dump()))
	}

	ctx, cancel := server.WithShutdownSignals(context.Background(), logger)
	defer cancel()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("startup failed", zap.Error(err))
	}
	defer func() { _ = a.Close() }()

	if err := server.ListenAndServeWithContext(ctx, cfg, a.Handler(), logger); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}

	logger.Info("shutdown complete")
}
