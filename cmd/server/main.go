package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/hf-risk-server/internal/api"
	"github.com/hf-risk-server/internal/app"
	"github.com/hf-risk-server/internal/config"
	"github.com/hf-risk-server/internal/middleware"
)

func main() {
	// Load configuration
	configManager, err := config.NewManager(os.Getenv("HF_RISK_CONFIG"))
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Validate configuration
	if err := configManager.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	cfg := configManager.GetConfig()
	logger := config.NewLogger(cfg.Logging)

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	application, err := app.Build(ctx, cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize application")
	}
	defer func() {
		if err := application.Close(); err != nil {
			logger.WithError(err).Warn("Shutdown cleanup failed")
		}
	}()

	var serverOpts []api.ServerOption
	if cfg.RateLimit.Enabled {
		limiter, err := middleware.NewLimiter(cfg.RateLimit, logger)
		if err != nil {
			logger.WithError(err).Fatal("Failed to initialize rate limiter")
		}
		if closer, ok := limiter.(io.Closer); ok {
			defer closer.Close()
		}
		serverOpts = append(serverOpts, api.WithRateLimiter(limiter))
	}

	server := api.NewServer(configManager, logger, application.Service, application.Metrics, serverOpts...)

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, gracefully shutting down...")
		cancel()
	}()

	logger.WithField("environment", cfg.Environment).Infof("Starting HF risk server on %s:%d", cfg.Server.Host, cfg.Server.Port)
	if err := server.Start(ctx); err != nil {
		logger.WithError(err).Error("Server failed")
		return
	}

	logger.Info("Server stopped")
}
