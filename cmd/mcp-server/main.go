package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/hf-risk-server/internal/app"
	"github.com/hf-risk-server/internal/config"
	"github.com/hf-risk-server/internal/mcp"
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
	// stdout carries the protocol; the logger writes to stderr
	logger := config.NewLogger(cfg.Logging)

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	application, err := app.Build(ctx, cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize application")
	}
	defer application.Close()

	mcpServer := mcp.NewServer(cfg.MCP, logger, application.Service)

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, gracefully shutting down MCP server...")
		cancel()
	}()

	if err := mcpServer.Run(ctx); err != nil && ctx.Err() == nil {
		logger.WithError(err).Error("MCP server failed")
		return
	}

	logger.Info("HF risk MCP server stopped")
}
