// Package app wires configuration into a ready assessment service. The HTTP
// server, the MCP server and the CLI all build their dependencies here.
package app

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/hf-risk-server/internal/database"
	"github.com/hf-risk-server/internal/domain"
	"github.com/hf-risk-server/internal/history"
	"github.com/hf-risk-server/internal/metrics"
	"github.com/hf-risk-server/internal/scoring"
	"github.com/hf-risk-server/internal/service"
)

// App holds the long-lived components of a running process
type App struct {
	Engine  *scoring.Engine
	Service *service.AssessmentService
	Metrics *metrics.Metrics

	store  history.Store
	logger *logrus.Logger
}

// Build loads the scoring model, opens the history store and creates the service
func Build(ctx context.Context, cfg *domain.Config, logger *logrus.Logger) (*App, error) {
	model, err := scoring.LoadConfig(cfg.Scoring.ModelFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load scoring model: %w", err)
	}
	engine, err := scoring.NewEngine(model)
	if err != nil {
		return nil, fmt.Errorf("failed to create risk engine: %w", err)
	}
	logger.WithFields(logrus.Fields{
		"model_version": model.Version,
		"parameters":    len(model.Parameters),
		"model_file":    cfg.Scoring.ModelFile,
	}).Info("Risk model loaded")

	store, err := OpenStore(ctx, cfg.History, logger)
	if err != nil {
		return nil, err
	}

	m := metrics.New()
	opts := []service.Option{service.WithMetrics(m)}
	if store != nil {
		opts = append(opts,
			service.WithStore(store),
			service.WithBreaker(cfg.History.BreakerTimeout, cfg.History.BreakerFailures),
		)
	}

	return &App{
		Engine:  engine,
		Service: service.NewAssessmentService(logger, engine, opts...),
		Metrics: m,
		store:   store,
		logger:  logger,
	}, nil
}

// OpenStore opens the configured history backend, or returns nil when history
// is disabled. PostgreSQL migrations run first when enabled.
func OpenStore(ctx context.Context, cfg domain.HistoryConfig, logger *logrus.Logger) (history.Store, error) {
	if !cfg.Enabled {
		logger.Info("Assessment history disabled")
		return nil, nil
	}

	var (
		store history.Store
		err   error
	)
	switch cfg.Backend {
	case "sqlite", "":
		store, err = history.NewSQLiteStore(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open SQLite history: %w", err)
		}
	case "postgres":
		store, err = openPostgres(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
	default:
		return nil, domain.NewConfigurationError("history", "unknown backend %q", cfg.Backend)
	}

	logger.WithFields(logrus.Fields{
		"backend":    cfg.Backend,
		"cache_size": cfg.CacheSize,
	}).Info("Assessment history enabled")

	if cfg.CacheSize <= 0 {
		return store, nil
	}
	cached, err := history.NewCachedStore(store, cfg.CacheSize)
	if err != nil {
		store.Close()
		return nil, err
	}
	return cached, nil
}

func openPostgres(ctx context.Context, cfg domain.HistoryConfig, logger *logrus.Logger) (history.Store, error) {
	if cfg.RunMigrations {
		runner, err := database.NewMigrationRunner(cfg.DatabaseURL, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create migration runner: %w", err)
		}
		err = runner.Up(ctx)
		if cerr := runner.Close(); cerr != nil {
			logger.WithError(cerr).Warn("Failed to close migration runner")
		}
		if err != nil {
			return nil, err
		}
	}

	db, err := database.NewConnection(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	store, err := history.NewPostgresStore(db.DB)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open PostgreSQL history: %w", err)
	}
	return store, nil
}

// Close releases the history store
func (a *App) Close() error {
	if a.store == nil {
		return nil
	}
	if err := a.store.Close(); err != nil {
		return fmt.Errorf("failed to close history store: %w", err)
	}
	a.logger.Debug("History store closed")
	return nil
}
