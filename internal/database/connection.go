package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/hf-risk-server/internal/domain"
)

// DB wraps the sql.DB pool with health and statistics helpers
type DB struct {
	*sql.DB
	log *logrus.Logger
}

// NewConnection opens and verifies a PostgreSQL connection pool for the history store
func NewConnection(ctx context.Context, cfg domain.HistoryConfig, logger *logrus.Logger) (*DB, error) {
	pool, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	pool.SetMaxOpenConns(cfg.MaxOpenConns)
	pool.SetMaxIdleConns(cfg.MaxIdleConns)
	pool.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := pool.PingContext(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	logger.WithFields(logrus.Fields{
		"max_open_conns": cfg.MaxOpenConns,
		"max_idle_conns": cfg.MaxIdleConns,
	}).Info("Database connection pool established")

	return &DB{DB: pool, log: logger}, nil
}

// Close closes the database connection pool
func (db *DB) Close() error {
	err := db.DB.Close()
	db.log.Info("Database connection pool closed")
	return err
}

// Health checks the database connection health
func (db *DB) Health(ctx context.Context) error {
	return db.PingContext(ctx)
}
