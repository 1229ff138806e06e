package domain

import (
	"time"
)

// Config represents the main application configuration
type Config struct {
	Environment string          `mapstructure:"environment"`
	Server      ServerConfig    `mapstructure:"server"`
	History     HistoryConfig   `mapstructure:"history"`
	Scoring     ScoringConfig   `mapstructure:"scoring"`
	RateLimit   RateLimitConfig `mapstructure:"rate_limit"`
	Logging     LoggingConfig   `mapstructure:"logging"`
	MCP         MCPConfig       `mapstructure:"mcp"`
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// HistoryConfig represents assessment history storage configuration
type HistoryConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Backend         string        `mapstructure:"backend"` // "sqlite", "postgres"
	SQLitePath      string        `mapstructure:"sqlite_path"`
	DatabaseURL     string        `mapstructure:"database_url"`
	RunMigrations   bool          `mapstructure:"run_migrations"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	CacheSize       int           `mapstructure:"cache_size"`
	BreakerTimeout  time.Duration `mapstructure:"breaker_timeout"`
	BreakerFailures uint32        `mapstructure:"breaker_failures"`
}

// ScoringConfig points at the scoring model definition
type ScoringConfig struct {
	ModelFile string `mapstructure:"model_file"` // optional YAML model; defaults are used when empty
}

// RateLimitConfig represents per-client request limits. The memory backend
// keeps buckets in the process; the redis backend shares counters between
// server instances.
type RateLimitConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	Backend           string  `mapstructure:"backend"`
	RedisURL          string  `mapstructure:"redis_url"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "json", "text"
}

// MCPConfig represents MCP server configuration
type MCPConfig struct {
	ServerName    string `mapstructure:"server_name"`
	ServerVersion string `mapstructure:"server_version"`
}
