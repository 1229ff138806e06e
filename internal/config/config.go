package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/hf-risk-server/internal/domain"
)

// Manager implements the ConfigManager interface using Viper
type Manager struct {
	v          *viper.Viper
	configFile string
	config     *domain.Config
}

// NewManager creates a new configuration manager. An empty configFile searches
// the default locations for config.yaml; a missing file is not an error there.
func NewManager(configFile string) (*Manager, error) {
	m := &Manager{configFile: configFile}
	if err := m.loadConfig(); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return m, nil
}

// loadConfig loads configuration from defaults, the config file and HF_RISK_* variables
func (m *Manager) loadConfig() error {
	v := viper.New()

	if m.configFile != "" {
		v.SetConfigFile(m.configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/hf-risk-server/")
	}

	v.SetEnvPrefix("HF_RISK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || m.configFile != "" {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	config := &domain.Config{}
	if err := v.Unmarshal(config); err != nil {
		return fmt.Errorf("error unmarshaling config: %w", err)
	}

	m.v = v
	m.config = config
	return nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")

	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.request_timeout", "10s")

	// History defaults
	v.SetDefault("history.enabled", true)
	v.SetDefault("history.backend", "sqlite")
	v.SetDefault("history.sqlite_path", "./data/assessments.db")
	v.SetDefault("history.database_url", "")
	v.SetDefault("history.run_migrations", true)
	v.SetDefault("history.max_open_conns", 10)
	v.SetDefault("history.max_idle_conns", 5)
	v.SetDefault("history.conn_max_lifetime", "5m")
	v.SetDefault("history.cache_size", 256)
	v.SetDefault("history.breaker_timeout", "30s")
	v.SetDefault("history.breaker_failures", 5)

	// Scoring defaults
	v.SetDefault("scoring.model_file", "")

	// Rate limit defaults
	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.backend", "memory")
	v.SetDefault("rate_limit.redis_url", "")
	v.SetDefault("rate_limit.requests_per_second", 10.0)
	v.SetDefault("rate_limit.burst", 20)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	// MCP defaults
	v.SetDefault("mcp.server_name", "hf-risk-server")
	v.SetDefault("mcp.server_version", "1.0.0")
}

// GetConfig returns the complete configuration
func (m *Manager) GetConfig() *domain.Config {
	return m.config
}

// GetServerConfig returns server configuration
func (m *Manager) GetServerConfig() *domain.ServerConfig {
	return &m.config.Server
}

// GetHistoryConfig returns assessment history configuration
func (m *Manager) GetHistoryConfig() *domain.HistoryConfig {
	return &m.config.History
}

// Reload reloads the configuration
func (m *Manager) Reload() error {
	return m.loadConfig()
}

// Validate validates the configuration
func (m *Manager) Validate() error {
	config := m.config

	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return domain.NewConfigurationError("server", "invalid port: %d", config.Server.Port)
	}
	if config.Server.RequestTimeout < 0 {
		return domain.NewConfigurationError("server", "request timeout must not be negative")
	}

	if config.History.Enabled {
		switch config.History.Backend {
		case "sqlite":
			if config.History.SQLitePath == "" {
				return domain.NewConfigurationError("history", "sqlite_path is required for the sqlite backend")
			}
		case "postgres":
			if config.History.DatabaseURL == "" {
				return domain.NewConfigurationError("history", "database_url is required for the postgres backend")
			}
		default:
			return domain.NewConfigurationError("history", "unknown backend %q", config.History.Backend)
		}
		if config.History.CacheSize < 0 {
			return domain.NewConfigurationError("history", "cache_size must not be negative")
		}
	}

	if config.RateLimit.Enabled {
		if config.RateLimit.RequestsPerSecond <= 0 {
			return domain.NewConfigurationError("rate_limit", "requests_per_second must be positive")
		}
		if config.RateLimit.Burst < 1 {
			return domain.NewConfigurationError("rate_limit", "burst must be at least 1")
		}
		switch config.RateLimit.Backend {
		case "", "memory":
		case "redis":
			if config.RateLimit.RedisURL == "" {
				return domain.NewConfigurationError("rate_limit", "redis_url is required for the redis backend")
			}
		default:
			return domain.NewConfigurationError("rate_limit", "unknown backend %q", config.RateLimit.Backend)
		}
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLogLevels[strings.ToLower(config.Logging.Level)] {
		return domain.NewConfigurationError("logging", "invalid log level: %s", config.Logging.Level)
	}
	if f := strings.ToLower(config.Logging.Format); f != "json" && f != "text" {
		return domain.NewConfigurationError("logging", "invalid log format: %s", config.Logging.Format)
	}

	return nil
}

// IsProduction returns true if running in production mode
func (m *Manager) IsProduction() bool {
	return strings.ToLower(m.config.Environment) == "production"
}

// IsDevelopment returns true if running in development mode
func (m *Manager) IsDevelopment() bool {
	env := strings.ToLower(m.config.Environment)
	return env == "development" || env == "dev" || env == ""
}
