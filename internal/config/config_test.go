package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hf-risk-server/internal/domain"
)

func TestNewManager_Defaults(t *testing.T) {
	m, err := NewManager("")
	require.NoError(t, err)
	require.NoError(t, m.Validate())

	cfg := m.GetConfig()
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 10*time.Second, cfg.Server.RequestTimeout)

	history := m.GetHistoryConfig()
	assert.True(t, history.Enabled)
	assert.Equal(t, "sqlite", history.Backend)
	assert.Equal(t, "./data/assessments.db", history.SQLitePath)
	assert.Equal(t, 256, history.CacheSize)
	assert.Equal(t, uint32(5), history.BreakerFailures)

	assert.Empty(t, cfg.Scoring.ModelFile)
	assert.True(t, cfg.RateLimit.Enabled)
	assert.Equal(t, 10.0, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "hf-risk-server", cfg.MCP.ServerName)

	assert.True(t, m.IsDevelopment())
	assert.False(t, m.IsProduction())
}

func TestNewManager_EnvironmentOverrides(t *testing.T) {
	t.Setenv("HF_RISK_ENVIRONMENT", "production")
	t.Setenv("HF_RISK_SERVER_PORT", "9090")
	t.Setenv("HF_RISK_HISTORY_BACKEND", "postgres")
	t.Setenv("HF_RISK_HISTORY_DATABASE_URL", "postgres://hf:hf@localhost/hf?sslmode=disable")
	t.Setenv("HF_RISK_LOGGING_LEVEL", "debug")
	t.Setenv("HF_RISK_SCORING_MODEL_FILE", "/etc/hf-risk-server/model.yaml")

	m, err := NewManager("")
	require.NoError(t, err)
	require.NoError(t, m.Validate())

	cfg := m.GetConfig()
	assert.Equal(t, 9090, m.GetServerConfig().Port)
	assert.Equal(t, "postgres", cfg.History.Backend)
	assert.Equal(t, "postgres://hf:hf@localhost/hf?sslmode=disable", cfg.History.DatabaseURL)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "/etc/hf-risk-server/model.yaml", cfg.Scoring.ModelFile)
	assert.True(t, m.IsProduction())
}

func TestNewManager_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  port: 7070
  request_timeout: 2s
history:
  enabled: false
rate_limit:
  requests_per_second: 2.5
  burst: 4
logging:
  format: text
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	m, err := NewManager(path)
	require.NoError(t, err)
	require.NoError(t, m.Validate())

	cfg := m.GetConfig()
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, 2*time.Second, cfg.Server.RequestTimeout)
	assert.False(t, cfg.History.Enabled)
	assert.Equal(t, 2.5, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, 4, cfg.RateLimit.Burst)
	assert.Equal(t, "text", cfg.Logging.Format)
	// untouched keys keep their defaults
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestNewManager_MissingExplicitFile(t *testing.T) {
	_, err := NewManager(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load configuration")
}

func TestManager_Reload(t *testing.T) {
	m, err := NewManager("")
	require.NoError(t, err)
	assert.Equal(t, 8080, m.GetServerConfig().Port)

	t.Setenv("HF_RISK_SERVER_PORT", "8181")
	require.NoError(t, m.Reload())
	assert.Equal(t, 8181, m.GetServerConfig().Port)
}

func TestManager_Validate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(c *domain.Config)
		component string
	}{
		{"invalid port", func(c *domain.Config) { c.Server.Port = 70000 }, "server"},
		{"negative request timeout", func(c *domain.Config) { c.Server.RequestTimeout = -time.Second }, "server"},
		{"sqlite without path", func(c *domain.Config) { c.History.SQLitePath = "" }, "history"},
		{"postgres without url", func(c *domain.Config) { c.History.Backend = "postgres" }, "history"},
		{"unknown backend", func(c *domain.Config) { c.History.Backend = "redis" }, "history"},
		{"negative cache size", func(c *domain.Config) { c.History.CacheSize = -1 }, "history"},
		{"zero rate", func(c *domain.Config) { c.RateLimit.RequestsPerSecond = 0 }, "rate_limit"},
		{"zero burst", func(c *domain.Config) { c.RateLimit.Burst = 0 }, "rate_limit"},
		{"redis limiter without url", func(c *domain.Config) { c.RateLimit.Backend = "redis" }, "rate_limit"},
		{"unknown limiter backend", func(c *domain.Config) { c.RateLimit.Backend = "memcached" }, "rate_limit"},
		{"bad log level", func(c *domain.Config) { c.Logging.Level = "verbose" }, "logging"},
		{"bad log format", func(c *domain.Config) { c.Logging.Format = "xml" }, "logging"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewManager("")
			require.NoError(t, err)
			tt.mutate(m.GetConfig())

			err = m.Validate()
			var cerr *domain.ConfigurationError
			require.ErrorAs(t, err, &cerr)
			assert.Equal(t, tt.component, cerr.Component)
		})
	}
}

func TestManager_ValidateSkipsDisabledSections(t *testing.T) {
	m, err := NewManager("")
	require.NoError(t, err)

	cfg := m.GetConfig()
	cfg.History.Enabled = false
	cfg.History.Backend = "unknown"
	cfg.RateLimit.Enabled = false
	cfg.RateLimit.Burst = 0

	assert.NoError(t, m.Validate())
}

func TestNewLogger(t *testing.T) {
	logger := NewLogger(domain.LoggingConfig{Level: "debug", Format: "text"})
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, logger.Formatter)

	logger = NewLogger(domain.LoggingConfig{Level: "nonsense", Format: "json"})
	assert.Equal(t, logrus.InfoLevel, logger.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, logger.Formatter)
}
