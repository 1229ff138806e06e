package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/hf-risk-server/internal/domain"
	"github.com/hf-risk-server/internal/metrics"
	"github.com/hf-risk-server/internal/middleware"
	"github.com/hf-risk-server/internal/service"
)

const shutdownTimeout = 30 * time.Second

// Server represents the HTTP server
type Server struct {
	configManager domain.ConfigManager
	logger        *logrus.Logger
	service       *service.AssessmentService
	metrics       *metrics.Metrics
	limiter       middleware.Limiter
	router        *gin.Engine
	server        *http.Server
}

// ServerOption configures a Server
type ServerOption func(*Server)

// WithRateLimiter sets the limiter used when rate limiting is enabled. Without
// it the server keeps per-client buckets in memory.
func WithRateLimiter(limiter middleware.Limiter) ServerOption {
	return func(s *Server) {
		s.limiter = limiter
	}
}

// NewServer creates a new HTTP server instance
func NewServer(configManager domain.ConfigManager, logger *logrus.Logger, svc *service.AssessmentService, m *metrics.Metrics, opts ...ServerOption) *Server {
	cfg := configManager.GetConfig()

	// Set Gin mode based on environment
	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CorrelationID())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.AuditLogger(logger, m))
	router.Use(middleware.RequestTimeout(cfg.Server.RequestTimeout))

	server := &Server{
		configManager: configManager,
		logger:        logger,
		service:       svc,
		metrics:       m,
		router:        router,
	}
	for _, opt := range opts {
		opt(server)
	}

	server.setupRoutes(cfg)

	return server
}

// Handler exposes the router for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	cfg := s.configManager.GetServerConfig()
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", addr).Info("HTTP server listening")
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return s.server.Shutdown(shutdownCtx)
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes(cfg *domain.Config) {
	s.router.GET("/health", s.handleHealth)
	s.router.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	v1 := s.router.Group("/api/v1")
	if cfg.RateLimit.Enabled {
		limiter := s.limiter
		if limiter == nil {
			limiter = middleware.NewRateLimiter(cfg.RateLimit, s.logger)
		}
		v1.Use(middleware.RateLimit(limiter, s.logger))
	}
	{
		v1.GET("/model", s.handleGetModel)

		v1.POST("/assessments", s.handleCreateAssessment)
		v1.GET("/assessments", s.handleListAssessments)
		v1.GET("/assessments/export", s.handleExportAssessments)
		v1.POST("/assessments/import", s.handleImportAssessments)
		v1.GET("/assessments/:id", s.handleGetAssessment)
		v1.DELETE("/assessments/:id", s.handleDeleteAssessment)
		v1.GET("/assessments/:id/report", s.handleAssessmentReport)
	}
}
