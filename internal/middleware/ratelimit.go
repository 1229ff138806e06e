package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/hf-risk-server/internal/domain"
)

const (
	clientIdleTTL = 10 * time.Minute
	sweepInterval = time.Minute
)

// Limiter decides whether a client may make another request
type Limiter interface {
	Allow(ctx context.Context, clientID string) (bool, error)
}

// NewLimiter returns the limiter selected by cfg.Backend
func NewLimiter(cfg domain.RateLimitConfig, logger *logrus.Logger) (Limiter, error) {
	switch cfg.Backend {
	case "", "memory":
		return NewRateLimiter(cfg, logger), nil
	case "redis":
		rl, err := NewRedisRateLimiter(cfg)
		if err != nil {
			return nil, err
		}
		return rl, nil
	default:
		return nil, domain.NewConfigurationError("rate_limit", "unknown backend %q", cfg.Backend)
	}
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per client IP in process memory
type RateLimiter struct {
	logger    *logrus.Logger
	limit     rate.Limit
	burst     int
	mu        sync.Mutex
	clients   map[string]*clientLimiter
	lastSweep time.Time
	now       func() time.Time
}

// NewRateLimiter creates a limiter allowing cfg.RequestsPerSecond per client
// with bursts up to cfg.Burst.
func NewRateLimiter(cfg domain.RateLimitConfig, logger *logrus.Logger) *RateLimiter {
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		logger:  logger,
		limit:   rate.Limit(cfg.RequestsPerSecond),
		burst:   burst,
		clients: make(map[string]*clientLimiter),
		now:     time.Now,
	}
}

// Allow reports whether the client may make a request now. It never fails.
func (rl *RateLimiter) Allow(_ context.Context, clientID string) (bool, error) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	rl.sweepLocked(now)

	client, ok := rl.clients[clientID]
	if !ok {
		client = &clientLimiter{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.clients[clientID] = client
	}
	client.lastSeen = now
	return client.limiter.AllowN(now, 1), nil
}

// Clients returns the number of tracked clients
func (rl *RateLimiter) Clients() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.clients)
}

func (rl *RateLimiter) sweepLocked(now time.Time) {
	if now.Sub(rl.lastSweep) < sweepInterval {
		return
	}
	rl.lastSweep = now
	for id, client := range rl.clients {
		if now.Sub(client.lastSeen) > clientIdleTTL {
			delete(rl.clients, id)
		}
	}
}

// RateLimit rejects requests over the limit with 429. When the limiter
// itself fails the request is let through and the failure logged.
func RateLimit(limiter Limiter, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		clientIP := c.ClientIP()
		allowed, err := limiter.Allow(c.Request.Context(), clientIP)
		if err != nil {
			logger.WithError(err).WithField("client_ip", clientIP).Warn("Rate limiter unavailable, allowing request")
			c.Next()
			return
		}
		if allowed {
			c.Next()
			return
		}

		logger.WithFields(logrus.Fields{
			"client_ip": clientIP,
			"path":      c.Request.URL.Path,
		}).Warn("Request denied: rate limit exceeded")

		c.Header("Retry-After", "1")
		c.AbortWithStatusJSON(http.StatusTooManyRequests, domain.NewAPIError(
			domain.ErrRateLimit,
			"Too many requests",
			"retry after a short delay",
			c.GetString(CorrelationIDKey),
		))
	}
}
