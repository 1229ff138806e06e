package middleware

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hf-risk-server/internal/domain"
)

const redisKeyPrefix = "hf-risk:ratelimit:"

// RedisRateLimiter counts requests per client in fixed windows stored in
// Redis, so every server instance sharing the Redis sees the same budget.
// A window lasts as long as a drained bucket takes to refill (burst / rate)
// and admits burst requests.
type RedisRateLimiter struct {
	client *redis.Client
	window time.Duration
	burst  int64
	now    func() time.Time
}

// NewRedisRateLimiter connects to cfg.RedisURL and checks the connection
func NewRedisRateLimiter(cfg domain.RateLimitConfig) (*RedisRateLimiter, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return newRedisRateLimiter(client, cfg), nil
}

func newRedisRateLimiter(client *redis.Client, cfg domain.RateLimitConfig) *RedisRateLimiter {
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}
	window := time.Second
	if cfg.RequestsPerSecond > 0 {
		if w := time.Duration(float64(burst) / cfg.RequestsPerSecond * float64(time.Second)); w > window {
			window = w
		}
	}
	return &RedisRateLimiter{
		client: client,
		window: window,
		burst:  int64(burst),
		now:    time.Now,
	}
}

// Allow increments the client's counter for the current window
func (rl *RedisRateLimiter) Allow(ctx context.Context, clientID string) (bool, error) {
	slot := rl.now().UnixNano() / rl.window.Nanoseconds()
	key := redisKeyPrefix + clientID + ":" + strconv.FormatInt(slot, 10)

	pipe := rl.client.TxPipeline()
	count := pipe.Incr(ctx, key)
	pipe.PExpire(ctx, key, rl.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("rate limit counter: %w", err)
	}
	return count.Val() <= rl.burst, nil
}

// Close releases the Redis connection pool
func (rl *RedisRateLimiter) Close() error {
	return rl.client.Close()
}
