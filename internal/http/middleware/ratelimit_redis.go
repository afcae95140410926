package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"invest_platform/internal/logger"

	"github.com/gin-gonic/gin"
	redis "github.com/redis/go-redis/v9"
)

var redisClient *redis.Client

// InitRedisRateLimiter sets up the shared Redis client used by the limiters.
// On an empty addr or a failed ping redisClient stays nil and limiting falls
// back to process memory.
func InitRedisRateLimiter(addr, password string, db int) {
	if addr == "" {
		return
	}
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unavailable, using in-memory rate limiting", "addr", addr, "error", err)
		_ = client.Close()
		return
	}
	redisClient = client
}

// CloseRedisRateLimiter releases the shared client.
func CloseRedisRateLimiter() {
	if redisClient != nil {
		_ = redisClient.Close()
		redisClient = nil
	}
}

// RedisRateLimit is a fixed-window per-IP limiter using INCR/EXPIRE.
// key format: rl:<scope>:<window_seconds>:<ip>
func RedisRateLimit(scope string, maxRequests int, window time.Duration) gin.HandlerFunc {
	fallback := SimpleRateLimit(scope, maxRequests, window)
	return func(c *gin.Context) {
		if redisClient == nil {
			fallback(c)
			return
		}

		key := "rl:" + scope + ":" + strconv.FormatInt(int64(window.Seconds()), 10) + ":" + c.ClientIP()
		ctx, cancel := context.WithTimeout(c.Request.Context(), time.Second)
		defer cancel()

		val, err := redisClient.Incr(ctx, key).Result()
		if err != nil {
			// fail-open on Redis errors
			c.Header("X-RateLimit-Error", "redis-error")
			c.Next()
			return
		}
		if val == 1 {
			redisClient.Expire(ctx, key, window)
		}

		if val > int64(maxRequests) {
			RLBlocked.WithLabelValues(scope + ":" + c.FullPath()).Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}

		RLRequests.WithLabelValues(scope + ":" + c.FullPath()).Inc()
		c.Next()
	}
}

type redisPinger struct{ client *redis.Client }

func (p redisPinger) Ping(ctx context.Context) error { return p.client.Ping(ctx).Err() }

// RedisHealth returns a pinger for the shared client, or nil when Redis is not in use.
func RedisHealth() interface{ Ping(context.Context) error } {
	if redisClient == nil {
		return nil
	}
	return redisPinger{client: redisClient}
}
