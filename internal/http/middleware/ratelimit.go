package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

type clientInfo struct {
	start time.Time
	count int
}

// memoryLimiter is a fixed-window counter per key kept in process memory.
type memoryLimiter struct {
	mu      sync.Mutex
	window  time.Duration
	clients map[string]*clientInfo
	now     func() time.Time
}

func newMemoryLimiter(window time.Duration) *memoryLimiter {
	return &memoryLimiter{window: window, clients: make(map[string]*clientInfo), now: time.Now}
}

// hit counts one request for key and returns the count inside the current window.
func (l *memoryLimiter) hit(key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	ci, ok := l.clients[key]
	if !ok || now.Sub(ci.start) > l.window {
		// drop expired windows so the map doesn't grow with every IP ever seen
		if len(l.clients) > 10000 {
			for k, v := range l.clients {
				if now.Sub(v.start) > l.window {
					delete(l.clients, k)
				}
			}
		}
		l.clients[key] = &clientInfo{start: now, count: 1}
		return 1
	}
	ci.count++
	return ci.count
}

// SimpleRateLimit blocks clients (by IP) that send more than maxRequests per window.
// Used for unauthenticated surfaces and as the fallback when Redis is unavailable.
func SimpleRateLimit(scope string, maxRequests int, window time.Duration) gin.HandlerFunc {
	limiter := newMemoryLimiter(window)
	return func(c *gin.Context) {
		if limiter.hit(c.ClientIP()) > maxRequests {
			RLBlocked.WithLabelValues(scope + ":" + c.FullPath()).Inc()
			c.Header("Retry-After", strconv.Itoa(int(window.Seconds())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		RLRequests.WithLabelValues(scope + ":" + c.FullPath()).Inc()
		c.Next()
	}
}
