package middleware

import (
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func hitN(t *testing.T, srv *httptest.Server, path string, n int) int {
	t.Helper()
	code := 0
	for i := 0; i < n; i++ {
		res, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		res.Body.Close()
		code = res.StatusCode
	}
	return code
}

// Integration-style test: runs only if REDIS_ADDR env is set.
func TestRedisRateLimitIntegration(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set; skipping integration test")
	}
	pass := os.Getenv("REDIS_PASSWORD")
	db := 0
	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			db = n
		}
	}

	InitRedisRateLimiter(addr, pass, db)
	defer CloseRedisRateLimiter()
	if redisClient == nil {
		t.Fatal("redis client not initialized")
	}

	w := 2 * time.Second
	limit := 2
	scope := "test" + strconv.FormatInt(time.Now().UnixNano(), 10)

	r := gin.New()
	r.GET("/test", RedisRateLimit(scope, limit, w), func(c *gin.Context) {
		c.JSON(200, gin.H{"ok": true})
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	if code := hitN(t, srv, "/test", limit); code != 200 {
		t.Fatalf("expected 200 got %d", code)
	}
	if code := hitN(t, srv, "/test", 1); code != 429 {
		t.Fatalf("expected 429 got %d", code)
	}
}

func TestRedisRateLimitFallsBackToMemory(t *testing.T) {
	gin.SetMode(gin.TestMode)
	CloseRedisRateLimiter()

	r := gin.New()
	r.GET("/test", RedisRateLimit("fallback", 2, time.Minute), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	if code := hitN(t, srv, "/test", 2); code != 200 {
		t.Fatalf("expected 200 got %d", code)
	}
	if code := hitN(t, srv, "/test", 1); code != 429 {
		t.Fatalf("expected 429 got %d", code)
	}
}

func TestMemoryLimiterWindowResets(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	l := newMemoryLimiter(time.Minute)
	l.now = func() time.Time { return now }

	for i := 1; i <= 3; i++ {
		if got := l.hit("1.2.3.4"); got != i {
			t.Fatalf("hit %d: got count %d", i, got)
		}
	}
	if got := l.hit("5.6.7.8"); got != 1 {
		t.Fatalf("other key: got %d", got)
	}

	now = now.Add(61 * time.Second)
	if got := l.hit("1.2.3.4"); got != 1 {
		t.Fatalf("after window: got %d", got)
	}
}
