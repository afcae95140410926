package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"invest_platform/internal/service"

	"github.com/gin-gonic/gin"
)

func authRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	service.SetJWTSecret("middleware-test-secret")

	r := gin.New()
	r.GET("/me", JWT(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": c.GetInt64("user_id"), "is_admin": c.GetBool("is_admin")})
	})
	r.GET("/admin", JWT(), AdminOnly(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func doAuth(r http.Handler, path, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestJWT(t *testing.T) {
	r := authRouter()

	user, err := service.GenerateJWT(7, false, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	expired, err := service.GenerateJWT(7, false, -time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"no header", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"garbage", "Bearer not-a-token", http.StatusUnauthorized},
		{"expired", "Bearer " + expired, http.StatusUnauthorized},
		{"valid", "Bearer " + user, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if w := doAuth(r, "/me", tt.header); w.Code != tt.want {
				t.Fatalf("got %d want %d: %s", w.Code, tt.want, w.Body.String())
			}
		})
	}
}

func TestAdminOnly(t *testing.T) {
	r := authRouter()

	user, _ := service.GenerateJWT(7, false, time.Hour)
	admin, _ := service.GenerateJWT(1, true, time.Hour)

	if w := doAuth(r, "/admin", "Bearer "+user); w.Code != http.StatusForbidden {
		t.Fatalf("user: got %d", w.Code)
	}
	if w := doAuth(r, "/admin", "Bearer "+admin); w.Code != http.StatusOK {
		t.Fatalf("admin: got %d", w.Code)
	}
}

func TestRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if len(w.Header().Get(RequestIDHeader)) != 36 {
		t.Fatalf("expected generated uuid, got %q", w.Header().Get(RequestIDHeader))
	}

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if got := w.Header().Get(RequestIDHeader); got != "abc-123" {
		t.Fatalf("expected echoed id, got %q", got)
	}
}
