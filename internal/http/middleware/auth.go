package middleware

import (
	"net/http"
	"strings"

	"invest_platform/internal/service"

	"github.com/gin-gonic/gin"
)

const bearerPrefix = "Bearer "

// JWT authenticates the bearer token and stores user_id and is_admin in the context.
func JWT() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, bearerPrefix) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized", "message": "bearer token required"})
			return
		}

		claims, err := service.ParseJWT(strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix)))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized", "message": "invalid token"})
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("is_admin", claims.IsAdmin)
		c.Next()
	}
}

// AdminOnly must run after JWT.
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !c.GetBool("is_admin") {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Forbidden", "message": "admin access required"})
			return
		}
		c.Next()
	}
}
