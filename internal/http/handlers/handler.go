package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"invest_platform/internal/domain"
	"invest_platform/internal/logger"
	"invest_platform/internal/service"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	Engine *service.Engine
}

func NewHandler(engine *service.Engine) *Handler {
	return &Handler{Engine: engine}
}

// getUserID извлекает user_id из контекста Gin
func getUserID(c *gin.Context) (int64, bool) {
	uidVal, ok := c.Get("user_id")
	if !ok {
		return 0, false
	}
	switch v := uidVal.(type) {
	case int64:
		return v, true
	case float64:
		return int64(v), true
	default:
		return 0, false
	}
}

// currentUser reads the authenticated user id or answers 401.
func currentUser(c *gin.Context) (int64, bool) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized", "message": "user not found"})
	}
	return userID, ok
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		respondError(c, domain.NewValidationError(name, "must be a positive integer"))
		return 0, false
	}
	return id, true
}

// limitParam reads ?limit= clamped to [1, 200], default 50.
func limitParam(c *gin.Context) int {
	n, err := strconv.Atoi(c.Query("limit"))
	if err != nil || n <= 0 {
		return 50
	}
	if n > 200 {
		return 200
	}
	return n
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ValidationError", "message": "bad request: " + err.Error()})
		return false
	}
	return true
}

// respondError maps engine errors onto HTTP statuses.
func respondError(c *gin.Context, err error) {
	kind := domain.Kind(err)

	status := http.StatusInternalServerError
	switch kind {
	case "InvalidAmount", "ValidationError":
		status = http.StatusBadRequest
	case "InsufficientBalance", "LimitExceeded", "NotEligible":
		status = http.StatusUnprocessableEntity
	case "AlreadyFinalized":
		status = http.StatusConflict
	case "NotFound":
		status = http.StatusNotFound
	}

	body := gin.H{"error": kind, "message": err.Error()}
	var (
		le *domain.LimitError
		ee *domain.EligibilityError
		ve *domain.ValidationError
	)
	switch {
	case errors.As(err, &le):
		body["limit_kind"] = le.Kind
		body["remaining"] = le.Remaining
	case errors.As(err, &ee):
		body["reason"] = ee.Reason
	case errors.As(err, &ve):
		body["field"] = ve.Field
	}

	if status == http.StatusInternalServerError {
		logger.WithContext(c.Request.Context()).Error("request failed", "path", c.FullPath(), "error", err)
		body["message"] = "internal error"
	}
	c.JSON(status, body)
}
