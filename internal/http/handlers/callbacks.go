package handlers

import (
	"crypto/subtle"
	"io"
	"net/http"

	"invest_platform/internal/domain"
	"invest_platform/internal/gateway"
	"invest_platform/internal/logger"

	"github.com/gin-gonic/gin"
)

// The shared secret arrives in the callback URL's token query (set when the
// invoice is created) or, for manual replays, in CallbackSecretHeader.
const (
	CallbackSecretHeader = "X-Callback-Secret"
	CallbackTokenParam   = "token"
)

// GatewayCallback applies a payment provider's status notification
func (h *Handler) GatewayCallback(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		got := c.Query(CallbackTokenParam)
		if got == "" {
			got = c.GetHeader(CallbackSecretHeader)
		}
		if secret == "" || subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized", "message": "bad callback secret"})
			return
		}

		var (
			cb  *gateway.Callback
			err error
		)
		switch domain.Gateway(c.Param("gateway")) {
		case domain.GatewayCoinGate:
			if err = c.Request.ParseForm(); err == nil {
				cb, err = gateway.ParseCoinGateCallback(c.Request.PostForm)
			}
		case domain.GatewayUddoktaPay:
			var body []byte
			body, err = io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
			if err == nil {
				cb, err = gateway.ParseUddoktaPayCallback(body)
			}
		default:
			c.JSON(http.StatusNotFound, gin.H{"error": "NotFound", "message": "unknown gateway"})
			return
		}
		if err != nil {
			respondError(c, err)
			return
		}

		// intermediate statuses (pending, confirming) carry nothing to apply
		if _, final := gateway.Outcome(cb.Status); !final {
			c.JSON(http.StatusOK, gin.H{"status": "ignored"})
			return
		}

		ev, err := h.Engine.GatewayCallback(c.Request.Context(), cb.PaymentID, cb.Status, cb.Reference)
		if err != nil {
			// providers retry on non-2xx; a replay of a settled payment is not an error for them
			if domain.Kind(err) == "AlreadyFinalized" {
				c.JSON(http.StatusOK, gin.H{"status": "already_finalized"})
				return
			}
			logger.WithContext(c.Request.Context()).Warn("gateway callback refused",
				"gateway", c.Param("gateway"), "payment_id", cb.PaymentID, "error", err)
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": ev.Status})
	}
}
