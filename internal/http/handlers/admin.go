package handlers

import (
	"net/http"

	"invest_platform/internal/domain"
	"invest_platform/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// actorContext tags the request context with the acting admin for audit logs.
func actorContext(c *gin.Context) {
	if id, ok := getUserID(c); ok {
		c.Request = c.Request.WithContext(service.WithActor(c.Request.Context(), id))
	}
}

func (h *Handler) AdminPending(c *gin.Context) {
	q, err := h.Engine.Admin.Pending(c.Request.Context(), domain.RecordType(c.Param("type")), limitParam(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, q)
}

type ReviewRequest struct {
	Note   string `json:"note"`
	Reason string `json:"reason"`
}

func (h *Handler) AdminApprove(c *gin.Context) {
	h.review(c, true)
}

func (h *Handler) AdminReject(c *gin.Context) {
	h.review(c, false)
}

func (h *Handler) review(c *gin.Context, approve bool) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req ReviewRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}
	actorContext(c)

	rt := domain.RecordType(c.Param("type"))
	var (
		ev  *domain.StatusEvent
		err error
	)
	if approve {
		ev, err = h.Engine.Approve(c.Request.Context(), rt, id, req.Note)
	} else {
		ev, err = h.Engine.Reject(c.Request.Context(), rt, id, req.Reason)
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ev)
}

func (h *Handler) AdminBlockUser(c *gin.Context) {
	h.setBlocked(c, true)
}

func (h *Handler) AdminUnblockUser(c *gin.Context) {
	h.setBlocked(c, false)
}

func (h *Handler) setBlocked(c *gin.Context, blocked bool) {
	userID, ok := pathID(c, "id")
	if !ok {
		return
	}
	actorContext(c)

	if err := h.Engine.Admin.BlockUser(c.Request.Context(), userID, blocked); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_id": userID, "is_blocked": blocked})
}

type CreditRequest struct {
	Amount decimal.Decimal        `json:"amount"`
	Type   domain.TransactionType `json:"type" binding:"required"`
	Note   string                 `json:"note"`
}

// AdminCredit credits a bonus or referral profit, subject to the daily profit limit
func (h *Handler) AdminCredit(c *gin.Context) {
	userID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req CreditRequest
	if !bindJSON(c, &req) {
		return
	}
	actorContext(c)

	t, err := h.Engine.CreditProfit(c.Request.Context(), userID, req.Amount, req.Type, req.Note)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, t)
}

func (h *Handler) AdminReconcile(c *gin.Context) {
	userID, ok := pathID(c, "id")
	if !ok {
		return
	}

	rec, err := h.Engine.Reconcile(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user_id":    rec.UserID,
		"balance":    rec.Balance,
		"expected":   rec.Expected,
		"drift":      rec.Drift,
		"consistent": rec.Consistent(),
	})
}

func (h *Handler) AdminStats(c *gin.Context) {
	st, err := h.Engine.Admin.GetStats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}
