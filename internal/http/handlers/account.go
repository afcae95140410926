package handlers

import (
	"net/http"
	"time"

	"invest_platform/internal/domain"

	"github.com/gin-gonic/gin"
)

func (h *Handler) Me(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	user, err := h.Engine.Store.GetUser(ctx, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	elig, err := h.Engine.GetEligibility(ctx, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":              user.ID,
		"email":           user.Email,
		"username":        user.Username,
		"balance":         user.Balance,
		"plan_id":         user.PlanID,
		"is_kyc_verified": user.IsKYCVerified,
		"referral_code":   user.ReferralCode,
		"created_at":      user.CreatedAt,
		"eligibility":     elig,
	})
}

// GetRemainingLimit reports today's headroom for deposit, withdrawal or profit
func (h *Handler) GetRemainingLimit(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	st, err := h.Engine.GetRemainingLimit(c.Request.Context(), userID, domain.LimitKind(c.Param("kind")), time.Now())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h *Handler) GetEligibility(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	e, err := h.Engine.GetEligibility(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, e)
}

func (h *Handler) GetTransactions(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	txs, err := h.Engine.Store.ListTransactions(c.Request.Context(), userID, limitParam(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": txs})
}

// CompleteTask marks a task done and returns the updated withdrawal eligibility
func (h *Handler) CompleteTask(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	taskID, ok := pathID(c, "id")
	if !ok {
		return
	}

	e, err := h.Engine.CompleteTask(c.Request.Context(), userID, taskID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, e)
}

func (h *Handler) ListPlans(c *gin.Context) {
	plans, err := h.Engine.Store.ListPlans(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"plans": plans})
}

func (h *Handler) PurchasePlan(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	planID, ok := pathID(c, "id")
	if !ok {
		return
	}

	plan, err := h.Engine.PurchasePlan(c.Request.Context(), userID, planID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"plan": plan})
}
