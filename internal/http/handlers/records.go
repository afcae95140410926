package handlers

import (
	"errors"
	"net/http"

	"invest_platform/internal/domain"
	"invest_platform/internal/gateway"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type WithdrawalRequest struct {
	Amount         decimal.Decimal      `json:"amount"`
	PaymentMethod  domain.PaymentMethod `json:"payment_method" binding:"required"`
	PaymentDetails map[string]string    `json:"payment_details"`
}

// RequestWithdrawal submits a withdrawal and reserves its amount
func (h *Handler) RequestWithdrawal(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req WithdrawalRequest
	if !bindJSON(c, &req) {
		return
	}

	w, err := h.Engine.SubmitWithdrawal(c.Request.Context(), userID, req.Amount, req.PaymentMethod, req.PaymentDetails)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"withdrawal_id":  w.ID,
		"transaction_id": w.TransactionID,
		"status":         w.Status,
	})
}

func (h *Handler) GetWithdrawals(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	withdrawals, err := h.Engine.Store.ListWithdrawals(c.Request.Context(), userID, limitParam(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"withdrawals": withdrawals})
}

type ManualDepositRequest struct {
	Amount         decimal.Decimal `json:"amount"`
	TransactionRef string          `json:"transaction_ref"`
	PaymentMethod  string          `json:"payment_method"`
	SenderInfo     string          `json:"sender_info"`
}

// RecordManualDeposit records a deposit sent outside the platform for admin review
func (h *Handler) RecordManualDeposit(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req ManualDepositRequest
	if !bindJSON(c, &req) {
		return
	}

	p, err := h.Engine.SubmitManualDeposit(c.Request.Context(), userID, req.Amount, req.TransactionRef, req.PaymentMethod, req.SenderInfo)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"payment_id":     p.ID,
		"transaction_id": p.TransactionID,
		"status":         p.Status,
	})
}

type GatewayDepositRequest struct {
	Amount  decimal.Decimal `json:"amount"`
	Gateway domain.Gateway  `json:"gateway" binding:"required"`
}

// CreateGatewayDeposit opens a checkout with a payment gateway
func (h *Handler) CreateGatewayDeposit(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req GatewayDepositRequest
	if !bindJSON(c, &req) {
		return
	}

	p, url, err := h.Engine.SubmitGatewayDeposit(c.Request.Context(), userID, req.Amount, req.Gateway)
	if err != nil {
		if errors.Is(err, gateway.ErrGatewayUnavailable) {
			c.JSON(http.StatusBadGateway, gin.H{"error": "GatewayUnavailable", "message": "payment gateway is unavailable"})
			return
		}
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"payment_id":  p.ID,
		"payment_url": url,
		"status":      p.Status,
	})
}

func (h *Handler) GetDeposits(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	payments, err := h.Engine.Store.ListPayments(c.Request.Context(), userID, limitParam(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deposits": payments})
}

type KYCRequest struct {
	DocumentType  domain.DocumentType `json:"document_type" binding:"required"`
	DocumentFront string              `json:"document_front_url"`
	DocumentBack  string              `json:"document_back_url"`
	Selfie        string              `json:"selfie_url"`
}

func (h *Handler) SubmitKYC(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req KYCRequest
	if !bindJSON(c, &req) {
		return
	}

	d, err := h.Engine.SubmitKYC(c.Request.Context(), userID, req.DocumentType, req.DocumentFront, req.DocumentBack, req.Selfie)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"kyc_id": d.ID, "status": d.Status})
}

// GetKYC returns the user's latest verification submission
func (h *Handler) GetKYC(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	d, err := h.Engine.Store.LatestKYC(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}
