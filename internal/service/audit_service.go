package service

import (
	"context"

	"invest_platform/internal/domain"
	"invest_platform/internal/logger"
	"invest_platform/internal/repository"

	"github.com/shopspring/decimal"
)

// AuditService handles audit logging
type AuditService struct {
	store repository.Store
}

// NewAuditService creates a new audit service
func NewAuditService(store repository.Store) *AuditService {
	return &AuditService{store: store}
}

// Log creates a new audit log entry. Failures are logged, never returned.
func (s *AuditService) Log(ctx context.Context, userID int64, action, category string, details map[string]interface{}) {
	log := &domain.AuditLog{
		UserID:   userID,
		ActorID:  actorFrom(ctx),
		Action:   action,
		Category: category,
		Details:  details,
	}

	if err := s.store.CreateAudit(ctx, log); err != nil {
		logger.Error("failed to create audit log", "error", err, "action", action, "user_id", userID)
	}
}

// LogSubmission logs a new pending record
func (s *AuditService) LogSubmission(ctx context.Context, userID int64, recordType domain.RecordType, recordID int64, amount decimal.Decimal) {
	details := map[string]interface{}{
		"record_id": recordID,
	}
	if !amount.IsZero() {
		details["amount"] = amount.String()
	}

	switch recordType {
	case domain.RecordWithdrawal:
		s.Log(ctx, userID, domain.AuditActionWithdrawRequest, domain.AuditCategoryWithdrawal, details)
	case domain.RecordPayment:
		s.Log(ctx, userID, domain.AuditActionDepositRequest, domain.AuditCategoryPayment, details)
	case domain.RecordKYC:
		s.Log(ctx, userID, domain.AuditActionKYCSubmit, domain.AuditCategoryKYC, details)
	}
}

// LogTransition logs an approve or reject of a reviewable record
func (s *AuditService) LogTransition(ctx context.Context, ev domain.StatusEvent, approved bool) {
	details := map[string]interface{}{
		"record_id": ev.RecordID,
		"status":    ev.Status,
	}
	if ev.Note != "" {
		details["note"] = ev.Note
	}

	var action, category string
	switch ev.RecordType {
	case domain.RecordWithdrawal:
		category = domain.AuditCategoryWithdrawal
		action = pick(approved, domain.AuditActionWithdrawApprove, domain.AuditActionWithdrawReject)
	case domain.RecordPayment:
		category = domain.AuditCategoryPayment
		action = pick(approved, domain.AuditActionDepositApprove, domain.AuditActionDepositReject)
	case domain.RecordKYC:
		category = domain.AuditCategoryKYC
		action = pick(approved, domain.AuditActionKYCApprove, domain.AuditActionKYCReject)
	default:
		return
	}

	s.Log(ctx, ev.UserID, action, category, details)
}

// LogAdminAction logs an admin action
func (s *AuditService) LogAdminAction(ctx context.Context, action string, targetUserID int64, details map[string]interface{}) {
	if details == nil {
		details = make(map[string]interface{})
	}
	details["target_user_id"] = targetUserID

	s.Log(ctx, targetUserID, action, domain.AuditCategoryAdmin, details)
}

// LogBalanceChange logs a balance change
func (s *AuditService) LogBalanceChange(ctx context.Context, userID int64, change decimal.Decimal, reason string, details map[string]interface{}) {
	action := domain.AuditActionBalanceCredit
	if change.IsNegative() {
		action = domain.AuditActionBalanceDebit
	}

	if details == nil {
		details = make(map[string]interface{})
	}
	details["change"] = change.String()
	details["reason"] = reason

	s.Log(ctx, userID, action, domain.AuditCategoryBalance, details)
}

// GetUserAuditLogs returns audit logs for a user
func (s *AuditService) GetUserAuditLogs(ctx context.Context, userID int64, limit int) ([]domain.AuditLog, error) {
	return s.store.ListAudit(ctx, userID, limit)
}

func pick(cond bool, a, b string) string {
	if cond {
		return a
	}
	return b
}
