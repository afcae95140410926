package service

import (
	"context"
	"fmt"
	"time"

	"invest_platform/internal/domain"
	"invest_platform/internal/repository"

	"github.com/shopspring/decimal"
)

// AdminService provides admin statistics and user operations
type AdminService struct {
	store repository.Store
	audit *AuditService
	loc   *time.Location
	now   func() time.Time
}

// NewAdminService creates a new admin service
func NewAdminService(store repository.Store, audit *AuditService, loc *time.Location) *AdminService {
	if loc == nil {
		loc = time.UTC
	}
	return &AdminService{store: store, audit: audit, loc: loc, now: time.Now}
}

// GetStats returns platform statistics; deposited and withdrawn cover today in the platform timezone
func (s *AdminService) GetStats(ctx context.Context) (*repository.Stats, error) {
	today, _ := DayWindow(s.now(), s.loc)
	return s.store.Stats(ctx, today)
}

// PendingQueue is the review backlog for one record type.
type PendingQueue struct {
	Type        domain.RecordType    `json:"type"`
	Withdrawals []domain.Withdrawal  `json:"withdrawals,omitempty"`
	Payments    []domain.Payment     `json:"payments,omitempty"`
	KYC         []domain.KYCDocument `json:"kyc,omitempty"`
}

func (q *PendingQueue) Len() int {
	return len(q.Withdrawals) + len(q.Payments) + len(q.KYC)
}

// Pending lists pending records of a type, oldest first
func (s *AdminService) Pending(ctx context.Context, rt domain.RecordType, limit int) (*PendingQueue, error) {
	q := &PendingQueue{Type: rt}
	var err error
	switch rt {
	case domain.RecordWithdrawal:
		q.Withdrawals, err = s.store.ListPendingWithdrawals(ctx, limit)
	case domain.RecordPayment:
		q.Payments, err = s.store.ListPendingPayments(ctx, limit)
	case domain.RecordKYC:
		q.KYC, err = s.store.ListPendingKYC(ctx, limit)
	default:
		return nil, domain.NewValidationError("type", "must be withdrawal, payment or kyc")
	}
	if err != nil {
		return nil, err
	}
	return q, nil
}

// BlockUser blocks or unblocks a user. Blocking only affects new withdrawal submissions.
func (s *AdminService) BlockUser(ctx context.Context, userID int64, blocked bool) error {
	if err := s.store.SetUserBlocked(ctx, userID, blocked); err != nil {
		return err
	}

	action := domain.AuditActionAdminUnblockUser
	if blocked {
		action = domain.AuditActionAdminBlockUser
	}
	s.audit.LogAdminAction(ctx, action, userID, nil)
	return nil
}

// WithdrawalNotification is the data the admin bot needs to announce a withdrawal
type WithdrawalNotification struct {
	WithdrawalID   int64
	UserID         int64
	Email          string
	Username       string
	Amount         decimal.Decimal
	PaymentMethod  domain.PaymentMethod
	PaymentDetails map[string]string
	Balance        decimal.Decimal
	CreatedAt      time.Time
}

// GetWithdrawalNotification returns the details for an admin notification
func (s *AdminService) GetWithdrawalNotification(ctx context.Context, withdrawalID int64) (*WithdrawalNotification, error) {
	w, err := s.store.GetWithdrawal(ctx, withdrawalID)
	if err != nil {
		return nil, fmt.Errorf("get withdrawal %d: %w", withdrawalID, err)
	}
	u, err := s.store.GetUser(ctx, w.UserID)
	if err != nil {
		return nil, fmt.Errorf("get user %d: %w", w.UserID, err)
	}

	return &WithdrawalNotification{
		WithdrawalID:   w.ID,
		UserID:         u.ID,
		Email:          u.Email,
		Username:       u.Username,
		Amount:         w.Amount,
		PaymentMethod:  w.PaymentMethod,
		PaymentDetails: w.PaymentDetails,
		Balance:        u.Balance,
		CreatedAt:      w.CreatedAt,
	}, nil
}
