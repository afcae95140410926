package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"invest_platform/internal/domain"
	"invest_platform/internal/gateway"
	"invest_platform/internal/logger"
	"invest_platform/internal/repository"
)

// ApprovalService moves reviewable records out of pending, exactly once.
type ApprovalService struct {
	store    repository.Store
	balance  *BalanceService
	audit    *AuditService
	notifier Notifier
	now      func() time.Time
	log      *slog.Logger
}

func NewApprovalService(store repository.Store, balance *BalanceService, audit *AuditService, notifier Notifier) *ApprovalService {
	if notifier == nil {
		notifier = Notifiers()
	}
	return &ApprovalService{
		store:    store,
		balance:  balance,
		audit:    audit,
		notifier: notifier,
		now:      time.Now,
		log:      logger.With("component", "approval"),
	}
}

// Approve finalizes a pending record as approved and applies its balance effect.
func (s *ApprovalService) Approve(ctx context.Context, rt domain.RecordType, id int64, note string) (*domain.StatusEvent, error) {
	return s.transition(ctx, rt, id, true, strings.TrimSpace(note))
}

// Reject finalizes a pending record as rejected. A reason is required.
func (s *ApprovalService) Reject(ctx context.Context, rt domain.RecordType, id int64, reason string) (*domain.StatusEvent, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, domain.NewValidationError("reason", "is required to reject")
	}
	return s.transition(ctx, rt, id, false, reason)
}

func (s *ApprovalService) transition(ctx context.Context, rt domain.RecordType, id int64, approve bool, note string) (*domain.StatusEvent, error) {
	if !rt.Valid() {
		return nil, domain.NewValidationError("type", "must be withdrawal, payment or kyc")
	}

	at := s.now()
	ev := &domain.StatusEvent{RecordType: rt, RecordID: id, Note: note, At: at}

	err := s.store.InTx(ctx, func(tx repository.Store) error {
		var err error
		switch rt {
		case domain.RecordWithdrawal:
			err = s.finalizeWithdrawal(ctx, tx, ev, approve)
		case domain.RecordPayment:
			err = s.finalizePayment(ctx, tx, ev, approve)
		case domain.RecordKYC:
			err = s.finalizeKYC(ctx, tx, ev, approve)
		}
		return err
	})

	action := pick(approve, "approve", "reject")
	Transitions.WithLabelValues(string(rt), action, outcome(err)).Inc()

	switch {
	case errors.Is(err, domain.ErrAlreadyFinalized):
		s.log.Info("record already finalized", "record_type", rt, "record_id", id, "action", action)
		return nil, err
	case err != nil:
		return nil, err
	}

	s.log.Info("record finalized", "record_type", rt, "record_id", id, "status", ev.Status, "user_id", ev.UserID)
	s.audit.LogTransition(ctx, *ev, approve)
	s.notifier.Notify(ctx, *ev)
	return ev, nil
}

func (s *ApprovalService) finalizeWithdrawal(ctx context.Context, tx repository.Store, ev *domain.StatusEvent, approve bool) error {
	w, err := tx.LockWithdrawal(ctx, ev.RecordID)
	if err != nil {
		return err
	}
	if w.Status != domain.WithdrawalStatusPending {
		return domain.ErrAlreadyFinalized
	}
	ev.UserID = w.UserID

	status, txStatus := domain.WithdrawalStatusApproved, domain.TxStatusCompleted
	if !approve {
		status, txStatus = domain.WithdrawalStatusRejected, domain.TxStatusRejected
	}
	ev.Status = string(status)

	if err := tx.FinalizeWithdrawal(ctx, w.ID, status, ev.Note, ev.At); err != nil {
		return err
	}
	if err := tx.FinalizeTransaction(ctx, w.TransactionID, txStatus); err != nil {
		return err
	}
	if approve {
		// funds were reserved at submission
		return nil
	}
	_, err = s.balance.ReleaseTx(ctx, tx, w.UserID, w.Amount, releaseKey(w.ID))
	return err
}

func (s *ApprovalService) finalizePayment(ctx context.Context, tx repository.Store, ev *domain.StatusEvent, approve bool) error {
	p, err := tx.LockPayment(ctx, ev.RecordID)
	if err != nil {
		return err
	}
	if p.Status != domain.PaymentStatusPending {
		return domain.ErrAlreadyFinalized
	}
	ev.UserID = p.UserID

	status, txStatus := domain.PaymentStatusCompleted, domain.TxStatusCompleted
	if !approve {
		status, txStatus = domain.PaymentStatusFailed, domain.TxStatusRejected
	}
	ev.Status = string(status)

	if err := tx.FinalizePayment(ctx, p.ID, status, ev.Note, ev.At); err != nil {
		return err
	}
	if err := tx.FinalizeTransaction(ctx, p.TransactionID, txStatus); err != nil {
		return err
	}
	if !approve {
		return nil
	}
	_, err = s.balance.ApplyDeltaTx(ctx, tx, p.UserID, p.Amount, ReasonDeposit, creditKey(p.ID))
	return err
}

func (s *ApprovalService) finalizeKYC(ctx context.Context, tx repository.Store, ev *domain.StatusEvent, approve bool) error {
	d, err := tx.LockKYC(ctx, ev.RecordID)
	if err != nil {
		return err
	}
	if d.Status != domain.KYCStatusPending {
		return domain.ErrAlreadyFinalized
	}
	ev.UserID = d.UserID

	status := domain.KYCStatusApproved
	if !approve {
		status = domain.KYCStatusRejected
	}
	ev.Status = string(status)

	if err := tx.FinalizeKYC(ctx, d.ID, status, ev.Note, ev.At); err != nil {
		return err
	}
	if !approve {
		return nil
	}
	return tx.SetUserKYCVerified(ctx, d.UserID, true)
}

// GatewayCallback applies a provider notification through the same transitions as admins.
func (s *ApprovalService) GatewayCallback(ctx context.Context, paymentID int64, gatewayStatus, gatewayReference string) (*domain.StatusEvent, error) {
	p, err := s.store.GetPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if p.Gateway == domain.GatewayManual {
		return nil, domain.NewValidationError("payment_id", "is not a gateway payment")
	}
	if gatewayReference == "" || gatewayReference != p.GatewayReference {
		s.log.Warn("gateway reference mismatch", "payment_id", paymentID, "gateway", p.Gateway)
		return nil, domain.NewValidationError("reference", "does not match the payment")
	}

	approved, ok := gateway.Outcome(gatewayStatus)
	if !ok {
		return nil, domain.NewValidationError("status", fmt.Sprintf("unsupported gateway status %q", gatewayStatus))
	}

	status := strings.ToLower(strings.TrimSpace(gatewayStatus))
	if approved {
		return s.Approve(ctx, domain.RecordPayment, paymentID, "gateway:"+status)
	}
	return s.Reject(ctx, domain.RecordPayment, paymentID, "gateway:"+status)
}

// ExpireStalePayments rejects gateway payments left pending longer than olderThan.
func (s *ApprovalService) ExpireStalePayments(ctx context.Context, olderThan time.Duration) (int, error) {
	stale, err := s.store.ListStaleGatewayPayments(ctx, s.now().Add(-olderThan), 500)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, p := range stale {
		_, err := s.Reject(ctx, domain.RecordPayment, p.ID, "expired")
		switch {
		case err == nil:
			expired++
		case errors.Is(err, domain.ErrAlreadyFinalized):
		default:
			s.log.Error("failed to expire payment", "payment_id", p.ID, "error", err)
		}
	}
	return expired, nil
}
