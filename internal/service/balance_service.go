package service

import (
	"context"
	"fmt"
	"log/slog"

	"invest_platform/internal/domain"
	"invest_platform/internal/logger"
	"invest_platform/internal/repository"

	"github.com/shopspring/decimal"
)

// Balance delta reasons, stored on balance_entries.
const (
	ReasonReserve      = "withdrawal_reserve"
	ReasonRelease      = "withdrawal_release"
	ReasonDeposit      = "deposit_credit"
	ReasonProfit       = "profit_credit"
	ReasonPlanPurchase = "plan_purchase"
)

// Record keys identify the business event behind a delta. Re-applying a key is a no-op.
func reserveKey(withdrawalID int64) string { return fmt.Sprintf("withdrawal:%d:reserve", withdrawalID) }
func releaseKey(withdrawalID int64) string { return fmt.Sprintf("withdrawal:%d:release", withdrawalID) }
func creditKey(paymentID int64) string     { return fmt.Sprintf("payment:%d:credit", paymentID) }
func txKey(txID int64) string              { return fmt.Sprintf("transaction:%d", txID) }

// BalanceService is the only writer of users.balance
type BalanceService struct {
	store repository.Store
	log   *slog.Logger
}

// NewBalanceService creates a new balance service
func NewBalanceService(store repository.Store) *BalanceService {
	return &BalanceService{
		store: store,
		log:   logger.With("component", "balance"),
	}
}

// GetBalance returns user's current balance
func (s *BalanceService) GetBalance(ctx context.Context, userID int64) (decimal.Decimal, error) {
	u, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return decimal.Zero, err
	}
	return u.Balance, nil
}

// ApplyDelta applies delta to the user's balance in its own transaction
func (s *BalanceService) ApplyDelta(ctx context.Context, userID int64, delta decimal.Decimal, reason, recordKey string) (decimal.Decimal, error) {
	var newBalance decimal.Decimal
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		var err error
		newBalance, err = s.ApplyDeltaTx(ctx, tx, userID, delta, reason, recordKey)
		return err
	})
	return newBalance, err
}

// ApplyDeltaTx applies delta within an existing transaction. A record key that was
// already applied leaves the balance alone and returns it unchanged.
func (s *BalanceService) ApplyDeltaTx(ctx context.Context, tx repository.Store, userID int64, delta decimal.Decimal, reason, recordKey string) (decimal.Decimal, error) {
	if recordKey == "" {
		return decimal.Zero, domain.NewValidationError("record_key", "is required")
	}
	if delta.IsZero() {
		return decimal.Zero, domain.ErrInvalidAmount
	}

	u, err := tx.LockUser(ctx, userID)
	if err != nil {
		return decimal.Zero, err
	}

	newBalance := u.Balance.Add(delta)
	inserted, err := tx.InsertBalanceEntry(ctx, &domain.BalanceEntry{
		UserID:       userID,
		Delta:        delta,
		Reason:       reason,
		RecordKey:    recordKey,
		BalanceAfter: newBalance,
	})
	if err != nil {
		return decimal.Zero, err
	}
	if !inserted {
		s.log.Info("balance delta already applied", "user_id", userID, "record_key", recordKey)
		return u.Balance, nil
	}

	// the caller's transaction rolls the journal entry back with this error
	if newBalance.IsNegative() {
		return decimal.Zero, domain.ErrInsufficientBalance
	}

	if err := tx.SetUserBalance(ctx, userID, newBalance); err != nil {
		return decimal.Zero, err
	}

	BalanceDeltas.WithLabelValues(reason).Inc()
	return newBalance, nil
}

// Reserve holds amount for a pending withdrawal
func (s *BalanceService) Reserve(ctx context.Context, userID int64, amount decimal.Decimal, recordKey string) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, domain.ErrInvalidAmount
	}
	return s.ApplyDelta(ctx, userID, amount.Neg(), ReasonReserve, recordKey)
}

// Release returns a reserved amount
func (s *BalanceService) Release(ctx context.Context, userID int64, amount decimal.Decimal, recordKey string) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, domain.ErrInvalidAmount
	}
	return s.ApplyDelta(ctx, userID, amount, ReasonRelease, recordKey)
}

func (s *BalanceService) ReserveTx(ctx context.Context, tx repository.Store, userID int64, amount decimal.Decimal, recordKey string) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, domain.ErrInvalidAmount
	}
	return s.ApplyDeltaTx(ctx, tx, userID, amount.Neg(), ReasonReserve, recordKey)
}

func (s *BalanceService) ReleaseTx(ctx context.Context, tx repository.Store, userID int64, amount decimal.Decimal, recordKey string) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, domain.ErrInvalidAmount
	}
	return s.ApplyDeltaTx(ctx, tx, userID, amount, ReasonRelease, recordKey)
}

// Reconciliation compares the stored balance with the one implied by the ledger.
type Reconciliation struct {
	UserID   int64           `json:"user_id"`
	Balance  decimal.Decimal `json:"balance"`
	Expected decimal.Decimal `json:"expected"`
	Drift    decimal.Decimal `json:"drift"`
}

func (r Reconciliation) Consistent() bool { return r.Drift.IsZero() }

var debitTypes = []domain.TransactionType{domain.TxTypeWithdrawal, domain.TxTypePlanPurchase}

// Reconcile recomputes completed credits minus completed debits minus pending withdrawals.
func (s *BalanceService) Reconcile(ctx context.Context, userID int64) (*Reconciliation, error) {
	var rec *Reconciliation
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		u, err := tx.LockUser(ctx, userID)
		if err != nil {
			return err
		}

		credits, err := tx.SumTransactions(ctx, domain.TxFilter{
			UserID:   userID,
			Types:    creditTypes(),
			Statuses: []domain.TransactionStatus{domain.TxStatusCompleted},
		})
		if err != nil {
			return err
		}
		debits, err := tx.SumTransactions(ctx, domain.TxFilter{
			UserID:   userID,
			Types:    debitTypes,
			Statuses: []domain.TransactionStatus{domain.TxStatusCompleted},
		})
		if err != nil {
			return err
		}
		reserved, err := tx.SumTransactions(ctx, domain.TxFilter{
			UserID:   userID,
			Types:    []domain.TransactionType{domain.TxTypeWithdrawal},
			Statuses: []domain.TransactionStatus{domain.TxStatusPending},
		})
		if err != nil {
			return err
		}

		expected := credits.Sub(debits).Sub(reserved)
		rec = &Reconciliation{
			UserID:   userID,
			Balance:  u.Balance,
			Expected: expected,
			Drift:    u.Balance.Sub(expected),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !rec.Consistent() {
		s.log.Warn("balance drift detected", "user_id", userID, "balance", rec.Balance.String(), "expected", rec.Expected.String())
	}
	return rec, nil
}

func creditTypes() []domain.TransactionType {
	return []domain.TransactionType{
		domain.TxTypeDeposit, domain.TxTypeBonus, domain.TxTypeReferralBonus, domain.TxTypeReferralProfit,
	}
}
