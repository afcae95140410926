package sqlite

import (
	"context"
	"fmt"
	"time"

	"invest_platform/internal/domain"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func (s *Store) CreateTransaction(ctx context.Context, t *domain.Transaction) error {
	now := s.stamp()
	row := transactionRow{
		UserID:       t.UserID,
		Amount:       t.Amount,
		Type:         string(t.Type),
		Status:       string(t.Status),
		WithdrawalID: t.WithdrawalID,
		PaymentID:    t.PaymentID,
		Meta:         encodeJSON(t.Meta),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.conn(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("create transaction: %w", err)
	}
	t.ID = row.ID
	t.CreatedAt = fromNanos(row.CreatedAt)
	t.UpdatedAt = fromNanos(row.UpdatedAt)
	return nil
}

func (s *Store) GetTransaction(ctx context.Context, id int64) (*domain.Transaction, error) {
	var row transactionRow
	if err := s.conn(ctx).First(&row, id).Error; err != nil {
		return nil, notFound(err)
	}
	return row.toDomain(), nil
}

func (s *Store) LinkTransaction(ctx context.Context, id int64, withdrawalID, paymentID *int64) error {
	updates := map[string]any{}
	if withdrawalID != nil {
		updates["withdrawal_id"] = *withdrawalID
	}
	if paymentID != nil {
		updates["payment_id"] = *paymentID
	}
	var n int64
	if err := s.conn(ctx).Model(&transactionRow{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	if len(updates) == 0 {
		return nil
	}
	return s.conn(ctx).Model(&transactionRow{}).Where("id = ?", id).Updates(updates).Error
}

func (s *Store) FinalizeTransaction(ctx context.Context, id int64, status domain.TransactionStatus) error {
	res := s.conn(ctx).Model(&transactionRow{}).
		Where("id = ? AND status = ?", id, domain.TxStatusPending).
		Updates(map[string]any{"status": string(status), "updated_at": s.stamp()})
	return s.finalizeResult(ctx, res, &transactionRow{}, id)
}

func (s *Store) ListTransactions(ctx context.Context, userID int64, limit int) ([]domain.Transaction, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []transactionRow
	err := s.conn(ctx).Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").Limit(limit).Find(&rows).Error
	if err != nil {
		return nil, err
	}
	result := make([]domain.Transaction, 0, len(rows))
	for i := range rows {
		result = append(result, *rows[i].toDomain())
	}
	return result, nil
}

// SumTransactions loads matching amounts and adds them in decimal.
func (s *Store) SumTransactions(ctx context.Context, f domain.TxFilter) (decimal.Decimal, error) {
	q := s.conn(ctx).Model(&transactionRow{}).Where("user_id = ?", f.UserID)
	if len(f.Types) > 0 {
		types := make([]string, len(f.Types))
		for i, t := range f.Types {
			types[i] = string(t)
		}
		q = q.Where("type IN ?", types)
	}
	if len(f.Statuses) > 0 {
		statuses := make([]string, len(f.Statuses))
		for i, st := range f.Statuses {
			statuses[i] = string(st)
		}
		q = q.Where("status IN ?", statuses)
	}
	q = window(q, f.From, f.To)

	var amounts []decimal.Decimal
	if err := q.Pluck("amount", &amounts).Error; err != nil {
		return decimal.Zero, err
	}
	return sum(amounts), nil
}

func (s *Store) CreateWithdrawal(ctx context.Context, w *domain.Withdrawal) error {
	row := withdrawalRow{
		TransactionID:  w.TransactionID,
		UserID:         w.UserID,
		Amount:         w.Amount,
		PaymentMethod:  string(w.PaymentMethod),
		PaymentDetails: encodeJSON(w.PaymentDetails),
		Status:         string(w.Status),
		TasksCompleted: w.TasksCompleted,
		CreatedAt:      s.stamp(),
	}
	if err := s.conn(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("create withdrawal: %w", err)
	}
	w.ID = row.ID
	w.CreatedAt = fromNanos(row.CreatedAt)
	return nil
}

func (s *Store) GetWithdrawal(ctx context.Context, id int64) (*domain.Withdrawal, error) {
	var row withdrawalRow
	if err := s.conn(ctx).First(&row, id).Error; err != nil {
		return nil, notFound(err)
	}
	return row.toDomain(), nil
}

func (s *Store) LockWithdrawal(ctx context.Context, id int64) (*domain.Withdrawal, error) {
	return s.GetWithdrawal(ctx, id)
}

func (s *Store) FinalizeWithdrawal(ctx context.Context, id int64, status domain.WithdrawalStatus, note string, at time.Time) error {
	res := s.conn(ctx).Model(&withdrawalRow{}).
		Where("id = ? AND status = ?", id, domain.WithdrawalStatusPending).
		Updates(map[string]any{"status": string(status), "admin_note": note, "reviewed_at": nanos(at)})
	return s.finalizeResult(ctx, res, &withdrawalRow{}, id)
}

func (s *Store) ListWithdrawals(ctx context.Context, userID int64, limit int) ([]domain.Withdrawal, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.findWithdrawals(s.conn(ctx).Where("user_id = ?", userID).Order("created_at DESC, id DESC").Limit(limit))
}

func (s *Store) ListPendingWithdrawals(ctx context.Context, limit int) ([]domain.Withdrawal, error) {
	if limit <= 0 {
		limit = 100
	}
	return s.findWithdrawals(s.conn(ctx).Where("status = ?", domain.WithdrawalStatusPending).Order("created_at ASC, id ASC").Limit(limit))
}

func (s *Store) findWithdrawals(q *gorm.DB) ([]domain.Withdrawal, error) {
	var rows []withdrawalRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	result := make([]domain.Withdrawal, 0, len(rows))
	for i := range rows {
		result = append(result, *rows[i].toDomain())
	}
	return result, nil
}

func (s *Store) SumWithdrawals(ctx context.Context, userID int64, statuses []domain.WithdrawalStatus, from, to time.Time) (decimal.Decimal, error) {
	st := make([]string, len(statuses))
	for i, v := range statuses {
		st[i] = string(v)
	}
	q := s.conn(ctx).Model(&withdrawalRow{}).Where("user_id = ? AND status IN ?", userID, st)
	q = window(q, from, to)

	var amounts []decimal.Decimal
	if err := q.Pluck("amount", &amounts).Error; err != nil {
		return decimal.Zero, err
	}
	return sum(amounts), nil
}

func window(q *gorm.DB, from, to time.Time) *gorm.DB {
	if !from.IsZero() {
		q = q.Where("created_at >= ?", nanos(from))
	}
	if !to.IsZero() {
		q = q.Where("created_at < ?", nanos(to))
	}
	return q
}

func sum(amounts []decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}
