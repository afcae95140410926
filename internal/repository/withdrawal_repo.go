package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"invest_platform/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const withdrawalColumns = `id, transaction_id, user_id, amount, payment_method, payment_details, status,
		admin_note, tasks_completed, created_at, reviewed_at`

func scanWithdrawal(row pgx.Row) (*domain.Withdrawal, error) {
	var (
		w           domain.Withdrawal
		detailsJSON []byte
	)
	if err := row.Scan(
		&w.ID, &w.TransactionID, &w.UserID, &w.Amount, &w.PaymentMethod, &detailsJSON, &w.Status,
		&w.AdminNote, &w.TasksCompleted, &w.CreatedAt, &w.ReviewedAt,
	); err != nil {
		return nil, notFound(err)
	}
	DecodeJSONColumn(detailsJSON, &w.PaymentDetails, "withdrawals", "payment_details", w.ID)
	return &w, nil
}

func scanWithdrawals(rows pgx.Rows) ([]domain.Withdrawal, error) {
	defer rows.Close()

	var withdrawals []domain.Withdrawal
	for rows.Next() {
		w, err := scanWithdrawal(rows)
		if err != nil {
			return nil, err
		}
		withdrawals = append(withdrawals, *w)
	}
	return withdrawals, rows.Err()
}

// CreateWithdrawal creates a new withdrawal request
func (s *PostgresStore) CreateWithdrawal(ctx context.Context, w *domain.Withdrawal) error {
	detailsJSON, err := json.Marshal(w.PaymentDetails)
	if err != nil || w.PaymentDetails == nil {
		detailsJSON = []byte("{}")
	}

	err = s.q.QueryRow(ctx, `
		INSERT INTO withdrawals (transaction_id, user_id, amount, payment_method, payment_details, status, tasks_completed)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`, w.TransactionID, w.UserID, w.Amount, w.PaymentMethod, detailsJSON, w.Status, w.TasksCompleted).Scan(&w.ID, &w.CreatedAt)
	if err != nil {
		return fmt.Errorf("create withdrawal: %w", err)
	}
	return nil
}

// GetWithdrawal retrieves withdrawal by ID
func (s *PostgresStore) GetWithdrawal(ctx context.Context, id int64) (*domain.Withdrawal, error) {
	return scanWithdrawal(s.q.QueryRow(ctx, `SELECT `+withdrawalColumns+` FROM withdrawals WHERE id = $1`, id))
}

// LockWithdrawal retrieves withdrawal by ID holding a row lock
func (s *PostgresStore) LockWithdrawal(ctx context.Context, id int64) (*domain.Withdrawal, error) {
	return scanWithdrawal(s.q.QueryRow(ctx, `SELECT `+withdrawalColumns+` FROM withdrawals WHERE id = $1 FOR UPDATE`, id))
}

// FinalizeWithdrawal moves a pending withdrawal to approved or rejected
func (s *PostgresStore) FinalizeWithdrawal(ctx context.Context, id int64, status domain.WithdrawalStatus, note string, at time.Time) error {
	tag, err := s.q.Exec(ctx, `
		UPDATE withdrawals SET status = $2, admin_note = $3, reviewed_at = $4
		WHERE id = $1 AND status = 'pending'
	`, id, status, note, at)
	if err != nil {
		return fmt.Errorf("finalize withdrawal %d: %w", id, err)
	}
	return s.finalizeResult(ctx, tag, "withdrawals", id)
}

// ListWithdrawals retrieves a user's withdrawals, newest first
func (s *PostgresStore) ListWithdrawals(ctx context.Context, userID int64, limit int) ([]domain.Withdrawal, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.q.Query(ctx, `
		SELECT `+withdrawalColumns+`
		FROM withdrawals
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	return scanWithdrawals(rows)
}

// ListPendingWithdrawals retrieves the review queue, oldest first
func (s *PostgresStore) ListPendingWithdrawals(ctx context.Context, limit int) ([]domain.Withdrawal, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.q.Query(ctx, `
		SELECT `+withdrawalColumns+`
		FROM withdrawals
		WHERE status = 'pending'
		ORDER BY created_at ASC, id ASC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	return scanWithdrawals(rows)
}

// SumWithdrawals returns the total of a user's withdrawals in the given statuses and window
func (s *PostgresStore) SumWithdrawals(ctx context.Context, userID int64, statuses []domain.WithdrawalStatus, from, to time.Time) (decimal.Decimal, error) {
	st := make([]string, len(statuses))
	for i, v := range statuses {
		st[i] = string(v)
	}

	var total decimal.Decimal
	err := s.q.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0)
		FROM withdrawals
		WHERE user_id = $1
		  AND status = ANY($2)
		  AND ($3::timestamptz IS NULL OR created_at >= $3)
		  AND ($4::timestamptz IS NULL OR created_at < $4)
	`, userID, st, nullTime(from), nullTime(to)).Scan(&total)
	return total, err
}
