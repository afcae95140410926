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

const transactionColumns = `id, user_id, amount, type, status, withdrawal_id, payment_id, meta, created_at, updated_at`

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var (
		t        domain.Transaction
		metaJSON []byte
	)
	if err := row.Scan(&t.ID, &t.UserID, &t.Amount, &t.Type, &t.Status, &t.WithdrawalID, &t.PaymentID,
		&metaJSON, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, notFound(err)
	}
	DecodeJSONColumn(metaJSON, &t.Meta, "transactions", "meta", t.ID)
	return &t, nil
}

// CreateTransaction inserts a ledger entry
func (s *PostgresStore) CreateTransaction(ctx context.Context, t *domain.Transaction) error {
	metaJSON, err := json.Marshal(t.Meta)
	if err != nil || t.Meta == nil {
		metaJSON = []byte("{}")
	}

	err = s.q.QueryRow(ctx, `
		INSERT INTO transactions (user_id, amount, type, status, withdrawal_id, payment_id, meta)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`, t.UserID, t.Amount, t.Type, t.Status, t.WithdrawalID, t.PaymentID, metaJSON).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create transaction: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetTransaction(ctx context.Context, id int64) (*domain.Transaction, error) {
	return scanTransaction(s.q.QueryRow(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = $1`, id))
}

// LinkTransaction points a ledger entry at its reviewable sub-record
func (s *PostgresStore) LinkTransaction(ctx context.Context, id int64, withdrawalID, paymentID *int64) error {
	tag, err := s.q.Exec(ctx, `
		UPDATE transactions
		SET withdrawal_id = COALESCE($2, withdrawal_id), payment_id = COALESCE($3, payment_id)
		WHERE id = $1
	`, id, withdrawalID, paymentID)
	if err != nil {
		return fmt.Errorf("link transaction %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// FinalizeTransaction moves a pending entry to a terminal status
func (s *PostgresStore) FinalizeTransaction(ctx context.Context, id int64, status domain.TransactionStatus) error {
	tag, err := s.q.Exec(ctx, `
		UPDATE transactions SET status = $2, updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
	`, id, status)
	if err != nil {
		return fmt.Errorf("finalize transaction %d: %w", id, err)
	}
	return s.finalizeResult(ctx, tag, "transactions", id)
}

// ListTransactions returns recent transactions for a user
func (s *PostgresStore) ListTransactions(ctx context.Context, userID int64, limit int) ([]domain.Transaction, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.q.Query(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *t)
	}
	return result, rows.Err()
}

// SumTransactions adds up amounts matching the filter. Zero From/To means unbounded.
func (s *PostgresStore) SumTransactions(ctx context.Context, f domain.TxFilter) (decimal.Decimal, error) {
	types := make([]string, len(f.Types))
	for i, t := range f.Types {
		types[i] = string(t)
	}
	statuses := make([]string, len(f.Statuses))
	for i, st := range f.Statuses {
		statuses[i] = string(st)
	}

	var total decimal.Decimal
	err := s.q.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0)
		FROM transactions
		WHERE user_id = $1
		  AND (cardinality($2::text[]) = 0 OR type = ANY($2))
		  AND (cardinality($3::text[]) = 0 OR status = ANY($3))
		  AND ($4::timestamptz IS NULL OR created_at >= $4)
		  AND ($5::timestamptz IS NULL OR created_at < $5)
	`, f.UserID, types, statuses, nullTime(f.From), nullTime(f.To)).Scan(&total)
	return total, err
}

func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
