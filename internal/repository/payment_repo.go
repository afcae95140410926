package repository

import (
	"context"
	"fmt"
	"time"

	"invest_platform/internal/domain"

	"github.com/jackc/pgx/v5"
)

const paymentColumns = `id, transaction_id, user_id, gateway, gateway_reference, currency, amount, status,
		payment_method, sender_info, payment_url, admin_note, created_at, reviewed_at`

func scanPayment(row pgx.Row) (*domain.Payment, error) {
	var p domain.Payment
	if err := row.Scan(
		&p.ID, &p.TransactionID, &p.UserID, &p.Gateway, &p.GatewayReference, &p.Currency, &p.Amount, &p.Status,
		&p.PaymentMethod, &p.SenderInfo, &p.PaymentURL, &p.AdminNote, &p.CreatedAt, &p.ReviewedAt,
	); err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func scanPayments(rows pgx.Rows) ([]domain.Payment, error) {
	defer rows.Close()

	var payments []domain.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, *p)
	}
	return payments, rows.Err()
}

// CreatePayment creates a deposit sub-record
func (s *PostgresStore) CreatePayment(ctx context.Context, p *domain.Payment) error {
	if p.Currency == "" {
		p.Currency = "BDT"
	}
	err := s.q.QueryRow(ctx, `
		INSERT INTO payments (transaction_id, user_id, gateway, gateway_reference, currency, amount, status,
			payment_method, sender_info, payment_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at
	`, p.TransactionID, p.UserID, p.Gateway, p.GatewayReference, p.Currency, p.Amount, p.Status,
		p.PaymentMethod, p.SenderInfo, p.PaymentURL).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return fmt.Errorf("create payment: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetPayment(ctx context.Context, id int64) (*domain.Payment, error) {
	return scanPayment(s.q.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id))
}

func (s *PostgresStore) LockPayment(ctx context.Context, id int64) (*domain.Payment, error) {
	return scanPayment(s.q.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = $1 FOR UPDATE`, id))
}

// SetPaymentInvoice stores the gateway order reference and checkout URL
func (s *PostgresStore) SetPaymentInvoice(ctx context.Context, id int64, reference, url string) error {
	tag, err := s.q.Exec(ctx, `
		UPDATE payments SET gateway_reference = $2, payment_url = $3
		WHERE id = $1
	`, id, reference, url)
	if err != nil {
		return fmt.Errorf("set payment invoice %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// FinalizePayment moves a pending payment to completed or failed
func (s *PostgresStore) FinalizePayment(ctx context.Context, id int64, status domain.PaymentStatus, note string, at time.Time) error {
	tag, err := s.q.Exec(ctx, `
		UPDATE payments SET status = $2, admin_note = $3, reviewed_at = $4
		WHERE id = $1 AND status = 'pending'
	`, id, status, note, at)
	if err != nil {
		return fmt.Errorf("finalize payment %d: %w", id, err)
	}
	return s.finalizeResult(ctx, tag, "payments", id)
}

// ManualReferenceExists reports whether a manual transfer reference was already submitted
func (s *PostgresStore) ManualReferenceExists(ctx context.Context, reference string) (bool, error) {
	var exists bool
	err := s.q.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM payments WHERE gateway = 'manual' AND gateway_reference = $1)
	`, reference).Scan(&exists)
	return exists, err
}

func (s *PostgresStore) ListPayments(ctx context.Context, userID int64, limit int) ([]domain.Payment, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.q.Query(ctx, `
		SELECT `+paymentColumns+`
		FROM payments
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	return scanPayments(rows)
}

func (s *PostgresStore) ListPendingPayments(ctx context.Context, limit int) ([]domain.Payment, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.q.Query(ctx, `
		SELECT `+paymentColumns+`
		FROM payments
		WHERE status = 'pending'
		ORDER BY created_at ASC, id ASC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	return scanPayments(rows)
}

// ListStaleGatewayPayments returns pending gateway payments created before the cutoff
func (s *PostgresStore) ListStaleGatewayPayments(ctx context.Context, before time.Time, limit int) ([]domain.Payment, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.q.Query(ctx, `
		SELECT `+paymentColumns+`
		FROM payments
		WHERE status = 'pending' AND gateway <> 'manual' AND created_at < $1
		ORDER BY created_at ASC, id ASC
		LIMIT $2
	`, before, limit)
	if err != nil {
		return nil, err
	}
	return scanPayments(rows)
}
