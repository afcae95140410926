package repository

import (
	"context"
	"fmt"
	"time"

	"invest_platform/internal/domain"

	"github.com/jackc/pgx/v5"
)

const kycColumns = `id, user_id, document_type, document_front_url, document_back_url, selfie_url, status,
		admin_note, created_at, reviewed_at`

func scanKYC(row pgx.Row) (*domain.KYCDocument, error) {
	var d domain.KYCDocument
	if err := row.Scan(
		&d.ID, &d.UserID, &d.DocumentType, &d.DocumentFrontURL, &d.DocumentBackURL, &d.SelfieURL, &d.Status,
		&d.AdminNote, &d.CreatedAt, &d.ReviewedAt,
	); err != nil {
		return nil, notFound(err)
	}
	return &d, nil
}

// CreateKYC stores a new verification submission
func (s *PostgresStore) CreateKYC(ctx context.Context, d *domain.KYCDocument) error {
	err := s.q.QueryRow(ctx, `
		INSERT INTO kyc_documents (user_id, document_type, document_front_url, document_back_url, selfie_url, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`, d.UserID, d.DocumentType, d.DocumentFrontURL, d.DocumentBackURL, d.SelfieURL, d.Status).Scan(&d.ID, &d.CreatedAt)
	if err != nil {
		return fmt.Errorf("create kyc: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetKYC(ctx context.Context, id int64) (*domain.KYCDocument, error) {
	return scanKYC(s.q.QueryRow(ctx, `SELECT `+kycColumns+` FROM kyc_documents WHERE id = $1`, id))
}

func (s *PostgresStore) LockKYC(ctx context.Context, id int64) (*domain.KYCDocument, error) {
	return scanKYC(s.q.QueryRow(ctx, `SELECT `+kycColumns+` FROM kyc_documents WHERE id = $1 FOR UPDATE`, id))
}

// LatestKYC returns the user's most recent submission
func (s *PostgresStore) LatestKYC(ctx context.Context, userID int64) (*domain.KYCDocument, error) {
	return scanKYC(s.q.QueryRow(ctx, `
		SELECT `+kycColumns+`
		FROM kyc_documents
		WHERE user_id = $1
		ORDER BY id DESC
		LIMIT 1
	`, userID))
}

func (s *PostgresStore) FinalizeKYC(ctx context.Context, id int64, status domain.KYCStatus, note string, at time.Time) error {
	tag, err := s.q.Exec(ctx, `
		UPDATE kyc_documents SET status = $2, admin_note = $3, reviewed_at = $4
		WHERE id = $1 AND status = 'pending'
	`, id, status, note, at)
	if err != nil {
		return fmt.Errorf("finalize kyc %d: %w", id, err)
	}
	return s.finalizeResult(ctx, tag, "kyc_documents", id)
}

func (s *PostgresStore) ListPendingKYC(ctx context.Context, limit int) ([]domain.KYCDocument, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.q.Query(ctx, `
		SELECT `+kycColumns+`
		FROM kyc_documents
		WHERE status = 'pending'
		ORDER BY created_at ASC, id ASC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []domain.KYCDocument
	for rows.Next() {
		d, err := scanKYC(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *d)
	}
	return docs, rows.Err()
}
