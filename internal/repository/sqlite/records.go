package sqlite

import (
	"context"
	"fmt"
	"time"

	"invest_platform/internal/domain"

	"gorm.io/gorm"
)

func (s *Store) CreatePayment(ctx context.Context, p *domain.Payment) error {
	if p.Currency == "" {
		p.Currency = "BDT"
	}
	row := paymentRow{
		TransactionID:    p.TransactionID,
		UserID:           p.UserID,
		Gateway:          string(p.Gateway),
		GatewayReference: p.GatewayReference,
		Currency:         p.Currency,
		Amount:           p.Amount,
		Status:           string(p.Status),
		PaymentMethod:    p.PaymentMethod,
		SenderInfo:       p.SenderInfo,
		PaymentURL:       p.PaymentURL,
		CreatedAt:        s.stamp(),
	}
	if err := s.conn(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("create payment: %w", err)
	}
	p.ID = row.ID
	p.CreatedAt = fromNanos(row.CreatedAt)
	return nil
}

func (s *Store) GetPayment(ctx context.Context, id int64) (*domain.Payment, error) {
	var row paymentRow
	if err := s.conn(ctx).First(&row, id).Error; err != nil {
		return nil, notFound(err)
	}
	return row.toDomain(), nil
}

func (s *Store) LockPayment(ctx context.Context, id int64) (*domain.Payment, error) {
	return s.GetPayment(ctx, id)
}

func (s *Store) SetPaymentInvoice(ctx context.Context, id int64, reference, url string) error {
	res := s.conn(ctx).Model(&paymentRow{}).Where("id = ?", id).
		Updates(map[string]any{"gateway_reference": reference, "payment_url": url})
	if res.Error != nil {
		return fmt.Errorf("set payment invoice %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *Store) FinalizePayment(ctx context.Context, id int64, status domain.PaymentStatus, note string, at time.Time) error {
	res := s.conn(ctx).Model(&paymentRow{}).
		Where("id = ? AND status = ?", id, domain.PaymentStatusPending).
		Updates(map[string]any{"status": string(status), "admin_note": note, "reviewed_at": nanos(at)})
	return s.finalizeResult(ctx, res, &paymentRow{}, id)
}

func (s *Store) ManualReferenceExists(ctx context.Context, reference string) (bool, error) {
	var n int64
	err := s.conn(ctx).Model(&paymentRow{}).
		Where("gateway = ? AND gateway_reference = ?", domain.GatewayManual, reference).
		Count(&n).Error
	return n > 0, err
}

func (s *Store) ListPayments(ctx context.Context, userID int64, limit int) ([]domain.Payment, error) {
	if limit <= 0 {
		limit = 50
	}
	return findPayments(s.conn(ctx).Where("user_id = ?", userID).Order("created_at DESC, id DESC").Limit(limit))
}

func (s *Store) ListPendingPayments(ctx context.Context, limit int) ([]domain.Payment, error) {
	if limit <= 0 {
		limit = 100
	}
	return findPayments(s.conn(ctx).Where("status = ?", domain.PaymentStatusPending).Order("created_at ASC, id ASC").Limit(limit))
}

func (s *Store) ListStaleGatewayPayments(ctx context.Context, before time.Time, limit int) ([]domain.Payment, error) {
	if limit <= 0 {
		limit = 100
	}
	return findPayments(s.conn(ctx).
		Where("status = ? AND gateway <> ? AND created_at < ?", domain.PaymentStatusPending, domain.GatewayManual, nanos(before)).
		Order("created_at ASC, id ASC").Limit(limit))
}

func findPayments(q *gorm.DB) ([]domain.Payment, error) {
	var rows []paymentRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	result := make([]domain.Payment, 0, len(rows))
	for i := range rows {
		result = append(result, *rows[i].toDomain())
	}
	return result, nil
}

func (s *Store) CreateKYC(ctx context.Context, d *domain.KYCDocument) error {
	row := kycRow{
		UserID:           d.UserID,
		DocumentType:     string(d.DocumentType),
		DocumentFrontURL: d.DocumentFrontURL,
		DocumentBackURL:  d.DocumentBackURL,
		SelfieURL:        d.SelfieURL,
		Status:           string(d.Status),
		CreatedAt:        s.stamp(),
	}
	if err := s.conn(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("create kyc: %w", err)
	}
	d.ID = row.ID
	d.CreatedAt = fromNanos(row.CreatedAt)
	return nil
}

func (s *Store) GetKYC(ctx context.Context, id int64) (*domain.KYCDocument, error) {
	var row kycRow
	if err := s.conn(ctx).First(&row, id).Error; err != nil {
		return nil, notFound(err)
	}
	return row.toDomain(), nil
}

func (s *Store) LockKYC(ctx context.Context, id int64) (*domain.KYCDocument, error) {
	return s.GetKYC(ctx, id)
}

func (s *Store) LatestKYC(ctx context.Context, userID int64) (*domain.KYCDocument, error) {
	var row kycRow
	if err := s.conn(ctx).Where("user_id = ?", userID).Order("id DESC").First(&row).Error; err != nil {
		return nil, notFound(err)
	}
	return row.toDomain(), nil
}

func (s *Store) FinalizeKYC(ctx context.Context, id int64, status domain.KYCStatus, note string, at time.Time) error {
	res := s.conn(ctx).Model(&kycRow{}).
		Where("id = ? AND status = ?", id, domain.KYCStatusPending).
		Updates(map[string]any{"status": string(status), "admin_note": note, "reviewed_at": nanos(at)})
	return s.finalizeResult(ctx, res, &kycRow{}, id)
}

func (s *Store) ListPendingKYC(ctx context.Context, limit int) ([]domain.KYCDocument, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []kycRow
	err := s.conn(ctx).Where("status = ?", domain.KYCStatusPending).
		Order("created_at ASC, id ASC").Limit(limit).Find(&rows).Error
	if err != nil {
		return nil, err
	}
	docs := make([]domain.KYCDocument, 0, len(rows))
	for i := range rows {
		docs = append(docs, *rows[i].toDomain())
	}
	return docs, nil
}
