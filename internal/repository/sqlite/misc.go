package sqlite

import (
	"context"
	"fmt"
	"time"

	"invest_platform/internal/domain"
	"invest_platform/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm/clause"
)

func (s *Store) CreateTask(ctx context.Context, t *domain.Task) error {
	row := taskRow{
		Title:       t.Title,
		Description: t.Description,
		IsMandatory: t.IsMandatory,
		CreatedAt:   s.stamp(),
	}
	if err := s.conn(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	t.ID = row.ID
	t.CreatedAt = fromNanos(row.CreatedAt)
	return nil
}

func (s *Store) CompleteTask(ctx context.Context, userID, taskID int64) error {
	var n int64
	if err := s.conn(ctx).Model(&taskRow{}).Where("id = ?", taskID).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	row := userTaskRow{UserID: userID, TaskID: taskID, CompletedAt: s.stamp()}
	return s.conn(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error
}

func (s *Store) TaskProgress(ctx context.Context, userID int64) (domain.TaskProgress, error) {
	var total, done int64
	if err := s.conn(ctx).Model(&taskRow{}).Where("is_mandatory = ?", true).Count(&total).Error; err != nil {
		return domain.TaskProgress{}, err
	}
	err := s.conn(ctx).Model(&userTaskRow{}).
		Joins("JOIN tasks ON tasks.id = user_tasks.task_id").
		Where("user_tasks.user_id = ? AND tasks.is_mandatory = ?", userID, true).
		Count(&done).Error
	if err != nil {
		return domain.TaskProgress{}, err
	}
	return domain.TaskProgress{CompletedMandatory: int(done), TotalMandatory: int(total)}, nil
}

func (s *Store) CreateAudit(ctx context.Context, l *domain.AuditLog) error {
	row := auditRow{
		UserID:    l.UserID,
		ActorID:   l.ActorID,
		Action:    l.Action,
		Category:  l.Category,
		Details:   encodeJSON(l.Details),
		CreatedAt: s.stamp(),
	}
	if err := s.conn(ctx).Create(&row).Error; err != nil {
		return err
	}
	l.ID = row.ID
	l.CreatedAt = fromNanos(row.CreatedAt)
	return nil
}

func (s *Store) ListAudit(ctx context.Context, userID int64, limit int) ([]domain.AuditLog, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []auditRow
	err := s.conn(ctx).Where("user_id = ?", userID).Order("created_at DESC, id DESC").Limit(limit).Find(&rows).Error
	if err != nil {
		return nil, err
	}
	logs := make([]domain.AuditLog, 0, len(rows))
	for i := range rows {
		logs = append(logs, rows[i].toDomain())
	}
	return logs, nil
}

func (s *Store) Stats(ctx context.Context, since time.Time) (*repository.Stats, error) {
	var st repository.Stats
	db := s.conn(ctx)

	if err := db.Model(&userRow{}).Count(&st.TotalUsers).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&userRow{}).Where("is_blocked = ?", true).Count(&st.BlockedUsers).Error; err != nil {
		return nil, err
	}
	var balances []decimal.Decimal
	if err := db.Model(&userRow{}).Pluck("balance", &balances).Error; err != nil {
		return nil, err
	}
	st.TotalBalance = sum(balances)

	if err := db.Model(&withdrawalRow{}).Where("status = ?", domain.WithdrawalStatusPending).Count(&st.PendingWithdrawals).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&paymentRow{}).Where("status = ?", domain.PaymentStatusPending).Count(&st.PendingPayments).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&kycRow{}).Where("status = ?", domain.KYCStatusPending).Count(&st.PendingKYC).Error; err != nil {
		return nil, err
	}

	var amounts []decimal.Decimal
	err := db.Model(&transactionRow{}).
		Where("type = ? AND status = ? AND created_at >= ?", domain.TxTypeDeposit, domain.TxStatusCompleted, nanos(since)).
		Pluck("amount", &amounts).Error
	if err != nil {
		return nil, err
	}
	st.DepositedSince = sum(amounts)

	amounts = nil
	err = db.Model(&transactionRow{}).
		Where("type = ? AND status = ? AND created_at >= ?", domain.TxTypeWithdrawal, domain.TxStatusCompleted, nanos(since)).
		Pluck("amount", &amounts).Error
	if err != nil {
		return nil, err
	}
	st.WithdrawnSince = sum(amounts)

	amounts = nil
	if err := db.Model(&withdrawalRow{}).Where("status = ?", domain.WithdrawalStatusPending).Pluck("amount", &amounts).Error; err != nil {
		return nil, err
	}
	st.ReservedWithdrawals = sum(amounts)

	return &st, nil
}
