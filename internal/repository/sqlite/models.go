package sqlite

import (
	"encoding/json"
	"time"

	"invest_platform/internal/domain"
	"invest_platform/internal/repository"

	"github.com/shopspring/decimal"
)

// Row models mirror the postgres tables. Money is stored as text and times
// as unix nanoseconds so both compare exactly.

type planRow struct {
	ID                   int64           `gorm:"primaryKey"`
	Name                 string          `gorm:"uniqueIndex;not null"`
	DailyDepositLimit    decimal.Decimal `gorm:"type:text;not null"`
	DailyWithdrawalLimit decimal.Decimal `gorm:"type:text;not null"`
	DailyProfitLimit     decimal.Decimal `gorm:"type:text;not null"`
	Price                decimal.Decimal `gorm:"type:text;not null"`
	MinAmount            decimal.Decimal `gorm:"type:text;not null"`
	MaxAmount            decimal.Decimal `gorm:"type:text;not null"`
	IsDefault            bool
	CreatedAt            int64 `gorm:"autoCreateTime:false"`
}

func (planRow) TableName() string { return "plans" }

type userRow struct {
	ID            int64           `gorm:"primaryKey"`
	Email         string          `gorm:"uniqueIndex;not null"`
	Username      string          `gorm:"not null;default:''"`
	Balance       decimal.Decimal `gorm:"type:text;not null"`
	PlanID        *int64
	IsBlocked     bool
	IsKYCVerified bool
	IsAdmin       bool
	ReferralCode  string `gorm:"uniqueIndex;not null"`
	ReferredBy    *int64
	CreatedAt     int64 `gorm:"autoCreateTime:false"`
}

func (userRow) TableName() string { return "users" }

type transactionRow struct {
	ID           int64           `gorm:"primaryKey"`
	UserID       int64           `gorm:"index:tx_user_day;not null"`
	Amount       decimal.Decimal `gorm:"type:text;not null"`
	Type         string          `gorm:"index:tx_user_day;not null"`
	Status       string          `gorm:"index:tx_user_day;not null"`
	WithdrawalID *int64
	PaymentID    *int64
	Meta         string `gorm:"not null;default:'{}'"`
	CreatedAt    int64  `gorm:"index:tx_user_day;autoCreateTime:false"`
	UpdatedAt    int64  `gorm:"autoUpdateTime:false"`
}

func (transactionRow) TableName() string { return "transactions" }

type withdrawalRow struct {
	ID             int64           `gorm:"primaryKey"`
	TransactionID  int64           `gorm:"uniqueIndex;not null"`
	UserID         int64           `gorm:"index;not null"`
	Amount         decimal.Decimal `gorm:"type:text;not null"`
	PaymentMethod  string          `gorm:"not null"`
	PaymentDetails string          `gorm:"not null;default:'{}'"`
	Status         string          `gorm:"index;not null"`
	AdminNote      string
	TasksCompleted bool
	CreatedAt      int64 `gorm:"autoCreateTime:false"`
	ReviewedAt     *int64
}

func (withdrawalRow) TableName() string { return "withdrawals" }

type paymentRow struct {
	ID               int64           `gorm:"primaryKey"`
	TransactionID    int64           `gorm:"uniqueIndex;not null"`
	UserID           int64           `gorm:"index;not null"`
	Gateway          string          `gorm:"index:payment_ref;not null"`
	GatewayReference string          `gorm:"index:payment_ref"`
	Currency         string          `gorm:"not null"`
	Amount           decimal.Decimal `gorm:"type:text;not null"`
	Status           string          `gorm:"index;not null"`
	PaymentMethod    string
	SenderInfo       string
	PaymentURL       string
	AdminNote        string
	CreatedAt        int64 `gorm:"autoCreateTime:false"`
	ReviewedAt       *int64
}

func (paymentRow) TableName() string { return "payments" }

type kycRow struct {
	ID               int64  `gorm:"primaryKey"`
	UserID           int64  `gorm:"index;not null"`
	DocumentType     string `gorm:"not null"`
	DocumentFrontURL string `gorm:"not null"`
	DocumentBackURL  string
	SelfieURL        string `gorm:"not null"`
	Status           string `gorm:"index;not null"`
	AdminNote        string
	CreatedAt        int64 `gorm:"autoCreateTime:false"`
	ReviewedAt       *int64
}

func (kycRow) TableName() string { return "kyc_documents" }

type taskRow struct {
	ID          int64  `gorm:"primaryKey"`
	Title       string `gorm:"not null"`
	Description string
	IsMandatory bool
	CreatedAt   int64 `gorm:"autoCreateTime:false"`
}

func (taskRow) TableName() string { return "tasks" }

type userTaskRow struct {
	UserID      int64 `gorm:"primaryKey;autoIncrement:false"`
	TaskID      int64 `gorm:"primaryKey;autoIncrement:false"`
	CompletedAt int64
}

func (userTaskRow) TableName() string { return "user_tasks" }

type balanceEntryRow struct {
	ID           int64           `gorm:"primaryKey"`
	UserID       int64           `gorm:"index;not null"`
	Delta        decimal.Decimal `gorm:"type:text;not null"`
	Reason       string          `gorm:"not null"`
	RecordKey    string          `gorm:"uniqueIndex;not null"`
	BalanceAfter decimal.Decimal `gorm:"type:text;not null"`
	CreatedAt    int64           `gorm:"autoCreateTime:false"`
}

func (balanceEntryRow) TableName() string { return "balance_entries" }

type auditRow struct {
	ID        int64  `gorm:"primaryKey"`
	UserID    int64  `gorm:"index;not null"`
	ActorID   int64  `gorm:"not null;default:0"`
	Action    string `gorm:"not null"`
	Category  string `gorm:"not null"`
	Details   string `gorm:"not null;default:'{}'"`
	CreatedAt int64  `gorm:"autoCreateTime:false"`
}

func (auditRow) TableName() string { return "audit_logs" }

func allModels() []any {
	return []any{
		&planRow{}, &userRow{}, &transactionRow{}, &withdrawalRow{}, &paymentRow{},
		&kycRow{}, &taskRow{}, &userTaskRow{}, &balanceEntryRow{}, &auditRow{},
	}
}

func nanos(t time.Time) int64 { return t.UnixNano() }

func fromNanos(n int64) time.Time { return time.Unix(0, n).UTC() }

func optNanos(t *time.Time) *int64 {
	if t == nil {
		return nil
	}
	n := t.UnixNano()
	return &n
}

func fromOptNanos(n *int64) *time.Time {
	if n == nil {
		return nil
	}
	t := fromNanos(*n)
	return &t
}

func encodeJSON(v any) string {
	if v == nil {
		return "{}"
	}
	b, err := json.Marshal(v)
	if err != nil || string(b) == "null" {
		return "{}"
	}
	return string(b)
}

func (r *planRow) toDomain() *domain.Plan {
	return &domain.Plan{
		ID:                   r.ID,
		Name:                 r.Name,
		DailyDepositLimit:    r.DailyDepositLimit,
		DailyWithdrawalLimit: r.DailyWithdrawalLimit,
		DailyProfitLimit:     r.DailyProfitLimit,
		Price:                r.Price,
		MinAmount:            r.MinAmount,
		MaxAmount:            r.MaxAmount,
		IsDefault:            r.IsDefault,
		CreatedAt:            fromNanos(r.CreatedAt),
	}
}

func (r *userRow) toDomain() *domain.User {
	return &domain.User{
		ID:            r.ID,
		Email:         r.Email,
		Username:      r.Username,
		Balance:       r.Balance,
		PlanID:        r.PlanID,
		IsBlocked:     r.IsBlocked,
		IsKYCVerified: r.IsKYCVerified,
		IsAdmin:       r.IsAdmin,
		ReferralCode:  r.ReferralCode,
		ReferredBy:    r.ReferredBy,
		CreatedAt:     fromNanos(r.CreatedAt),
	}
}

func (r *transactionRow) toDomain() *domain.Transaction {
	t := &domain.Transaction{
		ID:           r.ID,
		UserID:       r.UserID,
		Amount:       r.Amount,
		Type:         domain.TransactionType(r.Type),
		Status:       domain.TransactionStatus(r.Status),
		WithdrawalID: r.WithdrawalID,
		PaymentID:    r.PaymentID,
		CreatedAt:    fromNanos(r.CreatedAt),
		UpdatedAt:    fromNanos(r.UpdatedAt),
	}
	repository.DecodeJSONColumn([]byte(r.Meta), &t.Meta, "transactions", "meta", r.ID)
	return t
}

func (r *withdrawalRow) toDomain() *domain.Withdrawal {
	w := &domain.Withdrawal{
		ID:             r.ID,
		TransactionID:  r.TransactionID,
		UserID:         r.UserID,
		Amount:         r.Amount,
		PaymentMethod:  domain.PaymentMethod(r.PaymentMethod),
		Status:         domain.WithdrawalStatus(r.Status),
		AdminNote:      r.AdminNote,
		TasksCompleted: r.TasksCompleted,
		CreatedAt:      fromNanos(r.CreatedAt),
		ReviewedAt:     fromOptNanos(r.ReviewedAt),
	}
	repository.DecodeJSONColumn([]byte(r.PaymentDetails), &w.PaymentDetails, "withdrawals", "payment_details", r.ID)
	return w
}

func (r *paymentRow) toDomain() *domain.Payment {
	return &domain.Payment{
		ID:               r.ID,
		TransactionID:    r.TransactionID,
		UserID:           r.UserID,
		Gateway:          domain.Gateway(r.Gateway),
		GatewayReference: r.GatewayReference,
		Currency:         r.Currency,
		Amount:           r.Amount,
		Status:           domain.PaymentStatus(r.Status),
		PaymentMethod:    r.PaymentMethod,
		SenderInfo:       r.SenderInfo,
		PaymentURL:       r.PaymentURL,
		AdminNote:        r.AdminNote,
		CreatedAt:        fromNanos(r.CreatedAt),
		ReviewedAt:       fromOptNanos(r.ReviewedAt),
	}
}

func (r *kycRow) toDomain() *domain.KYCDocument {
	return &domain.KYCDocument{
		ID:               r.ID,
		UserID:           r.UserID,
		DocumentType:     domain.DocumentType(r.DocumentType),
		DocumentFrontURL: r.DocumentFrontURL,
		DocumentBackURL:  r.DocumentBackURL,
		SelfieURL:        r.SelfieURL,
		Status:           domain.KYCStatus(r.Status),
		AdminNote:        r.AdminNote,
		CreatedAt:        fromNanos(r.CreatedAt),
		ReviewedAt:       fromOptNanos(r.ReviewedAt),
	}
}

func (r *balanceEntryRow) toDomain() domain.BalanceEntry {
	return domain.BalanceEntry{
		ID:           r.ID,
		UserID:       r.UserID,
		Delta:        r.Delta,
		Reason:       r.Reason,
		RecordKey:    r.RecordKey,
		BalanceAfter: r.BalanceAfter,
		CreatedAt:    fromNanos(r.CreatedAt),
	}
}

func (r *auditRow) toDomain() domain.AuditLog {
	l := domain.AuditLog{
		ID:        r.ID,
		UserID:    r.UserID,
		ActorID:   r.ActorID,
		Action:    r.Action,
		Category:  r.Category,
		CreatedAt: fromNanos(r.CreatedAt),
	}
	if err := json.Unmarshal([]byte(r.Details), &l.Details); err != nil {
		l.Details = make(map[string]interface{})
	}
	return l
}
