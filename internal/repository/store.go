package repository

import (
	"context"
	"time"

	"invest_platform/internal/domain"

	"github.com/shopspring/decimal"
)

// Store is the persistence contract the engine runs against. Implementations
// return domain.ErrNotFound for missing rows and domain.ErrAlreadyFinalized
// when a conditional transition finds the record out of pending.
//
// Every method called on the Store passed to InTx's callback runs inside that
// transaction. Callbacks must not use the outer Store.
type Store interface {
	InTx(ctx context.Context, fn func(tx Store) error) error

	// users
	CreateUser(ctx context.Context, u *domain.User) error
	GetUser(ctx context.Context, id int64) (*domain.User, error)
	// LockUser reads the user row and holds it until the transaction ends.
	LockUser(ctx context.Context, id int64) (*domain.User, error)
	GetUserByReferralCode(ctx context.Context, code string) (*domain.User, error)
	SetUserBlocked(ctx context.Context, id int64, blocked bool) error
	SetUserKYCVerified(ctx context.Context, id int64, verified bool) error
	SetUserPlan(ctx context.Context, id int64, planID int64) error
	// SetUserBalance is reserved for the balance service.
	SetUserBalance(ctx context.Context, id int64, balance decimal.Decimal) error

	// balance journal
	InsertBalanceEntry(ctx context.Context, e *domain.BalanceEntry) (inserted bool, err error)
	ListBalanceEntries(ctx context.Context, userID int64, limit int) ([]domain.BalanceEntry, error)

	// plans
	CreatePlan(ctx context.Context, p *domain.Plan) error
	GetPlan(ctx context.Context, id int64) (*domain.Plan, error)
	GetDefaultPlan(ctx context.Context) (*domain.Plan, error)
	ListPlans(ctx context.Context) ([]domain.Plan, error)

	// ledger
	CreateTransaction(ctx context.Context, t *domain.Transaction) error
	GetTransaction(ctx context.Context, id int64) (*domain.Transaction, error)
	LinkTransaction(ctx context.Context, id int64, withdrawalID, paymentID *int64) error
	FinalizeTransaction(ctx context.Context, id int64, status domain.TransactionStatus) error
	ListTransactions(ctx context.Context, userID int64, limit int) ([]domain.Transaction, error)
	SumTransactions(ctx context.Context, f domain.TxFilter) (decimal.Decimal, error)

	// withdrawals
	CreateWithdrawal(ctx context.Context, w *domain.Withdrawal) error
	GetWithdrawal(ctx context.Context, id int64) (*domain.Withdrawal, error)
	LockWithdrawal(ctx context.Context, id int64) (*domain.Withdrawal, error)
	FinalizeWithdrawal(ctx context.Context, id int64, status domain.WithdrawalStatus, note string, at time.Time) error
	ListWithdrawals(ctx context.Context, userID int64, limit int) ([]domain.Withdrawal, error)
	ListPendingWithdrawals(ctx context.Context, limit int) ([]domain.Withdrawal, error)
	SumWithdrawals(ctx context.Context, userID int64, statuses []domain.WithdrawalStatus, from, to time.Time) (decimal.Decimal, error)

	// payments
	CreatePayment(ctx context.Context, p *domain.Payment) error
	GetPayment(ctx context.Context, id int64) (*domain.Payment, error)
	LockPayment(ctx context.Context, id int64) (*domain.Payment, error)
	SetPaymentInvoice(ctx context.Context, id int64, reference, url string) error
	FinalizePayment(ctx context.Context, id int64, status domain.PaymentStatus, note string, at time.Time) error
	ManualReferenceExists(ctx context.Context, reference string) (bool, error)
	ListPayments(ctx context.Context, userID int64, limit int) ([]domain.Payment, error)
	ListPendingPayments(ctx context.Context, limit int) ([]domain.Payment, error)
	ListStaleGatewayPayments(ctx context.Context, before time.Time, limit int) ([]domain.Payment, error)

	// kyc
	CreateKYC(ctx context.Context, d *domain.KYCDocument) error
	GetKYC(ctx context.Context, id int64) (*domain.KYCDocument, error)
	LockKYC(ctx context.Context, id int64) (*domain.KYCDocument, error)
	LatestKYC(ctx context.Context, userID int64) (*domain.KYCDocument, error)
	FinalizeKYC(ctx context.Context, id int64, status domain.KYCStatus, note string, at time.Time) error
	ListPendingKYC(ctx context.Context, limit int) ([]domain.KYCDocument, error)

	// tasks
	CreateTask(ctx context.Context, t *domain.Task) error
	CompleteTask(ctx context.Context, userID, taskID int64) error
	TaskProgress(ctx context.Context, userID int64) (domain.TaskProgress, error)

	// audit
	CreateAudit(ctx context.Context, l *domain.AuditLog) error
	ListAudit(ctx context.Context, userID int64, limit int) ([]domain.AuditLog, error)

	// stats
	Stats(ctx context.Context, since time.Time) (*Stats, error)
}

// Stats summarizes platform state for admins.
type Stats struct {
	TotalUsers          int64           `json:"total_users"`
	BlockedUsers        int64           `json:"blocked_users"`
	TotalBalance        decimal.Decimal `json:"total_balance"`
	PendingWithdrawals  int64           `json:"pending_withdrawals"`
	PendingPayments     int64           `json:"pending_payments"`
	PendingKYC          int64           `json:"pending_kyc"`
	DepositedSince      decimal.Decimal `json:"deposited_since"`
	WithdrawnSince      decimal.Decimal `json:"withdrawn_since"`
	ReservedWithdrawals decimal.Decimal `json:"reserved_withdrawals"`
}
