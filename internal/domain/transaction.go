package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TxTypeDeposit        TransactionType = "deposit"
	TxTypeWithdrawal     TransactionType = "withdrawal"
	TxTypeBonus          TransactionType = "bonus"
	TxTypeReferralBonus  TransactionType = "referral_bonus"
	TxTypePlanPurchase   TransactionType = "plan_purchase"
	TxTypeReferralProfit TransactionType = "referral_profit"
)

// IsCredit reports whether a completed transaction of this type adds to the balance.
func (t TransactionType) IsCredit() bool {
	switch t {
	case TxTypeDeposit, TxTypeBonus, TxTypeReferralBonus, TxTypeReferralProfit:
		return true
	}
	return false
}

// ProfitTypes are the transaction types counted against the daily profit limit.
var ProfitTypes = []TransactionType{TxTypeBonus, TxTypeReferralBonus, TxTypeReferralProfit}

type TransactionStatus string

const (
	TxStatusPending   TransactionStatus = "pending"
	TxStatusCompleted TransactionStatus = "completed"
	TxStatusRejected  TransactionStatus = "rejected"
)

// Transaction is a ledger entry. Its status only ever moves out of pending once.
type Transaction struct {
	ID           int64                  `db:"id" json:"id"`
	UserID       int64                  `db:"user_id" json:"user_id"`
	Amount       decimal.Decimal        `db:"amount" json:"amount"`
	Type         TransactionType        `db:"type" json:"type"`
	Status       TransactionStatus      `db:"status" json:"status"`
	WithdrawalID *int64                 `db:"withdrawal_id" json:"withdrawal_id,omitempty"`
	PaymentID    *int64                 `db:"payment_id" json:"payment_id,omitempty"`
	Meta         map[string]interface{} `db:"meta" json:"meta,omitempty"`
	CreatedAt    time.Time              `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time              `db:"updated_at" json:"updated_at"`
}

// TxFilter narrows ledger sums to a user, types, statuses and a time window.
type TxFilter struct {
	UserID   int64
	Types    []TransactionType
	Statuses []TransactionStatus
	From     time.Time
	To       time.Time
}

// BalanceEntry journals one applied balance delta. RecordKey is unique, which
// makes a retried delta for the same record a no-op.
type BalanceEntry struct {
	ID           int64           `db:"id" json:"id"`
	UserID       int64           `db:"user_id" json:"user_id"`
	Delta        decimal.Decimal `db:"delta" json:"delta"`
	Reason       string          `db:"reason" json:"reason"`
	RecordKey    string          `db:"record_key" json:"record_key"`
	BalanceAfter decimal.Decimal `db:"balance_after" json:"balance_after"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
}
