package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type WithdrawalStatus string

const (
	WithdrawalStatusPending  WithdrawalStatus = "pending"
	WithdrawalStatusApproved WithdrawalStatus = "approved"
	WithdrawalStatusRejected WithdrawalStatus = "rejected"
)

// Withdrawal is the reviewable sub-record of a withdrawal transaction.
type Withdrawal struct {
	ID             int64             `db:"id" json:"id"`
	TransactionID  int64             `db:"transaction_id" json:"transaction_id"`
	UserID         int64             `db:"user_id" json:"user_id"`
	Amount         decimal.Decimal   `db:"amount" json:"amount"`
	PaymentMethod  PaymentMethod     `db:"payment_method" json:"payment_method"`
	PaymentDetails map[string]string `db:"payment_details" json:"payment_details"`
	Status         WithdrawalStatus  `db:"status" json:"status"`
	AdminNote      string            `db:"admin_note" json:"admin_note,omitempty"`
	TasksCompleted bool              `db:"tasks_completed" json:"tasks_completed"`
	CreatedAt      time.Time         `db:"created_at" json:"created_at"`
	ReviewedAt     *time.Time        `db:"reviewed_at" json:"reviewed_at,omitempty"`
}

// PaymentMethod is a payout channel for withdrawals.
type PaymentMethod string

const (
	MethodBankTransfer PaymentMethod = "bank_transfer"
	MethodBkash        PaymentMethod = "bkash"
	MethodNagad        PaymentMethod = "nagad"
	MethodCrypto       PaymentMethod = "crypto"
)

var requiredDetails = map[PaymentMethod][]string{
	MethodBankTransfer: {"account_name", "account_number", "bank_name"},
	MethodBkash:        {"phone"},
	MethodNagad:        {"phone"},
	MethodCrypto:       {"wallet_address", "network"},
}

// ValidatePaymentDetails checks the method is known and every required key is set.
func ValidatePaymentDetails(method PaymentMethod, details map[string]string) error {
	keys, ok := requiredDetails[method]
	if !ok {
		return NewValidationError("payment_method", "unsupported payment method "+string(method))
	}
	for _, k := range keys {
		if strings.TrimSpace(details[k]) == "" {
			return NewValidationError("payment_details."+k, "is required for "+string(method))
		}
	}
	return nil
}
