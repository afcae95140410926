package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Gateway string

const (
	GatewayCoinGate   Gateway = "coingate"
	GatewayUddoktaPay Gateway = "uddoktapay"
	GatewayManual     Gateway = "manual"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
)

// Payment is the reviewable sub-record of a deposit, manual or via a gateway.
type Payment struct {
	ID               int64           `db:"id" json:"id"`
	TransactionID    int64           `db:"transaction_id" json:"transaction_id"`
	UserID           int64           `db:"user_id" json:"user_id"`
	Gateway          Gateway         `db:"gateway" json:"gateway"`
	GatewayReference string          `db:"gateway_reference" json:"gateway_reference,omitempty"`
	Currency         string          `db:"currency" json:"currency"`
	Amount           decimal.Decimal `db:"amount" json:"amount"`
	Status           PaymentStatus   `db:"status" json:"status"`
	PaymentMethod    string          `db:"payment_method" json:"payment_method,omitempty"`
	SenderInfo       string          `db:"sender_info" json:"sender_info,omitempty"`
	PaymentURL       string          `db:"payment_url" json:"payment_url,omitempty"`
	AdminNote        string          `db:"admin_note" json:"admin_note,omitempty"`
	CreatedAt        time.Time       `db:"created_at" json:"created_at"`
	ReviewedAt       *time.Time      `db:"reviewed_at" json:"reviewed_at,omitempty"`
}
