// Package gateway holds the hosted-checkout clients used for gateway deposits.
package gateway

import (
	"context"
	"errors"
	"strings"

	"invest_platform/internal/domain"

	"github.com/shopspring/decimal"
)

var ErrGatewayUnavailable = errors.New("payment gateway unavailable")

// InvoiceRequest describes the checkout to open for one pending payment.
type InvoiceRequest struct {
	PaymentID     int64
	OrderID       string
	Amount        decimal.Decimal
	Currency      string
	CallbackURL   string
	SuccessURL    string
	CancelURL     string
	CustomerName  string
	CustomerEmail string
}

// Invoice is what the gateway hands back: its reference and the checkout page.
type Invoice struct {
	Reference  string
	PaymentURL string
}

// Client opens invoices on one provider.
type Client interface {
	Name() domain.Gateway
	CreateInvoice(ctx context.Context, req InvoiceRequest) (*Invoice, error)
}

// Callback is a provider notification normalized for the engine.
type Callback struct {
	PaymentID int64
	Status    string
	Reference string
}

// Outcome classifies a provider status. ok is false for statuses that are not final.
func Outcome(status string) (approved bool, ok bool) {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "paid", "completed", "confirmed":
		return true, true
	case "failed", "canceled", "cancelled", "expired", "invalid":
		return false, true
	}
	return false, false
}
