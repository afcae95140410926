package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"invest_platform/internal/domain"
)

const uddoktaPayKeyHeader = "RT-UDDOKTAPAY-API-KEY"

// UddoktaPay is an UddoktaPay checkout API client
type UddoktaPay struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewUddoktaPay creates a new UddoktaPay client
func NewUddoktaPay(baseURL, apiKey string) *UddoktaPay {
	return &UddoktaPay{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *UddoktaPay) Name() domain.Gateway { return domain.GatewayUddoktaPay }

type uddoktaCheckoutRequest struct {
	FullName    string            `json:"full_name"`
	Email       string            `json:"email"`
	Amount      string            `json:"amount"`
	Metadata    map[string]string `json:"metadata"`
	RedirectURL string            `json:"redirect_url"`
	CancelURL   string            `json:"cancel_url"`
	WebhookURL  string            `json:"webhook_url"`
}

type uddoktaCheckoutResponse struct {
	Status     bool   `json:"status"`
	Message    string `json:"message"`
	PaymentURL string `json:"payment_url"`
}

// CreateInvoice opens a checkout. The invoice id is the last path segment of the payment URL.
func (c *UddoktaPay) CreateInvoice(ctx context.Context, in InvoiceRequest) (*Invoice, error) {
	body, err := json.Marshal(uddoktaCheckoutRequest{
		FullName: in.CustomerName,
		Email:    in.CustomerEmail,
		Amount:   in.Amount.StringFixed(2),
		Metadata: map[string]string{
			"payment_id": strconv.FormatInt(in.PaymentID, 10),
			"order_id":   in.OrderID,
		},
		RedirectURL: in.SuccessURL,
		CancelURL:   in.CancelURL,
		WebhookURL:  in.CallbackURL,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/checkout-v2", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(uddoktaPayKeyHeader, c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: uddoktapay %s - %s", ErrGatewayUnavailable, resp.Status, string(b))
	}

	var out uddoktaCheckoutResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	if !out.Status || out.PaymentURL == "" {
		return nil, fmt.Errorf("%w: uddoktapay: %s", ErrGatewayUnavailable, out.Message)
	}

	return &Invoice{
		Reference:  path.Base(strings.TrimRight(out.PaymentURL, "/")),
		PaymentURL: out.PaymentURL,
	}, nil
}

type uddoktaWebhook struct {
	InvoiceID string            `json:"invoice_id"`
	Status    string            `json:"status"`
	Metadata  map[string]string `json:"metadata"`
}

// ParseUddoktaPayCallback reads an UddoktaPay webhook body.
func ParseUddoktaPayCallback(body []byte) (*Callback, error) {
	var hook uddoktaWebhook
	if err := json.Unmarshal(body, &hook); err != nil {
		return nil, domain.NewValidationError("body", "invalid json")
	}
	paymentID, err := strconv.ParseInt(hook.Metadata["payment_id"], 10, 64)
	if err != nil {
		return nil, domain.NewValidationError("metadata.payment_id", "must be a payment id")
	}
	if hook.InvoiceID == "" || hook.Status == "" {
		return nil, domain.NewValidationError("status", "invoice_id and status are required")
	}
	return &Callback{
		PaymentID: paymentID,
		Status:    hook.Status,
		Reference: hook.InvoiceID,
	}, nil
}
