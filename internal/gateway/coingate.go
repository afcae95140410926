package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"invest_platform/internal/domain"
)

// CoinGate is a CoinGate v2 orders API client
type CoinGate struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewCoinGate creates a new CoinGate client
func NewCoinGate(baseURL, token string) *CoinGate {
	return &CoinGate{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *CoinGate) Name() domain.Gateway { return domain.GatewayCoinGate }

type coinGateOrder struct {
	ID         int64  `json:"id"`
	Status     string `json:"status"`
	PaymentURL string `json:"payment_url"`
	OrderID    string `json:"order_id"`
}

// CreateInvoice creates an order and returns its checkout URL
func (c *CoinGate) CreateInvoice(ctx context.Context, in InvoiceRequest) (*Invoice, error) {
	form := url.Values{}
	form.Set("order_id", in.OrderID)
	form.Set("price_amount", in.Amount.StringFixed(2))
	form.Set("price_currency", in.Currency)
	form.Set("receive_currency", in.Currency)
	form.Set("title", fmt.Sprintf("Deposit #%d", in.PaymentID))
	form.Set("callback_url", in.CallbackURL)
	form.Set("success_url", in.SuccessURL)
	form.Set("cancel_url", in.CancelURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/orders", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Token "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: coingate %s - %s", ErrGatewayUnavailable, resp.Status, string(body))
	}

	var order coinGateOrder
	if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
		return nil, err
	}
	if order.PaymentURL == "" {
		return nil, fmt.Errorf("%w: coingate returned no payment url", ErrGatewayUnavailable)
	}

	return &Invoice{
		Reference:  strconv.FormatInt(order.ID, 10),
		PaymentURL: order.PaymentURL,
	}, nil
}

// ParseCoinGateCallback reads CoinGate's form-encoded callback body.
func ParseCoinGateCallback(form url.Values) (*Callback, error) {
	paymentID, err := strconv.ParseInt(form.Get("order_id"), 10, 64)
	if err != nil {
		return nil, domain.NewValidationError("order_id", "must be a payment id")
	}
	if form.Get("id") == "" || form.Get("status") == "" {
		return nil, domain.NewValidationError("status", "id and status are required")
	}
	return &Callback{
		PaymentID: paymentID,
		Status:    form.Get("status"),
		Reference: form.Get("id"),
	}, nil
}
