package service

import (
	"context"
	"time"

	"invest_platform/internal/domain"
	"invest_platform/internal/gateway"
	"invest_platform/internal/repository"

	"github.com/shopspring/decimal"
)

// EngineConfig wires the engine's policy knobs.
type EngineConfig struct {
	Location             *time.Location
	ReferralBonusPercent decimal.Decimal
	PublicBaseURL        string
	Currency             string
	CallbackSecret       string
}

// Engine is the single entry point transports call into.
type Engine struct {
	Store       repository.Store
	Balance     *BalanceService
	Limits      *LimitPolicy
	Eligibility *EligibilityGate
	Ledger      *Ledger
	Approvals   *ApprovalService
	Admin       *AdminService
	Audit       *AuditService

	notifiers []Notifier
}

func NewEngine(store repository.Store, gateways []gateway.Client, cfg EngineConfig) *Engine {
	e := &Engine{Store: store}

	// notifiers are attached later; route through the engine so late subscribers still fire
	notify := NotifierFunc(func(ctx context.Context, ev domain.StatusEvent) {
		for _, n := range e.notifiers {
			n.Notify(ctx, ev)
		}
	})

	e.Audit = NewAuditService(store)
	e.Balance = NewBalanceService(store)
	e.Limits = NewLimitPolicy(store, cfg.Location)
	e.Eligibility = NewEligibilityGate(store)
	e.Ledger = NewLedger(store, e.Balance, e.Limits, e.Eligibility, e.Audit, gateways, notify, LedgerConfig{
		ReferralBonusPercent: cfg.ReferralBonusPercent,
		PublicBaseURL:        cfg.PublicBaseURL,
		Currency:             cfg.Currency,
		CallbackSecret:       cfg.CallbackSecret,
	})
	e.Approvals = NewApprovalService(store, e.Balance, e.Audit, notify)
	e.Admin = NewAdminService(store, e.Audit, cfg.Location)
	return e
}

// Subscribe adds a notifier for status events. Call before serving traffic.
func (e *Engine) Subscribe(n Notifier) {
	if n != nil {
		e.notifiers = append(e.notifiers, n)
	}
}

// SetClock overrides the time source of every component.
func (e *Engine) SetClock(now func() time.Time) {
	e.Ledger.now = now
	e.Approvals.now = now
	e.Admin.now = now
}

func (e *Engine) SubmitWithdrawal(ctx context.Context, userID int64, amount decimal.Decimal, method domain.PaymentMethod, details map[string]string) (*domain.Withdrawal, error) {
	return e.Ledger.SubmitWithdrawal(ctx, userID, amount, method, details)
}

func (e *Engine) SubmitManualDeposit(ctx context.Context, userID int64, amount decimal.Decimal, transactionRef, paymentMethod, senderInfo string) (*domain.Payment, error) {
	return e.Ledger.SubmitManualDeposit(ctx, userID, amount, transactionRef, paymentMethod, senderInfo)
}

func (e *Engine) SubmitGatewayDeposit(ctx context.Context, userID int64, amount decimal.Decimal, gw domain.Gateway) (*domain.Payment, string, error) {
	return e.Ledger.SubmitGatewayDeposit(ctx, userID, amount, gw)
}

func (e *Engine) GatewayCallback(ctx context.Context, paymentID int64, status, reference string) (*domain.StatusEvent, error) {
	return e.Approvals.GatewayCallback(ctx, paymentID, status, reference)
}

func (e *Engine) SubmitKYC(ctx context.Context, userID int64, docType domain.DocumentType, frontURL, backURL, selfieURL string) (*domain.KYCDocument, error) {
	return e.Ledger.SubmitKYC(ctx, userID, docType, frontURL, backURL, selfieURL)
}

func (e *Engine) Approve(ctx context.Context, rt domain.RecordType, id int64, note string) (*domain.StatusEvent, error) {
	return e.Approvals.Approve(ctx, rt, id, note)
}

func (e *Engine) Reject(ctx context.Context, rt domain.RecordType, id int64, reason string) (*domain.StatusEvent, error) {
	return e.Approvals.Reject(ctx, rt, id, reason)
}

func (e *Engine) GetRemainingLimit(ctx context.Context, userID int64, kind domain.LimitKind, asOf time.Time) (domain.LimitStatus, error) {
	return e.Limits.Remaining(ctx, userID, kind, asOf)
}

func (e *Engine) GetEligibility(ctx context.Context, userID int64) (domain.Eligibility, error) {
	return e.Eligibility.CanWithdraw(ctx, userID)
}

func (e *Engine) CompleteTask(ctx context.Context, userID, taskID int64) (domain.Eligibility, error) {
	return e.Eligibility.CompleteTask(ctx, userID, taskID)
}

func (e *Engine) CreditProfit(ctx context.Context, userID int64, amount decimal.Decimal, txType domain.TransactionType, note string) (*domain.Transaction, error) {
	return e.Ledger.CreditProfit(ctx, userID, amount, txType, note)
}

func (e *Engine) PurchasePlan(ctx context.Context, userID, planID int64) (*domain.Plan, error) {
	return e.Ledger.PurchasePlan(ctx, userID, planID)
}

func (e *Engine) ExpireStalePayments(ctx context.Context, olderThan time.Duration) (int, error) {
	return e.Approvals.ExpireStalePayments(ctx, olderThan)
}

func (e *Engine) Reconcile(ctx context.Context, userID int64) (*Reconciliation, error) {
	return e.Balance.Reconcile(ctx, userID)
}
