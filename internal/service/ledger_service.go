package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"invest_platform/internal/domain"
	"invest_platform/internal/gateway"
	"invest_platform/internal/logger"
	"invest_platform/internal/repository"

	"github.com/shopspring/decimal"
)

// LedgerConfig carries the knobs the ledger needs from config.
type LedgerConfig struct {
	ReferralBonusPercent decimal.Decimal
	PublicBaseURL        string
	Currency             string
	// CallbackSecret is appended to invoice callback URLs as ?token=.
	CallbackSecret string
}

// Ledger creates pending financial records and applies immediate ledger effects.
type Ledger struct {
	store    repository.Store
	balance  *BalanceService
	limits   *LimitPolicy
	gate     *EligibilityGate
	audit    *AuditService
	gateways map[domain.Gateway]gateway.Client
	notifier Notifier
	cfg      LedgerConfig
	now      func() time.Time
	log      *slog.Logger
}

func NewLedger(store repository.Store, balance *BalanceService, limits *LimitPolicy, gate *EligibilityGate,
	audit *AuditService, gateways []gateway.Client, notifier Notifier, cfg LedgerConfig) *Ledger {
	gw := make(map[domain.Gateway]gateway.Client, len(gateways))
	for _, c := range gateways {
		gw[c.Name()] = c
	}
	if cfg.Currency == "" {
		cfg.Currency = "BDT"
	}
	if notifier == nil {
		notifier = Notifiers()
	}
	return &Ledger{
		store:    store,
		balance:  balance,
		limits:   limits,
		gate:     gate,
		audit:    audit,
		gateways: gw,
		notifier: notifier,
		cfg:      cfg,
		now:      time.Now,
		log:      logger.With("component", "ledger"),
	}
}

func checkBounds(plan *domain.Plan, amount decimal.Decimal) error {
	if !amount.IsPositive() || !plan.InBounds(amount) {
		min, max := plan.Bounds()
		return fmt.Errorf("%w: must be between %s and %s", domain.ErrInvalidAmount, min.String(), max.String())
	}
	return nil
}

// SubmitWithdrawal validates and records a withdrawal request, reserving its amount.
func (l *Ledger) SubmitWithdrawal(ctx context.Context, userID int64, amount decimal.Decimal, method domain.PaymentMethod, details map[string]string) (*domain.Withdrawal, error) {
	var w *domain.Withdrawal
	err := l.store.InTx(ctx, func(tx repository.Store) error {
		u, err := tx.LockUser(ctx, userID)
		if err != nil {
			return err
		}
		plan, err := planFor(ctx, tx, u)
		if err != nil {
			return err
		}

		if err := checkBounds(plan, amount); err != nil {
			return err
		}
		if err := domain.ValidatePaymentDetails(method, details); err != nil {
			return err
		}

		elig, err := l.gate.check(ctx, tx, u)
		if err != nil {
			return err
		}
		if !elig.Allowed {
			return &domain.EligibilityError{Reason: elig.Reason}
		}

		if err := l.limits.checkLimit(ctx, tx, u, domain.LimitWithdrawal, amount, l.now()); err != nil {
			return err
		}
		if u.Balance.LessThan(amount) {
			return domain.ErrInsufficientBalance
		}

		t := &domain.Transaction{
			UserID: userID,
			Amount: amount,
			Type:   domain.TxTypeWithdrawal,
			Status: domain.TxStatusPending,
			Meta:   map[string]interface{}{"payment_method": string(method)},
		}
		if err := tx.CreateTransaction(ctx, t); err != nil {
			return err
		}

		w = &domain.Withdrawal{
			TransactionID:  t.ID,
			UserID:         userID,
			Amount:         amount,
			PaymentMethod:  method,
			PaymentDetails: details,
			Status:         domain.WithdrawalStatusPending,
			TasksCompleted: elig.CompletedMandatory >= elig.TotalMandatory,
		}
		if err := tx.CreateWithdrawal(ctx, w); err != nil {
			return err
		}
		if err := tx.LinkTransaction(ctx, t.ID, &w.ID, nil); err != nil {
			return err
		}

		_, err = l.balance.ReserveTx(ctx, tx, userID, amount, reserveKey(w.ID))
		return err
	})
	Submissions.WithLabelValues("withdrawal", outcome(err)).Inc()
	if err != nil {
		l.log.Info("withdrawal refused", "user_id", userID, "amount", amount.String(), "error", err)
		return nil, err
	}

	l.submitted(ctx, userID, domain.RecordWithdrawal, w.ID, amount)
	return w, nil
}

// SubmitManualDeposit records a deposit the user says they sent out of band.
func (l *Ledger) SubmitManualDeposit(ctx context.Context, userID int64, amount decimal.Decimal, transactionRef, paymentMethod, senderInfo string) (*domain.Payment, error) {
	transactionRef = strings.TrimSpace(transactionRef)

	var p *domain.Payment
	err := l.store.InTx(ctx, func(tx repository.Store) error {
		u, err := tx.LockUser(ctx, userID)
		if err != nil {
			return err
		}
		plan, err := planFor(ctx, tx, u)
		if err != nil {
			return err
		}
		if err := checkBounds(plan, amount); err != nil {
			return err
		}

		if transactionRef == "" {
			return domain.NewValidationError("transaction_ref", "is required")
		}
		if strings.TrimSpace(paymentMethod) == "" {
			return domain.NewValidationError("payment_method", "is required")
		}
		dup, err := tx.ManualReferenceExists(ctx, transactionRef)
		if err != nil {
			return err
		}
		if dup {
			return domain.NewValidationError("transaction_ref", "was already submitted")
		}

		if err := l.limits.checkLimit(ctx, tx, u, domain.LimitDeposit, amount, l.now()); err != nil {
			return err
		}

		p, err = l.createDeposit(ctx, tx, &domain.Payment{
			UserID:           userID,
			Gateway:          domain.GatewayManual,
			GatewayReference: transactionRef,
			Currency:         l.cfg.Currency,
			Amount:           amount,
			PaymentMethod:    paymentMethod,
			SenderInfo:       senderInfo,
		})
		return err
	})
	Submissions.WithLabelValues("manual_deposit", outcome(err)).Inc()
	if err != nil {
		l.log.Info("manual deposit refused", "user_id", userID, "amount", amount.String(), "error", err)
		return nil, err
	}

	l.submitted(ctx, userID, domain.RecordPayment, p.ID, amount)
	return p, nil
}

// SubmitGatewayDeposit records a pending deposit and opens a checkout with the gateway.
func (l *Ledger) SubmitGatewayDeposit(ctx context.Context, userID int64, amount decimal.Decimal, gw domain.Gateway) (*domain.Payment, string, error) {
	client, ok := l.gateways[gw]
	if !ok {
		Submissions.WithLabelValues("gateway_deposit", "ValidationError").Inc()
		return nil, "", domain.NewValidationError("gateway", "unsupported gateway "+string(gw))
	}

	var (
		p *domain.Payment
		u *domain.User
	)
	err := l.store.InTx(ctx, func(tx repository.Store) error {
		var err error
		u, err = tx.LockUser(ctx, userID)
		if err != nil {
			return err
		}
		plan, err := planFor(ctx, tx, u)
		if err != nil {
			return err
		}
		if err := checkBounds(plan, amount); err != nil {
			return err
		}
		if err := l.limits.checkLimit(ctx, tx, u, domain.LimitDeposit, amount, l.now()); err != nil {
			return err
		}

		p, err = l.createDeposit(ctx, tx, &domain.Payment{
			UserID:   userID,
			Gateway:  gw,
			Currency: l.cfg.Currency,
			Amount:   amount,
		})
		return err
	})
	if err != nil {
		Submissions.WithLabelValues("gateway_deposit", outcome(err)).Inc()
		return nil, "", err
	}

	// network call stays outside the store transaction
	base := strings.TrimRight(l.cfg.PublicBaseURL, "/")
	inv, err := client.CreateInvoice(ctx, gateway.InvoiceRequest{
		PaymentID:     p.ID,
		OrderID:       strconv.FormatInt(p.ID, 10),
		Amount:        amount,
		Currency:      p.Currency,
		CallbackURL:   l.callbackURL(base, gw),
		SuccessURL:    base + "/deposits/success",
		CancelURL:     base + "/deposits/cancel",
		CustomerName:  u.Username,
		CustomerEmail: u.Email,
	})
	if err != nil {
		Submissions.WithLabelValues("gateway_deposit", "gateway_error").Inc()
		l.log.Error("create invoice failed", "payment_id", p.ID, "gateway", gw, "error", err)
		l.abandonPayment(ctx, p, "gateway_error")
		return nil, "", fmt.Errorf("create invoice: %w", err)
	}

	if err := l.store.SetPaymentInvoice(ctx, p.ID, inv.Reference, inv.PaymentURL); err != nil {
		return nil, "", err
	}
	p.GatewayReference, p.PaymentURL = inv.Reference, inv.PaymentURL

	Submissions.WithLabelValues("gateway_deposit", "ok").Inc()
	l.submitted(ctx, userID, domain.RecordPayment, p.ID, amount)
	return p, inv.PaymentURL, nil
}

// callbackURL is where the provider reports the outcome. Providers cannot add
// headers, so the shared secret travels in the query.
func (l *Ledger) callbackURL(base string, gw domain.Gateway) string {
	u := base + "/api/v1/callbacks/" + string(gw)
	if l.cfg.CallbackSecret != "" {
		u += "?token=" + url.QueryEscape(l.cfg.CallbackSecret)
	}
	return u
}

func (l *Ledger) createDeposit(ctx context.Context, tx repository.Store, p *domain.Payment) (*domain.Payment, error) {
	t := &domain.Transaction{
		UserID: p.UserID,
		Amount: p.Amount,
		Type:   domain.TxTypeDeposit,
		Status: domain.TxStatusPending,
		Meta:   map[string]interface{}{"gateway": string(p.Gateway)},
	}
	if err := tx.CreateTransaction(ctx, t); err != nil {
		return nil, err
	}

	p.TransactionID = t.ID
	p.Status = domain.PaymentStatusPending
	if err := tx.CreatePayment(ctx, p); err != nil {
		return nil, err
	}
	if err := tx.LinkTransaction(ctx, t.ID, nil, &p.ID); err != nil {
		return nil, err
	}
	return p, nil
}

// abandonPayment fails a payment whose invoice could not be opened.
func (l *Ledger) abandonPayment(ctx context.Context, p *domain.Payment, note string) {
	err := l.store.InTx(ctx, func(tx repository.Store) error {
		if err := tx.FinalizePayment(ctx, p.ID, domain.PaymentStatusFailed, note, l.now()); err != nil {
			return err
		}
		return tx.FinalizeTransaction(ctx, p.TransactionID, domain.TxStatusRejected)
	})
	if err != nil {
		l.log.Error("failed to abandon payment", "payment_id", p.ID, "error", err)
	}
}

// SubmitKYC records an identity verification submission.
func (l *Ledger) SubmitKYC(ctx context.Context, userID int64, docType domain.DocumentType, frontURL, backURL, selfieURL string) (*domain.KYCDocument, error) {
	frontURL, backURL, selfieURL = strings.TrimSpace(frontURL), strings.TrimSpace(backURL), strings.TrimSpace(selfieURL)

	var d *domain.KYCDocument
	err := l.store.InTx(ctx, func(tx repository.Store) error {
		if _, err := tx.LockUser(ctx, userID); err != nil {
			return err
		}

		switch {
		case !docType.Valid():
			return domain.NewValidationError("document_type", "must be id_card, passport or driving_license")
		case frontURL == "":
			return domain.NewValidationError("document_front", "is required")
		case selfieURL == "":
			return domain.NewValidationError("selfie", "is required")
		case docType == domain.DocumentIDCard && backURL == "":
			return domain.NewValidationError("document_back", "is required for id_card")
		}

		latest, err := tx.LatestKYC(ctx, userID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		if latest != nil {
			switch latest.Status {
			case domain.KYCStatusPending:
				return domain.NewValidationError("kyc", "a submission is already under review")
			case domain.KYCStatusApproved:
				return domain.NewValidationError("kyc", "identity is already verified")
			}
		}

		d = &domain.KYCDocument{
			UserID:           userID,
			DocumentType:     docType,
			DocumentFrontURL: frontURL,
			DocumentBackURL:  backURL,
			SelfieURL:        selfieURL,
			Status:           domain.KYCStatusPending,
		}
		return tx.CreateKYC(ctx, d)
	})
	Submissions.WithLabelValues("kyc", outcome(err)).Inc()
	if err != nil {
		return nil, err
	}

	l.submitted(ctx, userID, domain.RecordKYC, d.ID, decimal.Zero)
	return d, nil
}

// CreditProfit credits a completed bonus or referral profit, capped by the daily profit limit.
func (l *Ledger) CreditProfit(ctx context.Context, userID int64, amount decimal.Decimal, txType domain.TransactionType, note string) (*domain.Transaction, error) {
	if txType != domain.TxTypeBonus && txType != domain.TxTypeReferralProfit {
		return nil, domain.NewValidationError("type", "must be bonus or referral_profit")
	}
	if !amount.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}

	var t *domain.Transaction
	err := l.store.InTx(ctx, func(tx repository.Store) error {
		u, err := tx.LockUser(ctx, userID)
		if err != nil {
			return err
		}
		if err := l.limits.checkLimit(ctx, tx, u, domain.LimitProfit, amount, l.now()); err != nil {
			return err
		}
		t, err = l.creditCompleted(ctx, tx, userID, amount, txType, map[string]interface{}{"note": note})
		return err
	})
	Submissions.WithLabelValues(string(txType), outcome(err)).Inc()
	if err != nil {
		return nil, err
	}

	l.audit.LogBalanceChange(ctx, userID, amount, string(txType), map[string]interface{}{"transaction_id": t.ID, "note": note})
	return t, nil
}

func (l *Ledger) creditCompleted(ctx context.Context, tx repository.Store, userID int64, amount decimal.Decimal, txType domain.TransactionType, meta map[string]interface{}) (*domain.Transaction, error) {
	t := &domain.Transaction{
		UserID: userID,
		Amount: amount,
		Type:   txType,
		Status: domain.TxStatusCompleted,
		Meta:   meta,
	}
	if err := tx.CreateTransaction(ctx, t); err != nil {
		return nil, err
	}
	if _, err := l.balance.ApplyDeltaTx(ctx, tx, userID, amount, ReasonProfit, txKey(t.ID)); err != nil {
		return nil, err
	}
	return t, nil
}

// PurchasePlan debits the plan price, switches the user's plan and pays the referrer's bonus.
func (l *Ledger) PurchasePlan(ctx context.Context, userID, planID int64) (*domain.Plan, error) {
	var (
		plan  *domain.Plan
		bonus decimal.Decimal
		refID int64
	)
	err := l.store.InTx(ctx, func(tx repository.Store) error {
		u, err := tx.LockUser(ctx, userID)
		if err != nil {
			return err
		}
		plan, err = tx.GetPlan(ctx, planID)
		if err != nil {
			return err
		}
		if u.PlanID != nil && *u.PlanID == planID {
			return domain.NewValidationError("plan_id", "already on this plan")
		}
		if u.Balance.LessThan(plan.Price) {
			return domain.ErrInsufficientBalance
		}

		if plan.Price.IsPositive() {
			t := &domain.Transaction{
				UserID: userID,
				Amount: plan.Price,
				Type:   domain.TxTypePlanPurchase,
				Status: domain.TxStatusCompleted,
				Meta:   map[string]interface{}{"plan_id": plan.ID, "plan_name": plan.Name},
			}
			if err := tx.CreateTransaction(ctx, t); err != nil {
				return err
			}
			if _, err := l.balance.ApplyDeltaTx(ctx, tx, userID, plan.Price.Neg(), ReasonPlanPurchase, txKey(t.ID)); err != nil {
				return err
			}
		}
		if err := tx.SetUserPlan(ctx, userID, plan.ID); err != nil {
			return err
		}

		if u.ReferredBy == nil || !plan.Price.IsPositive() || !l.cfg.ReferralBonusPercent.IsPositive() {
			return nil
		}
		refID = *u.ReferredBy
		bonus, err = l.referralBonus(ctx, tx, refID, userID, plan)
		return err
	})
	Submissions.WithLabelValues("plan_purchase", outcome(err)).Inc()
	if err != nil {
		return nil, err
	}

	l.audit.Log(ctx, userID, domain.AuditActionPlanPurchase, domain.AuditCategoryBalance, map[string]interface{}{
		"plan_id": plan.ID,
		"price":   plan.Price.String(),
	})
	if bonus.IsPositive() {
		l.audit.LogBalanceChange(ctx, refID, bonus, string(domain.TxTypeReferralBonus), map[string]interface{}{"referred_user_id": userID})
	}
	return plan, nil
}

// referralBonus credits the referrer, clamped to their remaining profit limit.
func (l *Ledger) referralBonus(ctx context.Context, tx repository.Store, referrerID, buyerID int64, plan *domain.Plan) (decimal.Decimal, error) {
	ref, err := tx.LockUser(ctx, referrerID)
	if errors.Is(err, domain.ErrNotFound) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, err
	}

	bonus := plan.Price.Mul(l.cfg.ReferralBonusPercent).Div(decimal.NewFromInt(100)).Round(2)
	status, err := l.limits.remaining(ctx, tx, ref, domain.LimitProfit, l.now())
	if err != nil {
		return decimal.Zero, err
	}
	bonus = decimal.Min(bonus, status.RemainingLimit)
	if !bonus.IsPositive() {
		l.log.Info("referral bonus skipped, profit limit reached", "referrer_id", referrerID)
		return decimal.Zero, nil
	}

	_, err = l.creditCompleted(ctx, tx, referrerID, bonus, domain.TxTypeReferralBonus, map[string]interface{}{
		"referred_user_id": buyerID,
		"plan_id":          plan.ID,
	})
	return bonus, err
}

func (l *Ledger) submitted(ctx context.Context, userID int64, rt domain.RecordType, id int64, amount decimal.Decimal) {
	l.audit.LogSubmission(ctx, userID, rt, id, amount)
	l.notifier.Notify(ctx, domain.StatusEvent{
		UserID:     userID,
		RecordType: rt,
		RecordID:   id,
		Status:     "pending",
		At:         l.now(),
	})
}
