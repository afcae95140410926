package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"invest_platform/internal/domain"
	"invest_platform/internal/repository"

	"github.com/shopspring/decimal"
)

// LimitPolicy answers how much of a plan's daily limit a user has left.
type LimitPolicy struct {
	store repository.Store
	loc   *time.Location
}

func NewLimitPolicy(store repository.Store, loc *time.Location) *LimitPolicy {
	if loc == nil {
		loc = time.UTC
	}
	return &LimitPolicy{store: store, loc: loc}
}

// DayWindow returns [start of asOf's day in loc, start of the next day).
func DayWindow(asOf time.Time, loc *time.Location) (from, to time.Time) {
	y, m, d := asOf.In(loc).Date()
	from = time.Date(y, m, d, 0, 0, 0, 0, loc)
	return from, from.AddDate(0, 0, 1)
}

// Remaining reports the user's remaining daily limit for kind on asOf's day.
func (p *LimitPolicy) Remaining(ctx context.Context, userID int64, kind domain.LimitKind, asOf time.Time) (domain.LimitStatus, error) {
	if !kind.Valid() {
		return domain.LimitStatus{}, domain.NewValidationError("kind", "must be deposit, withdrawal or profit")
	}
	u, err := p.store.GetUser(ctx, userID)
	if err != nil {
		return domain.LimitStatus{}, err
	}
	return p.remaining(ctx, p.store, u, kind, asOf)
}

// remaining evaluates against st, which may be a transaction.
func (p *LimitPolicy) remaining(ctx context.Context, st repository.Store, u *domain.User, kind domain.LimitKind, asOf time.Time) (domain.LimitStatus, error) {
	plan, err := planFor(ctx, st, u)
	if err != nil {
		return domain.LimitStatus{}, err
	}

	from, to := DayWindow(asOf, p.loc)
	used, err := p.used(ctx, st, u.ID, kind, from, to)
	if err != nil {
		return domain.LimitStatus{}, err
	}

	return computeLimit(kind, plan.DailyLimit(kind), used), nil
}

func (p *LimitPolicy) used(ctx context.Context, st repository.Store, userID int64, kind domain.LimitKind, from, to time.Time) (decimal.Decimal, error) {
	completed := []domain.TransactionStatus{domain.TxStatusCompleted}

	switch kind {
	case domain.LimitWithdrawal:
		return st.SumWithdrawals(ctx, userID,
			[]domain.WithdrawalStatus{domain.WithdrawalStatusPending, domain.WithdrawalStatusApproved}, from, to)
	case domain.LimitDeposit:
		return st.SumTransactions(ctx, domain.TxFilter{
			UserID:   userID,
			Types:    []domain.TransactionType{domain.TxTypeDeposit},
			Statuses: completed,
			From:     from,
			To:       to,
		})
	case domain.LimitProfit:
		return st.SumTransactions(ctx, domain.TxFilter{
			UserID:   userID,
			Types:    domain.ProfitTypes,
			Statuses: completed,
			From:     from,
			To:       to,
		})
	}
	return decimal.Zero, fmt.Errorf("unknown limit kind %q", kind)
}

// computeLimit is the pure part of the policy.
func computeLimit(kind domain.LimitKind, limit, used decimal.Decimal) domain.LimitStatus {
	remaining := limit.Sub(used)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}
	return domain.LimitStatus{
		Kind:           kind,
		DailyLimit:     limit,
		Used:           used,
		RemainingLimit: remaining,
		IsLimitReached: !remaining.IsPositive(),
	}
}

// checkLimit fails with a LimitError when amount does not fit the remaining limit.
func (p *LimitPolicy) checkLimit(ctx context.Context, st repository.Store, u *domain.User, kind domain.LimitKind, amount decimal.Decimal, asOf time.Time) error {
	status, err := p.remaining(ctx, st, u, kind, asOf)
	if err != nil {
		return err
	}
	if amount.GreaterThan(status.RemainingLimit) {
		return &domain.LimitError{Kind: kind, Remaining: status.RemainingLimit}
	}
	return nil
}

// planFor resolves the user's plan. Users without one are on the default plan.
func planFor(ctx context.Context, st repository.Store, u *domain.User) (*domain.Plan, error) {
	if u.PlanID != nil {
		return st.GetPlan(ctx, *u.PlanID)
	}
	plan, err := st.GetDefaultPlan(ctx)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("no default plan configured")
	}
	return plan, err
}
