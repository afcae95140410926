package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Default per-request amount bounds, used when a plan leaves them unset.
var (
	DefaultMinAmount = decimal.NewFromInt(100)
	DefaultMaxAmount = decimal.NewFromInt(50000)
)

// Plan is a named tier that carries the daily limits applied to its users.
type Plan struct {
	ID                   int64           `db:"id" json:"id"`
	Name                 string          `db:"name" json:"name"`
	DailyDepositLimit    decimal.Decimal `db:"daily_deposit_limit" json:"daily_deposit_limit"`
	DailyWithdrawalLimit decimal.Decimal `db:"daily_withdrawal_limit" json:"daily_withdrawal_limit"`
	DailyProfitLimit     decimal.Decimal `db:"daily_profit_limit" json:"daily_profit_limit"`
	Price                decimal.Decimal `db:"price" json:"price"`
	MinAmount            decimal.Decimal `db:"min_amount" json:"min_amount"`
	MaxAmount            decimal.Decimal `db:"max_amount" json:"max_amount"`
	IsDefault            bool            `db:"is_default" json:"is_default"`
	CreatedAt            time.Time       `db:"created_at" json:"created_at"`
}

// Bounds returns the per-request amount bounds, falling back to the defaults.
func (p *Plan) Bounds() (min, max decimal.Decimal) {
	min, max = p.MinAmount, p.MaxAmount
	if !min.IsPositive() {
		min = DefaultMinAmount
	}
	if !max.IsPositive() {
		max = DefaultMaxAmount
	}
	return min, max
}

// InBounds reports whether amount is within the plan's per-request bounds.
func (p *Plan) InBounds(amount decimal.Decimal) bool {
	min, max := p.Bounds()
	return amount.GreaterThanOrEqual(min) && amount.LessThanOrEqual(max)
}

// LimitKind selects which daily limit a query is about.
type LimitKind string

const (
	LimitDeposit    LimitKind = "deposit"
	LimitWithdrawal LimitKind = "withdrawal"
	LimitProfit     LimitKind = "profit"
)

func (k LimitKind) Valid() bool {
	switch k {
	case LimitDeposit, LimitWithdrawal, LimitProfit:
		return true
	}
	return false
}

// DailyLimit returns the plan's daily limit for kind.
func (p *Plan) DailyLimit(kind LimitKind) decimal.Decimal {
	switch kind {
	case LimitDeposit:
		return p.DailyDepositLimit
	case LimitWithdrawal:
		return p.DailyWithdrawalLimit
	case LimitProfit:
		return p.DailyProfitLimit
	}
	return decimal.Zero
}

// LimitStatus is the headroom left for a kind on a given day.
type LimitStatus struct {
	Kind           LimitKind       `json:"kind"`
	DailyLimit     decimal.Decimal `json:"daily_limit"`
	Used           decimal.Decimal `json:"used"`
	RemainingLimit decimal.Decimal `json:"remaining_limit"`
	IsLimitReached bool            `json:"is_limit_reached"`
}
