package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type User struct {
	ID            int64           `db:"id" json:"id"`
	Email         string          `db:"email" json:"email"`
	Username      string          `db:"username" json:"username"`
	Balance       decimal.Decimal `db:"balance" json:"balance"`
	PlanID        *int64          `db:"plan_id" json:"plan_id,omitempty"`
	IsBlocked     bool            `db:"is_blocked" json:"is_blocked"`
	IsKYCVerified bool            `db:"is_kyc_verified" json:"is_kyc_verified"`
	IsAdmin       bool            `db:"is_admin" json:"is_admin"`
	ReferralCode  string          `db:"referral_code" json:"referral_code"`
	ReferredBy    *int64          `db:"referred_by" json:"referred_by,omitempty"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
}
