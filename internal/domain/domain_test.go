package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
)

func TestKind(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{ErrInvalidAmount, "InvalidAmount"},
		{fmt.Errorf("%w: must be between 1 and 2", ErrInvalidAmount), "InvalidAmount"},
		{ErrInsufficientBalance, "InsufficientBalance"},
		{&LimitError{Kind: LimitDeposit}, "LimitExceeded"},
		{&EligibilityError{Reason: ReasonBlocked}, "NotEligible"},
		{ErrAlreadyFinalized, "AlreadyFinalized"},
		{ErrNotFound, "NotFound"},
		{NewValidationError("amount", "bad"), "ValidationError"},
		{errors.New("disk on fire"), "Internal"},
	}
	for _, tc := range cases {
		if got := Kind(tc.err); got != tc.want {
			t.Errorf("Kind(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}

func TestValidatePaymentDetails(t *testing.T) {
	if err := ValidatePaymentDetails(MethodBankTransfer, map[string]string{
		"account_name": "Rahim", "account_number": "123", "bank_name": "DBBL",
	}); err != nil {
		t.Fatalf("complete bank details: %v", err)
	}

	err := ValidatePaymentDetails(MethodCrypto, map[string]string{"wallet_address": "T1", "network": "  "})
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Field != "payment_details.network" {
		t.Fatalf("blank network: %v", err)
	}

	if err := ValidatePaymentDetails("paypal", nil); !errors.Is(err, ErrValidation) {
		t.Fatalf("unknown method: %v", err)
	}
}

func TestPlanBounds(t *testing.T) {
	p := &Plan{}
	min, max := p.Bounds()
	if !min.Equal(DefaultMinAmount) || !max.Equal(DefaultMaxAmount) {
		t.Fatalf("defaults = %s..%s", min, max)
	}
	if p.InBounds(decimal.NewFromInt(99)) || !p.InBounds(decimal.NewFromInt(100)) {
		t.Fatal("default lower bound")
	}

	p = &Plan{MinAmount: decimal.NewFromInt(5), MaxAmount: decimal.NewFromInt(10)}
	if !p.InBounds(decimal.NewFromInt(10)) || p.InBounds(decimal.RequireFromString("10.01")) {
		t.Fatal("custom bounds")
	}
}

func TestTaskProgressDone(t *testing.T) {
	if !(TaskProgress{}).Done() {
		t.Fatal("no mandatory tasks means done")
	}
	if (TaskProgress{CompletedMandatory: 1, TotalMandatory: 2}).Done() {
		t.Fatal("1 of 2 is not done")
	}
}
