package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrLimitExceeded       = errors.New("daily limit exceeded")
	ErrNotEligible         = errors.New("not eligible")
	ErrAlreadyFinalized    = errors.New("record already finalized")
	ErrNotFound            = errors.New("not found")
	ErrValidation          = errors.New("validation error")
)

// ValidationError describes a rejected input field.
type ValidationError struct {
	Field   string
	Message string
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// EligibilityError carries the gate's reason ("blocked", "tasks_incomplete").
type EligibilityError struct {
	Reason string
}

func (e *EligibilityError) Error() string { return "not eligible: " + e.Reason }

func (e *EligibilityError) Unwrap() error { return ErrNotEligible }

// LimitError reports which daily limit was hit and what was left of it.
type LimitError struct {
	Kind      LimitKind
	Remaining decimal.Decimal
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("daily %s limit exceeded, remaining %s", e.Kind, e.Remaining.String())
}

func (e *LimitError) Unwrap() error { return ErrLimitExceeded }

// Kind maps an engine error to its taxonomy name.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidAmount):
		return "InvalidAmount"
	case errors.Is(err, ErrInsufficientBalance):
		return "InsufficientBalance"
	case errors.Is(err, ErrLimitExceeded):
		return "LimitExceeded"
	case errors.Is(err, ErrNotEligible):
		return "NotEligible"
	case errors.Is(err, ErrAlreadyFinalized):
		return "AlreadyFinalized"
	case errors.Is(err, ErrNotFound):
		return "NotFound"
	case errors.Is(err, ErrValidation):
		return "ValidationError"
	}
	return "Internal"
}
