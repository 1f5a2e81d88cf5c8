package settlement

import "errors"

var (
	ErrUnauthorized    = errors.New("settlement: unauthorized")
	ErrInvalidAmount   = errors.New("settlement: amount must be positive")
	ErrNothingToSettle = errors.New("settlement: nothing to settle")
	ErrNilStore        = errors.New("settlement: ledger store not configured")
	ErrInvalidPool     = errors.New("settlement: pool must not be negative")
	ErrFeeOutOfRange   = errors.New("settlement: fee bps out of range")
)
