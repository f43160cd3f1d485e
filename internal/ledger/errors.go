package ledger

import "errors"

// Validation failures surfaced to callers. All are synchronous and
// non-retryable: the caller rejects the action and reports it to the user.
var (
	// ErrInvalidInput marks non-numeric, negative, or out-of-range values.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInsufficientFunds marks a withdrawal exceeding the partner's
	// current share of the portfolio.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrSumMismatch marks override values that do not reconcile with the
	// stated portfolio total in strict mode.
	ErrSumMismatch = errors.New("sum mismatch")

	// ErrNotFound marks an operation on a missing entry or partner.
	ErrNotFound = errors.New("not found")
)
