package ledger

import "errors"

// Domain errors for ledger operations.
// The ledger returns these as plain sentinel values; mapping them to HTTP
// statuses or user-facing text is entirely the adapter's job.
var (
	// ErrAccountNotFound is returned when no account exists for a username.
	ErrAccountNotFound = errors.New("ledger: account not found")

	// ErrCredentialMismatch is returned when an account exists but the
	// supplied credential does not match. Callers must be able to tell this
	// apart from ErrAccountNotFound.
	ErrCredentialMismatch = errors.New("ledger: credential mismatch")

	// ErrDuplicateAccount is returned when opening an account under a
	// username that is already taken.
	ErrDuplicateAccount = errors.New("ledger: account already exists")

	// ErrInsufficientFunds is returned when a debit would take a balance
	// below zero.
	ErrInsufficientFunds = errors.New("ledger: insufficient funds")

	// ErrRequestNotFound is returned when completing a request that is not
	// present in the responder's pending list.
	ErrRequestNotFound = errors.New("ledger: pending request not found")

	// ErrInvalidAmount is returned when an operation is given a negative
	// amount.
	ErrInvalidAmount = errors.New("ledger: amount must not be negative")

	// ErrSameAccount is returned by callers that detect a self-transfer.
	// The ledger itself does not re-check this precondition; the sentinel
	// lives here so every layer agrees on the value.
	ErrSameAccount = errors.New("ledger: sender and receiver are the same account")
)

// IsNotFound checks if the given error indicates a missing account.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrAccountNotFound)
}

// IsInsufficientFunds checks if the given error indicates a funds shortfall.
func IsInsufficientFunds(err error) bool {
	return errors.Is(err, ErrInsufficientFunds)
}

// ClassifyError returns a stable label for the error type, used for metrics.
func ClassifyError(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, ErrAccountNotFound):
		return "account_not_found"
	case errors.Is(err, ErrCredentialMismatch):
		return "credential_mismatch"
	case errors.Is(err, ErrDuplicateAccount):
		return "duplicate_account"
	case errors.Is(err, ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, ErrRequestNotFound):
		return "request_not_found"
	case errors.Is(err, ErrInvalidAmount):
		return "invalid_amount"
	case errors.Is(err, ErrSameAccount):
		return "same_account"
	default:
		return "other"
	}
}
