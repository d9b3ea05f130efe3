// Package gameerr defines the domain errors the engine surfaces to the
// realtime transport. Each kind carries a stable code for the client;
// kinds compare with errors.Is against the exported sentinels.
package gameerr

import "fmt"

type Error struct {
	Code    string
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// Is matches any error of the same code, so wrapped instances compare
// equal to the sentinel of their kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// WithCause returns a copy of the kind carrying an underlying error.
func (e *Error) WithCause(cause error) *Error {
	return &Error{Code: e.Code, Message: e.Message, cause: cause}
}

// WithMessage returns a copy of the kind with a specific message.
func (e *Error) WithMessage(msg string) *Error {
	return &Error{Code: e.Code, Message: msg}
}

var (
	ErrBettingClosed       = &Error{Code: "BETTING_CLOSED", Message: "bets are closed for this round"}
	ErrInvalidAmount       = &Error{Code: "INVALID_AMOUNT", Message: "bet amount must be positive"}
	ErrInvalidSelection    = &Error{Code: "INVALID_SELECTION", Message: "between 1 and 20 symbols must be selected"}
	ErrInsufficientBalance = &Error{Code: "INSUFFICIENT_BALANCE", Message: "insufficient balance"}
	ErrWalletUnavailable   = &Error{Code: "WALLET_UNAVAILABLE", Message: "wallet is unavailable"}
	ErrNotFound            = &Error{Code: "NOT_FOUND", Message: "transaction not found"}
	ErrCancellationFailed  = &Error{Code: "CANCELLATION_FAILED", Message: "bet removed but refund failed"}
	ErrAuthRequired        = &Error{Code: "AUTH_REQUIRED", Message: "session token required"}
	ErrInvalidSession      = &Error{Code: "INVALID_SESSION", Message: "session not found or expired"}
	ErrMarketClosed        = &Error{Code: "MARKET_CLOSED", Message: "market is not available"}
)
