package chicks

import (
	"errors"
	"fmt"
)

// Error is the SDK's typed error. Code distinguishes known failure modes so
// callers can branch without matching on message text; Message is the
// human-readable description intended to be shown to the user verbatim.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Common error codes
const (
	ErrCodeNoProvider             = "no_provider"
	ErrCodeUserRejected           = "user_rejected"
	ErrCodeRequestPending         = "request_pending"
	ErrCodeNotConnected           = "not_connected"
	ErrCodeCorruptSession         = "corrupt_session"
	ErrCodeInvalidInput           = "invalid_input"
	ErrCodeBelowMinimum           = "below_minimum"
	ErrCodeBorrowMoreRequired     = "borrow_more_required"
	ErrCodeInsufficientCollateral = "insufficient_collateral"
	ErrCodeContractRevert         = "contract_revert"
	ErrCodeAggregator             = "aggregator_error"
	ErrCodeSlippage               = "slippage_too_low"
	ErrCodeInsufficientFunds      = "insufficient_funds"
)

// NewError creates a new typed error. err may be nil.
func NewError(code, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// IsCode reports whether err (or any error it wraps) is an *Error with the
// given code.
func IsCode(err error, code string) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}
