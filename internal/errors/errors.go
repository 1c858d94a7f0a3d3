package errors

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	InvalidArgument   ErrorCode = "invalid_argument"
	NotFound          ErrorCode = "not_found"
	InvalidState      ErrorCode = "invalid_state"
	InsufficientFunds ErrorCode = "insufficient_funds"
	Conflict          ErrorCode = "conflict"
	Contention        ErrorCode = "contention"
	InternalError     ErrorCode = "internal_error"
)

type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewAppError(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

func NewAppErrorf(code ErrorCode, format string, args ...interface{}) *AppError {
	return &AppError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

func (e *AppError) WithDetails(details string) *AppError {
	return &AppError{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
	}
}

// HTTPStatus maps an error code to the response status the request layer
// should use.
func (e *AppError) HTTPStatus() int {
	switch e.Code {
	case InvalidArgument:
		return http.StatusBadRequest
	case NotFound:
		return http.StatusNotFound
	case Conflict:
		return http.StatusConflict
	case InvalidState, InsufficientFunds:
		return http.StatusUnprocessableEntity
	case Contention:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// AsAppError unwraps err into an *AppError, or wraps it as an internal
// error when it carries no code.
func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return NewAppError(InternalError, "an unexpected error occurred").WithDetails(err.Error())
}

// Predefined errors for common cases
var (
	ErrAccountNotFound      = NewAppError(NotFound, "account not found")
	ErrTransactionNotFound  = NewAppError(NotFound, "transaction not found")
	ErrBeneficiaryNotFound  = NewAppError(NotFound, "beneficiary not found")
	ErrDuplicateAccount     = NewAppError(Conflict, "account already exists")
	ErrDuplicateBeneficiary = NewAppError(Conflict, "beneficiary already exists for this account")
	ErrInvalidAmount        = NewAppError(InvalidArgument, "amount must be positive")
	ErrInvalidAccountNumber = NewAppError(InvalidArgument, "account number must be exactly 10 digits")
	ErrInsufficientFunds    = NewAppError(InsufficientFunds, "insufficient funds")
	ErrContention           = NewAppError(Contention, "operation could not be serialized, retry")

	ErrCannotBeginTransaction = NewAppError(InternalError, "cannot begin transaction outside a root store")
)
