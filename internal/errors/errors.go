// Package errors provides custom error types for the Paisa API.
// All service-layer errors should use AppError to ensure consistent,
// secure error responses that never leak internal details to clients.
package errors

import "net/http"

// AppError represents a structured application error with an error code,
// human-readable message, HTTP status code, and optional internal error.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string { return e.Message }

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Wrap creates a new AppError with the same code/message/status but wraps an internal error.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
	}
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// Authentication & authorization errors.
var (
	ErrUnauthorized       = &AppError{Code: "UNAUTHORIZED", Message: "Authentication required", StatusCode: http.StatusUnauthorized}
	ErrInvalidCredentials = &AppError{Code: "INVALID_CREDENTIALS", Message: "Invalid email or password", StatusCode: http.StatusUnauthorized}
	ErrAccountLocked      = &AppError{Code: "ACCOUNT_LOCKED", Message: "Account is temporarily locked", StatusCode: http.StatusLocked}
)

// General errors.
var (
	ErrInvalidInput   = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrNotFound       = &AppError{Code: "NOT_FOUND", Message: "Resource not found", StatusCode: http.StatusNotFound}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
)

// User errors.
var (
	ErrUserNotFound   = &AppError{Code: "USER_NOT_FOUND", Message: "User not found", StatusCode: http.StatusNotFound}
	ErrDuplicateEmail = &AppError{Code: "DUPLICATE_EMAIL", Message: "A user with this email already exists", StatusCode: http.StatusConflict}
)

// Account errors.
var (
	ErrAccountNotFound = &AppError{Code: "ACCOUNT_NOT_FOUND", Message: "Account not found", StatusCode: http.StatusNotFound}
)

// Transaction errors.
var (
	ErrTransactionNotFound    = &AppError{Code: "TRANSACTION_NOT_FOUND", Message: "Transaction not found", StatusCode: http.StatusNotFound}
	ErrInvalidTransactionType = &AppError{Code: "INVALID_TRANSACTION_TYPE", Message: "Unsupported transaction type", StatusCode: http.StatusBadRequest}
	ErrSameAccountTransfer    = &AppError{Code: "SAME_ACCOUNT_TRANSFER", Message: "Cannot transfer to the same account", StatusCode: http.StatusBadRequest}
	ErrInvalidTypeChange      = &AppError{Code: "INVALID_TYPE_CHANGE", Message: "Transaction type cannot be changed", StatusCode: http.StatusBadRequest}
)

// Budget errors.
var (
	ErrBudgetNotFound      = &AppError{Code: "BUDGET_NOT_FOUND", Message: "Budget not found", StatusCode: http.StatusNotFound}
	ErrInvalidBudgetPeriod = &AppError{Code: "INVALID_BUDGET_PERIOD", Message: "Unsupported budget period", StatusCode: http.StatusBadRequest}
)

// Consistency errors. Raised when the ledger-side and budget-side steps of a
// reconcile cannot both complete; the enclosing storage transaction is rolled
// back, so callers can distinguish "partially attempted, then undone" from an
// ordinary not-found.
var (
	ErrConsistency = &AppError{Code: "CONSISTENCY_ERROR", Message: "Account and budget state could not be updated together", StatusCode: http.StatusConflict}
)
