package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
	retryable  bool
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Retryable reports whether the caller may safely retry the operation.
func (e *AppError) Retryable() bool {
	return e.retryable
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// CodeOf returns the error code carried by err, or "" if it is not an AppError.
func CodeOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// IsRetryable reports whether err is an AppError marked retryable.
func IsRetryable(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.retryable
}

// ---- Offers (OFR) ----

func ErrInvalidOffer(reason string) *AppError {
	return New("OFR_001", fmt.Sprintf("Invalid offer: %s", reason), http.StatusBadRequest)
}

func ErrOfferNotFound() *AppError {
	return New("OFR_002", "Offer not found", http.StatusNotFound)
}

func ErrOfferAlreadySettled() *AppError {
	return New("OFR_003", "Offer has already been settled", http.StatusConflict)
}

func ErrOfferAlreadyCancelled() *AppError {
	return New("OFR_004", "Offer has already been cancelled", http.StatusConflict)
}

func ErrNotOwner() *AppError {
	return New("OFR_005", "Only the offer owner can cancel it", http.StatusForbidden)
}

func ErrCannotAcceptOwnOffer() *AppError {
	return New("OFR_006", "Cannot accept your own offer", http.StatusUnprocessableEntity)
}

// ---- Wallets (WAL) ----

func ErrInsufficientFunds() *AppError {
	return New("WAL_001", "Insufficient balance in wallet", http.StatusPaymentRequired)
}

func ErrInvalidAmount() *AppError {
	return New("WAL_002", "Invalid amount", http.StatusBadRequest)
}

func ErrNotFound(entity string) *AppError {
	return New("WAL_003", fmt.Sprintf("%s not found", entity), http.StatusNotFound)
}

// ---- Authentication (AUTH) ----

func ErrInvalidToken() *AppError {
	return New("AUTH_001", "Invalid or expired token", http.StatusUnauthorized)
}

// ---- Rate Limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New("RATE_001", "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System & Infrastructure (SYS) ----

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}

// ErrStoreUnavailable reports a transient storage failure. It is the only
// retryable error kind.
func ErrStoreUnavailable(err error) *AppError {
	e := Wrap("SYS_002", "Store temporarily unavailable", http.StatusServiceUnavailable, err)
	e.retryable = true
	return e
}

// ---- Request validation (REQ) ----

// Validation returns a REQ_001 validation error.
func Validation(message string) *AppError {
	return New("REQ_001", message, http.StatusBadRequest)
}
