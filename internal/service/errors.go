// internal/service/errors.go
package service

import (
	"errors"
	"fmt"
	"net/http"

	"commission-ledger/internal/models"
	"commission-ledger/internal/repository"
)

// AppError is the error shape surfaced to the HTTP layer: a machine-readable
// code, a human-readable message safe to show to callers, optional details,
// and the wrapped cause (never serialized).
type AppError struct {
	Code       string         `json:"code"`
	Message    string         `json:"message"`
	Details    map[string]any `json:"details,omitempty"`
	HTTPStatus int            `json:"-"`
	Err        error          `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

const (
	CodeNotFound               = "NOT_FOUND"
	CodeValidation             = "VALIDATION_ERROR"
	CodeInsufficientBalance    = "INSUFFICIENT_BALANCE"
	CodeDuplicatePending       = "DUPLICATE_PENDING_REQUEST"
	CodeDuplicateCooldown      = "DUPLICATE_AMOUNT_COOLDOWN"
	CodeInvalidStateTransition = "INVALID_STATE_TRANSITION"
	CodeForbidden              = "FORBIDDEN"
	CodeTransient              = "TRANSIENT"
	CodeInternal               = "INTERNAL"
)

func NotFoundError(what string) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", what),
		HTTPStatus: http.StatusNotFound,
	}
}

func ValidationError(msg string) *AppError {
	return &AppError{
		Code:       CodeValidation,
		Message:    msg,
		HTTPStatus: http.StatusBadRequest,
	}
}

// InsufficientBalanceError reports both figures so the caller can explain the
// rejection. Amounts are rendered in cedis.
func InsufficientBalanceError(required, available int64) *AppError {
	return &AppError{
		Code: CodeInsufficientBalance,
		Message: fmt.Sprintf("requested %s exceeds available %s",
			models.FormatCedis(required), models.FormatCedis(available)),
		Details: map[string]any{
			"required":  models.FromMinorUnits(required),
			"available": models.FromMinorUnits(available),
		},
		HTTPStatus: http.StatusBadRequest,
	}
}

func DuplicatePendingRequestError() *AppError {
	return &AppError{
		Code:       CodeDuplicatePending,
		Message:    "a withdrawal request is already being processed for this agent",
		HTTPStatus: http.StatusBadRequest,
	}
}

func DuplicateAmountCooldownError() *AppError {
	return &AppError{
		Code:       CodeDuplicateCooldown,
		Message:    "an identical amount was requested within the last 24 hours; wait before retrying",
		HTTPStatus: http.StatusBadRequest,
	}
}

func InvalidStateTransitionError(from, to models.WithdrawalStatus) *AppError {
	return &AppError{
		Code:       CodeInvalidStateTransition,
		Message:    fmt.Sprintf("cannot move withdrawal from %q to %q", from, to),
		HTTPStatus: http.StatusConflict,
	}
}

func ForbiddenError(msg string) *AppError {
	return &AppError{
		Code:       CodeForbidden,
		Message:    msg,
		HTTPStatus: http.StatusForbidden,
	}
}

func TransientError(err error) *AppError {
	return &AppError{
		Code:       CodeTransient,
		Message:    "the service is temporarily unavailable, please retry",
		HTTPStatus: http.StatusServiceUnavailable,
		Err:        err,
	}
}

func InternalError(err error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    "an unexpected error occurred",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// AsAppError extracts an AppError from err, if any.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// classify maps repository errors onto the taxonomy. Anything unrecognized
// becomes an internal error so no store detail leaks to callers.
func classify(err error, notFoundWhat string) *AppError {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return NotFoundError(notFoundWhat)
	case repository.IsTransient(err):
		return TransientError(err)
	default:
		if appErr, ok := AsAppError(err); ok {
			return appErr
		}
		return InternalError(err)
	}
}
