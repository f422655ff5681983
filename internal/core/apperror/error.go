// Package apperror provides structured error handling for the back office.
// All business errors must use AppError for consistent API and CLI responses.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes. Every operation either succeeds or returns one of these.
const (
	// Infrastructure errors (5xx)
	CodeInternal = "INTERNAL_ERROR"
	CodeDatabase = "DATABASE_ERROR"

	// Validation errors (400)
	CodeInvalidInput = "INVALID_INPUT"

	// Business rule violations (409, 422)
	CodeDuplicateKey           = "DUPLICATE_KEY"
	CodeForeignKeyInUse        = "FOREIGN_KEY_IN_USE"
	CodeInsufficientStock      = "INSUFFICIENT_STOCK"
	CodeIllegalTransition      = "ILLEGAL_TRANSITION"
	CodeOrphanedVehicle        = "ORPHANED_VEHICLE"
	CodeOutOfWindow            = "OUT_OF_WINDOW"
	CodeIntegrityViolation     = "INTEGRITY_VIOLATION"
	CodeConcurrentModification = "CONCURRENT_MODIFICATION"
	CodeConfirmationRequired   = "CONFIRMATION_REQUIRED"

	// Cancellation (client closed request)
	CodeCancelled = "CANCELLED"

	// Collaborator failures (FX feed, SMTP, renderer)
	CodeExternalFailure = "EXTERNAL_FAILURE"

	// Not found (404)
	CodeNotFound = "NOT_FOUND"
)

// AppError is the standard error type for the application.
// It implements the error interface and provides structured details
// for API responses and CLI exit messages.
type AppError struct {
	// Code is a machine-readable error identifier
	Code string `json:"code"`

	// Message is a human-readable error description
	Message string `json:"message"`

	// Details contains additional context (field errors, quantities, etc.)
	Details map[string]any `json:"details,omitempty"`

	// HTTPStatus is the suggested HTTP status code
	HTTPStatus int `json:"-"`

	// Err is the underlying error (not exposed in JSON)
	Err error `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail adds a key-value pair to error details.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCause sets the underlying error.
func (e *AppError) WithCause(err error) *AppError {
	e.Err = err
	return e
}

// --- Factory functions ---

// NewInvalidInput creates a validation error (400).
func NewInvalidInput(message string) *AppError {
	return &AppError{
		Code:       CodeInvalidInput,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewNotFound creates a not found error (404).
func NewNotFound(entity string, id any) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", entity),
		HTTPStatus: http.StatusNotFound,
		Details:    map[string]any{"entity": entity, "id": id},
	}
}

// NewDuplicateKey creates a natural-key collision error (409).
func NewDuplicateKey(entity, field string, value any) *AppError {
	return &AppError{
		Code:       CodeDuplicateKey,
		Message:    fmt.Sprintf("%s with this %s already exists", entity, field),
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"entity": entity, "field": field, "value": value},
	}
}

// NewForeignKeyInUse creates a delete-refused error (409).
func NewForeignKeyInUse(entity string, id any) *AppError {
	return &AppError{
		Code:       CodeForeignKeyInUse,
		Message:    fmt.Sprintf("%s is referenced by other records and cannot be deleted", entity),
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"entity": entity, "id": id},
	}
}

// NewInsufficientStock creates a stock shortage error (422).
func NewInsufficientStock(itemID int64, requested, available string) *AppError {
	return &AppError{
		Code:       CodeInsufficientStock,
		Message:    "insufficient stock",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details: map[string]any{
			"item_id":   itemID,
			"requested": requested,
			"available": available,
		},
	}
}

// NewIllegalTransition creates an order status machine violation (422).
func NewIllegalTransition(from, to string) *AppError {
	return &AppError{
		Code:       CodeIllegalTransition,
		Message:    fmt.Sprintf("transition %s -> %s is not allowed", from, to),
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"from": from, "to": to},
	}
}

// NewOrphanedVehicle is returned on order creation for a vehicle without a customer.
func NewOrphanedVehicle(vehicleID int64) *AppError {
	return &AppError{
		Code:       CodeOrphanedVehicle,
		Message:    "vehicle has no customer; assign a customer before creating an order",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"vehicle_id": vehicleID},
	}
}

// NewOutOfWindow is returned when an effective-value lookup has no matching row.
func NewOutOfWindow(codebook string, date string) *AppError {
	return &AppError{
		Code:       CodeOutOfWindow,
		Message:    fmt.Sprintf("no effective %s row for date %s", codebook, date),
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"codebook": codebook, "date": date},
	}
}

// NewIntegrityViolation reports a data-level invariant detected at read or write time.
func NewIntegrityViolation(message string) *AppError {
	return &AppError{
		Code:       CodeIntegrityViolation,
		Message:    message,
		HTTPStatus: http.StatusUnprocessableEntity,
	}
}

// NewCancelled is returned when a long-running read observed cooperative cancel.
func NewCancelled() *AppError {
	return &AppError{
		Code:       CodeCancelled,
		Message:    "operation cancelled",
		HTTPStatus: 499,
	}
}

// NewExternalFailure wraps a collaborator error (FX feed, SMTP, renderer).
func NewExternalFailure(collaborator string, err error) *AppError {
	return &AppError{
		Code:       CodeExternalFailure,
		Message:    fmt.Sprintf("%s failed: %v", collaborator, err),
		HTTPStatus: http.StatusBadGateway,
		Details:    map[string]any{"collaborator": collaborator},
		Err:        err,
	}
}

// NewConfirmationRequired guards destructive operations behind an explicit token.
func NewConfirmationRequired(operation string) *AppError {
	return &AppError{
		Code:       CodeConfirmationRequired,
		Message:    fmt.Sprintf("%s requires explicit confirmation", operation),
		HTTPStatus: http.StatusPreconditionRequired,
		Details:    map[string]any{"operation": operation},
	}
}

// NewConcurrentModification creates an optimistic locking error (409).
func NewConcurrentModification(entity string, id any) *AppError {
	return &AppError{
		Code:       CodeConcurrentModification,
		Message:    "record was modified by another operation, refresh and retry",
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"entity": entity, "id": id},
	}
}

// NewInternal creates an internal server error (hides details from client).
func NewInternal(err error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    "internal error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// --- Helper functions ---

// IsAppError checks if error is AppError.
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// AsAppError extracts AppError from error chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// GetHTTPStatus returns appropriate HTTP status for any error.
func GetHTTPStatus(err error) int {
	if appErr, ok := AsAppError(err); ok {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

// HasCode checks whether err carries the given application code.
func HasCode(err error, code string) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == code
	}
	return false
}

// IsNotFound checks if error is CodeNotFound.
func IsNotFound(err error) bool {
	return HasCode(err, CodeNotFound)
}
