package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for the common failure classes. Repositories and services
// wrap these so handlers can branch with errors.Is without importing each
// other's types.
var (
	ErrNotFound       = errors.New("resource not found")
	ErrAlreadyExists  = errors.New("resource already exists")
	ErrInvalidInput   = errors.New("invalid input")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrInternal       = errors.New("internal error")
	ErrConflict       = errors.New("conflict")
	ErrServiceUnavail = errors.New("service unavailable")

	// Marketplace business-rule rejections. All map to 400: the request was
	// well-formed but the domain refused it.
	ErrSlotUnavailable   = errors.New("time slot unavailable")
	ErrDuplicateReview   = errors.New("duplicate review")
	ErrInvalidTransition = errors.New("invalid status transition")
)

// AppError carries a machine-readable code, a human message, and the HTTP
// status the transport layer should answer with.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func newAppError(code string, status int, sentinel error, message string) *AppError {
	return &AppError{Code: code, Message: message, Status: status, Err: sentinel}
}

// NotFound builds a 404 for a missing resource.
func NotFound(resource, id string) *AppError {
	return newAppError("NOT_FOUND", http.StatusNotFound, ErrNotFound,
		fmt.Sprintf("%s with id %s not found", resource, id))
}

// AlreadyExists builds a 409 for a uniqueness violation.
func AlreadyExists(resource, field, value string) *AppError {
	return newAppError("ALREADY_EXISTS", http.StatusConflict, ErrAlreadyExists,
		fmt.Sprintf("%s with %s %q already exists", resource, field, value))
}

// InvalidInput builds a 400 for a malformed or out-of-range request.
func InvalidInput(message string) *AppError {
	return newAppError("INVALID_INPUT", http.StatusBadRequest, ErrInvalidInput, message)
}

// Unauthorized builds a 401 for a missing or bad credential.
func Unauthorized(message string) *AppError {
	return newAppError("UNAUTHORIZED", http.StatusUnauthorized, ErrUnauthorized, message)
}

// Forbidden builds a 403 for a caller acting outside their role.
func Forbidden(message string) *AppError {
	return newAppError("FORBIDDEN", http.StatusForbidden, ErrForbidden, message)
}

// Internal builds a 500 wrapping err. The message is deliberately generic so
// internals never leak to clients.
func Internal(err error) *AppError {
	return &AppError{
		Code:    "INTERNAL_ERROR",
		Message: "an internal error occurred",
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

// Conflict builds a 409 for a state race, such as two writers updating the
// same booking.
func Conflict(message string) *AppError {
	return newAppError("CONFLICT", http.StatusConflict, ErrConflict, message)
}

// SlotUnavailable builds a 400 for a booking slot that is already taken.
func SlotUnavailable(message string) *AppError {
	return newAppError("SLOT_UNAVAILABLE", http.StatusBadRequest, ErrSlotUnavailable, message)
}

// DuplicateReview builds a 400 for a second review on the same service by
// the same customer.
func DuplicateReview(message string) *AppError {
	return newAppError("DUPLICATE_REVIEW", http.StatusBadRequest, ErrDuplicateReview, message)
}

// InvalidTransition builds a 400 for an illegal booking status change.
func InvalidTransition(from, to string) *AppError {
	return newAppError("INVALID_TRANSITION", http.StatusBadRequest, ErrInvalidTransition,
		fmt.Sprintf("cannot transition booking from %s to %s", from, to))
}

// ServiceUnavailable builds a 503 for an unreachable dependency.
func ServiceUnavailable(message string) *AppError {
	return newAppError("SERVICE_UNAVAILABLE", http.StatusServiceUnavailable, ErrServiceUnavail, message)
}

// Wrap adds context while keeping the error chain intact.
func Wrap(err error, message string) error {
	return fmt.Errorf("%s: %w", message, err)
}

// sentinelStatus maps each bare sentinel to its HTTP status.
var sentinelStatus = []struct {
	err    error
	status int
}{
	{ErrNotFound, http.StatusNotFound},
	{ErrAlreadyExists, http.StatusConflict},
	{ErrConflict, http.StatusConflict},
	{ErrInvalidInput, http.StatusBadRequest},
	{ErrUnauthorized, http.StatusUnauthorized},
	{ErrForbidden, http.StatusForbidden},
	{ErrSlotUnavailable, http.StatusBadRequest},
	{ErrDuplicateReview, http.StatusBadRequest},
	{ErrInvalidTransition, http.StatusBadRequest},
	{ErrServiceUnavail, http.StatusServiceUnavailable},
}

// HTTPStatus resolves err to an HTTP status code. An AppError wins over any
// sentinel in its chain; unknown errors are a 500.
func HTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status
	}

	for _, s := range sentinelStatus {
		if errors.Is(err, s.err) {
			return s.status
		}
	}
	return http.StatusInternalServerError
}
