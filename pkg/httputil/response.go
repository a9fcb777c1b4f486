package httputil

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	apperrors "github.com/localpro/marketplace/pkg/errors"
	"github.com/localpro/marketplace/pkg/logger"
	"github.com/localpro/marketplace/pkg/validator"
)

// Response is the standard JSON response envelope. Success mirrors whether
// Error is unset so clients can branch without inspecting status codes.
type Response struct {
	Success bool           `json:"success"`
	Data    any            `json:"data,omitempty"`
	Error   *ErrorResponse `json:"error,omitempty"`
}

// OK wraps data in a successful response envelope.
func OK(data any) Response {
	return Response{Success: true, Data: data}
}

// Fail wraps an error payload in a failed response envelope.
func Fail(e *ErrorResponse) Response {
	return Response{Success: false, Error: e}
}

// ErrorResponse is the error half of the envelope.
type ErrorResponse struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

// WriteJSON writes v as JSON with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Headers are already sent; nothing meaningful can be done if encoding fails.
	_ = json.NewEncoder(w).Encode(v)
}

// sentinelResponses maps bare sentinels to the envelope they should produce.
// Handlers normally return AppError, which carries its own code and status;
// this table covers errors that bubble up from repositories unwrapped.
var sentinelResponses = []struct {
	err    error
	status int
	code   string
}{
	{apperrors.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
	{apperrors.ErrAlreadyExists, http.StatusConflict, "ALREADY_EXISTS"},
	{apperrors.ErrInvalidInput, http.StatusBadRequest, "INVALID_INPUT"},
	{apperrors.ErrConflict, http.StatusConflict, "CONFLICT"},
	{apperrors.ErrUnauthorized, http.StatusUnauthorized, "UNAUTHORIZED"},
	{apperrors.ErrForbidden, http.StatusForbidden, "FORBIDDEN"},
	{apperrors.ErrSlotUnavailable, http.StatusBadRequest, "SLOT_UNAVAILABLE"},
	{apperrors.ErrDuplicateReview, http.StatusBadRequest, "DUPLICATE_REVIEW"},
	{apperrors.ErrInvalidTransition, http.StatusBadRequest, "INVALID_TRANSITION"},
	{apperrors.ErrServiceUnavail, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE"},
}

// WriteError resolves err to the standard error envelope. AppErrors keep
// their own code and message, recognized sentinels map through
// sentinelResponses, and anything else becomes a logged 500. The
// request-scoped logger from context (set by the RequestLogger middleware)
// is preferred over fallback.
func WriteError(w http.ResponseWriter, r *http.Request, err error, fallback *slog.Logger) {
	requestID := logger.CorrelationIDFromContext(r.Context())

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		WriteJSON(w, appErr.Status, Fail(&ErrorResponse{
			Code:      appErr.Code,
			Message:   appErr.Message,
			RequestID: requestID,
		}))
		return
	}

	for _, s := range sentinelResponses {
		if !errors.Is(err, s.err) {
			continue
		}
		message := s.err.Error()
		if s.err == apperrors.ErrInvalidInput {
			// Validation detail is safe to surface.
			message = err.Error()
		}
		WriteJSON(w, s.status, Fail(&ErrorResponse{Code: s.code, Message: message, RequestID: requestID}))
		return
	}

	l := logger.FromContext(r.Context())
	if l == slog.Default() {
		l = fallback
	}
	l.ErrorContext(r.Context(), "internal error",
		slog.String("error", err.Error()),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
	)

	WriteJSON(w, http.StatusInternalServerError, Fail(&ErrorResponse{
		Code:      "INTERNAL_ERROR",
		Message:   "an internal error occurred",
		RequestID: requestID,
	}))
}

// PaginatedResponse is the list envelope used by the catalog and review
// listing endpoints.
type PaginatedResponse[T any] struct {
	Data       []T  `json:"data"`
	TotalCount int  `json:"total_count"`
	Page       int  `json:"page"`
	PerPage    int  `json:"per_page"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
}

// NewPaginatedResponse computes the paging counters for one page of results.
// A nil slice serializes as an empty array, never null.
func NewPaginatedResponse[T any](data []T, totalCount, page, perPage int) PaginatedResponse[T] {
	if data == nil {
		data = []T{}
	}
	return PaginatedResponse[T]{
		Data:       data,
		TotalCount: totalCount,
		Page:       page,
		PerPage:    perPage,
		TotalPages: (totalCount + perPage - 1) / perPage,
		HasNext:    page < (totalCount+perPage-1)/perPage,
	}
}

// WriteValidationError answers a 400 with field-level detail when err is a
// validator.ValidationError, or a plain INVALID_INPUT otherwise.
func WriteValidationError(w http.ResponseWriter, err error) {
	var valErr *validator.ValidationError
	if errors.As(err, &valErr) {
		WriteJSON(w, http.StatusBadRequest, Fail(&ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "request validation failed",
			Fields:  valErr.Fields(),
		}))
		return
	}

	WriteJSON(w, http.StatusBadRequest, Fail(&ErrorResponse{Code: "INVALID_INPUT", Message: err.Error()}))
}

// ParseUUID parses a path or query parameter as a UUID. On failure it writes
// a 400 and returns false so the handler can return immediately.
func ParseUUID(w http.ResponseWriter, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(param)
	if err != nil {
		WriteJSON(w, http.StatusBadRequest, Fail(&ErrorResponse{
			Code:    "INVALID_PARAMETER",
			Message: "invalid UUID: " + param,
		}))
		return uuid.Nil, false
	}
	return id, true
}
