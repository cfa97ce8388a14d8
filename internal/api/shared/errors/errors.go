package errors

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"strings"

	"github.com/votetripling/ambassador-api/internal/domain"
)

// ErrorCode represents a standardized error code
type ErrorCode string

const (
	// Client errors (4xx)
	ErrCodeBadRequest       ErrorCode = "bad_request"
	ErrCodeNotFound         ErrorCode = "not_found"
	ErrCodeValidationFailed ErrorCode = "validation_failed"
	ErrCodeUnauthorized     ErrorCode = "unauthorized"
	ErrCodeForbidden        ErrorCode = "forbidden"
	ErrCodeConflict         ErrorCode = "conflict"
	ErrCodeInvalidState     ErrorCode = "invalid_state"
	ErrCodeFraudBlocked     ErrorCode = "fraud_blocked"

	// Server errors (5xx)
	ErrCodeInternalError     ErrorCode = "internal_error"
	ErrCodeDependencyFailure ErrorCode = "dependency_failure"
)

// APIError represents a structured API error that carries error code and details
type APIError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	jsonErr, _ := json.Marshal(e)
	return string(jsonErr)
}

// kindStatus maps each domain error kind to its response
var kindStatus = map[domain.ErrorKind]struct {
	status int
	code   ErrorCode
}{
	domain.KindValidation: {http.StatusBadRequest, ErrCodeValidationFailed},
	domain.KindConflict:   {http.StatusConflict, ErrCodeConflict},
	domain.KindNotFound:   {http.StatusNotFound, ErrCodeNotFound},
	domain.KindState:      {http.StatusConflict, ErrCodeInvalidState},
	domain.KindFraudBlock: {http.StatusForbidden, ErrCodeFraudBlocked},
	domain.KindDependency: {http.StatusBadGateway, ErrCodeDependencyFailure},
}

// FromError converts an error to its HTTP status and API error. The boolean is false for
// unexpected errors, which are answered with a generic message and must be logged by the caller.
func FromError(err error) (int, *APIError, bool) {
	var apiErr *APIError
	if stderrors.As(err, &apiErr) {
		return statusOf(apiErr.Code), apiErr, true
	}

	var de *domain.Error
	if stderrors.As(err, &de) {
		if m, ok := kindStatus[de.Kind]; ok {
			return m.status, &APIError{Code: m.code, Message: de.Message}, true
		}
	}

	return http.StatusInternalServerError, NewInternalError("Internal server error"), false
}

func statusOf(code ErrorCode) int {
	switch code {
	case ErrCodeBadRequest, ErrCodeValidationFailed:
		return http.StatusBadRequest
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrCodeForbidden, ErrCodeFraudBlocked:
		return http.StatusForbidden
	case ErrCodeConflict, ErrCodeInvalidState:
		return http.StatusConflict
	case ErrCodeDependencyFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Error constructors for common error types
func NewBadRequestError(message string, details ...string) *APIError {
	return &APIError{
		Code:    ErrCodeBadRequest,
		Message: message,
		Details: strings.Join(details, ", "),
	}
}

func NewNotFoundError(message string, details ...string) *APIError {
	return &APIError{
		Code:    ErrCodeNotFound,
		Message: message,
		Details: strings.Join(details, ", "),
	}
}

func NewValidationError(details ...string) *APIError {
	return &APIError{
		Code:    ErrCodeValidationFailed,
		Message: "Validation failed",
		Details: strings.Join(details, ", "),
	}
}

func NewUnauthorizedError(message string, details ...string) *APIError {
	return &APIError{
		Code:    ErrCodeUnauthorized,
		Message: message,
		Details: strings.Join(details, ", "),
	}
}

func NewForbiddenError(message string, details ...string) *APIError {
	return &APIError{
		Code:    ErrCodeForbidden,
		Message: message,
		Details: strings.Join(details, ", "),
	}
}

func NewInternalError(message string, details ...string) *APIError {
	return &APIError{
		Code:    ErrCodeInternalError,
		Message: message,
		Details: strings.Join(details, ", "),
	}
}
