package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorType categorizes failures surfaced over HTTP.
type ErrorType string

const (
	ValidationError  ErrorType = "validation"
	ExecutionError   ErrorType = "execution"
	NotFoundError    ErrorType = "not_found"
	UnavailableError ErrorType = "unavailable"
	InternalError    ErrorType = "internal"
)

// APIError carries a user-facing message and the HTTP status it maps to.
type APIError struct {
	Type    ErrorType      `json:"type"`
	Message string         `json:"message"`
	Code    int            `json:"code"`
	Details map[string]any `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

func newAPIError(t ErrorType, code int, message string, details []map[string]any) *APIError {
	var d map[string]any
	if len(details) > 0 {
		d = details[0]
	}
	return &APIError{
		Type:    t,
		Message: message,
		Code:    code,
		Details: d,
	}
}

func NewValidationError(message string, details ...map[string]any) *APIError {
	return newAPIError(ValidationError, http.StatusBadRequest, message, details)
}

func NewExecutionError(message string, details ...map[string]any) *APIError {
	return newAPIError(ExecutionError, http.StatusUnprocessableEntity, message, details)
}

func NewNotFoundError(message string) *APIError {
	return newAPIError(NotFoundError, http.StatusNotFound, message, nil)
}

func NewUnavailableError(message string, details ...map[string]any) *APIError {
	return newAPIError(UnavailableError, http.StatusServiceUnavailable, message, details)
}

func NewInternalError(message string) *APIError {
	return newAPIError(InternalError, http.StatusInternalServerError, message, nil)
}

// AsAPIError unwraps err looking for an *APIError.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if stderrors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
