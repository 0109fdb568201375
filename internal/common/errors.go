// File: internal/common/errors.go
package common

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

// APIError represents a standard structure for API errors.
type APIError struct {
	StatusCode int         `json:"-"`
	Code       string      `json:"code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("APIError: StatusCode=%d, Code=%s, Message=%s", e.StatusCode, e.Code, e.Message)
}

func NewAPIError(statusCode int, code, message string) *APIError {
	return &APIError{StatusCode: statusCode, Code: code, Message: message}
}

// Is reports whether target is an APIError with the same code, so
// WithDetails copies still match their package-level sentinel under
// errors.Is.
func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithDetails returns a copy of the error carrying request-specific details.
// Copying keeps the package-level sentinels immutable under concurrent handlers.
func (e *APIError) WithDetails(details interface{}) *APIError {
	clone := *e
	clone.Details = details
	return &clone
}

var (
	ErrBadRequest          = NewAPIError(http.StatusBadRequest, "BAD_REQUEST", "The request is invalid.")
	ErrNotFound            = NewAPIError(http.StatusNotFound, "NOT_FOUND", "The requested resource could not be found.")
	ErrConflict            = NewAPIError(http.StatusConflict, "CONFLICT", "A conflict occurred with the current state of the resource.")
	ErrUnprocessableEntity = NewAPIError(http.StatusUnprocessableEntity, "UNPROCESSABLE_ENTITY", "The request was well-formed but was unable to be followed due to semantic errors.")
	ErrInternalServer      = NewAPIError(http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "An unexpected error occurred on the server.")
	ErrServiceUnavailable  = NewAPIError(http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "The server is currently unable to handle the request.")

	// Identity provider failures. Both surface to the browser flow as a
	// generic authentication failure; the raw provider response never
	// reaches the caller.
	ErrUpstreamAuth    = NewAPIError(http.StatusInternalServerError, "UPSTREAM_AUTH_FAILED", "Authentication with the identity provider failed.")
	ErrUpstreamProfile = NewAPIError(http.StatusInternalServerError, "UPSTREAM_PROFILE_FAILED", "Fetching the profile from the identity provider failed.")
)

func IsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

func NewValidationAPIError(details interface{}) *APIError {
	return &APIError{
		StatusCode: http.StatusUnprocessableEntity,
		Code:       "VALIDATION_ERROR",
		Message:    "Input validation failed.",
		Details:    details,
	}
}

// FormatValidationErrors converts validator.ValidationErrors into a map.
func FormatValidationErrors(errs validator.ValidationErrors) map[string]string {
	errorMap := make(map[string]string)
	for _, e := range errs {
		field := e.Field()
		var message string
		switch e.Tag() {
		case "required":
			message = fmt.Sprintf("The %s field is required.", strings.ToLower(field))
		case "min":
			message = fmt.Sprintf("The %s field must be at least %s characters long.", strings.ToLower(field), e.Param())
		case "max":
			message = fmt.Sprintf("The %s field may not be greater than %s characters.", strings.ToLower(field), e.Param())
		case "uuid":
			message = fmt.Sprintf("The %s field must be a valid UUID.", strings.ToLower(field))
		default:
			message = fmt.Sprintf("Field validation for '%s' failed on the '%s' tag.", field, e.Tag())
		}
		errorMap[field] = message
	}
	return errorMap
}
