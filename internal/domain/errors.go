package domain

import (
	"fmt"
	"strings"
	"time"
)

// APIError represents a standardized error response
type APIError struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Details   string            `json:"details,omitempty"`
	Fields    []ValidationError `json:"fields,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
	RequestID string            `json:"request_id"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Error codes for different failure scenarios
const (
	ErrInvalidInput   = "INVALID_INPUT"
	ErrValidation     = "VALIDATION_ERROR"
	ErrConfiguration  = "CONFIGURATION_ERROR"
	ErrNotFound       = "NOT_FOUND"
	ErrStorage        = "STORAGE_ERROR"
	ErrRateLimit      = "RATE_LIMIT_EXCEEDED"
	ErrInternalServer = "INTERNAL_SERVER_ERROR"
)

// ValidationError describes one offending input field
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

// ValidationErrors collects every offending field of one profile
type ValidationErrors []ValidationError

// Error implements the error interface
func (e ValidationErrors) Error() string {
	if len(e) == 1 {
		return e[0].Error()
	}
	parts := make([]string, len(e))
	for i, ve := range e {
		parts[i] = fmt.Sprintf("%s: %s", ve.Field, ve.Message)
	}
	return fmt.Sprintf("%d validation errors: %s", len(e), strings.Join(parts, "; "))
}

// FieldNames returns the offending field names in report order
func (e ValidationErrors) FieldNames() []string {
	names := make([]string, len(e))
	for i, ve := range e {
		names[i] = ve.Field
	}
	return names
}

// ConfigurationError indicates a malformed scoring model. It is a deployment
// defect and is never retried.
type ConfigurationError struct {
	Component string `json:"component"`
	Message   string `json:"message"`
}

// Error implements the error interface
func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error in %s: %s", e.Component, e.Message)
}

// NewAPIError creates a new APIError with timestamp
func NewAPIError(code, message, details, requestID string) *APIError {
	return &APIError{
		Code:      code,
		Message:   message,
		Details:   details,
		Timestamp: time.Now().UTC(),
		RequestID: requestID,
	}
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Value:   value,
	}
}

// NewConfigurationError creates a new ConfigurationError
func NewConfigurationError(component, format string, args ...interface{}) *ConfigurationError {
	return &ConfigurationError{
		Component: component,
		Message:   fmt.Sprintf(format, args...),
	}
}
