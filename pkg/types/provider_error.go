package types

import (
	"errors"
	"fmt"
	"net/http"
)

// UnsupportedProviderError is returned when a provider name is not registered
// for its category.
type UnsupportedProviderError struct {
	Category Category
	Provider string
}

func (e *UnsupportedProviderError) Error() string {
	return fmt.Sprintf("unsupported %s provider: %q", e.Category, e.Provider)
}

// InvalidConfigError reports a configuration field that could not be accepted.
// Field is empty when the configuration as a whole has the wrong shape.
type InvalidConfigError struct {
	Field  string
	Reason string
}

func (e *InvalidConfigError) Error() string {
	if e.Field == "" {
		return "invalid config: " + e.Reason
	}
	return fmt.Sprintf("invalid config field %q: %s", e.Field, e.Reason)
}

// NewInvalidConfigError creates a new InvalidConfigError
func NewInvalidConfigError(field, format string, args ...any) *InvalidConfigError {
	return &InvalidConfigError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// ProviderConstructionError wraps a failure raised by a provider constructor.
type ProviderConstructionError struct {
	Category Category
	Provider string
	Cause    error
}

func (e *ProviderConstructionError) Error() string {
	return fmt.Sprintf("failed to construct %s provider %q: %v", e.Category, e.Provider, e.Cause)
}

// Unwrap returns the constructor error for errors.Is/As
func (e *ProviderConstructionError) Unwrap() error {
	return e.Cause
}

// UnsupportedOperationError is returned when a lifecycle operation is invoked on
// an instance that does not implement the required capability.
type UnsupportedOperationError struct {
	Operation string
	Type      string
}

func (e *UnsupportedOperationError) Error() string {
	return fmt.Sprintf("operation %q is not supported by %s", e.Operation, e.Type)
}

// ErrorCode categorizes backend errors
type ErrorCode string

const (
	ErrCodeUnknown        ErrorCode = "unknown"
	ErrCodeAuthentication ErrorCode = "authentication"
	ErrCodeRateLimit      ErrorCode = "rate_limit"
	ErrCodeInvalidRequest ErrorCode = "invalid_request"
	ErrCodeNotFound       ErrorCode = "not_found"
	ErrCodeConflict       ErrorCode = "conflict"
	ErrCodeServerError    ErrorCode = "server_error"
	ErrCodeNetwork        ErrorCode = "network"
)

// ProviderError represents a failure reported by a constructed backend
type ProviderError struct {
	Code        ErrorCode // Categorized error code
	Message     string    // Human-readable message
	StatusCode  int       // HTTP status code (0 if not applicable)
	Provider    string    // Which provider generated this error
	Operation   string    // What operation failed (e.g., "reset", "query")
	OriginalErr error     // Wrapped original error
}

// Error implements the error interface
func (e *ProviderError) Error() string {
	msg := e.Message
	if msg == "" && e.OriginalErr != nil {
		msg = e.OriginalErr.Error()
	}
	if e.Operation != "" {
		msg = e.Operation + ": " + msg
	}
	if e.StatusCode > 0 {
		return fmt.Sprintf("[%s] %s (status=%d, code=%s)", e.Provider, msg, e.StatusCode, e.Code)
	}
	return fmt.Sprintf("[%s] %s (code=%s)", e.Provider, msg, e.Code)
}

// Unwrap returns the original error for errors.Is/As
func (e *ProviderError) Unwrap() error {
	return e.OriginalErr
}

// WithOperation sets the operation field and returns the error for chaining
func (e *ProviderError) WithOperation(operation string) *ProviderError {
	e.Operation = operation
	return e
}

// WithStatusCode sets the status code field and returns the error for chaining
func (e *ProviderError) WithStatusCode(statusCode int) *ProviderError {
	e.StatusCode = statusCode
	e.Code = ClassifyHTTPError(statusCode)
	return e
}

// WithOriginalErr sets the original error field and returns the error for chaining
func (e *ProviderError) WithOriginalErr(err error) *ProviderError {
	e.OriginalErr = err
	return e
}

// NewProviderError creates a new ProviderError
func NewProviderError(provider string, code ErrorCode, message string) *ProviderError {
	return &ProviderError{
		Code:     code,
		Message:  message,
		Provider: provider,
	}
}

// IsNotFound reports whether err is a ProviderError with ErrCodeNotFound.
func IsNotFound(err error) bool {
	return hasCode(err, ErrCodeNotFound)
}

// IsConflict reports whether err is a ProviderError with ErrCodeConflict.
func IsConflict(err error) bool {
	return hasCode(err, ErrCodeConflict)
}

func hasCode(err error, code ErrorCode) bool {
	var pe *ProviderError
	return errors.As(err, &pe) && pe.Code == code
}

// ClassifyHTTPError determines error code from HTTP status
func ClassifyHTTPError(statusCode int) ErrorCode {
	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrCodeAuthentication
	case http.StatusTooManyRequests:
		return ErrCodeRateLimit
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return ErrCodeInvalidRequest
	case http.StatusNotFound:
		return ErrCodeNotFound
	case http.StatusConflict:
		return ErrCodeConflict
	default:
		if statusCode >= 500 {
			return ErrCodeServerError
		}
		return ErrCodeUnknown
	}
}
