package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for common error conditions.
var (
	// ErrInvalidInput indicates that caller-supplied input is invalid.
	ErrInvalidInput = errors.New("invalid input")

	// ErrRateLimited indicates that an upstream provider rate limited the request.
	ErrRateLimited = errors.New("rate limited")

	// ErrServiceUnavailable indicates that an external service is unavailable.
	ErrServiceUnavailable = errors.New("service unavailable")

	// ErrAIUnavailable indicates that no AI completion collaborator is configured.
	ErrAIUnavailable = errors.New("ai completion unavailable")

	// ErrEmptyCompletion indicates that the AI collaborator returned no usable text.
	ErrEmptyCompletion = errors.New("empty completion")
)

// ValidationError represents a validation error for a specific field.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
}

// Unwrap returns ErrInvalidInput so callers can match with errors.Is.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// ProviderError describes a failure inside one paper provider: a network error,
// a non-success status or a malformed payload.
type ProviderError struct {
	Provider   string
	StatusCode int
	Message    string
	Cause      error
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s API error (status %d): %s", e.Provider, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s API error: %s", e.Provider, e.Message)
}

// Unwrap returns the underlying cause error.
func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// Is maps well-known status codes onto the sentinel errors.
func (e *ProviderError) Is(target error) bool {
	switch target {
	case ErrRateLimited:
		return e.StatusCode == http.StatusTooManyRequests
	case ErrServiceUnavailable:
		return e.StatusCode >= http.StatusInternalServerError
	}
	return false
}

// AIError describes a failed AI completion call.
type AIError struct {
	Provider   string
	StatusCode int
	Message    string
	Cause      error
}

// Error implements the error interface.
func (e *AIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s completion error (status %d): %s", e.Provider, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s completion error: %s", e.Provider, e.Message)
}

// Unwrap returns the underlying cause error.
func (e *AIError) Unwrap() error {
	return e.Cause
}

// IsTransient reports whether retrying the call may succeed.
// Network failures (no status code), 429 and 5xx are transient.
func (e *AIError) IsTransient() bool {
	if e.StatusCode == 0 {
		return true
	}
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// NewProviderError creates a new ProviderError.
func NewProviderError(provider string, statusCode int, message string, cause error) *ProviderError {
	return &ProviderError{
		Provider:   provider,
		StatusCode: statusCode,
		Message:    message,
		Cause:      cause,
	}
}

// NewAIError creates a new AIError.
func NewAIError(provider string, statusCode int, message string, cause error) *AIError {
	return &AIError{
		Provider:   provider,
		StatusCode: statusCode,
		Message:    message,
		Cause:      cause,
	}
}
