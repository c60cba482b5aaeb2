package apperror

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrValidation    = errors.New("Validation Error")
	ErrInvalidID     = errors.New("invalid id")
	ErrQuotaExceeded = errors.New("quota exceeded")
	ErrRateLimited   = errors.New("rate limited")
	ErrInternal      = errors.New("internal error")
)

// Suggested client back-off for provider back-pressure signals.
const (
	QuotaRetryAfter     = 60 * time.Second
	RateLimitRetryAfter = 5 * time.Second
)

type AppError struct {
	Err        error         // actual error
	Message    string        // Human-readable error message
	Field      string        // Optional: field causing the error
	RetryAfter time.Duration // Optional: how long the caller should wait before retrying
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// InvalidID reports an identifier that is not well-formed for the store's
// ID scheme. HTTP handlers map this to 400 Bad Request.
func InvalidID(resource, id string) *AppError {
	return &AppError{
		Err:     ErrInvalidID,
		Message: fmt.Sprintf("invalid %s id format: %q", resource, id),
		Field:   "id",
	}
}

// QuotaExceeded means the upstream provider has no quota left.
func QuotaExceeded(message string) *AppError {
	return &AppError{
		Err:        ErrQuotaExceeded,
		Message:    message,
		RetryAfter: QuotaRetryAfter,
	}
}

// RateLimited means the upstream provider is throttling us.
func RateLimited(message string) *AppError {
	return &AppError{
		Err:        ErrRateLimited,
		Message:    message,
		RetryAfter: RateLimitRetryAfter,
	}
}

// Internal wraps an unexpected failure. The cause stays in the chain for
// logging but Message is what clients see.
func Internal(message string, cause error) *AppError {
	return &AppError{
		Err:     fmt.Errorf("%w: %w", ErrInternal, cause),
		Message: message,
	}
}
