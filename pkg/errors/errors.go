// Package errors defines the service error taxonomy: sentinel errors for the
// failure classes the handlers distinguish, plus AppError for carrying an
// explicit HTTP status through a call chain.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrDocumentNotFound    = errors.New("document not found")
	ErrContentUnavailable  = errors.New("document content unavailable")
	ErrInvalidArgument     = errors.New("invalid argument")
	ErrIdempotencyConflict = errors.New("idempotency key already used")
	ErrRateLimited         = errors.New("rate limit exceeded")
	ErrInternal            = errors.New("internal error")
	ErrTimeout             = errors.New("operation timed out")
)

// sentinelStatus maps each sentinel to its HTTP status. Anything unmapped
// reports as an internal error.
var sentinelStatus = []struct {
	sentinel error
	status   int
}{
	{ErrDocumentNotFound, http.StatusNotFound},
	{ErrIdempotencyConflict, http.StatusConflict},
	{ErrInvalidArgument, http.StatusBadRequest},
	{ErrContentUnavailable, http.StatusUnprocessableEntity},
	{ErrRateLimited, http.StatusTooManyRequests},
	{ErrTimeout, http.StatusServiceUnavailable},
}

// AppError wraps a sentinel with a human-readable message and an explicit
// HTTP status that overrides the sentinel mapping.
type AppError struct {
	Err        error
	Message    string
	StatusCode int
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New builds an AppError around a sentinel.
func New(sentinel error, statusCode int, message string) *AppError {
	return &AppError{Err: sentinel, Message: message, StatusCode: statusCode}
}

// Newf is New with a formatted message.
func Newf(sentinel error, statusCode int, format string, args ...any) *AppError {
	return New(sentinel, statusCode, fmt.Sprintf(format, args...))
}

// HTTPStatusCode resolves err to an HTTP status. An AppError anywhere in the
// chain wins; otherwise the first matching sentinel decides, and unknown
// errors map to 500.
func HTTPStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}
	for _, m := range sentinelStatus {
		if errors.Is(err, m.sentinel) {
			return m.status
		}
	}
	return http.StatusInternalServerError
}
