// Package errors provides domain-specific error types and sentinel errors
// shared by the webhook server and the fetch job.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors. Use errors.Is to check them.
var (
	// ErrNotFound indicates a requested record or object does not exist.
	ErrNotFound = errors.New("resource not found")

	// ErrRequestFailed indicates an outbound request never produced an HTTP
	// response (DNS, connect, TLS, timeout). Callers abort the current run.
	ErrRequestFailed = errors.New("request failed")

	// ErrOverQuota indicates the remote API kept answering 429 or
	// OVER_QUERY_LIMIT until the retry budget ran out.
	ErrOverQuota = errors.New("over query limit")

	// ErrRateLimitExceeded indicates a local per-user limit was hit.
	ErrRateLimitExceeded = errors.New("rate limit exceeded")

	// ErrInvalidInput indicates malformed user or postback input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrTimeout indicates an operation timed out.
	ErrTimeout = errors.New("operation timed out")

	// ErrLockHeld indicates another process owns a distributed lock.
	ErrLockHeld = errors.New("lock held by another owner")
)

// HTTPStatusError is returned for a non-quota HTTP error status.
type HTTPStatusError struct {
	URL        string
	StatusCode int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("HTTP_%d (url=%s)", e.StatusCode, e.URL)
}

// Code returns the short label used in logs and metrics, e.g. "HTTP_403".
func (e *HTTPStatusError) Code() string {
	return fmt.Sprintf("HTTP_%d", e.StatusCode)
}

// NewHTTPStatusError creates a new status error.
func NewHTTPStatusError(url string, statusCode int) *HTTPStatusError {
	return &HTTPStatusError{URL: url, StatusCode: statusCode}
}

// Kind classifies err into the label used in logs and metrics:
// "ok", "REQUEST_FAILED", "OVER_QUERY_LIMIT", "HTTP_<code>" or "ERROR".
func Kind(err error) string {
	if err == nil {
		return "ok"
	}
	var statusErr *HTTPStatusError
	switch {
	case errors.Is(err, ErrOverQuota):
		return "OVER_QUERY_LIMIT"
	case errors.Is(err, ErrRequestFailed):
		return "REQUEST_FAILED"
	case errors.As(err, &statusErr):
		return statusErr.Code()
	default:
		return "ERROR"
	}
}

// ValidationError represents input validation failures.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

// Unwrap lets errors.Is match ErrInvalidInput.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// NewValidationError creates a new validation error.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}
