// Package apierr provides shared error sentinels and retry infrastructure
// for the model provider adapters. Provider-specific errors are classified
// into these sentinels at the adapter boundary with Classify.
//
// Callers check with errors.Is(err, apierr.ErrRateLimit) etc.
package apierr

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

// Sentinel errors for provider call failures.
var (
	// ErrRateLimit indicates the provider rate limit was exceeded (temporary, retryable).
	ErrRateLimit = errors.New("rate limit exceeded")

	// ErrQuotaExceeded indicates the provider quota was exceeded (billing issue, not retryable).
	ErrQuotaExceeded = errors.New("quota exceeded")

	// ErrTimeout indicates a request timed out.
	ErrTimeout = errors.New("request timeout")

	// ErrServer indicates a 5xx response from the provider (retryable).
	ErrServer = errors.New("provider server error")

	// ErrAuthFailed indicates authentication failed (invalid or revoked key).
	ErrAuthFailed = errors.New("authentication failed")

	// ErrBadRequest indicates a client error (4xx) that is not otherwise classified.
	ErrBadRequest = errors.New("bad request")
)

// ClassifiedError carries a provider message together with its sentinel.
// Error returns the message unchanged; errors.Is matches the sentinel.
type ClassifiedError struct {
	Message  string
	Sentinel error
}

func (e *ClassifiedError) Error() string {
	return e.Message
}

func (e *ClassifiedError) Unwrap() error {
	return e.Sentinel
}

// Classify maps an HTTP status code and provider message to a sentinel.
// Returns nil for status codes it does not recognize.
func Classify(status int, message string) error {
	var sentinel error
	switch status {
	case http.StatusTooManyRequests:
		// Quota exhaustion shares 429 with rate limiting but needs user action.
		lower := strings.ToLower(message)
		if strings.Contains(lower, "quota") || strings.Contains(lower, "billing") {
			sentinel = ErrQuotaExceeded
		} else {
			sentinel = ErrRateLimit
		}
	case http.StatusPaymentRequired:
		sentinel = ErrQuotaExceeded
	case http.StatusUnauthorized, http.StatusForbidden:
		sentinel = ErrAuthFailed
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		sentinel = ErrTimeout
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable:
		sentinel = ErrServer
	case http.StatusBadRequest, http.StatusNotFound, http.StatusUnprocessableEntity:
		sentinel = ErrBadRequest
	default:
		return nil
	}
	if message == "" {
		message = http.StatusText(status)
	}
	return &ClassifiedError{Message: message, Sentinel: sentinel}
}

// Timeout classifies err as ErrTimeout, keeping its message.
func Timeout(err error) error {
	return &ClassifiedError{Message: err.Error(), Sentinel: ErrTimeout}
}

// IsRetryable reports whether err is transient and worth another attempt.
func IsRetryable(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	return errors.Is(err, ErrRateLimit) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrServer)
}
