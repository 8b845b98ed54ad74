package model

import (
	"errors"
	"fmt"

	"github.com/alnah/go-formula/internal/apierr"
)

// ErrConfiguration matches any *ConfigurationError with errors.Is.
var ErrConfiguration = errors.New("provider credential not configured")

// ErrInvalidProvider indicates an unknown provider name was specified.
var ErrInvalidProvider = errors.New("invalid provider")

// ConfigurationError reports a missing provider credential.
// It is detected when the client is constructed, before any network call.
type ConfigurationError struct {
	Provider Provider
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("API key not configured (set %s)", e.Provider.EnvVar())
}

// Is lets errors.Is(err, ErrConfiguration) match.
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// ProviderError reports a failed or timed-out upstream call.
// Error returns the upstream message unchanged; Err is classified with
// apierr sentinels where the status was recognized.
type ProviderError struct {
	Provider Provider
	Err      error
}

func (e *ProviderError) Error() string {
	var exhausted *apierr.RetriesExhaustedError
	if errors.As(e.Err, &exhausted) {
		return exhausted.Err.Error()
	}
	return e.Err.Error()
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
