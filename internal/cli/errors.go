package cli

import "errors"

// CLI-specific sentinel errors.
// These are validation/usage errors that don't belong to domain packages.

var (
	// ErrUnknownConfigKey indicates a config key outside config.Keys().
	ErrUnknownConfigKey = errors.New("unknown config key")

	// ErrNoDescription indicates neither arguments nor stdin provided a description.
	ErrNoDescription = errors.New("no description given")
)

// GenerationError reports a failed generation with its user-facing reason.
// The underlying error stays reachable for exit code mapping.
type GenerationError struct {
	Reason string
	Err    error
}

func (e *GenerationError) Error() string {
	return e.Reason
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}
