package config

import "errors"

// Sentinel errors for configuration handling.
var (
	// ErrInvalidKey indicates a key that cannot be stored in the config file.
	ErrInvalidKey = errors.New("invalid config key")

	// ErrInvalidSyntax indicates a config file line without key=value form.
	ErrInvalidSyntax = errors.New("invalid config syntax")

	// ErrInvalidValue indicates a value that does not parse for its key.
	ErrInvalidValue = errors.New("invalid config value")
)
