package controller

import "errors"

// ErrNothingToCopy indicates Copy was called without a successful result.
var ErrNothingToCopy = errors.New("no formula to copy")

// Failure reasons shown to the user, one per error kind.
const (
	reasonConfiguration = "API key not configured. Please set %s to continue."
	reasonProvider      = "Failed to generate formula: %s"
	reasonMalformed     = "Failed to parse AI response correctly"
	reasonUnexpected    = "An error occurred while generating the formula"
)
