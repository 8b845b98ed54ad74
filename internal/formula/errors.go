package formula

import "errors"

// ErrEmptyDescription indicates a blank description was submitted.
var ErrEmptyDescription = errors.New("description is empty")
