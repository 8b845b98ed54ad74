package interpret

import "errors"

// ErrMalformedResponse indicates the completion does not contain both labeled
// sections, or one of them is blank.
var ErrMalformedResponse = errors.New("malformed response")
