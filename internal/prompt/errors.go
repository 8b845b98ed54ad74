package prompt

import "errors"

// ErrUnknownDialect indicates an invalid spreadsheet dialect was specified.
var ErrUnknownDialect = errors.New("unknown dialect")
