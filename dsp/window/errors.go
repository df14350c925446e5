package window

import "errors"

// ErrUnknownType is returned by ParseType for names it does not know.
var ErrUnknownType = errors.New("window: unknown window type")
