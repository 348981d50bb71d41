package blocking

import "errors"

// ErrClosed is returned when pushing to a closed sequence.
var ErrClosed = errors.New("sequence is closed")
