package interval

import "errors"

var (
	ErrInvalidPeriod  = errors.New("ticker period must be positive")
	ErrNilTickFunc    = errors.New("tick function cannot be nil")
	ErrAlreadyStarted = errors.New("ticker already started")
	ErrNotStarted     = errors.New("ticker not started")
)
