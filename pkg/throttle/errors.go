package throttle

import "errors"

var (
	ErrInvalidWindow = errors.New("invalid throttle window")
	ErrNoWindows     = errors.New("at least one throttle window is required")
	ErrClosed        = errors.New("throttle buffer is closed")
)
