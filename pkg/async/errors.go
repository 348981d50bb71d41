package async

import "errors"

var (
	// ErrTimeout is returned when AwaitWithTimeout exceeds its duration.
	ErrTimeout = errors.New("async operation timed out")

	// ErrPanic wraps a value recovered from a panicking function.
	ErrPanic = errors.New("async function panicked")
)
