package lane

import (
	"errors"
	"fmt"
)

var (
	// ErrCapacityExceeded is returned when a ThrowError lane is full.
	ErrCapacityExceeded = errors.New("lane capacity exceeded")

	// ErrInvalidConfiguration is returned when lane options are rejected at construction.
	ErrInvalidConfiguration = errors.New("invalid lane configuration")

	// ErrLaneClosed is returned when publishing to a lane that has shut down.
	ErrLaneClosed = errors.New("lane is closed")

	// ErrHandlerFailed matches every *HandlerError.
	ErrHandlerFailed = errors.New("handler failed")

	// ErrHandlerPanic wraps a value recovered from a panicking handler.
	ErrHandlerPanic = errors.New("handler panicked")

	// ErrNilHandler is returned when a lane is built without a handler.
	ErrNilHandler = errors.New("handler cannot be nil")
)

// HandlerError is the terminal failure of one handler invocation after its
// error handler declined to retry.
type HandlerError struct {
	Lane     Kind
	Message  string
	Attempts int
	Err      error
}

// Error implements error.
func (e *HandlerError) Error() string {
	if e.Lane == "" {
		return fmt.Sprintf("handler failed after %d attempt(s): %v", e.Attempts, e.Err)
	}
	return fmt.Sprintf("%s handler for %s failed after %d attempt(s): %v", e.Lane, e.Message, e.Attempts, e.Err)
}

// Unwrap exposes both ErrHandlerFailed and the cause to errors.Is and errors.As.
func (e *HandlerError) Unwrap() []error {
	return []error{ErrHandlerFailed, e.Err}
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfiguration, fmt.Sprintf(format, args...))
}
