package mediator

import "errors"

var (
	// ErrNoHandler is returned when no lane claims a published message type.
	ErrNoHandler = errors.New("no handler registered for message")

	// ErrNilMessage is returned when publishing a nil message.
	ErrNilMessage = errors.New("message cannot be nil")

	// ErrDuplicateHandler is returned when a single-handler lane is registered twice
	// for the same message type.
	ErrDuplicateHandler = errors.New("handler already registered")

	// ErrResponseType is returned by GetResponse when the registered response
	// handler produces a different type than requested.
	ErrResponseType = errors.New("response type mismatch")

	// ErrAlreadyStarted is returned when starting a mediator twice or registering
	// handlers after start.
	ErrAlreadyStarted = errors.New("mediator already started")

	// ErrNotStarted is returned when stopping a mediator that is not running.
	ErrNotStarted = errors.New("mediator not started")

	// ErrHealthcheckFailed wraps every healthcheck failure.
	ErrHealthcheckFailed = errors.New("healthcheck failed")

	// ErrNotRunning is reported by Healthcheck while the mediator is stopped.
	ErrNotRunning = errors.New("mediator is not running")

	// ErrStalled is reported by Healthcheck when work is pending but no handler
	// finished within the stale threshold.
	ErrStalled = errors.New("mediator has pending work but no recent activity")
)
