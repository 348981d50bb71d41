package lane

import (
	"context"
	"fmt"
)

// Handler processes one item. Batch lanes use Handler[[]T].
type Handler[T any] interface {
	Handle(ctx context.Context, item T) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc[T any] func(ctx context.Context, item T) error

// Handle calls f.
func (f HandlerFunc[T]) Handle(ctx context.Context, item T) error {
	return f(ctx, item)
}

// Recoverer is implemented by handlers that decide how to continue after a failure.
// Handlers that do not implement it fail terminally on the first error.
type Recoverer[T any] interface {
	HandleError(ctx context.Context, f Failure[T]) Outcome
}

// WithRecovery attaches an ErrorHandler to h.
//
// Example:
//
//	h := lane.WithRecovery(lane.HandlerFunc[Order](save), lane.RetryN[Order](3, 100*time.Millisecond))
func WithRecovery[T any](h Handler[T], onError ErrorHandler[T]) Handler[T] {
	return recovering[T]{Handler: h, onError: onError}
}

type recovering[T any] struct {
	Handler[T]
	onError ErrorHandler[T]
}

func (r recovering[T]) HandleError(ctx context.Context, f Failure[T]) Outcome {
	if r.onError == nil {
		return Stop()
	}
	return r.onError(ctx, f)
}

func errorHandlerOf[T any](h Handler[T]) ErrorHandler[T] {
	if r, ok := h.(Recoverer[T]); ok {
		return r.HandleError
	}
	return nil
}

// safeHandle executes a handler with panic recovery.
// This provides a single point of panic recovery for every lane.
func safeHandle[T any](ctx context.Context, h Handler[T], item T) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrHandlerPanic, r)
		}
	}()
	return h.Handle(ctx, item)
}

func safeRecover[T any](ctx context.Context, onError ErrorHandler[T], f Failure[T]) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			out = Stop()
		}
	}()
	return onError(ctx, f)
}
