package async

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ExecFuture represents the result of an asynchronous computation that only returns an error.
type ExecFuture struct {
	err  error
	done chan struct{}
}

// Await waits for the asynchronous function to complete and returns its error.
func (f *ExecFuture) Await() error {
	<-f.done
	return f.err
}

// AwaitContext waits for completion or for ctx to be done, whichever comes first.
// Abandoning the wait does not stop the function.
func (f *ExecFuture) AwaitContext(ctx context.Context) error {
	select {
	case <-f.done:
		return f.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// AwaitWithTimeout waits for the asynchronous function to complete with a timeout.
// If the timeout occurs before completion, returns ErrTimeout.
func (f *ExecFuture) AwaitWithTimeout(timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-f.done:
		return f.err
	case <-timer.C:
		return ErrTimeout
	}
}

// IsComplete checks if the asynchronous function is complete without blocking.
func (f *ExecFuture) IsComplete() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Done is closed once the function has returned.
func (f *ExecFuture) Done() <-chan struct{} {
	return f.done
}

// Exec executes fn asynchronously with param.
// A panic inside fn is recovered and reported as an error wrapping ErrPanic.
func Exec[T any](ctx context.Context, param T, fn func(context.Context, T) error) *ExecFuture {
	f := &ExecFuture{done: make(chan struct{})}

	go func() {
		defer close(f.done)

		// Early exit prevents running work nobody waits for
		select {
		case <-ctx.Done():
			f.err = ctx.Err()
			return
		default:
		}

		f.err = call(ctx, param, fn)
	}()

	return f
}

// ExecAll waits for all futures and joins every error they returned.
// It waits for all of them even when an early one fails.
func ExecAll(futures ...*ExecFuture) error {
	var errs []error
	for _, future := range futures {
		if err := future.Await(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ExecAllContext is ExecAll bounded by ctx. On cancellation it returns ctx.Err()
// without waiting for the remaining futures.
func ExecAllContext(ctx context.Context, futures ...*ExecFuture) error {
	var errs []error
	for _, future := range futures {
		if err := future.AwaitContext(ctx); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
				return ctxErr
			}
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func call[T any](ctx context.Context, param T, fn func(context.Context, T) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrPanic, r)
		}
	}()
	return fn(ctx, param)
}
