package lane

import (
	"context"
	"errors"
	"time"

	"github.com/sethvargo/go-retry"
	"k8s.io/utils/clock"
)

// Retry re-invokes the failed handler with the next attempt number.
type Retry func(ctx context.Context) error

// Failure describes a failed handler invocation.
type Failure[T any] struct {
	Item    T
	Err     error
	Attempt int // zero-based
	Retry   Retry
}

// ErrorHandler decides how to continue after a handler failure.
type ErrorHandler[T any] func(ctx context.Context, f Failure[T]) Outcome

// Outcome is the decision returned by an ErrorHandler: either stop, making the
// failure terminal, or continue with a function that usually calls Retry.
type Outcome struct {
	next  func(ctx context.Context) error
	delay time.Duration
}

// Stop makes the failure terminal.
func Stop() Outcome {
	return Outcome{}
}

// Continue runs fn in place of the failed invocation. Its result becomes the
// result of the invocation; fn may call Retry any number of times.
func Continue(fn func(ctx context.Context) error) Outcome {
	return Outcome{next: fn}
}

// RetryNow re-invokes the handler immediately.
func RetryNow(retry Retry) Outcome {
	return Continue(retry)
}

// RetryAfter waits d on the engine clock, then re-invokes the handler.
func RetryAfter(d time.Duration, retry Retry) Outcome {
	return Outcome{next: retry, delay: max(d, 0)}
}

// Terminal reports whether the outcome stops processing.
func (o Outcome) Terminal() bool {
	return o.next == nil
}

// Invoke calls h with item and applies h's error handler on failure.
// There is no engine retry limit: the error handler alone decides.
// A terminal failure is returned as a *HandlerError.
func Invoke[T any](ctx context.Context, h Handler[T], item T) error {
	return InvokeWithClock(ctx, clock.RealClock{}, h, item)
}

// InvokeWithClock is Invoke with RetryAfter delays measured on clk.
func InvokeWithClock[T any](ctx context.Context, clk clock.Clock, h Handler[T], item T) error {
	if clk == nil {
		clk = clock.RealClock{}
	}
	return invoke(ctx, clk, h, errorHandlerOf(h), item, 0)
}

func invoke[T any](ctx context.Context, clk clock.Clock, h Handler[T], onError ErrorHandler[T], item T, attempt int) error {
	err := safeHandle(ctx, h, item)
	if err == nil {
		return nil
	}
	if onError == nil {
		return &HandlerError{Attempts: attempt + 1, Err: err}
	}

	retry := func(ctx context.Context) error {
		return invoke(ctx, clk, h, onError, item, attempt+1)
	}

	out := safeRecover(ctx, onError, Failure[T]{Item: item, Err: err, Attempt: attempt, Retry: retry})
	if out.Terminal() {
		return &HandlerError{Attempts: attempt + 1, Err: err}
	}

	if err := wait(ctx, clk, out.delay); err != nil {
		return &HandlerError{Attempts: attempt + 1, Err: err}
	}
	if err := out.next(ctx); err != nil {
		var herr *HandlerError
		if errors.As(err, &herr) {
			return err
		}
		return &HandlerError{Attempts: attempt + 1, Err: err}
	}
	return nil
}

func wait(ctx context.Context, clk clock.Clock, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := clk.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Backoff returns an ErrorHandler that retries on the schedule of the backoff
// produced by newBackoff, stopping when the backoff stops. A fresh backoff is
// built for every failure and advanced to the failed attempt, so one handler
// can serve concurrent items.
//
// Example:
//
//	onError := lane.Backoff[Order](func() retry.Backoff {
//		return retry.WithMaxRetries(5, retry.NewExponential(50*time.Millisecond))
//	})
func Backoff[T any](newBackoff func() retry.Backoff) ErrorHandler[T] {
	return func(_ context.Context, f Failure[T]) Outcome {
		b := newBackoff()
		var delay time.Duration
		for range f.Attempt + 1 {
			next, stop := b.Next()
			if stop {
				return Stop()
			}
			delay = next
		}
		return RetryAfter(delay, f.Retry)
	}
}

// RetryN retries up to n times with a constant delay between attempts.
func RetryN[T any](n int, delay time.Duration) ErrorHandler[T] {
	if delay <= 0 {
		delay = time.Nanosecond
	}
	return Backoff[T](func() retry.Backoff {
		return retry.WithMaxRetries(uint64(max(n, 0)), retry.NewConstant(delay))
	})
}
