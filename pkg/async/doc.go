// Package async provides futures for running error-returning work concurrently.
//
// Exec starts a function in its own goroutine and returns an ExecFuture. The future
// can be awaited unconditionally (Await), with a deadline (AwaitWithTimeout), or with
// a context (AwaitContext), and polled without blocking (IsComplete).
//
// # Usage
//
//	futures := make([]*async.ExecFuture, 0, len(users))
//	for _, u := range users {
//		futures = append(futures, async.Exec(ctx, u, notifyUser))
//	}
//
//	// Waits for every future and joins their errors
//	if err := async.ExecAll(futures...); err != nil {
//		return err
//	}
//
// # Panics
//
// A panic inside the function is recovered and returned from Await as an error
// wrapping ErrPanic, so a single misbehaving function cannot crash the process:
//
//	err := async.Exec(ctx, 0, func(context.Context, int) error { panic("boom") }).Await()
//	errors.Is(err, async.ErrPanic) // true
//
// # Error Types
//
//   - ErrTimeout: returned when AwaitWithTimeout exceeds its duration
//   - ErrPanic: wraps the value recovered from a panicking function
package async
