// Package lane implements the queueing delivery lanes and the retry envelope
// shared by every handler invocation.
//
// Five lanes store messages for a standing worker:
//
//   - Queue and Stack (Sequential): single-flight, strict FIFO or LIFO order.
//   - Debounce: only the last item of a burst is delivered after a quiet interval.
//   - Throttle: batches released as fast as every rate window permits.
//   - Accumulator: everything stored since the last tick, delivered as one batch.
//
// Each lane applies a CapacityPolicy when its stored-item limit is reached:
//
//	q, err := lane.NewQueue[Order]("orders", handler, rt,
//		lane.WithCapacity(1000, lane.ThrowError),
//	)
//	if err := q.Enqueue(ctx, order); errors.Is(err, lane.ErrCapacityExceeded) {
//		// shed load
//	}
//
// # Retry envelope
//
// A failing handler that implements Recoverer decides what happens next. Its
// HandleError receives the item, the error, the zero-based attempt and a Retry
// continuation, and returns Stop or a Continue outcome:
//
//	h := lane.WithRecovery(lane.HandlerFunc[Order](save),
//		func(ctx context.Context, f lane.Failure[Order]) lane.Outcome {
//			if f.Attempt < 2 {
//				return lane.RetryAfter(time.Second, f.Retry)
//			}
//			return lane.Stop()
//		})
//
// The engine applies no retry limit of its own. Backoff and RetryN build error
// handlers from github.com/sethvargo/go-retry schedules.
//
// Terminal failures on worker paths never stop the worker: they are logged and
// handed to the Runtime's Reporter.
package lane
