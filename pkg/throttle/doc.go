// Package throttle implements a multi-window rate-limited FIFO buffer.
//
// A Buffer holds items and releases them in batches no larger than every configured
// Window allows. Each Window counts releases recorded in an internal Ledger since its
// current start: sliding windows look back a fixed Duration from now, fixed windows
// are aligned to calendar slots (this minute, this hour, this day, this week).
//
// # Algorithm
//
// On every attempt the ledger is pruned to the oldest window start, each window's
// remaining permits are computed as Limit minus releases since its start, and the
// smallest remainder (clamped to zero and to the buffered count) is released. When
// nothing is releasable the consumer sleeps until the instant every blocking window
// frees a permit, plus a small skew, or until a new item arrives, whichever comes
// first. A window with Limit 0 never releases.
//
// # Usage
//
//	buf, err := throttle.NewBuffer[Email]([]throttle.Window{
//		throttle.PerSliding(time.Second, 10),
//		throttle.PerFixed(time.Hour, 500),
//	})
//	if err != nil {
//		return err
//	}
//
//	go func() {
//		for {
//			batch, ok := buf.TryDequeueBatch(ctx)
//			if !ok {
//				return
//			}
//			send(batch)
//		}
//	}()
//
//	_ = buf.Enqueue(Email{To: "user@example.com"})
//
// The clock is injectable through WithClock so window math can be driven by
// k8s.io/utils/clock/testing.FakeClock in tests.
package throttle
