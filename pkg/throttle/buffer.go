package throttle

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"k8s.io/utils/clock"
)

// DefaultSkew is added to every computed release instant so the retry lands
// strictly past the window boundary.
const DefaultSkew = 20 * time.Millisecond

// Buffer is a FIFO queue that releases items only as fast as every configured
// Window permits. Windows combine as an intersection: the most restrictive wins.
type Buffer[T any] struct {
	mu      sync.Mutex
	items   []T
	ledger  Ledger
	windows []Window
	closed  bool

	clock clock.Clock
	skew  time.Duration

	notify    chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// Option configures a Buffer.
type Option func(*options)

type options struct {
	clock clock.Clock
	skew  time.Duration
}

// WithClock sets the clock used for window math and release timers.
func WithClock(c clock.Clock) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}

// WithSkew sets the delay added past each computed release instant.
func WithSkew(d time.Duration) Option {
	return func(o *options) {
		if d >= 0 {
			o.skew = d
		}
	}
}

// NewBuffer creates a Buffer governed by the given windows.
// At least one window is required and every window must be valid.
func NewBuffer[T any](windows []Window, opts ...Option) (*Buffer[T], error) {
	if len(windows) == 0 {
		return nil, ErrNoWindows
	}

	var errs []error
	for i, w := range windows {
		if err := w.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("window %d: %w", i, err))
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	o := options{
		clock: clock.RealClock{},
		skew:  DefaultSkew,
	}
	for _, opt := range opts {
		opt(&o)
	}

	return &Buffer[T]{
		windows: append([]Window(nil), windows...),
		clock:   o.clock,
		skew:    o.skew,
		notify:  make(chan struct{}, 1),
		done:    make(chan struct{}),
	}, nil
}

// Enqueue appends an item and wakes the consumer so it re-evaluates immediately.
func (b *Buffer[T]) Enqueue(item T) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ErrClosed
	}
	b.items = append(b.items, item)
	b.mu.Unlock()

	select {
	case b.notify <- struct{}{}:
	default:
	}
	return nil
}

// Len returns the number of buffered items.
func (b *Buffer[T]) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.items)
}

// Windows returns a copy of the configured windows.
func (b *Buffer[T]) Windows() []Window {
	return append([]Window(nil), b.windows...)
}

// Poll releases as many items as the windows permit right now without blocking.
// When nothing can be released it returns the instant a retry may succeed;
// a zero instant means waiting for a new item is the only way forward.
func (b *Buffer[T]) Poll() ([]T, time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.poll(b.clock.Now())
}

// TryDequeueBatch blocks until at least one item is buffered and permitted by
// every window, then returns the largest permitted batch in FIFO order.
// It returns false when ctx is done or the buffer is closed.
func (b *Buffer[T]) TryDequeueBatch(ctx context.Context) ([]T, bool) {
	for {
		if b.isClosed() {
			return nil, false
		}

		batch, next := b.Poll()
		if len(batch) > 0 {
			return batch, true
		}

		var (
			timer  clock.Timer
			timerC <-chan time.Time
		)
		if !next.IsZero() {
			wait := max(next.Sub(b.clock.Now()), 0)
			timer = b.clock.NewTimer(wait + b.skew)
			timerC = timer.C()
		}

		select {
		case <-b.notify:
		case <-timerC:
		case <-b.done:
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil, false
		}

		if timer != nil {
			timer.Stop()
		}
	}
}

// Close releases a blocked consumer and rejects further items.
// Items still buffered are returned so the caller can account for them.
func (b *Buffer[T]) Close() []T {
	var rest []T
	b.closeOnce.Do(func() {
		b.mu.Lock()
		b.closed = true
		rest = b.items
		b.items = nil
		b.mu.Unlock()
		close(b.done)
	})
	return rest
}

func (b *Buffer[T]) isClosed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

// poll must be called with b.mu held.
func (b *Buffer[T]) poll(now time.Time) ([]T, time.Time) {
	starts := make([]time.Time, len(b.windows))
	oldest := now
	for i, w := range b.windows {
		starts[i] = w.LastStart(now)
		if starts[i].Before(oldest) {
			oldest = starts[i]
		}
	}
	b.ledger.Prune(oldest)

	if len(b.items) == 0 {
		return nil, time.Time{}
	}

	releasable := len(b.items)
	for i, w := range b.windows {
		permitted := w.Limit - b.ledger.CountSince(starts[i])
		releasable = min(releasable, max(permitted, 0))
	}

	if releasable > 0 {
		batch := make([]T, releasable)
		copy(batch, b.items[:releasable])

		var zero T
		for i := range releasable {
			b.items[i] = zero
		}
		b.items = b.items[releasable:]
		if len(b.items) == 0 {
			b.items = nil
		}

		b.ledger.Record(now, releasable)
		return batch, time.Time{}
	}

	return nil, b.nextRelease(now, starts)
}

// nextRelease returns the earliest instant at which every currently blocking
// window has at least one free permit. Windows that are not blocking now can
// only gain permits as time passes, so the latest of the blocking windows'
// free instants is the first moment a release can succeed.
func (b *Buffer[T]) nextRelease(now time.Time, starts []time.Time) time.Time {
	var next time.Time
	for i, w := range b.windows {
		count := b.ledger.CountSince(starts[i])
		if count < w.Limit {
			continue
		}
		if w.Limit == 0 {
			// Never releases; only a new item or Close can wake the consumer.
			return time.Time{}
		}

		var free time.Time
		if w.Fixed {
			free = w.NextStart(now)
		} else {
			// The entry that must expire for count to drop below the limit.
			entry, ok := b.ledger.NthSince(starts[i], count-w.Limit)
			if !ok {
				continue
			}
			free = entry.Add(w.Duration)
		}

		if free.After(next) {
			next = free
		}
	}

	if !next.IsZero() && next.Before(now) {
		next = now
	}
	return next
}
