package debounce

import (
	"errors"
	"sync"
	"time"

	"k8s.io/utils/clock"
)

// ErrClosed is returned by Set after Close.
var ErrClosed = errors.New("debounce cell is closed")

// Cell holds at most one pending item and delivers it once the quiet period
// passes without another Set. Deliveries never overlap.
type Cell[T any] struct {
	mu      sync.Mutex
	quiet   time.Duration
	clock   clock.WithDelayedExecution
	deliver func(T)

	pending    T
	hasPending bool
	generation uint64
	timer      clock.Timer
	closed     bool

	deliverMu sync.Mutex
	wg        sync.WaitGroup
}

// Option configures a Cell.
type Option func(*options)

type options struct {
	clock clock.WithDelayedExecution
}

// WithClock sets the clock that schedules the quiet-period timer.
func WithClock(c clock.WithDelayedExecution) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}

// New creates a Cell that calls deliver with the latest item after quiet elapses.
// deliver runs on a timer goroutine, never on the goroutine calling Set.
func New[T any](quiet time.Duration, deliver func(T), opts ...Option) *Cell[T] {
	o := options{clock: clock.RealClock{}}
	for _, opt := range opts {
		opt(&o)
	}

	return &Cell[T]{
		quiet:   quiet,
		clock:   o.clock,
		deliver: deliver,
	}
}

// Set replaces the pending item and restarts the quiet period.
// It reports whether an undelivered item was replaced.
func (c *Cell[T]) Set(item T) (replaced bool, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false, ErrClosed
	}

	replaced = c.hasPending
	c.pending = item
	c.hasPending = true
	c.generation++

	if c.timer != nil {
		c.timer.Stop()
	}
	gen := c.generation
	// Fake clocks run AfterFunc callbacks while holding their own lock.
	c.timer = c.clock.AfterFunc(c.quiet, func() { go c.fire(gen) })

	return replaced, nil
}

// Pending reports whether an item is waiting for its quiet period to pass.
func (c *Cell[T]) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hasPending
}

// Flush delivers the pending item immediately, if there is one.
func (c *Cell[T]) Flush() bool {
	c.mu.Lock()
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	item, ok := c.take()
	if ok {
		c.wg.Add(1)
	}
	c.mu.Unlock()

	if ok {
		c.run(item)
	}
	return ok
}

// Close cancels the pending delivery and waits for one already in progress.
// It returns the dropped item, if any.
func (c *Cell[T]) Close() (T, bool) {
	c.mu.Lock()
	c.closed = true
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	item, ok := c.take()
	c.mu.Unlock()

	c.wg.Wait()
	return item, ok
}

func (c *Cell[T]) fire(gen uint64) {
	c.mu.Lock()
	// A newer Set superseded this timer, or the cell was flushed or closed.
	if gen != c.generation || c.closed {
		c.mu.Unlock()
		return
	}
	item, ok := c.take()
	if ok {
		c.wg.Add(1)
	}
	c.mu.Unlock()

	if ok {
		c.run(item)
	}
}

func (c *Cell[T]) run(item T) {
	defer c.wg.Done()
	c.deliverMu.Lock()
	defer c.deliverMu.Unlock()
	c.deliver(item)
}

// take must be called with c.mu held.
func (c *Cell[T]) take() (T, bool) {
	var zero T
	if !c.hasPending {
		return zero, false
	}
	item := c.pending
	c.pending = zero
	c.hasPending = false
	return item, true
}
