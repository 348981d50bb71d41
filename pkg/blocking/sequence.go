package blocking

import (
	"context"
	"sync"
	"sync/atomic"
)

// Order selects which end of the sequence items are taken from.
type Order uint8

const (
	// FIFO takes the oldest item first.
	FIFO Order = iota
	// LIFO takes the most recently pushed item first.
	LIFO
)

// String returns the order name.
func (o Order) String() string {
	if o == LIFO {
		return "lifo"
	}
	return "fifo"
}

// Sequence is a concurrent FIFO or LIFO container with a single blocking reader.
// Any number of goroutines may Push; only one goroutine at a time may block in TryTake.
type Sequence[T any] struct {
	mu     sync.Mutex
	items  []T
	order  Order
	closed bool

	notify    chan struct{} // buffered(1): coalesces wake-ups for the single reader
	done      chan struct{}
	closeOnce sync.Once
	taking    atomic.Bool
}

// NewQueue creates a FIFO sequence.
func NewQueue[T any]() *Sequence[T] {
	return newSequence[T](FIFO)
}

// NewStack creates a LIFO sequence.
func NewStack[T any]() *Sequence[T] {
	return newSequence[T](LIFO)
}

func newSequence[T any](order Order) *Sequence[T] {
	return &Sequence[T]{
		order:  order,
		notify: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

// Order returns the ordering discipline of the sequence.
func (s *Sequence[T]) Order() Order {
	return s.order
}

// Push stores an item and wakes the blocked reader, if any.
// Returns ErrClosed once Close has been called.
func (s *Sequence[T]) Push(item T) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.items = append(s.items, item)
	s.mu.Unlock()

	s.signal()
	return nil
}

// TryPop removes the next item without blocking.
// Items pushed before Close remain poppable after it.
func (s *Sequence[T]) TryPop() (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var zero T
	n := len(s.items)
	if n == 0 {
		return zero, false
	}

	var item T
	if s.order == LIFO {
		item = s.items[n-1]
		s.items[n-1] = zero
		s.items = s.items[:n-1]
	} else {
		item = s.items[0]
		s.items[0] = zero
		s.items = s.items[1:]
	}

	// Release the backing array once drained so a burst does not pin memory.
	if len(s.items) == 0 {
		s.items = nil
	}

	return item, true
}

// TryTake removes the next item, blocking while the sequence is empty.
// It returns false when ctx is done or when the sequence is closed and drained.
// TryTake panics if another goroutine is already blocked in it.
func (s *Sequence[T]) TryTake(ctx context.Context) (T, bool) {
	if !s.taking.CompareAndSwap(false, true) {
		panic("blocking: concurrent TryTake on a single-reader sequence")
	}
	defer s.taking.Store(false)

	var zero T
	for {
		if item, ok := s.TryPop(); ok {
			return item, true
		}

		select {
		case <-s.notify:
		case <-s.done:
			// Close may race with a final Push; take whatever made it in.
			if item, ok := s.TryPop(); ok {
				return item, true
			}
			return zero, false
		case <-ctx.Done():
			return zero, false
		}
	}
}

// Len returns the number of stored items.
func (s *Sequence[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Close rejects further pushes and wakes the blocked reader.
// It is safe to call more than once.
func (s *Sequence[T]) Close() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()
		close(s.done)
	})
}

// Closed reports whether Close has been called.
func (s *Sequence[T]) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Done is closed when the sequence is closed.
func (s *Sequence[T]) Done() <-chan struct{} {
	return s.done
}

func (s *Sequence[T]) signal() {
	select {
	case s.notify <- struct{}{}:
	default:
	}
}
