package lane

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/dmitrymomot/mediator/pkg/blocking"
)

// Sequential is the Queue and Stack lane: a single-flight worker over a
// blocking.Sequence. At most one handler call runs at a time, and items are
// handled in FIFO (queue) or LIFO (stack) order.
//
// The worker is started by Enqueue when the lane is idle and exits when the
// store is empty, so items are processed as soon as they are accepted.
type Sequential[T any] struct {
	base
	h    Handler[T]
	seq  *blocking.Sequence[envelope[T]]
	gate *gate

	mu      sync.Mutex
	closed  bool
	running atomic.Bool
	wg      sync.WaitGroup
}

// NewQueue creates a FIFO lane for message name.
func NewQueue[T any](name string, h Handler[T], rt Runtime, opts ...Option) (*Sequential[T], error) {
	return newSequential(KindQueue, blocking.NewQueue[envelope[T]](), name, h, rt, opts)
}

// NewStack creates a LIFO lane for message name.
func NewStack[T any](name string, h Handler[T], rt Runtime, opts ...Option) (*Sequential[T], error) {
	return newSequential(KindStack, blocking.NewStack[envelope[T]](), name, h, rt, opts)
}

func newSequential[T any](kind Kind, seq *blocking.Sequence[envelope[T]], name string, h Handler[T], rt Runtime, opts []Option) (*Sequential[T], error) {
	if h == nil {
		return nil, ErrNilHandler
	}
	o := NewOptions(opts...)
	if err := o.Validate(kind); err != nil {
		return nil, err
	}

	l := &Sequential[T]{
		base: newBase(kind, name, rt),
		h:    h,
		seq:  seq,
	}
	l.gate = newGate(kind, o, l.rt, nil)
	return l, nil
}

// Enqueue applies the capacity policy, stores item and wakes the worker.
func (l *Sequential[T]) Enqueue(ctx context.Context, item T) error {
	env := wrap(ctx, item)
	ok, err := l.gate.admit(ctx, l.seq.Len, func() error {
		if err := l.seq.Push(env); err != nil {
			if errors.Is(err, blocking.ErrClosed) {
				return ErrLaneClosed
			}
			return err
		}
		return nil
	})
	if err := l.admitted(ctx, ok, err, l.seq.Len()); err != nil || !ok {
		return err
	}

	l.kick()
	return nil
}

// Run waits for ctx to be cancelled and then closes the lane, handling every
// item that was accepted before.
func (l *Sequential[T]) Run(ctx context.Context) error {
	<-ctx.Done()
	l.Close()
	return nil
}

// Close rejects new items and waits until every stored item is handled.
// It is safe to call more than once.
func (l *Sequential[T]) Close() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.closed = true
	l.mu.Unlock()

	l.seq.Close()
	l.gate.close()
	l.wg.Wait()

	// Items pushed right before close whose kick was refused.
	l.drainAll()
	l.log.Info("lane stopped")
}

// Stats returns the lane counters.
func (l *Sequential[T]) Stats() Stats {
	return l.snapshot(l.seq.Len())
}

// kick moves the lane from idle to running. It is a no-op while a worker is active.
func (l *Sequential[T]) kick() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed || !l.running.CompareAndSwap(false, true) {
		return
	}
	l.wg.Add(1)
	go l.work()
}

func (l *Sequential[T]) work() {
	defer l.wg.Done()
	for {
		l.drainAll()
		l.running.Store(false)

		// An Enqueue that lost the race with Store(false) may have seen the lane
		// running and skipped its kick; take the work over instead of leaving it.
		if l.seq.Len() == 0 || !l.running.CompareAndSwap(false, true) {
			return
		}
	}
}

func (l *Sequential[T]) drainAll() {
	for {
		env, ok := l.seq.TryPop()
		if !ok {
			return
		}
		l.gate.release()
		l.rt.Observer.Stored(l.kind, l.name, l.seq.Len())
		deliver(env.ctx, &l.base, l.h, env.item)
	}
}
