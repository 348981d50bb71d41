package lane

import (
	"context"
	"errors"

	"github.com/dmitrymomot/mediator/pkg/debounce"
)

// Debounce delivers only the latest item of each burst, once the quiet
// interval passes without another Enqueue.
type Debounce[T any] struct {
	base
	h    Handler[T]
	cell *debounce.Cell[envelope[T]]
}

// NewDebounce creates a debounce lane for message name. WithInterval is required.
func NewDebounce[T any](name string, h Handler[T], rt Runtime, opts ...Option) (*Debounce[T], error) {
	if h == nil {
		return nil, ErrNilHandler
	}
	o := NewOptions(opts...)
	if err := o.Validate(KindDebounce); err != nil {
		return nil, err
	}

	l := &Debounce[T]{
		base: newBase(KindDebounce, name, rt),
		h:    h,
	}
	l.cell = debounce.New(o.Interval, l.handle, debounce.WithClock(l.rt.Clock))
	return l, nil
}

// Enqueue replaces the pending item and restarts the quiet interval.
// A replaced item counts as dropped.
func (l *Debounce[T]) Enqueue(ctx context.Context, item T) error {
	replaced, err := l.cell.Set(wrap(ctx, item))
	if errors.Is(err, debounce.ErrClosed) {
		err = ErrLaneClosed
	}
	if err != nil {
		return l.admitted(ctx, false, err, 0)
	}

	if replaced {
		l.markDropped(1)
	}
	l.markAccepted(1)
	return nil
}

// Run waits for ctx to be cancelled, then delivers the pending item, if any,
// without waiting out the quiet interval.
func (l *Debounce[T]) Run(ctx context.Context) error {
	<-ctx.Done()
	l.Close()
	return nil
}

// Close flushes the pending item and rejects new ones.
func (l *Debounce[T]) Close() {
	l.cell.Flush()
	if _, ok := l.cell.Close(); ok {
		l.markDropped(1)
	}
	l.log.Info("lane stopped")
}

// Stats returns the lane counters. Stored is 1 while an item is pending.
func (l *Debounce[T]) Stats() Stats {
	stored := 0
	if l.cell.Pending() {
		stored = 1
	}
	return l.snapshot(stored)
}

func (l *Debounce[T]) handle(env envelope[T]) {
	l.rt.Observer.Stored(l.kind, l.name, 0)
	deliver(env.ctx, &l.base, l.h, env.item)
}
