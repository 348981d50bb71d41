package lane

import (
	"context"
	"errors"

	"github.com/dmitrymomot/mediator/core/logger"
	"github.com/dmitrymomot/mediator/pkg/throttle"
)

// Throttle releases items in batches no larger than every configured window
// permits. Batches are handled one after another by the lane worker.
type Throttle[T any] struct {
	base
	h    Handler[[]T]
	buf  *throttle.Buffer[T]
	gate *gate
}

// NewThrottle creates a throttle lane for message name. At least one window is required.
func NewThrottle[T any](name string, h Handler[[]T], rt Runtime, opts ...Option) (*Throttle[T], error) {
	if h == nil {
		return nil, ErrNilHandler
	}
	o := NewOptions(opts...)
	if err := o.Validate(KindThrottle); err != nil {
		return nil, err
	}

	l := &Throttle[T]{
		base: newBase(KindThrottle, name, rt),
		h:    h,
	}
	buf, err := throttle.NewBuffer[T](o.Windows,
		throttle.WithClock(l.rt.Clock),
		throttle.WithSkew(l.rt.Skew),
	)
	if err != nil {
		return nil, invalid("throttle: %v", err)
	}
	l.buf = buf
	l.gate = newGate(KindThrottle, o, l.rt, nil)
	return l, nil
}

// Enqueue applies the capacity policy and buffers item.
func (l *Throttle[T]) Enqueue(ctx context.Context, item T) error {
	ok, err := l.gate.admit(ctx, l.buf.Len, func() error {
		if err := l.buf.Enqueue(item); err != nil {
			if errors.Is(err, throttle.ErrClosed) {
				return ErrLaneClosed
			}
			return err
		}
		return nil
	})
	return l.admitted(ctx, ok, err, l.buf.Len())
}

// Run releases batches until ctx is cancelled. Items still buffered at that
// point cannot be released within the windows and are dropped.
func (l *Throttle[T]) Run(ctx context.Context) error {
	l.log.InfoContext(ctx, "lane started", logger.Count("windows", len(l.buf.Windows())))
	hctx := context.WithoutCancel(ctx)

	for {
		batch, ok := l.buf.TryDequeueBatch(ctx)
		if !ok {
			break
		}
		l.gate.release()
		l.rt.Observer.Stored(l.kind, l.name, l.buf.Len())
		deliver(hctx, &l.base, l.h, batch)
	}

	rest := l.buf.Close()
	l.gate.close()
	if len(rest) > 0 {
		l.markDropped(len(rest))
		l.log.WarnContext(hctx, "lane stopped with buffered messages", logger.Count("dropped", len(rest)))
		return nil
	}
	l.log.InfoContext(hctx, "lane stopped")
	return nil
}

// Stats returns the lane counters.
func (l *Throttle[T]) Stats() Stats {
	return l.snapshot(l.buf.Len())
}
