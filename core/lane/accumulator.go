package lane

import (
	"context"
	"errors"
	"sync"

	"github.com/dmitrymomot/mediator/core/logger"
	"github.com/dmitrymomot/mediator/pkg/interval"
)

// Accumulator collects items and hands them to the handler as one batch per tick.
// Ticks are independent unless WithSerializedTicks is set.
type Accumulator[T any] struct {
	base
	h        Handler[[]T]
	maxBatch int
	ticker   *interval.Ticker
	gate     *gate

	mu     sync.Mutex
	items  []T
	closed bool
}

// NewAccumulator creates an accumulator lane for message name.
// The interval must be at least MinAccumulatorInterval.
func NewAccumulator[T any](name string, h Handler[[]T], rt Runtime, opts ...Option) (*Accumulator[T], error) {
	if h == nil {
		return nil, ErrNilHandler
	}
	o := NewOptions(opts...)
	if err := o.Validate(KindAccumulator); err != nil {
		return nil, err
	}

	l := &Accumulator[T]{
		base:     newBase(KindAccumulator, name, rt),
		h:        h,
		maxBatch: o.MaxBatch,
	}

	tickerOpts := []interval.Option{
		interval.WithClock(l.rt.Clock),
		interval.WithLogger(l.log),
	}
	if o.SerializedTicks {
		tickerOpts = append(tickerOpts, interval.WithSerializedTicks())
	}
	ticker, err := interval.New(o.Interval, l.tick, tickerOpts...)
	if err != nil {
		return nil, invalid("accumulator: %v", err)
	}
	l.ticker = ticker
	l.gate = newGate(KindAccumulator, o, l.rt, l.drainNow)
	return l, nil
}

// Enqueue applies the capacity policy and stores item for the next tick.
func (l *Accumulator[T]) Enqueue(ctx context.Context, item T) error {
	ok, err := l.gate.admit(ctx, l.Len, func() error {
		l.mu.Lock()
		defer l.mu.Unlock()
		if l.closed {
			return ErrLaneClosed
		}
		l.items = append(l.items, item)
		return nil
	})
	return l.admitted(ctx, ok, err, l.Len())
}

// Len returns the number of stored items.
func (l *Accumulator[T]) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.items)
}

// Run ticks until ctx is cancelled, then hands every remaining item to the
// handler in batches before returning.
func (l *Accumulator[T]) Run(ctx context.Context) error {
	err := l.ticker.Start(ctx)
	if errors.Is(err, interval.ErrAlreadyStarted) {
		return err
	}

	l.mu.Lock()
	l.closed = true
	l.mu.Unlock()
	l.gate.close()

	hctx := context.WithoutCancel(ctx)
	flushed := 0
	for {
		batch := l.take()
		if len(batch) == 0 {
			break
		}
		flushed += len(batch)
		deliver(hctx, &l.base, l.h, batch)
	}
	l.log.InfoContext(hctx, "lane stopped", logger.Count("flushed", flushed))
	return nil
}

// Stats returns the lane counters.
func (l *Accumulator[T]) Stats() Stats {
	return l.snapshot(l.Len())
}

func (l *Accumulator[T]) tick(ctx context.Context) {
	batch := l.take()
	if len(batch) == 0 {
		return
	}
	l.gate.release()
	l.log.DebugContext(ctx, "draining batch", logger.BatchSize(len(batch)))
	deliver(ctx, &l.base, l.h, batch)
}

// drainNow asks the ticker for an out-of-band tick. Before Run starts the
// ticker, the tick runs on the caller's goroutine instead.
func (l *Accumulator[T]) drainNow(ctx context.Context) {
	if l.ticker.Stats().IsRunning {
		l.ticker.Trigger()
		return
	}

	l.mu.Lock()
	closed := l.closed
	l.mu.Unlock()
	if !closed {
		l.tick(context.WithoutCancel(ctx))
	}
}

// take removes up to maxBatch items, or all of them when maxBatch is zero.
func (l *Accumulator[T]) take() []T {
	l.mu.Lock()
	defer l.mu.Unlock()

	n := len(l.items)
	if n == 0 {
		return nil
	}
	if l.maxBatch > 0 && n > l.maxBatch {
		n = l.maxBatch
	}

	batch := make([]T, n)
	copy(batch, l.items[:n])
	rest := copy(l.items, l.items[n:])
	clear(l.items[rest:])
	l.items = l.items[:rest]
	l.rt.Observer.Stored(l.kind, l.name, rest)
	return batch
}
