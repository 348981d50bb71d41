package lane

import (
	"context"
	"errors"

	"github.com/dmitrymomot/mediator/core/logger"
)

// Worker is the lifecycle surface shared by every queueing lane.
type Worker interface {
	Kind() Kind
	Name() string
	// Run blocks until ctx is cancelled, then shuts the lane down and returns
	// once stored work is finished or accounted for as dropped.
	Run(ctx context.Context) error
	Stats() Stats
}

// Lane is a queueing lane accepting items of type T.
type Lane[T any] interface {
	Worker
	// Enqueue stores item for the lane's worker. The caller's context bounds
	// only the admission wait; processing uses a context detached from it.
	Enqueue(ctx context.Context, item T) error
}

// envelope carries an item together with the detached context it was published with.
type envelope[T any] struct {
	ctx  context.Context
	item T
}

func wrap[T any](ctx context.Context, item T) envelope[T] {
	return envelope[T]{ctx: context.WithoutCancel(ctx), item: item}
}

// admitted maps the gate result onto lane counters and the caller-visible error.
func (b *base) admitted(ctx context.Context, ok bool, err error, depth int) error {
	switch {
	case errors.Is(err, ErrCapacityExceeded):
		b.markRejected()
		b.log.WarnContext(ctx, "capacity exceeded", logger.Depth(depth))
		return err
	case errors.Is(err, ErrLaneClosed):
		b.markRejected()
		return err
	case err != nil:
		return err
	case !ok:
		b.markDropped(1)
		b.log.WarnContext(ctx, "message dropped, lane at capacity", logger.Depth(depth))
		return nil
	}
	b.markAccepted(depth)
	return nil
}
