package mediator

import (
	"cmp"
	"context"
	"fmt"
	"reflect"
	"slices"

	"github.com/dmitrymomot/mediator/core/lane"
)

// queueingOrder is the precedence of queueing lanes when a message type has
// more than one registration.
var queueingOrder = []lane.Kind{
	lane.KindAccumulator,
	lane.KindQueue,
	lane.KindStack,
	lane.KindDebounce,
	lane.KindThrottle,
}

// invoker calls one handler with a message of the route's type.
type invoker func(ctx context.Context, msg any) error

type queued struct {
	worker  lane.Worker
	enqueue invoker
}

type bubbler struct {
	sort int
	call func(ctx context.Context, msg any) (bool, error)
}

type responder func(ctx context.Context, msg any) (any, error)

// route is everything registered for one message type.
type route struct {
	name string

	lanes         map[lane.Kind]queued
	request       []invoker
	bubbling      []bubbler
	notification  []invoker
	parallel      []invoker
	fireAndForget []invoker
	response      responder
}

// Registration adds handlers to a Mediator. Build them with the lane
// constructors in this package and pass them to Register.
type Registration func(m *Mediator) error

// Register applies registrations in order and stops at the first error.
// Registering after Start returns ErrAlreadyStarted.
//
// Example:
//
//	err := m.Register(
//		mediator.Notification[UserCreated](sendWelcome),
//		mediator.Queue[ChargeCard](charge, lane.WithCapacity(1000, lane.Wait)),
//		mediator.Response(func(ctx context.Context, q GetUser) (User, error) { ... }),
//	)
func (m *Mediator) Register(regs ...Registration) error {
	for _, reg := range regs {
		if err := reg(m); err != nil {
			return err
		}
	}
	return nil
}

// routeFor returns the route for T, creating it. Callers hold m.mu.
func routeFor[T any](m *Mediator) (*route, error) {
	if m.state != stateNew {
		return nil, ErrAlreadyStarted
	}
	t := reflect.TypeFor[T]()
	r, ok := m.routes[t]
	if !ok {
		r = &route{name: m.nameOf(t), lanes: make(map[lane.Kind]queued)}
		m.routes[t] = r
	}
	return r, nil
}

func direct[T any](m *Mediator, kind lane.Kind, name string, h lane.Handler[T]) invoker {
	return func(ctx context.Context, msg any) error {
		return lane.Execute(ctx, m.runtime(), kind, name, h, msg.(T))
	}
}

func addDirect[T any](kind lane.Kind, h lane.Handler[T], pick func(*route) *[]invoker) Registration {
	return func(m *Mediator) error {
		if h == nil {
			return lane.ErrNilHandler
		}
		m.mu.Lock()
		defer m.mu.Unlock()

		r, err := routeFor[T](m)
		if err != nil {
			return err
		}
		list := pick(r)
		*list = append(*list, direct(m, kind, r.name, h))
		return nil
	}
}

// Request registers a handler awaited by PublishAndAwait. Every handler runs
// concurrently and is retried individually through its error handler.
func Request[T any](h lane.Handler[T]) Registration {
	return addDirect(lane.KindRequest, h, func(r *route) *[]invoker { return &r.request })
}

// Notification registers a fan-out handler. PublishAndAwait waits for every
// handler and joins their failures.
func Notification[T any](h lane.Handler[T]) Registration {
	return addDirect(lane.KindNotification, h, func(r *route) *[]invoker { return &r.notification })
}

// Parallel registers a fan-out handler that Publish runs in the background and
// PublishAndAwait waits for.
func Parallel[T any](h lane.Handler[T]) Registration {
	return addDirect(lane.KindParallel, h, func(r *route) *[]invoker { return &r.parallel })
}

// FireAndForget registers a handler that is never awaited, not even by PublishAndAwait.
// Failures go to the dead-letter callback.
func FireAndForget[T any](h lane.Handler[T]) Registration {
	return addDirect(lane.KindFireAndForget, h, func(r *route) *[]invoker { return &r.fireAndForget })
}

// Bubbling registers a link of an ordered handler chain. Links run one after
// another in ascending sort order, registration order breaking ties, until one
// returns false or an error.
func Bubbling[T any](sort int, fn func(ctx context.Context, msg T) (bool, error)) Registration {
	return func(m *Mediator) error {
		if fn == nil {
			return lane.ErrNilHandler
		}
		m.mu.Lock()
		defer m.mu.Unlock()

		r, err := routeFor[T](m)
		if err != nil {
			return err
		}

		name := r.name
		call := func(ctx context.Context, msg any) (bool, error) {
			var next bool
			h := lane.HandlerFunc[T](func(ctx context.Context, msg T) error {
				var err error
				next, err = fn(ctx, msg)
				return err
			})
			err := lane.Execute(ctx, m.runtime(), lane.KindBubbling, name, h, msg.(T))
			return next && err == nil, err
		}

		r.bubbling = append(r.bubbling, bubbler{sort: sort, call: call})
		slices.SortStableFunc(r.bubbling, func(a, b bubbler) int { return cmp.Compare(a.sort, b.sort) })
		return nil
	}
}

// Response registers the single request/response handler for T, reached through GetResponse.
func Response[T, R any](fn func(ctx context.Context, msg T) (R, error)) Registration {
	return func(m *Mediator) error {
		if fn == nil {
			return lane.ErrNilHandler
		}
		m.mu.Lock()
		defer m.mu.Unlock()

		r, err := routeFor[T](m)
		if err != nil {
			return err
		}
		if r.response != nil {
			return fmt.Errorf("%w: response for %s", ErrDuplicateHandler, r.name)
		}

		name := r.name
		r.response = func(ctx context.Context, msg any) (any, error) {
			var out R
			h := lane.HandlerFunc[T](func(ctx context.Context, msg T) error {
				var err error
				out, err = fn(ctx, msg)
				return err
			})
			if err := lane.Execute(ctx, m.runtime(), lane.KindResponse, name, h, msg.(T)); err != nil {
				return nil, err
			}
			return out, nil
		}
		return nil
	}
}

func addLane[T any](kind lane.Kind, build func(m *Mediator, name string) (lane.Lane[T], error)) Registration {
	return func(m *Mediator) error {
		m.mu.Lock()
		defer m.mu.Unlock()

		r, err := routeFor[T](m)
		if err != nil {
			return err
		}
		if _, exists := r.lanes[kind]; exists {
			return fmt.Errorf("%w: %s lane for %s", ErrDuplicateHandler, kind, r.name)
		}

		l, err := build(m, r.name)
		if err != nil {
			return fmt.Errorf("%s lane for %s: %w", kind, r.name, err)
		}

		r.lanes[kind] = queued{
			worker: l,
			enqueue: func(ctx context.Context, msg any) error {
				return l.Enqueue(ctx, msg.(T))
			},
		}
		m.workers = append(m.workers, l)
		return nil
	}
}

// Queue registers a FIFO lane: one handler call at a time, in publish order.
func Queue[T any](h lane.Handler[T], opts ...lane.Option) Registration {
	return addLane(lane.KindQueue, func(m *Mediator, name string) (lane.Lane[T], error) {
		return lane.NewQueue(name, h, m.runtime(), opts...)
	})
}

// Stack registers a LIFO lane: one handler call at a time, newest first.
func Stack[T any](h lane.Handler[T], opts ...lane.Option) Registration {
	return addLane(lane.KindStack, func(m *Mediator, name string) (lane.Lane[T], error) {
		return lane.NewStack(name, h, m.runtime(), opts...)
	})
}

// Debounce registers a lane delivering only the last message of each burst.
// lane.WithInterval is required.
func Debounce[T any](h lane.Handler[T], opts ...lane.Option) Registration {
	return addLane(lane.KindDebounce, func(m *Mediator, name string) (lane.Lane[T], error) {
		return lane.NewDebounce(name, h, m.runtime(), opts...)
	})
}

// Throttle registers a rate-limited batch lane. At least one lane.WithWindows window is required.
func Throttle[T any](h lane.Handler[[]T], opts ...lane.Option) Registration {
	return addLane(lane.KindThrottle, func(m *Mediator, name string) (lane.Lane[T], error) {
		return lane.NewThrottle(name, h, m.runtime(), opts...)
	})
}

// Accumulator registers an interval batch lane. lane.WithInterval of at least
// lane.MinAccumulatorInterval is required.
func Accumulator[T any](h lane.Handler[[]T], opts ...lane.Option) Registration {
	return addLane(lane.KindAccumulator, func(m *Mediator, name string) (lane.Lane[T], error) {
		return lane.NewAccumulator(name, h, m.runtime(), opts...)
	})
}
