package mediator

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/dmitrymomot/mediator/core/lane"
	"github.com/dmitrymomot/mediator/core/logger"
	"github.com/dmitrymomot/mediator/pkg/async"
	"github.com/dmitrymomot/mediator/pkg/blocking"
)

// Publish dispatches msg to the first lane registered for its type, in the
// order accumulator, queue, stack, debounce, throttle, request, bubbling,
// notification, parallel, fire-and-forget.
//
// Queueing lanes accept the message before Publish returns, so capacity
// errors reach the caller. Direct lanes run in the background; their failures
// go to the dead-letter callback. Publish returns ErrNoHandler when no lane
// claims the message type.
func (m *Mediator) Publish(ctx context.Context, msg any) error {
	return m.dispatch(ctx, msg, false)
}

// TryPublish is Publish that reports false instead of ErrNoHandler when no
// lane claims the message type.
func (m *Mediator) TryPublish(ctx context.Context, msg any) (bool, error) {
	err := m.dispatch(ctx, msg, false)
	switch {
	case errors.Is(err, ErrNoHandler):
		return false, nil
	case errors.Is(err, ErrNilMessage):
		return false, err
	}
	return true, err
}

// PublishAndAwait dispatches like Publish but waits for request, bubbling,
// notification and parallel handlers to finish and returns their joined
// failures. Queueing lanes resolve once the message is accepted, and
// fire-and-forget handlers are never awaited.
func (m *Mediator) PublishAndAwait(ctx context.Context, msg any) error {
	return m.dispatch(ctx, msg, true)
}

// GetResponse sends msg to its response handler and returns the result.
//
// Example:
//
//	user, err := mediator.GetResponse[User](ctx, m, GetUser{ID: id})
func GetResponse[R, T any](ctx context.Context, m *Mediator, msg T) (R, error) {
	var zero R

	r, err := m.lookup(msg)
	if err != nil {
		return zero, err
	}
	if r.response == nil {
		m.unhandled.Add(1)
		return zero, fmt.Errorf("%w: response for %s", ErrNoHandler, r.name)
	}

	ctx = WithEnvelope(ctx, newEnvelope(ctx, r.name, m.clock.Now()))
	var out any
	err = m.call(ctx, lane.KindResponse, r.name, msg, func(ctx context.Context, msg any) error {
		var err error
		out, err = r.response(ctx, msg)
		return err
	})
	if err != nil {
		return zero, err
	}

	res, ok := out.(R)
	if !ok && out != nil {
		return zero, fmt.Errorf("%w: %s returns %T, not %s", ErrResponseType, r.name, out, reflect.TypeFor[R]())
	}
	return res, nil
}

func (m *Mediator) lookup(msg any) (*route, error) {
	if msg == nil {
		return nil, ErrNilMessage
	}
	t := reflect.TypeOf(msg)

	m.mu.RLock()
	r, ok := m.routes[t]
	m.mu.RUnlock()

	if !ok {
		m.unhandled.Add(1)
		return nil, fmt.Errorf("%w: %s", ErrNoHandler, m.nameOf(t))
	}
	return r, nil
}

func (m *Mediator) dispatch(ctx context.Context, msg any, await bool) error {
	r, err := m.lookup(msg)
	if err != nil {
		return err
	}
	ctx = WithEnvelope(ctx, newEnvelope(ctx, r.name, m.clock.Now()))

	for _, kind := range queueingOrder {
		if q, ok := r.lanes[kind]; ok {
			if err := q.enqueue(ctx, msg); err != nil {
				return err
			}
			m.published.Add(1)
			return nil
		}
	}

	switch {
	case len(r.request) > 0:
		return m.fanOut(ctx, lane.KindRequest, r, r.request, msg, await)
	case len(r.bubbling) > 0:
		if await {
			m.published.Add(1)
			return m.bubble(ctx, r, msg)
		}
		return m.background(ctx, func(ctx context.Context) {
			m.spawn(ctx, func(ctx context.Context) {
				if err := m.bubble(ctx, r, msg); err != nil {
					m.report(ctx, lane.Report{Lane: lane.KindBubbling, Message: r.name, Payload: msg, Err: err})
				}
			})
		})
	case len(r.notification) > 0:
		return m.fanOut(ctx, lane.KindNotification, r, r.notification, msg, await)
	case len(r.parallel) > 0:
		return m.fanOut(ctx, lane.KindParallel, r, r.parallel, msg, await)
	case len(r.fireAndForget) > 0:
		return m.fanOut(ctx, lane.KindFireAndForget, r, r.fireAndForget, msg, false)
	}

	m.unhandled.Add(1)
	return fmt.Errorf("%w: %s has only a response handler, use GetResponse", ErrNoHandler, r.name)
}

// fanOut runs every handler concurrently, either awaited by the caller or
// scheduled on the background runner.
func (m *Mediator) fanOut(ctx context.Context, kind lane.Kind, r *route, handlers []invoker, msg any, await bool) error {
	if !await {
		return m.background(ctx, func(ctx context.Context) {
			for _, inv := range handlers {
				m.spawn(ctx, func(ctx context.Context) {
					if err := m.call(ctx, kind, r.name, msg, inv); err != nil {
						m.report(ctx, lane.Report{Lane: kind, Message: r.name, Payload: msg, Err: err})
					}
				})
			}
		})
	}

	m.published.Add(1)
	futures := make([]*async.ExecFuture, 0, len(handlers))
	for _, inv := range handlers {
		futures = append(futures, async.Exec(ctx, inv, func(ctx context.Context, inv invoker) error {
			if m.sem != nil {
				if err := m.sem.Acquire(ctx, 1); err != nil {
					return err
				}
				defer m.sem.Release(1)
			}
			return m.call(ctx, kind, r.name, msg, inv)
		}))
	}
	return async.ExecAllContext(ctx, futures...)
}

// bubble runs the chain in sort order until a link stops it.
func (m *Mediator) bubble(ctx context.Context, r *route, msg any) error {
	for _, b := range r.bubbling {
		var next bool
		err := m.call(ctx, lane.KindBubbling, r.name, msg, func(ctx context.Context, msg any) error {
			var err error
			next, err = b.call(ctx, msg)
			return err
		})
		if err != nil {
			return err
		}
		if !next {
			return nil
		}
	}
	return nil
}

// call runs one direct-lane handler with accounting and logging.
func (m *Mediator) call(ctx context.Context, kind lane.Kind, name string, msg any, inv invoker) error {
	m.activeHandlers.Add(1)
	defer m.activeHandlers.Add(-1)

	start := m.clock.Now()
	err := inv(ctx, msg)
	d := m.clock.Since(start)

	m.observer.Handled(kind, name, d, err)
	m.touch()

	if err != nil {
		m.failed.Add(1)
		m.logger.ErrorContext(ctx, "handler failed",
			logger.Lane(string(kind)),
			logger.Message(name),
			logger.MessageID(MessageID(ctx)),
			logger.Duration(d),
			logger.Error(err))
		return err
	}

	m.processed.Add(1)
	m.logger.DebugContext(ctx, "handler completed",
		logger.Lane(string(kind)),
		logger.Message(name),
		logger.MessageID(MessageID(ctx)),
		logger.Duration(d))
	return nil
}

// task is a dispatch scheduled on the background runner.
type task struct {
	ctx context.Context
	run func(ctx context.Context)
}

// background schedules run on the runner with a context detached from the caller.
// Tasks published before Start wait for it.
func (m *Mediator) background(ctx context.Context, run func(ctx context.Context)) error {
	if err := m.tasks.Push(task{ctx: context.WithoutCancel(ctx), run: run}); err != nil {
		if errors.Is(err, blocking.ErrClosed) {
			return lane.ErrLaneClosed
		}
		return err
	}
	m.published.Add(1)
	return nil
}

// spawn starts fn on its own goroutine, waiting for a slot when
// WithMaxConcurrentHandlers is set. Only the runner goroutine calls it.
func (m *Mediator) spawn(ctx context.Context, fn func(ctx context.Context)) {
	if m.sem != nil {
		// Handlers always return, so the slot eventually frees.
		_ = m.sem.Acquire(context.Background(), 1)
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		if m.sem != nil {
			defer m.sem.Release(1)
		}
		fn(ctx)
	}()
}

// runBackground is the single reader of the task queue. On shutdown it runs
// the tasks still queued and waits for every spawned handler.
func (m *Mediator) runBackground(ctx context.Context) {
	for {
		t, ok := m.tasks.TryTake(ctx)
		if !ok {
			break
		}
		t.run(t.ctx)
	}

	m.tasks.Close()
	for {
		t, ok := m.tasks.TryPop()
		if !ok {
			break
		}
		t.run(t.ctx)
	}

	m.wg.Wait()
}
