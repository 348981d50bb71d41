package lane_test

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrymomot/mediator/core/lane"
)

type recorder[T any] struct {
	mu    sync.Mutex
	items []T
}

func (r *recorder[T]) add(v T) {
	r.mu.Lock()
	r.items = append(r.items, v)
	r.mu.Unlock()
}

func (r *recorder[T]) snapshot() []T {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]T(nil), r.items...)
}

func (r *recorder[T]) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

type spyObserver struct {
	enqueued atomic.Int32
	dropped  atomic.Int32
	rejected atomic.Int32
	handled  atomic.Int32
	failed   atomic.Int32
}

func (s *spyObserver) Enqueued(lane.Kind, string) { s.enqueued.Add(1) }
func (s *spyObserver) Dropped(lane.Kind, string)  { s.dropped.Add(1) }
func (s *spyObserver) Rejected(lane.Kind, string) { s.rejected.Add(1) }
func (s *spyObserver) Stored(lane.Kind, string, int) {}

func (s *spyObserver) Handled(_ lane.Kind, _ string, _ time.Duration, err error) {
	s.handled.Add(1)
	if err != nil {
		s.failed.Add(1)
	}
}

type scopeSpy struct {
	opened atomic.Int32
	closed atomic.Int32
	mu     sync.Mutex
	errs   []error
}

type scopeKey struct{}

func (s *scopeSpy) factory(ctx context.Context) (context.Context, lane.Scope, error) {
	n := s.opened.Add(1)
	return context.WithValue(ctx, scopeKey{}, n), scopeCloser{s}, nil
}

type scopeCloser struct{ s *scopeSpy }

func (c scopeCloser) Close(err error) error {
	c.s.closed.Add(1)
	c.s.mu.Lock()
	c.s.errs = append(c.s.errs, err)
	c.s.mu.Unlock()
	return nil
}

// blockingHandler records items and parks on the first one until release is closed.
func blockingHandler(rec *recorder[int], first int, started chan<- struct{}, release <-chan struct{}) lane.HandlerFunc[int] {
	return func(_ context.Context, n int) error {
		rec.add(n)
		if n == first {
			close(started)
			<-release
		}
		return nil
	}
}
