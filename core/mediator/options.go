package mediator

import (
	"log/slog"
	"time"

	"k8s.io/utils/clock"

	"github.com/dmitrymomot/mediator/core/lane"
)

// Option configures a Mediator.
type Option func(*Mediator)

// WithLogger sets the logger used by the mediator and every lane.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Mediator) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithObserver sets the observer notified of lane events, e.g. a metrics collector.
func WithObserver(o lane.Observer) Option {
	return func(m *Mediator) {
		if o != nil {
			m.observer = o
		}
	}
}

// WithScopeFactory sets the factory opening one execution scope per handler invocation.
//
// Example:
//
//	m := mediator.New(mediator.WithScopeFactory(pg.TxScope(pool)))
func WithScopeFactory(f lane.ScopeFactory) Option {
	return func(m *Mediator) {
		m.scope = f
	}
}

// WithDeadLetter sets the callback receiving terminal failures from background
// paths. The default logs them.
func WithDeadLetter(fn DeadLetterFunc) Option {
	return func(m *Mediator) {
		if fn != nil {
			m.deadLetter = fn
		}
	}
}

// WithShutdownTimeout configures how long Stop waits for lanes and handlers to finish.
func WithShutdownTimeout(d time.Duration) Option {
	return func(m *Mediator) {
		if d > 0 {
			m.shutdownTimeout = d
		}
	}
}

// WithMaxConcurrentHandlers limits concurrently running direct-lane handlers.
// Zero (default) means unlimited. Queueing lanes are single-flight or
// tick-driven and are not counted.
func WithMaxConcurrentHandlers(n int) Option {
	return func(m *Mediator) {
		if n >= 0 {
			m.maxConcurrent = n
		}
	}
}

// WithWaitPollInterval sets how often a publisher blocked by the Wait policy re-checks capacity.
func WithWaitPollInterval(d time.Duration) Option {
	return func(m *Mediator) {
		if d > 0 {
			m.waitPoll = d
		}
	}
}

// WithThrottleSkew sets the delay added past each computed throttle release instant.
func WithThrottleSkew(d time.Duration) Option {
	return func(m *Mediator) {
		if d > 0 {
			m.skew = d
		}
	}
}

// WithStaleThreshold configures after how long without handler activity a
// mediator with pending work is reported unhealthy. Default is 5 minutes.
func WithStaleThreshold(d time.Duration) Option {
	return func(m *Mediator) {
		if d > 0 {
			m.staleThreshold = d
		}
	}
}

// WithClock replaces the clock driving every lane. Intended for tests.
func WithClock(c clock.WithTickerAndDelayedExecution) Option {
	return func(m *Mediator) {
		if c != nil {
			m.clock = c
		}
	}
}
