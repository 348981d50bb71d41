package mediator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
	"k8s.io/utils/clock"

	"github.com/dmitrymomot/mediator/core/lane"
	"github.com/dmitrymomot/mediator/pkg/blocking"
)

const (
	stateNew = iota
	stateRunning
	stateStopped
)

// Mediator routes published messages to the lane registered for their type.
//
// Example:
//
//	m := mediator.New(mediator.WithLogger(logger))
//	if err := m.Register(
//		mediator.Notification[UserCreated](lane.HandlerFunc[UserCreated](sendWelcome)),
//		mediator.Queue[ChargeCard](lane.HandlerFunc[ChargeCard](charge)),
//	); err != nil {
//		return err
//	}
//
//	g, ctx := errgroup.WithContext(ctx)
//	g.Go(m.Run(ctx))
//
//	err := m.Publish(ctx, UserCreated{ID: id})
type Mediator struct {
	mu      sync.RWMutex
	routes  map[reflect.Type]*route
	workers []lane.Worker
	names   sync.Map
	state   int

	logger          *slog.Logger
	observer        lane.Observer
	scope           lane.ScopeFactory
	deadLetter      DeadLetterFunc
	clock           clock.WithTickerAndDelayedExecution
	shutdownTimeout time.Duration
	maxConcurrent   int
	waitPoll        time.Duration
	skew            time.Duration
	staleThreshold  time.Duration

	tasks *blocking.Sequence[task]
	sem   *semaphore.Weighted
	wg    sync.WaitGroup

	cancel context.CancelFunc
	done   chan struct{}

	published      atomic.Uint64
	unhandled      atomic.Uint64
	processed      atomic.Uint64
	failed         atomic.Uint64
	activeHandlers atomic.Int32
	lastActivityAt atomic.Int64
}

// Stats provides observability metrics for monitoring and debugging.
type Stats struct {
	Published      uint64       // Messages accepted by a lane
	Unhandled      uint64       // Publishes no lane claimed
	Processed      uint64       // Direct-lane handler calls that succeeded
	Failed         uint64       // Direct-lane handler calls that failed terminally
	ActiveHandlers int32        // Direct-lane handler calls in flight
	PendingTasks   int          // Background dispatches not yet started
	IsRunning      bool
	LastActivityAt time.Time
	Lanes          []lane.Stats // One entry per queueing lane
}

// New creates a Mediator. Register handlers, then Start it.
func New(opts ...Option) *Mediator {
	m := &Mediator{
		routes:          make(map[reflect.Type]*route),
		logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
		observer:        lane.NopObserver{},
		clock:           clock.RealClock{},
		shutdownTimeout: 30 * time.Second,
		waitPoll:        lane.DefaultWaitPoll,
		staleThreshold:  5 * time.Minute,
		tasks:           blocking.NewQueue[task](),
	}
	m.deadLetter = m.logDeadLetter

	for _, opt := range opts {
		opt(m)
	}

	if m.maxConcurrent > 0 {
		m.sem = semaphore.NewWeighted(int64(m.maxConcurrent))
	}
	return m
}

// runtime returns the collaborators handed to every queueing lane.
func (m *Mediator) runtime() lane.Runtime {
	return lane.Runtime{
		Logger:   m.logger,
		Observer: activity{next: m.observer, m: m},
		Scope:    m.scope,
		Report:   m.report,
		Clock:    m.clock,
		Skew:     m.skew,
		WaitPoll: m.waitPoll,
	}
}

// Start runs every lane worker and the background dispatcher until ctx is
// cancelled or Stop is called. It blocks; use Run with errgroup.
// A Mediator can be started once.
func (m *Mediator) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.state != stateNew {
		m.mu.Unlock()
		return ErrAlreadyStarted
	}
	ctx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.done = make(chan struct{})
	m.state = stateRunning
	workers := slices.Clone(m.workers)
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.state = stateStopped
		m.mu.Unlock()
		cancel()
		close(m.done)
	}()

	m.logger.InfoContext(ctx, "mediator started",
		slog.Int("routes", len(m.routes)),
		slog.Int("lanes", len(workers)))

	g, gctx := errgroup.WithContext(ctx)
	for _, w := range workers {
		g.Go(func() error {
			if err := w.Run(gctx); err != nil {
				return fmt.Errorf("%s lane for %s: %w", w.Kind(), w.Name(), err)
			}
			return nil
		})
	}
	g.Go(func() error {
		m.runBackground(gctx)
		return nil
	})

	err := g.Wait()
	m.logger.Info("mediator stopped")
	if err != nil {
		return err
	}
	return ctx.Err()
}

// Stop cancels the mediator and waits up to the shutdown timeout for lanes to
// drain and in-flight handlers to finish.
func (m *Mediator) Stop() error {
	m.mu.Lock()
	if m.state != stateRunning || m.cancel == nil {
		m.mu.Unlock()
		return ErrNotStarted
	}
	cancel := m.cancel
	done := m.done
	m.cancel = nil
	m.mu.Unlock()

	cancel()

	m.logger.Info("mediator stopping, waiting for lanes and handlers to finish",
		slog.Duration("timeout", m.shutdownTimeout))

	ctx, ctxCancel := context.WithTimeout(context.Background(), m.shutdownTimeout)
	defer ctxCancel()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		m.logger.Warn("mediator shutdown timeout exceeded - some handlers may be abandoned",
			slog.Duration("timeout", m.shutdownTimeout))
		return fmt.Errorf("shutdown timeout exceeded after %s", m.shutdownTimeout)
	}
}

// Run provides errgroup compatibility for coordinated lifecycle management.
//
// Example:
//
//	g, ctx := errgroup.WithContext(context.Background())
//	g.Go(m.Run(ctx))
func (m *Mediator) Run(ctx context.Context) func() error {
	return func() error {
		errCh := make(chan error, 1)
		go func() {
			errCh <- m.Start(ctx)
		}()

		select {
		case <-ctx.Done():
			_ = m.Stop()
			<-errCh
			return nil
		case err := <-errCh:
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		}
	}
}

// Stats returns current mediator and lane statistics.
func (m *Mediator) Stats() Stats {
	m.mu.RLock()
	running := m.state == stateRunning
	workers := slices.Clone(m.workers)
	m.mu.RUnlock()

	lanes := make([]lane.Stats, 0, len(workers))
	for _, w := range workers {
		lanes = append(lanes, w.Stats())
	}

	var last time.Time
	if ts := m.lastActivityAt.Load(); ts > 0 {
		last = time.Unix(0, ts)
	}

	return Stats{
		Published:      m.published.Load(),
		Unhandled:      m.unhandled.Load(),
		Processed:      m.processed.Load(),
		Failed:         m.failed.Load(),
		ActiveHandlers: m.activeHandlers.Load(),
		PendingTasks:   m.tasks.Len(),
		IsRunning:      running,
		LastActivityAt: last,
		Lanes:          lanes,
	}
}

// Healthcheck validates that the mediator is running and making progress.
// Returns nil if healthy, or an error wrapping ErrHealthcheckFailed.
func (m *Mediator) Healthcheck(ctx context.Context) error {
	stats := m.Stats()

	if !stats.IsRunning {
		return errors.Join(ErrHealthcheckFailed, ErrNotRunning)
	}

	pending := stats.PendingTasks
	for _, l := range stats.Lanes {
		pending += l.Stored
	}
	if pending > 0 && !stats.LastActivityAt.IsZero() &&
		m.clock.Since(stats.LastActivityAt) > m.staleThreshold {
		return errors.Join(ErrHealthcheckFailed,
			fmt.Errorf("%w: %d pending, last activity %s", ErrStalled, pending, stats.LastActivityAt.Format(time.RFC3339)))
	}

	return nil
}

// nameOf returns the message name for t: the type name without pointers,
// or its string form for unnamed types.
func (m *Mediator) nameOf(t reflect.Type) string {
	if name, ok := m.names.Load(t); ok {
		return name.(string)
	}

	original := t
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	name := t.Name()
	if name == "" {
		name = t.String()
	}

	m.names.Store(original, name)
	return name
}

func (m *Mediator) touch() {
	m.lastActivityAt.Store(m.clock.Now().UnixNano())
}

// activity wraps the configured observer to track handler activity for Healthcheck.
type activity struct {
	next lane.Observer
	m    *Mediator
}

func (a activity) Enqueued(k lane.Kind, msg string) { a.next.Enqueued(k, msg) }
func (a activity) Dropped(k lane.Kind, msg string)  { a.next.Dropped(k, msg) }
func (a activity) Rejected(k lane.Kind, msg string) { a.next.Rejected(k, msg) }
func (a activity) Stored(k lane.Kind, msg string, depth int) {
	a.next.Stored(k, msg, depth)
}

func (a activity) Handled(k lane.Kind, msg string, d time.Duration, err error) {
	a.m.touch()
	a.next.Handled(k, msg, d, err)
}
