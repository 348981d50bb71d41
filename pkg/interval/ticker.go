package interval

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"k8s.io/utils/clock"
)

// TickFunc is called on every tick.
type TickFunc func(ctx context.Context)

// Ticker calls a TickFunc on a fixed period and on demand via Trigger.
// By default each tick runs in its own goroutine, so a slow tick does not
// delay the next one; WithSerializedTicks runs them one after another.
type Ticker struct {
	period     time.Duration
	onTick     TickFunc
	serialized bool

	clock           clock.WithTicker
	logger          *slog.Logger
	shutdownTimeout time.Duration

	mu      sync.Mutex
	cancel  context.CancelFunc
	stopped chan struct{}
	running atomic.Bool
	wg      sync.WaitGroup
	trigger chan struct{}

	ticks     atomic.Uint64
	triggered atomic.Uint64
}

// Stats provides tick counters for observability.
type Stats struct {
	Ticks     uint64 // Periodic ticks fired
	Triggered uint64 // Out-of-band ticks fired
	IsRunning bool
}

// Option configures a Ticker.
type Option func(*Ticker)

// WithSerializedTicks makes every tick wait for the previous one to finish.
func WithSerializedTicks() Option {
	return func(t *Ticker) {
		t.serialized = true
	}
}

// WithClock sets the clock driving the period.
func WithClock(c clock.WithTicker) Option {
	return func(t *Ticker) {
		if c != nil {
			t.clock = c
		}
	}
}

// WithLogger sets the logger for lifecycle messages.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Ticker) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// WithShutdownTimeout bounds how long Stop waits for in-flight ticks.
func WithShutdownTimeout(timeout time.Duration) Option {
	return func(t *Ticker) {
		if timeout > 0 {
			t.shutdownTimeout = timeout
		}
	}
}

// New creates a Ticker. Call Start or Run to begin ticking.
func New(period time.Duration, onTick TickFunc, opts ...Option) (*Ticker, error) {
	if period <= 0 {
		return nil, fmt.Errorf("%w: got %s", ErrInvalidPeriod, period)
	}
	if onTick == nil {
		return nil, ErrNilTickFunc
	}

	t := &Ticker{
		period:          period,
		onTick:          onTick,
		clock:           clock.RealClock{},
		logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
		shutdownTimeout: 30 * time.Second,
		trigger:         make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(t)
	}

	return t, nil
}

// Trigger requests an out-of-band tick. Requests made while one is already
// pending coalesce; a request made before Start fires right after it.
func (t *Ticker) Trigger() {
	select {
	case t.trigger <- struct{}{}:
	default:
	}
}

// Start ticks until ctx is cancelled or Stop is called, then waits for
// in-flight ticks before returning. It blocks; use Run with errgroup.
func (t *Ticker) Start(ctx context.Context) error {
	t.mu.Lock()
	if t.cancel != nil {
		t.mu.Unlock()
		return ErrAlreadyStarted
	}
	ctx, cancel := context.WithCancel(ctx)
	stopped := make(chan struct{})
	t.cancel = cancel
	t.stopped = stopped
	t.mu.Unlock()

	t.running.Store(true)
	defer func() {
		t.running.Store(false)
		t.mu.Lock()
		if t.stopped == stopped {
			t.cancel = nil
		}
		t.mu.Unlock()
		cancel()
		close(stopped)
	}()

	t.logger.InfoContext(ctx, "ticker started",
		slog.Duration("period", t.period),
		slog.Bool("serialized", t.serialized))

	ticker := t.clock.NewTicker(t.period)
	defer ticker.Stop()

	// Ticks outlive cancellation so an in-flight batch can finish cleanly.
	tickCtx := context.WithoutCancel(ctx)

	for {
		select {
		case <-ctx.Done():
			t.wg.Wait()
			t.logger.InfoContext(tickCtx, "ticker stopped")
			return ctx.Err()
		case <-ticker.C():
			t.ticks.Add(1)
			t.fire(tickCtx)
		case <-t.trigger:
			t.triggered.Add(1)
			t.fire(tickCtx)
		}
	}
}

// Stop cancels the ticker and waits up to the shutdown timeout for in-flight ticks.
func (t *Ticker) Stop() error {
	t.mu.Lock()
	if t.cancel == nil {
		t.mu.Unlock()
		return ErrNotStarted
	}
	cancel := t.cancel
	stopped := t.stopped
	t.cancel = nil
	t.mu.Unlock()

	cancel()

	ctx, ctxCancel := context.WithTimeout(context.Background(), t.shutdownTimeout)
	defer ctxCancel()

	// Start waits for in-flight ticks before closing stopped.
	select {
	case <-stopped:
		return nil
	case <-ctx.Done():
		t.logger.Warn("ticker shutdown timeout exceeded",
			slog.Duration("timeout", t.shutdownTimeout))
		return fmt.Errorf("shutdown timeout exceeded after %s", t.shutdownTimeout)
	}
}

// Run provides errgroup compatibility for coordinated lifecycle management.
//
// Example:
//
//	g, ctx := errgroup.WithContext(context.Background())
//	g.Go(ticker.Run(ctx))
func (t *Ticker) Run(ctx context.Context) func() error {
	return func() error {
		errCh := make(chan error, 1)
		go func() {
			errCh <- t.Start(ctx)
		}()

		select {
		case <-ctx.Done():
			_ = t.Stop()
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

// Stats returns the current tick counters.
func (t *Ticker) Stats() Stats {
	return Stats{
		Ticks:     t.ticks.Load(),
		Triggered: t.triggered.Load(),
		IsRunning: t.running.Load(),
	}
}

func (t *Ticker) fire(ctx context.Context) {
	if t.serialized {
		t.onTick(ctx)
		return
	}

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		t.onTick(ctx)
	}()
}
