package lane

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"k8s.io/utils/clock"

	"github.com/dmitrymomot/mediator/core/logger"
	"github.com/dmitrymomot/mediator/pkg/throttle"
)

// DefaultWaitPoll is how often a Wait-policy publisher re-checks capacity.
const DefaultWaitPoll = 100 * time.Millisecond

// Scope is one handler execution boundary, such as a unit of work.
type Scope interface {
	// Close ends the scope with the terminal result of the invocation.
	Close(err error) error
}

// ScopeFactory opens a fresh Scope for one handler invocation. The returned
// context is passed to the handler and to every retry of that invocation.
type ScopeFactory func(ctx context.Context) (context.Context, Scope, error)

// Report describes a terminal failure on a background path.
type Report struct {
	Lane    Kind
	Message string
	Payload any
	Err     error
}

// Reporter receives terminal failures that no caller is waiting for.
type Reporter func(ctx context.Context, r Report)

// Runtime carries the collaborators shared by every lane of one engine.
// Zero fields are replaced with defaults.
type Runtime struct {
	Logger   *slog.Logger
	Observer Observer
	Scope    ScopeFactory
	Report   Reporter
	Clock    clock.WithTickerAndDelayedExecution
	Skew     time.Duration
	WaitPoll time.Duration
}

func (rt Runtime) withDefaults() Runtime {
	if rt.Logger == nil {
		rt.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if rt.Observer == nil {
		rt.Observer = NopObserver{}
	}
	if rt.Report == nil {
		rt.Report = func(context.Context, Report) {}
	}
	if rt.Clock == nil {
		rt.Clock = clock.RealClock{}
	}
	if rt.Skew <= 0 {
		rt.Skew = throttle.DefaultSkew
	}
	if rt.WaitPoll <= 0 {
		rt.WaitPoll = DefaultWaitPoll
	}
	return rt
}

// Execute runs one handler invocation inside a scope opened by rt.Scope and
// through the retry envelope, with retry delays measured on rt.Clock.
// A terminal failure is a *HandlerError stamped with kind and message.
func Execute[T any](ctx context.Context, rt Runtime, kind Kind, message string, h Handler[T], item T) error {
	err := execute(ctx, rt.Scope, rt.Clock, h, item)

	var herr *HandlerError
	if errors.As(err, &herr) && herr.Lane == "" {
		herr.Lane = kind
		herr.Message = message
	}
	return err
}

func execute[T any](ctx context.Context, scope ScopeFactory, clk clock.Clock, h Handler[T], item T) error {
	if scope == nil {
		return InvokeWithClock(ctx, clk, h, item)
	}

	sctx, s, err := scope(ctx)
	if err != nil {
		return &HandlerError{Err: fmt.Errorf("open scope: %w", err)}
	}

	err = InvokeWithClock(sctx, clk, h, item)
	if cerr := s.Close(err); cerr != nil {
		cerr = fmt.Errorf("close scope: %w", cerr)
		if err == nil {
			return &HandlerError{Attempts: 1, Err: cerr}
		}
		return errors.Join(err, cerr)
	}
	return err
}

// base holds what every queueing lane shares.
type base struct {
	kind Kind
	name string
	rt   Runtime
	log  *slog.Logger
	stat counters
}

func newBase(kind Kind, name string, rt Runtime) base {
	rt = rt.withDefaults()
	return base{
		kind: kind,
		name: name,
		rt:   rt,
		log:  rt.Logger.With(logger.Lane(string(kind)), logger.Message(name)),
	}
}

func (b *base) snapshot(stored int) Stats {
	return b.stat.snapshot(b.kind, b.name, stored)
}

// Kind returns the lane kind.
func (b *base) Kind() Kind { return b.kind }

// Name returns the message type name the lane serves.
func (b *base) Name() string { return b.name }

func (b *base) markAccepted(depth int) {
	b.stat.enqueued.Add(1)
	b.rt.Observer.Enqueued(b.kind, b.name)
	b.rt.Observer.Stored(b.kind, b.name, depth)
}

func (b *base) markDropped(n int) {
	if n <= 0 {
		return
	}
	b.stat.dropped.Add(uint64(n))
	for range n {
		b.rt.Observer.Dropped(b.kind, b.name)
	}
}

func (b *base) markRejected() {
	b.stat.rejected.Add(1)
	b.rt.Observer.Rejected(b.kind, b.name)
}

// deliver runs h through Execute and records the result. Failures are logged
// and reported, never returned to the worker loop.
func deliver[T any](ctx context.Context, b *base, h Handler[T], item T) {
	start := b.rt.Clock.Now()
	err := Execute(ctx, b.rt, b.kind, b.name, h, item)
	d := b.rt.Clock.Since(start)
	b.rt.Observer.Handled(b.kind, b.name, d, err)

	if err != nil {
		b.stat.failed.Add(1)
		b.log.ErrorContext(ctx, "handler failed", logger.Error(err), logger.Duration(d))
		b.rt.Report(ctx, Report{Lane: b.kind, Message: b.name, Payload: item, Err: err})
		return
	}

	b.stat.processed.Add(1)
	b.log.DebugContext(ctx, "message handled", logger.Duration(d))
}
