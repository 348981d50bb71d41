package lane

import (
	"context"
	"sync"
	"time"

	"k8s.io/utils/clock"
)

// gate applies the capacity policy in front of a lane's store.
type gate struct {
	max    int
	policy CapacityPolicy
	poll   time.Duration
	clock  clock.Clock
	nudge  func(ctx context.Context)

	mu       sync.Mutex
	released chan struct{}

	closed    chan struct{}
	closeOnce sync.Once
}

func newGate(kind Kind, o Options, rt Runtime, nudge func(ctx context.Context)) *gate {
	return &gate{
		max:      o.MaxStored,
		policy:   o.Policy.resolve(kind),
		poll:     rt.WaitPoll,
		clock:    rt.Clock,
		nudge:    nudge,
		released: make(chan struct{}),
		closed:   make(chan struct{}),
	}
}

// admit stores an item through push when the policy allows it. It reports false
// with a nil error when the item was dropped. depth and push run under the gate
// lock, so concurrent publishers never overshoot the limit together.
func (g *gate) admit(ctx context.Context, depth func() int, push func() error) (bool, error) {
	if g.max <= 0 {
		return true, push()
	}

	forced := false
	for {
		g.mu.Lock()
		if forced || depth() < g.max {
			err := push()
			g.mu.Unlock()
			return err == nil, err
		}
		released := g.released
		g.mu.Unlock()

		switch g.policy {
		case DropNewest:
			return false, nil

		case ForceDrainNow:
			if g.nudge != nil {
				g.nudge(ctx)
			}
			select {
			case <-released:
				forced = true
			case <-ctx.Done():
				return false, ctx.Err()
			case <-g.closed:
				return false, ErrLaneClosed
			}

		case Wait:
			timer := g.clock.NewTimer(g.poll)
			select {
			case <-released:
			case <-timer.C():
			case <-ctx.Done():
				timer.Stop()
				return false, ctx.Err()
			case <-g.closed:
				timer.Stop()
				return false, ErrLaneClosed
			}
			timer.Stop()

		default:
			return false, ErrCapacityExceeded
		}
	}
}

// release wakes publishers waiting for space. Call it after items leave the store.
func (g *gate) release() {
	if g.max <= 0 {
		return
	}
	g.mu.Lock()
	close(g.released)
	g.released = make(chan struct{})
	g.mu.Unlock()
}

func (g *gate) close() {
	g.closeOnce.Do(func() { close(g.closed) })
}
