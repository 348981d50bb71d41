package interval_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
	testclock "k8s.io/utils/clock/testing"

	"github.com/dmitrymomot/mediator/pkg/interval"
)

func TestNew_Validation(t *testing.T) {
	t.Parallel()

	_, err := interval.New(0, func(context.Context) {})
	assert.ErrorIs(t, err, interval.ErrInvalidPeriod)

	_, err = interval.New(time.Second, nil)
	assert.ErrorIs(t, err, interval.ErrNilTickFunc)
}

func TestTicker_FiresOnPeriod(t *testing.T) {
	t.Parallel()

	fc := testclock.NewFakeClock(time.Now())
	var ticks atomic.Int32
	tk, err := interval.New(time.Second, func(context.Context) { ticks.Add(1) }, interval.WithClock(fc))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = tk.Start(ctx) }()

	require.Eventually(t, fc.HasWaiters, time.Second, time.Millisecond)
	assert.Zero(t, ticks.Load())

	fc.Step(time.Second)
	require.Eventually(t, func() bool { return ticks.Load() == 1 }, time.Second, time.Millisecond)

	fc.Step(time.Second)
	require.Eventually(t, func() bool { return ticks.Load() == 2 }, time.Second, time.Millisecond)

	require.NoError(t, tk.Stop())
	assert.Equal(t, uint64(2), tk.Stats().Ticks)
	assert.False(t, tk.Stats().IsRunning)
}

func TestTicker_Trigger(t *testing.T) {
	t.Parallel()

	var ticks atomic.Int32
	tk, err := interval.New(time.Hour, func(context.Context) { ticks.Add(1) })
	require.NoError(t, err)

	// A trigger issued before Start fires right after it.
	tk.Trigger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = tk.Start(ctx) }()

	require.Eventually(t, func() bool { return ticks.Load() == 1 }, time.Second, time.Millisecond)

	tk.Trigger()
	require.Eventually(t, func() bool { return ticks.Load() == 2 }, time.Second, time.Millisecond)
	assert.Equal(t, uint64(2), tk.Stats().Triggered)

	require.NoError(t, tk.Stop())
}

func TestTicker_TickOverlap(t *testing.T) {
	t.Parallel()

	run := func(t *testing.T, opts ...interval.Option) int32 {
		var active, peak atomic.Int32
		release := make(chan struct{})

		tk, err := interval.New(time.Hour, func(context.Context) {
			n := active.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			<-release
			active.Add(-1)
		}, opts...)
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		done := make(chan struct{})
		go func() {
			_ = tk.Start(ctx)
			close(done)
		}()

		tk.Trigger()
		require.Eventually(t, func() bool { return active.Load() == 1 }, time.Second, time.Millisecond)
		tk.Trigger()
		time.Sleep(50 * time.Millisecond)

		close(release)
		cancel()
		<-done
		return peak.Load()
	}

	t.Run("independent by default", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, int32(2), run(t))
	})

	t.Run("serialized on request", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, int32(1), run(t, interval.WithSerializedTicks()))
	})
}

func TestTicker_Lifecycle(t *testing.T) {
	t.Parallel()

	t.Run("stop before start", func(t *testing.T) {
		t.Parallel()
		tk, err := interval.New(time.Second, func(context.Context) {})
		require.NoError(t, err)
		assert.ErrorIs(t, tk.Stop(), interval.ErrNotStarted)
	})

	t.Run("double start", func(t *testing.T) {
		t.Parallel()
		tk, err := interval.New(time.Second, func(context.Context) {})
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go func() { _ = tk.Start(ctx) }()
		require.Eventually(t, func() bool { return tk.Stats().IsRunning }, time.Second, time.Millisecond)

		assert.ErrorIs(t, tk.Start(ctx), interval.ErrAlreadyStarted)
		require.NoError(t, tk.Stop())
	})

	t.Run("run with errgroup", func(t *testing.T) {
		t.Parallel()
		var ticks atomic.Int32
		tk, err := interval.New(10*time.Millisecond, func(context.Context) { ticks.Add(1) })
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		g, gctx := errgroup.WithContext(ctx)
		g.Go(tk.Run(gctx))

		require.Eventually(t, func() bool { return ticks.Load() >= 3 }, time.Second, 5*time.Millisecond)
		cancel()
		assert.NoError(t, g.Wait())
	})

	t.Run("waits for in-flight tick", func(t *testing.T) {
		t.Parallel()
		var finished atomic.Bool
		tk, err := interval.New(time.Hour, func(ctx context.Context) {
			time.Sleep(50 * time.Millisecond)
			// Tick context survives shutdown.
			if ctx.Err() == nil {
				finished.Store(true)
			}
		})
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go func() { _ = tk.Start(ctx) }()
		require.Eventually(t, func() bool { return tk.Stats().IsRunning }, time.Second, time.Millisecond)

		tk.Trigger()
		time.Sleep(10 * time.Millisecond)
		require.NoError(t, tk.Stop())
		assert.True(t, finished.Load())
	})
}
