package async_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/mediator/pkg/async"
)

func TestExec(t *testing.T) {
	t.Parallel()

	t.Run("runs concurrently", func(t *testing.T) {
		t.Parallel()
		ctx := context.Background()
		start := time.Now()

		sleep := func(_ context.Context, d time.Duration) error {
			time.Sleep(d)
			return nil
		}
		f1 := async.Exec(ctx, 100*time.Millisecond, sleep)
		f2 := async.Exec(ctx, 50*time.Millisecond, sleep)
		f3 := async.Exec(ctx, 70*time.Millisecond, sleep)

		require.NoError(t, async.ExecAll(f1, f2, f3))
		assert.Less(t, time.Since(start), 200*time.Millisecond)
	})

	t.Run("propagates error", func(t *testing.T) {
		t.Parallel()
		want := errors.New("failed")
		f := async.Exec(context.Background(), 1, func(context.Context, int) error { return want })
		assert.ErrorIs(t, f.Await(), want)
	})

	t.Run("pre-cancelled context skips work", func(t *testing.T) {
		t.Parallel()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		var called atomic.Bool
		f := async.Exec(ctx, 1, func(context.Context, int) error {
			called.Store(true)
			return nil
		})
		assert.ErrorIs(t, f.Await(), context.Canceled)
		assert.False(t, called.Load())
	})

	t.Run("recovers panic", func(t *testing.T) {
		t.Parallel()
		f := async.Exec(context.Background(), 1, func(context.Context, int) error {
			panic("boom")
		})
		err := f.Await()
		require.ErrorIs(t, err, async.ErrPanic)
		assert.Contains(t, err.Error(), "boom")
	})
}

func TestExecFuture_Await(t *testing.T) {
	t.Parallel()

	t.Run("timeout", func(t *testing.T) {
		t.Parallel()
		f := async.Exec(context.Background(), 1, func(context.Context, int) error {
			time.Sleep(100 * time.Millisecond)
			return nil
		})
		assert.ErrorIs(t, f.AwaitWithTimeout(10*time.Millisecond), async.ErrTimeout)
		assert.NoError(t, f.AwaitWithTimeout(time.Second))
	})

	t.Run("context", func(t *testing.T) {
		t.Parallel()
		release := make(chan struct{})
		f := async.Exec(context.Background(), 1, func(context.Context, int) error {
			<-release
			return nil
		})

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()
		assert.ErrorIs(t, f.AwaitContext(ctx), context.DeadlineExceeded)
		assert.False(t, f.IsComplete())

		close(release)
		assert.NoError(t, f.AwaitContext(context.Background()))
		assert.True(t, f.IsComplete())
	})
}

func TestExecAll(t *testing.T) {
	t.Parallel()

	t.Run("joins every error", func(t *testing.T) {
		t.Parallel()
		errA := errors.New("a")
		errB := errors.New("b")
		fail := func(_ context.Context, err error) error { return err }

		var slowDone atomic.Bool
		slow := async.Exec(context.Background(), 0, func(context.Context, int) error {
			time.Sleep(50 * time.Millisecond)
			slowDone.Store(true)
			return nil
		})

		err := async.ExecAll(
			async.Exec(context.Background(), errA, fail),
			slow,
			async.Exec(context.Background(), errB, fail),
		)
		assert.ErrorIs(t, err, errA)
		assert.ErrorIs(t, err, errB)
		assert.True(t, slowDone.Load(), "ExecAll must wait for every future")
	})

	t.Run("no futures", func(t *testing.T) {
		t.Parallel()
		assert.NoError(t, async.ExecAll())
	})

	t.Run("context bound", func(t *testing.T) {
		t.Parallel()
		release := make(chan struct{})
		defer close(release)

		f := async.Exec(context.Background(), 1, func(context.Context, int) error {
			<-release
			return nil
		})

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()
		assert.ErrorIs(t, async.ExecAllContext(ctx, f), context.DeadlineExceeded)
	})
}
