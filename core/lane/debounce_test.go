package lane_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	testclock "k8s.io/utils/clock/testing"

	"github.com/dmitrymomot/mediator/core/lane"
)

func TestDebounce_DeliversLastOfBurst(t *testing.T) {
	t.Parallel()

	fc := testclock.NewFakeClock(time.Now())
	rec := &recorder[string]{}
	h := lane.HandlerFunc[string](func(_ context.Context, s string) error {
		rec.add(s)
		return nil
	})

	d, err := lane.NewDebounce[string]("search", h, lane.Runtime{Clock: fc}, lane.WithInterval(300*time.Millisecond))
	require.NoError(t, err)
	defer d.Close()

	ctx := context.Background()
	delta := 100 * time.Millisecond

	require.NoError(t, d.Enqueue(ctx, "g"))
	fc.Step(delta)
	require.NoError(t, d.Enqueue(ctx, "go"))
	fc.Step(delta)
	require.NoError(t, d.Enqueue(ctx, "gop"))
	assert.Equal(t, 1, d.Stats().Stored)

	fc.Step(299 * time.Millisecond)
	time.Sleep(10 * time.Millisecond)
	assert.Zero(t, rec.len())

	fc.Step(time.Millisecond)
	require.Eventually(t, func() bool { return rec.len() == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, []string{"gop"}, rec.snapshot())

	stats := d.Stats()
	assert.Equal(t, uint64(3), stats.Enqueued)
	assert.Equal(t, uint64(2), stats.Dropped)
	assert.Zero(t, stats.Stored)
	require.Eventually(t, func() bool { return d.Stats().Processed == 1 }, time.Second, time.Millisecond)
}

func TestDebounce_RunFlushesPending(t *testing.T) {
	t.Parallel()

	fc := testclock.NewFakeClock(time.Now())
	rec := &recorder[string]{}
	h := lane.HandlerFunc[string](func(_ context.Context, s string) error {
		rec.add(s)
		return nil
	})

	d, err := lane.NewDebounce[string]("search", h, lane.Runtime{Clock: fc}, lane.WithInterval(time.Hour))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	require.NoError(t, d.Enqueue(ctx, "pending"))
	cancel()
	require.NoError(t, <-done)

	assert.Equal(t, []string{"pending"}, rec.snapshot())
	assert.ErrorIs(t, d.Enqueue(context.Background(), "late"), lane.ErrLaneClosed)
}

func TestDebounce_RequiresInterval(t *testing.T) {
	t.Parallel()

	_, err := lane.NewDebounce[string]("search", lane.HandlerFunc[string](func(context.Context, string) error { return nil }), lane.Runtime{})
	assert.ErrorIs(t, err, lane.ErrInvalidConfiguration)
}
