package debounce_test

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	testclock "k8s.io/utils/clock/testing"

	"github.com/dmitrymomot/mediator/pkg/debounce"
)

type recorder struct {
	mu    sync.Mutex
	items []string
}

func (r *recorder) deliver(s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, s)
}

func (r *recorder) got() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.items...)
}

func TestCell_CollapsesBurst(t *testing.T) {
	t.Parallel()

	fc := testclock.NewFakeClock(time.Now())
	rec := &recorder{}
	cell := debounce.New(100*time.Millisecond, rec.deliver, debounce.WithClock(fc))

	replaced, err := cell.Set("a")
	require.NoError(t, err)
	assert.False(t, replaced)

	fc.Step(40 * time.Millisecond)
	replaced, _ = cell.Set("b")
	assert.True(t, replaced)

	fc.Step(40 * time.Millisecond)
	_, _ = cell.Set("c")

	// 99ms after the last Set nothing has been delivered yet.
	fc.Step(99 * time.Millisecond)
	time.Sleep(10 * time.Millisecond)
	assert.Empty(t, rec.got())
	assert.True(t, cell.Pending())

	fc.Step(time.Millisecond)
	require.Eventually(t, func() bool { return len(rec.got()) == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, []string{"c"}, rec.got())
	assert.False(t, cell.Pending())

	// Quiet cell stays quiet.
	fc.Step(time.Second)
	time.Sleep(10 * time.Millisecond)
	assert.Len(t, rec.got(), 1)
}

func TestCell_SeparateBursts(t *testing.T) {
	t.Parallel()

	fc := testclock.NewFakeClock(time.Now())
	rec := &recorder{}
	cell := debounce.New(50*time.Millisecond, rec.deliver, debounce.WithClock(fc))

	_, _ = cell.Set("first")
	fc.Step(50 * time.Millisecond)
	require.Eventually(t, func() bool { return len(rec.got()) == 1 }, time.Second, time.Millisecond)

	_, _ = cell.Set("second")
	fc.Step(50 * time.Millisecond)
	require.Eventually(t, func() bool { return len(rec.got()) == 2 }, time.Second, time.Millisecond)

	assert.Equal(t, []string{"first", "second"}, rec.got())
}

func TestCell_Flush(t *testing.T) {
	t.Parallel()

	fc := testclock.NewFakeClock(time.Now())
	rec := &recorder{}
	cell := debounce.New(time.Hour, rec.deliver, debounce.WithClock(fc))

	assert.False(t, cell.Flush())

	_, _ = cell.Set("x")
	assert.True(t, cell.Flush())
	assert.Equal(t, []string{"x"}, rec.got())

	// The stopped timer must not deliver again.
	fc.Step(2 * time.Hour)
	time.Sleep(10 * time.Millisecond)
	assert.Len(t, rec.got(), 1)
}

func TestCell_Close(t *testing.T) {
	t.Parallel()

	fc := testclock.NewFakeClock(time.Now())
	rec := &recorder{}
	cell := debounce.New(time.Second, rec.deliver, debounce.WithClock(fc))

	_, _ = cell.Set("dropped")
	item, ok := cell.Close()
	assert.True(t, ok)
	assert.Equal(t, "dropped", item)

	_, err := cell.Set("late")
	assert.ErrorIs(t, err, debounce.ErrClosed)

	fc.Step(time.Minute)
	time.Sleep(10 * time.Millisecond)
	assert.Empty(t, rec.got())
}

func TestCell_DeliveriesDoNotOverlap(t *testing.T) {
	t.Parallel()

	var active, overlaps, delivered atomic.Int32
	cell := debounce.New(5*time.Millisecond, func(int) {
		if active.Add(1) > 1 {
			overlaps.Add(1)
		}
		time.Sleep(20 * time.Millisecond)
		active.Add(-1)
		delivered.Add(1)
	})

	for i := range 5 {
		_, _ = cell.Set(i)
		time.Sleep(10 * time.Millisecond)
	}

	require.Eventually(t, func() bool { return !cell.Pending() && active.Load() == 0 }, 2*time.Second, 5*time.Millisecond)
	_, _ = cell.Close()

	assert.Positive(t, delivered.Load())
	assert.Zero(t, overlaps.Load())
}

func TestCell_ConcurrentSet(t *testing.T) {
	t.Parallel()

	var delivered atomic.Int32
	cell := debounce.New(50*time.Millisecond, func(int) { delivered.Add(1) })

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func(v int) {
			defer wg.Done()
			_, _ = cell.Set(v)
		}(i)
	}
	wg.Wait()

	require.Eventually(t, func() bool { return delivered.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(1), delivered.Load())
}
