package throttle_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/mediator/pkg/throttle"
)

func TestWindow_LastStart(t *testing.T) {
	t.Parallel()

	// Wednesday; the preceding Sunday is 2024-03-10.
	now := time.Date(2024, time.March, 13, 10, 15, 42, 0, time.UTC)

	tests := []struct {
		name   string
		window throttle.Window
		want   time.Time
	}{
		{
			name:   "sliding looks back duration",
			window: throttle.PerSliding(500*time.Millisecond, 1),
			want:   now.Add(-500 * time.Millisecond),
		},
		{
			name:   "fixed minute",
			window: throttle.PerFixed(time.Minute, 1),
			want:   time.Date(2024, time.March, 13, 10, 15, 0, 0, time.UTC),
		},
		{
			name:   "fixed quarter hour",
			window: throttle.PerFixed(15*time.Minute, 1),
			want:   time.Date(2024, time.March, 13, 10, 15, 0, 0, time.UTC),
		},
		{
			name:   "fixed hour",
			window: throttle.PerFixed(time.Hour, 1),
			want:   time.Date(2024, time.March, 13, 10, 0, 0, 0, time.UTC),
		},
		{
			name:   "fixed day",
			window: throttle.PerFixed(24*time.Hour, 1),
			want:   time.Date(2024, time.March, 13, 0, 0, 0, 0, time.UTC),
		},
		{
			name:   "fixed week starts on sunday",
			window: throttle.PerFixed(7*24*time.Hour, 1),
			want:   time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.window.LastStart(now))
		})
	}
}

func TestWindow_NextStart(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		window throttle.Window
		now    time.Time
		want   time.Time
	}{
		{
			name:   "sliding is always now",
			window: throttle.PerSliding(time.Hour, 1),
			now:    time.Date(2024, time.March, 13, 10, 15, 42, 0, time.UTC),
			want:   time.Date(2024, time.March, 13, 10, 15, 42, 0, time.UTC),
		},
		{
			name:   "end of slot",
			window: throttle.PerFixed(time.Hour, 1),
			now:    time.Date(2024, time.March, 13, 10, 15, 42, 0, time.UTC),
			want:   time.Date(2024, time.March, 13, 11, 0, 0, 0, time.UTC),
		},
		{
			name:   "last slot of the day ends at midnight",
			window: throttle.PerFixed(7*time.Hour, 1),
			now:    time.Date(2024, time.March, 13, 22, 0, 0, 0, time.UTC),
			want:   time.Date(2024, time.March, 14, 0, 0, 0, 0, time.UTC),
		},
		{
			name:   "full day",
			window: throttle.PerFixed(24*time.Hour, 1),
			now:    time.Date(2024, time.March, 13, 10, 0, 0, 0, time.UTC),
			want:   time.Date(2024, time.March, 14, 0, 0, 0, 0, time.UTC),
		},
		{
			name:   "last slot of the week ends on sunday",
			window: throttle.PerFixed(5*24*time.Hour, 1),
			now:    time.Date(2024, time.May, 3, 23, 0, 0, 0, time.UTC),
			want:   time.Date(2024, time.May, 5, 0, 0, 0, 0, time.UTC),
		},
		{
			name:   "week",
			window: throttle.PerFixed(7*24*time.Hour, 1),
			now:    time.Date(2024, time.March, 13, 10, 0, 0, 0, time.UTC),
			want:   time.Date(2024, time.March, 17, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.window.NextStart(tt.now))
		})
	}
}

func TestWindow_Validate(t *testing.T) {
	t.Parallel()

	assert.NoError(t, throttle.PerSliding(time.Second, 0).Validate())
	assert.NoError(t, throttle.PerFixed(time.Hour, 10).Validate())
	assert.ErrorIs(t, throttle.PerSliding(0, 1).Validate(), throttle.ErrInvalidWindow)
	assert.ErrorIs(t, throttle.PerSliding(-time.Second, 1).Validate(), throttle.ErrInvalidWindow)
	assert.ErrorIs(t, throttle.PerFixed(time.Second, -1).Validate(), throttle.ErrInvalidWindow)
}

func TestLedger(t *testing.T) {
	t.Parallel()

	t0 := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

	var l throttle.Ledger
	l.Record(t0, 2)
	l.Record(t0.Add(time.Second), 1)
	l.Record(t0.Add(2*time.Second), 3)

	assert.Equal(t, 6, l.Len())
	assert.Equal(t, 6, l.CountSince(t0))
	assert.Equal(t, 4, l.CountSince(t0.Add(time.Second)))
	assert.Equal(t, 3, l.CountSince(t0.Add(1500*time.Millisecond)))
	assert.Equal(t, 0, l.CountSince(t0.Add(time.Minute)))

	entry, ok := l.NthSince(t0, 2)
	assert.True(t, ok)
	assert.Equal(t, t0.Add(time.Second), entry)

	_, ok = l.NthSince(t0, 6)
	assert.False(t, ok)

	l.Prune(t0.Add(time.Second))
	assert.Equal(t, 4, l.Len())

	l.Prune(t0.Add(time.Hour))
	assert.Equal(t, 0, l.Len())
}

func TestWindow_Text(t *testing.T) {
	t.Parallel()

	var w throttle.Window
	require.NoError(t, w.UnmarshalText([]byte("500/1h/fixed")))
	assert.Equal(t, throttle.PerFixed(time.Hour, 500), w)

	require.NoError(t, w.UnmarshalText([]byte(" 10/1s ")))
	assert.Equal(t, throttle.PerSliding(time.Second, 10), w)

	text, err := throttle.PerSliding(250*time.Millisecond, 3).MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "3/250ms/sliding", string(text))

	for _, bad := range []string{"", "10", "x/1s", "10/forever", "10/1s/weekly", "10/0s", "-1/1s"} {
		assert.ErrorIs(t, w.UnmarshalText([]byte(bad)), throttle.ErrInvalidWindow, bad)
	}
}
