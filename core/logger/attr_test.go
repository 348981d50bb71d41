package logger_test

import (
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/mediator/core/logger"
)

func TestGroup(t *testing.T) {
	t.Parallel()
	attr := logger.Group("stats", slog.Int("processed", 1), slog.Int("failed", 2))
	require.Equal(t, "stats", attr.Key)
	require.Equal(t, slog.KindGroup, attr.Value.Kind())
	g := attr.Value.Group()
	require.Len(t, g, 2)
	assert.Equal(t, "processed", g[0].Key)
	assert.Equal(t, "failed", g[1].Key)
}

// ============================================================================
// Error Handling Tests
// ============================================================================

func TestErrors(t *testing.T) {
	t.Parallel()
	err1 := errors.New("first")
	err2 := errors.New("second")

	attr := logger.Errors(err1, nil, err2)
	require.Equal(t, "errors", attr.Key)
	require.Equal(t, slog.KindGroup, attr.Value.Kind())
	g := attr.Value.Group()
	require.Len(t, g, 2)
	assert.Equal(t, err1, g[0].Value.Any())
	assert.Equal(t, err2, g[1].Value.Any())

	empty := logger.Errors(nil)
	assert.True(t, empty.Equal(slog.Attr{}))
}

func TestError(t *testing.T) {
	t.Parallel()
	err := errors.New("boom")
	attr := logger.Error(err)
	require.Equal(t, "error", attr.Key)
	assert.Equal(t, err, attr.Value.Any())

	empty := logger.Error(nil)
	assert.True(t, empty.Equal(slog.Attr{}))
}

// ============================================================================
// Timing Tests
// ============================================================================

func TestDuration(t *testing.T) {
	t.Parallel()
	d := 5 * time.Second
	attr := logger.Duration(d)
	require.Equal(t, "duration", attr.Key)
	assert.Equal(t, d, attr.Value.Duration())
}

func TestElapsed(t *testing.T) {
	t.Parallel()
	start := time.Now().Add(-50 * time.Millisecond)
	attr := logger.Elapsed(start)
	require.Equal(t, "elapsed", attr.Key)
	assert.GreaterOrEqual(t, attr.Value.Duration(), 50*time.Millisecond)
}

// ============================================================================
// Dispatch Tests
// ============================================================================

func TestDispatchAttrs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		attr slog.Attr
		key  string
		want any
	}{
		{"component", logger.Component("mediator"), "component", "mediator"},
		{"lane", logger.Lane("queue"), "lane", "queue"},
		{"message", logger.Message("OrderPlaced"), "message", "OrderPlaced"},
		{"message id", logger.MessageID("abc"), "message_id", "abc"},
		{"attempts", logger.Attempts(3), "attempts", int64(3)},
		{"batch size", logger.BatchSize(10), "batch_size", int64(10)},
		{"depth", logger.Depth(4), "depth", int64(4)},
		{"count", logger.Count("dropped", 2), "dropped", int64(2)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.key, tt.attr.Key)
			assert.Equal(t, tt.want, tt.attr.Value.Any())
		})
	}
}

func TestDispatchAttrs_EmptyValues(t *testing.T) {
	t.Parallel()
	assert.True(t, logger.Lane("").Equal(slog.Attr{}))
	assert.True(t, logger.Message("").Equal(slog.Attr{}))
	assert.True(t, logger.MessageID("").Equal(slog.Attr{}))
}
