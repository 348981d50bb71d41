package metrics_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/mediator/core/lane"
	"github.com/dmitrymomot/mediator/core/mediator"
	"github.com/dmitrymomot/mediator/core/metrics"
)

type invoiceIssued struct{ Number int }

func TestCollector_Observer(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	c, err := metrics.NewCollector(reg)
	require.NoError(t, err)

	c.Enqueued(lane.KindQueue, "invoiceIssued")
	c.Enqueued(lane.KindQueue, "invoiceIssued")
	c.Dropped(lane.KindDebounce, "invoiceIssued")
	c.Rejected(lane.KindQueue, "invoiceIssued")
	c.Stored(lane.KindQueue, "invoiceIssued", 7)
	c.Handled(lane.KindQueue, "invoiceIssued", 10*time.Millisecond, nil)
	c.Handled(lane.KindQueue, "invoiceIssued", 10*time.Millisecond, errors.New("boom"))

	names := []string{
		"mediator_enqueued_total",
		"mediator_dropped_total",
		"mediator_rejected_total",
		"mediator_handled_total",
		"mediator_handler_duration_seconds",
		"mediator_stored",
	}
	count, err := testutil.GatherAndCount(reg, names...)
	require.NoError(t, err)
	// One series each, except handled_total split by result.
	assert.Equal(t, 7, count)

	expected := `
# HELP mediator_handled_total Handler invocations by terminal result.
# TYPE mediator_handled_total counter
mediator_handled_total{lane="queue",message="invoiceIssued",result="failure"} 1
mediator_handled_total{lane="queue",message="invoiceIssued",result="success"} 1
# HELP mediator_stored Messages waiting in a queueing lane.
# TYPE mediator_stored gauge
mediator_stored{lane="queue",message="invoiceIssued"} 7
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "mediator_handled_total", "mediator_stored"))
}

func TestCollector_ReusesRegisteredMetrics(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	first, err := metrics.NewCollector(reg, metrics.WithNamespace("billing"))
	require.NoError(t, err)
	second, err := metrics.NewCollector(reg, metrics.WithNamespace("billing"))
	require.NoError(t, err)

	first.Rejected(lane.KindStack, "invoiceIssued")
	second.Rejected(lane.KindStack, "invoiceIssued")

	count, err := testutil.GatherAndCount(reg, "billing_rejected_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestCollector_WithMediator(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	c := metrics.MustNewCollector(reg, metrics.WithBuckets(0.001, 0.01, 0.1))

	handled := make(chan struct{}, 2)
	m := mediator.New(mediator.WithObserver(c))
	require.NoError(t, m.Register(
		mediator.Queue[invoiceIssued](lane.HandlerFunc[invoiceIssued](func(_ context.Context, inv invoiceIssued) error {
			defer func() { handled <- struct{}{} }()
			if inv.Number == 2 {
				return errors.New("printer jammed")
			}
			return nil
		})),
	))

	ctx := context.Background()
	require.NoError(t, m.Publish(ctx, invoiceIssued{Number: 1}))
	require.NoError(t, m.Publish(ctx, invoiceIssued{Number: 2}))
	<-handled
	<-handled

	expected := `
# HELP mediator_handled_total Handler invocations by terminal result.
# TYPE mediator_handled_total counter
mediator_handled_total{lane="queue",message="invoiceIssued",result="failure"} 1
mediator_handled_total{lane="queue",message="invoiceIssued",result="success"} 1
`
	require.Eventually(t, func() bool {
		return testutil.GatherAndCompare(reg, strings.NewReader(expected), "mediator_handled_total") == nil
	}, time.Second, time.Millisecond)

	count, err := testutil.GatherAndCount(reg, "mediator_enqueued_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
