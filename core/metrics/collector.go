package metrics

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dmitrymomot/mediator/core/lane"
)

const defaultNamespace = "mediator"

// Collector is a lane.Observer that exports lane activity as Prometheus metrics.
// Pass it to mediator.WithObserver.
type Collector struct {
	enqueued *prometheus.CounterVec
	dropped  *prometheus.CounterVec
	rejected *prometheus.CounterVec
	handled  *prometheus.CounterVec
	duration *prometheus.HistogramVec
	stored   *prometheus.GaugeVec
}

var _ lane.Observer = (*Collector)(nil)

// Option configures a Collector.
type Option func(*options)

type options struct {
	namespace string
	buckets   []float64
}

// WithNamespace sets the metric namespace. Defaults to "mediator".
func WithNamespace(ns string) Option {
	return func(o *options) {
		if ns != "" {
			o.namespace = ns
		}
	}
}

// WithBuckets sets the handler duration histogram buckets, in seconds.
func WithBuckets(buckets ...float64) Option {
	return func(o *options) {
		if len(buckets) > 0 {
			o.buckets = buckets
		}
	}
}

// NewCollector creates the metrics and registers them with reg.
// Metrics already registered by an earlier collector with the same namespace are reused.
func NewCollector(reg prometheus.Registerer, opts ...Option) (*Collector, error) {
	o := options{namespace: defaultNamespace, buckets: prometheus.DefBuckets}
	for _, opt := range opts {
		opt(&o)
	}

	labels := []string{"lane", "message"}
	c := &Collector{
		enqueued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: o.namespace,
			Name:      "enqueued_total",
			Help:      "Messages accepted by a queueing lane.",
		}, labels),
		dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: o.namespace,
			Name:      "dropped_total",
			Help:      "Messages discarded by a lane: capacity drops, debounce replacements and shutdown leftovers.",
		}, labels),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: o.namespace,
			Name:      "rejected_total",
			Help:      "Publishes refused with an error because the lane was full or closed.",
		}, labels),
		handled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: o.namespace,
			Name:      "handled_total",
			Help:      "Handler invocations by terminal result.",
		}, append(labels, "result")),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: o.namespace,
			Name:      "handler_duration_seconds",
			Help:      "Handler invocation latency, retries included.",
			Buckets:   o.buckets,
		}, labels),
		stored: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: o.namespace,
			Name:      "stored",
			Help:      "Messages waiting in a queueing lane.",
		}, labels),
	}

	if reg == nil {
		return c, nil
	}

	var err error
	c.enqueued, err = register(reg, c.enqueued)
	if err != nil {
		return nil, err
	}
	c.dropped, err = register(reg, c.dropped)
	if err != nil {
		return nil, err
	}
	c.rejected, err = register(reg, c.rejected)
	if err != nil {
		return nil, err
	}
	c.handled, err = register(reg, c.handled)
	if err != nil {
		return nil, err
	}
	c.duration, err = register(reg, c.duration)
	if err != nil {
		return nil, err
	}
	c.stored, err = register(reg, c.stored)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// MustNewCollector is NewCollector that panics on a registration error.
func MustNewCollector(reg prometheus.Registerer, opts ...Option) *Collector {
	c, err := NewCollector(reg, opts...)
	if err != nil {
		panic(err)
	}
	return c
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, fmt.Errorf("metrics: register: %w", err)
	}
	return c, nil
}

func (c *Collector) Enqueued(kind lane.Kind, message string) {
	c.enqueued.WithLabelValues(kind.String(), message).Inc()
}

func (c *Collector) Dropped(kind lane.Kind, message string) {
	c.dropped.WithLabelValues(kind.String(), message).Inc()
}

func (c *Collector) Rejected(kind lane.Kind, message string) {
	c.rejected.WithLabelValues(kind.String(), message).Inc()
}

func (c *Collector) Handled(kind lane.Kind, message string, d time.Duration, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	c.handled.WithLabelValues(kind.String(), message, result).Inc()
	c.duration.WithLabelValues(kind.String(), message).Observe(d.Seconds())
}

func (c *Collector) Stored(kind lane.Kind, message string, depth int) {
	c.stored.WithLabelValues(kind.String(), message).Set(float64(depth))
}
