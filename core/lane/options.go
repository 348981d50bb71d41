package lane

import (
	"time"

	"github.com/dmitrymomot/mediator/pkg/throttle"
)

// MinAccumulatorInterval is the shortest accepted accumulator tick period.
const MinAccumulatorInterval = 100 * time.Millisecond

// Options is the immutable per-lane configuration built at registration.
type Options struct {
	// Interval is the debounce quiet period or the accumulator tick period.
	Interval time.Duration
	// MaxStored caps stored items; zero means unbounded.
	MaxStored int
	// Policy applies when MaxStored is reached.
	Policy CapacityPolicy
	// MaxBatch caps items handed to one accumulator call; zero means all.
	MaxBatch int
	// Windows govern the throttle lane.
	Windows []throttle.Window
	// SerializedTicks makes accumulator ticks wait for the previous batch.
	SerializedTicks bool
}

// Option configures lane Options.
type Option func(*Options)

// WithCapacity limits stored items and selects the policy applied when full.
func WithCapacity(maxStored int, policy CapacityPolicy) Option {
	return func(o *Options) {
		o.MaxStored = maxStored
		o.Policy = policy
	}
}

// WithInterval sets the debounce quiet period or accumulator tick period.
func WithInterval(d time.Duration) Option {
	return func(o *Options) {
		o.Interval = d
	}
}

// WithMaxBatch caps the number of items drained per accumulator tick.
func WithMaxBatch(n int) Option {
	return func(o *Options) {
		o.MaxBatch = n
	}
}

// WithWindows appends throttle windows.
func WithWindows(windows ...throttle.Window) Option {
	return func(o *Options) {
		o.Windows = append(o.Windows, windows...)
	}
}

// WithSerializedTicks makes accumulator ticks run one after another.
func WithSerializedTicks() Option {
	return func(o *Options) {
		o.SerializedTicks = true
	}
}

// WithConfig applies every non-zero field of cfg.
func WithConfig(cfg Config) Option {
	return func(o *Options) {
		if cfg.Interval != 0 {
			o.Interval = cfg.Interval
		}
		if cfg.MaxStored != 0 {
			o.MaxStored = cfg.MaxStored
		}
		if cfg.Policy != PolicyDefault {
			o.Policy = cfg.Policy
		}
		if cfg.MaxBatch != 0 {
			o.MaxBatch = cfg.MaxBatch
		}
		if len(cfg.Windows) > 0 {
			o.Windows = append([]throttle.Window(nil), cfg.Windows...)
		}
		if cfg.SerializedTicks {
			o.SerializedTicks = true
		}
	}
}

// NewOptions applies opts over zero Options.
func NewOptions(opts ...Option) Options {
	var o Options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Validate checks the options for the given lane kind.
func (o Options) Validate(kind Kind) error {
	if o.MaxStored < 0 {
		return invalid("%s: max stored must not be negative, got %d", kind, o.MaxStored)
	}
	if o.MaxBatch < 0 {
		return invalid("%s: max batch must not be negative, got %d", kind, o.MaxBatch)
	}
	if o.Policy > ForceDrainNow {
		return invalid("%s: unknown capacity policy %d", kind, uint8(o.Policy))
	}

	switch kind {
	case KindDebounce:
		if o.Interval <= 0 {
			return invalid("debounce: interval must be positive, got %s", o.Interval)
		}
	case KindAccumulator:
		if o.Interval < MinAccumulatorInterval {
			return invalid("accumulator: interval must be at least %s, got %s", MinAccumulatorInterval, o.Interval)
		}
	case KindThrottle:
		if len(o.Windows) == 0 {
			return invalid("throttle: at least one window is required")
		}
		for i, w := range o.Windows {
			if err := w.Validate(); err != nil {
				return invalid("throttle: window %d: %v", i, err)
			}
		}
		if o.Policy == ForceDrainNow {
			return invalid("throttle: force_drain_now would exceed the configured windows")
		}
	}
	return nil
}
