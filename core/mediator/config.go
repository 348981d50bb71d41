package mediator

import "time"

// Config holds engine-level settings.
// Designed for environment-based configuration with core/config.
type Config struct {
	ShutdownTimeout       time.Duration `env:"MEDIATOR_SHUTDOWN_TIMEOUT" envDefault:"30s"`
	MaxConcurrentHandlers int           `env:"MEDIATOR_MAX_CONCURRENT_HANDLERS" envDefault:"0"`
	WaitPollInterval      time.Duration `env:"MEDIATOR_WAIT_POLL_INTERVAL" envDefault:"100ms"`
	ThrottleSkew          time.Duration `env:"MEDIATOR_THROTTLE_SKEW" envDefault:"20ms"`
	StaleThreshold        time.Duration `env:"MEDIATOR_STALE_THRESHOLD" envDefault:"5m"`
}

// DefaultConfig returns sensible defaults for production use.
func DefaultConfig() Config {
	return Config{
		ShutdownTimeout:  30 * time.Second,
		WaitPollInterval: 100 * time.Millisecond,
		ThrottleSkew:     20 * time.Millisecond,
		StaleThreshold:   5 * time.Minute,
	}
}

// NewFromConfig creates a Mediator from configuration.
// Additional options override config values.
func NewFromConfig(cfg Config, opts ...Option) *Mediator {
	allOpts := append([]Option{
		WithShutdownTimeout(cfg.ShutdownTimeout),
		WithMaxConcurrentHandlers(cfg.MaxConcurrentHandlers),
		WithWaitPollInterval(cfg.WaitPollInterval),
		WithThrottleSkew(cfg.ThrottleSkew),
		WithStaleThreshold(cfg.StaleThreshold),
	}, opts...)

	return New(allOpts...)
}
