package lane

import (
	"time"

	"github.com/dmitrymomot/mediator/pkg/throttle"
)

// Config holds lane settings loaded from the environment. Variable names are
// relative; load them under a per-lane prefix such as "ORDERS_".
//
// Example:
//
//	var cfg lane.Config
//	if err := config.LoadWithPrefix("ORDERS_", &cfg); err != nil {
//		return err
//	}
//	reg := mediator.Throttle[SendEmail](handler, lane.WithConfig(cfg))
type Config struct {
	Interval        time.Duration     `env:"INTERVAL"`
	MaxStored       int               `env:"MAX_STORED"`
	Policy          CapacityPolicy    `env:"POLICY"`
	MaxBatch        int               `env:"MAX_BATCH"`
	Windows         []throttle.Window `env:"WINDOWS" envSeparator:","`
	SerializedTicks bool              `env:"SERIALIZED_TICKS"`
}
