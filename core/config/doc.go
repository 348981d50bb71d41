// Package config provides type-safe environment variable loading with caching
// using Go generics. Each configuration type is loaded once and cached for
// subsequent calls.
//
// The package loads a .env file on first use and uses the caarlos0/env library
// for parsing environment variables into struct fields.
//
// Basic usage:
//
//	import "github.com/dmitrymomot/mediator/core/config"
//
//	var cfg mediator.Config
//	if err := config.Load(&cfg); err != nil {
//		log.Fatal(err)
//	}
//	m := mediator.NewFromConfig(cfg)
//
//	// Or panic on failure (useful for startup)
//	config.MustLoad(&cfg)
//
// # Caching Behavior
//
// Each configuration type is loaded only once per application lifetime:
//
//	var cfg1 pg.Config
//	config.Load(&cfg1) // Loads from environment
//
//	var cfg2 pg.Config
//	config.Load(&cfg2) // Returns cached value, cfg1 == cfg2
//
// # Prefixes
//
// LoadWithPrefix prepends a prefix to every key, and caches per prefix:
//
//	var primary, replica redis.Config
//	config.MustLoad(&primary)                          // REDIS_URL
//	_ = config.LoadWithPrefix("REPLICA_", &replica)    // REPLICA_REDIS_URL
package config
