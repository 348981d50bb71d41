package config

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type cacheKey struct {
	typ    reflect.Type
	prefix string
}

var (
	dotenvOnce sync.Once
	mu         sync.Mutex
	cache      = make(map[cacheKey]any)
)

// Load fills cfg from the environment. The first call for a type parses it;
// later calls copy the cached value.
func Load[T any](cfg *T) error {
	return load(cfg, "")
}

// LoadWithPrefix is Load with every env key prefixed, so one struct can be
// loaded for several instances (for example "PRIMARY_" and "REPLICA_").
// Each prefix is cached separately.
func LoadWithPrefix[T any](prefix string, cfg *T) error {
	return load(cfg, prefix)
}

// MustLoad is Load that panics on failure. Use it during startup.
func MustLoad[T any](cfg *T) {
	if err := Load(cfg); err != nil {
		panic(err)
	}
}

func load[T any](cfg *T, prefix string) error {
	if cfg == nil {
		return fmt.Errorf("config: nil %s", reflect.TypeFor[*T]())
	}

	// A missing .env file is normal in production.
	dotenvOnce.Do(func() { _ = godotenv.Load() })

	key := cacheKey{typ: reflect.TypeFor[T](), prefix: prefix}

	mu.Lock()
	defer mu.Unlock()

	if cached, ok := cache[key]; ok {
		*cfg = cached.(T)
		return nil
	}

	var parsed T
	if err := env.ParseWithOptions(&parsed, env.Options{Prefix: prefix}); err != nil {
		return fmt.Errorf("config: parse %s: %w", key.typ, err)
	}

	cache[key] = parsed
	*cfg = parsed
	return nil
}
