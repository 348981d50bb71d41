// Package health exposes the mediator and its integrations as HTTP health checks.
//
// Handlers:
//   - Liveness: process is running (no dependency checks)
//   - Readiness: every dependency check passes
//
// Usage:
//
//	mux := http.NewServeMux()
//	mux.Handle("GET /health/live", health.Liveness())
//	mux.Handle("GET /health/ready", health.Readiness(logger,
//		m.Healthcheck,
//		pg.Healthcheck(pool),
//		redis.Healthcheck(client),
//	))
//
// Dependency checks follow the func(context.Context) error signature shared by
// Mediator.Healthcheck and the integration packages.
package health
