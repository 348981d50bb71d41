package health

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/mediator/core/logger"
)

// Check is a dependency check.
type Check func(ctx context.Context) error

// Liveness always answers 200 "ALIVE".
func Liveness() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeText(w, http.StatusOK, "ALIVE")
	})
}

// Readiness runs every check and answers 200 "READY" when all pass, 503 otherwise.
// Failures are logged, never written to the response.
func Readiness(log *slog.Logger, checks ...Check) http.Handler {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := Run(r.Context(), checks...); err != nil {
			log.ErrorContext(r.Context(), "readiness check failed", logger.Error(err))
			writeText(w, http.StatusServiceUnavailable, http.StatusText(http.StatusServiceUnavailable))
			return
		}
		writeText(w, http.StatusOK, "READY")
	})
}

// Run calls every check and joins their failures. Nil checks are skipped.
func Run(ctx context.Context, checks ...Check) error {
	var errs []error
	for _, check := range checks {
		if check == nil {
			continue
		}
		if err := check(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}
