package throttle

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const day = 24 * time.Hour

// Window limits how many releases may happen within a period.
//
// Sliding windows cover the trailing Duration ending now. Fixed windows are
// aligned to calendar slots: durations under a day are counted from the start
// of the local day (a 1m window is "this minute", 1h is "this hour"), longer
// durations from the start of the week, which begins on Sunday.
type Window struct {
	Duration time.Duration
	Limit    int
	Fixed    bool
}

// PerSliding returns a sliding window allowing limit releases per d.
func PerSliding(d time.Duration, limit int) Window {
	return Window{Duration: d, Limit: limit}
}

// PerFixed returns a calendar-aligned window allowing limit releases per d.
func PerFixed(d time.Duration, limit int) Window {
	return Window{Duration: d, Limit: limit, Fixed: true}
}

// Validate checks the window definition.
func (w Window) Validate() error {
	if w.Duration <= 0 {
		return fmt.Errorf("%w: duration must be positive, got %s", ErrInvalidWindow, w.Duration)
	}
	if w.Limit < 0 {
		return fmt.Errorf("%w: limit must not be negative, got %d", ErrInvalidWindow, w.Limit)
	}
	return nil
}

// LastStart returns the instant the window currently counts releases from.
func (w Window) LastStart(now time.Time) time.Time {
	if !w.Fixed {
		return now.Add(-w.Duration)
	}

	anchor := startOfDay(now)
	if w.Duration >= day {
		anchor = anchor.AddDate(0, 0, -int(anchor.Weekday()))
	}

	elapsed := now.Sub(anchor)
	return anchor.Add(elapsed - elapsed%w.Duration)
}

// NextStart returns the instant a fixed window next starts counting afresh:
// the end of the current slot, or the next day or week boundary when the
// slot is cut short by it. For sliding windows it returns now.
func (w Window) NextStart(now time.Time) time.Time {
	if !w.Fixed {
		return now
	}

	next := w.LastStart(now).Add(w.Duration)
	boundary := startOfDay(now).AddDate(0, 0, 1)
	if w.Duration >= day {
		sod := startOfDay(now)
		boundary = sod.AddDate(0, 0, 7-int(sod.Weekday()))
	}
	if boundary.Before(next) {
		return boundary
	}
	return next
}

// String returns the window in the form accepted by UnmarshalText.
func (w Window) String() string {
	kind := "sliding"
	if w.Fixed {
		kind = "fixed"
	}
	return fmt.Sprintf("%d/%s/%s", w.Limit, w.Duration, kind)
}

// MarshalText implements encoding.TextMarshaler.
func (w Window) MarshalText() ([]byte, error) {
	return []byte(w.String()), nil
}

// UnmarshalText parses "limit/duration[/fixed|/sliding]", e.g. "10/1s" or "500/1h/fixed".
// It lets windows be loaded from environment variables.
func (w *Window) UnmarshalText(text []byte) error {
	parts := strings.Split(strings.TrimSpace(string(text)), "/")
	if len(parts) < 2 || len(parts) > 3 {
		return fmt.Errorf("%w: expected limit/duration[/fixed], got %q", ErrInvalidWindow, text)
	}

	limit, err := strconv.Atoi(parts[0])
	if err != nil {
		return fmt.Errorf("%w: limit %q: %w", ErrInvalidWindow, parts[0], err)
	}
	d, err := time.ParseDuration(parts[1])
	if err != nil {
		return fmt.Errorf("%w: duration %q: %w", ErrInvalidWindow, parts[1], err)
	}

	parsed := Window{Duration: d, Limit: limit}
	if len(parts) == 3 {
		switch parts[2] {
		case "fixed":
			parsed.Fixed = true
		case "sliding":
		default:
			return fmt.Errorf("%w: unknown window kind %q", ErrInvalidWindow, parts[2])
		}
	}

	if err := parsed.Validate(); err != nil {
		return err
	}
	*w = parsed
	return nil
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
