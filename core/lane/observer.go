package lane

import "time"

// Observer receives lane events. Implementations must be safe for concurrent use
// and must not block: they are called on publish and worker paths.
type Observer interface {
	Enqueued(kind Kind, message string)
	Dropped(kind Kind, message string)
	Rejected(kind Kind, message string)
	Handled(kind Kind, message string, d time.Duration, err error)
	Stored(kind Kind, message string, depth int)
}

// NopObserver ignores every event.
type NopObserver struct{}

func (NopObserver) Enqueued(Kind, string)                       {}
func (NopObserver) Dropped(Kind, string)                        {}
func (NopObserver) Rejected(Kind, string)                       {}
func (NopObserver) Handled(Kind, string, time.Duration, error) {}
func (NopObserver) Stored(Kind, string, int)                    {}
