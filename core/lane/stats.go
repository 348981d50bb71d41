package lane

import "sync/atomic"

// Stats is a point-in-time snapshot of lane counters.
type Stats struct {
	Kind      Kind   `json:"kind"`
	Message   string `json:"message"`
	Enqueued  uint64 `json:"enqueued"`
	Dropped   uint64 `json:"dropped"`
	Rejected  uint64 `json:"rejected"`
	Processed uint64 `json:"processed"`
	Failed    uint64 `json:"failed"`
	Stored    int    `json:"stored"`
}

type counters struct {
	enqueued  atomic.Uint64
	dropped   atomic.Uint64
	rejected  atomic.Uint64
	processed atomic.Uint64
	failed    atomic.Uint64
}

func (c *counters) snapshot(kind Kind, message string, stored int) Stats {
	return Stats{
		Kind:      kind,
		Message:   message,
		Enqueued:  c.enqueued.Load(),
		Dropped:   c.dropped.Load(),
		Rejected:  c.rejected.Load(),
		Processed: c.processed.Load(),
		Failed:    c.failed.Load(),
		Stored:    stored,
	}
}
