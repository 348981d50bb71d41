package throttle

import (
	"sort"
	"time"
)

// Ledger is an append-only, front-trimmed record of release timestamps.
// Timestamps must be recorded in non-decreasing order. Ledger is not safe
// for concurrent use; Buffer guards it with its own lock.
type Ledger struct {
	entries []time.Time
}

// Record appends n releases at t.
func (l *Ledger) Record(t time.Time, n int) {
	for range n {
		l.entries = append(l.entries, t)
	}
}

// Prune drops every entry older than before.
func (l *Ledger) Prune(before time.Time) {
	idx := l.firstAtOrAfter(before)
	if idx == 0 {
		return
	}
	if idx == len(l.entries) {
		l.entries = nil
		return
	}
	l.entries = append(l.entries[:0:0], l.entries[idx:]...)
}

// CountSince returns the number of entries at or after start.
func (l *Ledger) CountSince(start time.Time) int {
	return len(l.entries) - l.firstAtOrAfter(start)
}

// NthSince returns the n-th (zero-based) entry at or after start.
func (l *Ledger) NthSince(start time.Time, n int) (time.Time, bool) {
	idx := l.firstAtOrAfter(start) + n
	if n < 0 || idx >= len(l.entries) {
		return time.Time{}, false
	}
	return l.entries[idx], true
}

// Len returns the number of retained entries.
func (l *Ledger) Len() int {
	return len(l.entries)
}

func (l *Ledger) firstAtOrAfter(t time.Time) int {
	return sort.Search(len(l.entries), func(i int) bool {
		return !l.entries[i].Before(t)
	})
}
