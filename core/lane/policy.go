package lane

import (
	"fmt"
	"strings"
)

// CapacityPolicy selects what happens when a lane's stored-item limit is reached.
type CapacityPolicy uint8

const (
	// PolicyDefault defers to the lane's default: Wait for accumulators,
	// ThrowError for every other lane.
	PolicyDefault CapacityPolicy = iota
	// Wait blocks the publisher until space frees or its context is done.
	Wait
	// DropNewest silently discards the incoming item.
	DropNewest
	// ThrowError rejects the incoming item with ErrCapacityExceeded.
	ThrowError
	// ForceDrainNow waits for one extra drain cycle, then accepts the item.
	ForceDrainNow
)

var policyNames = map[CapacityPolicy]string{
	PolicyDefault: "default",
	Wait:          "wait",
	DropNewest:    "drop_newest",
	ThrowError:    "throw_error",
	ForceDrainNow: "force_drain_now",
}

// String implements fmt.Stringer.
func (p CapacityPolicy) String() string {
	if name, ok := policyNames[p]; ok {
		return name
	}
	return fmt.Sprintf("CapacityPolicy(%d)", uint8(p))
}

// MarshalText implements encoding.TextMarshaler.
func (p CapacityPolicy) MarshalText() ([]byte, error) {
	if _, ok := policyNames[p]; !ok {
		return nil, fmt.Errorf("%w: unknown capacity policy %d", ErrInvalidConfiguration, uint8(p))
	}
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler so policies can be read
// from environment variables.
func (p *CapacityPolicy) UnmarshalText(text []byte) error {
	s := strings.ToLower(strings.TrimSpace(string(text)))
	s = strings.ReplaceAll(s, "-", "_")
	if s == "" {
		*p = PolicyDefault
		return nil
	}
	for policy, name := range policyNames {
		if name == s {
			*p = policy
			return nil
		}
	}
	return fmt.Errorf("%w: unknown capacity policy %q", ErrInvalidConfiguration, string(text))
}

func (p CapacityPolicy) resolve(kind Kind) CapacityPolicy {
	if p != PolicyDefault {
		return p
	}
	if kind == KindAccumulator {
		return Wait
	}
	return ThrowError
}
