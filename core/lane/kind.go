package lane

// Kind identifies a delivery lane.
type Kind string

const (
	KindResponse      Kind = "response"
	KindAccumulator   Kind = "accumulator"
	KindQueue         Kind = "queue"
	KindStack         Kind = "stack"
	KindDebounce      Kind = "debounce"
	KindThrottle      Kind = "throttle"
	KindRequest       Kind = "request"
	KindBubbling      Kind = "bubbling"
	KindNotification  Kind = "notification"
	KindParallel      Kind = "parallel"
	KindFireAndForget Kind = "fire_and_forget"
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	return string(k)
}

// Queueing reports whether the lane stores messages for a standing worker
// instead of invoking handlers directly from the publish call.
func (k Kind) Queueing() bool {
	switch k {
	case KindAccumulator, KindQueue, KindStack, KindDebounce, KindThrottle:
		return true
	default:
		return false
	}
}
