package analysis

import (
	"sync/atomic"
)

// Tracker implements last-write-wins supersession for in-flight
// classifications. When a newer image selection arrives before the previous
// one finishes, the stale computation completes but its result is discarded:
// only the generation handed out most recently may commit.
//
// The tracker does not coordinate the work itself; each invocation still
// runs on independently owned buffers.
type Tracker struct {
	latest atomic.Uint64
}

// Begin registers a new request and returns its generation token. Any
// generation issued earlier becomes stale immediately.
func (t *Tracker) Begin() uint64 {
	return t.latest.Add(1)
}

// Current reports whether the given generation is still the newest one.
// Callers check this after their pipeline completes and drop the result if
// it returns false.
func (t *Tracker) Current(generation uint64) bool {
	return t.latest.Load() == generation
}
