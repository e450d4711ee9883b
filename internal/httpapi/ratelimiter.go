package httpapi

import (
	"sync"
	"time"
)

// DumpThrottle caps how often the replay dump endpoint may fire, so a
// misbehaving operator script cannot flood the disk with buffer dumps. A
// burst of dumps is allowed within the window; further requests are rejected
// until the oldest one ages out.
type DumpThrottle struct {
	window time.Duration
	burst  int
	now    func() time.Time

	mu     sync.Mutex
	stamps []time.Time
}

// NewDumpThrottle builds a throttle permitting burst dumps per window.
// Non-positive values disable throttling entirely.
func NewDumpThrottle(window time.Duration, burst int, clock func() time.Time) *DumpThrottle {
	if clock == nil {
		clock = time.Now
	}
	return &DumpThrottle{window: window, burst: burst, now: clock}
}

// Allow reports whether another dump may start now.
func (t *DumpThrottle) Allow() bool {
	if t == nil || t.burst <= 0 || t.window <= 0 {
		return true
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	cutoff := now.Add(-t.window)
	//1.- Timestamps are appended in order, so expired ones sit at the front.
	drop := 0
	for drop < len(t.stamps) && !t.stamps[drop].After(cutoff) {
		drop++
	}
	t.stamps = t.stamps[drop:]

	if len(t.stamps) >= t.burst {
		return false
	}
	t.stamps = append(t.stamps, now)
	return true
}
