package input

import (
	"sync"
	"time"
)

// Clock exposes the current time for debounce decisions.
type Clock interface {
	Now() time.Time
}

// systemClock delegates to time.Now for production code paths.
type systemClock struct{}

// Now implements Clock.
func (systemClock) Now() time.Time { return time.Now() }

// ClockFunc adapts a function into a Clock.
type ClockFunc func() time.Time

// Now implements Clock for functional adapters.
func (f ClockFunc) Now() time.Time { return f() }

// DefaultDebounceInterval is the elapsed-time threshold applied per key.
const DefaultDebounceInterval = 150 * time.Millisecond

// Gate debounces repeated key presses with an elapsed-time threshold per key,
// the same suppression the frame loop applies to keyboard repeat.
type Gate struct {
	mu          sync.Mutex
	clock       Clock
	minInterval time.Duration
	last        map[Key]time.Time
	drops       map[Key]uint64
}

// NewGate builds a debounce gate with the supplied threshold. A nil clock
// selects the system clock; a non-positive interval uses the default.
func NewGate(minInterval time.Duration, clock Clock) *Gate {
	if minInterval <= 0 {
		minInterval = DefaultDebounceInterval
	}
	if clock == nil {
		clock = systemClock{}
	}
	return &Gate{
		clock:       clock,
		minInterval: minInterval,
		last:        make(map[Key]time.Time),
		drops:       make(map[Key]uint64),
	}
}

// Allow reports whether the key press passes its per-key debounce window.
func (g *Gate) Allow(key Key) bool {
	if g == nil {
		return true
	}
	if !key.Valid() {
		return false
	}
	now := g.clock.Now()

	g.mu.Lock()
	defer g.mu.Unlock()

	//1.- Accept immediately when the key has never fired or the window elapsed.
	last, seen := g.last[key]
	if !seen || now.Sub(last) >= g.minInterval {
		g.last[key] = now
		return true
	}
	//2.- Count the suppressed press so diagnostics can expose noisy clients.
	g.drops[key]++
	return false
}

// Drops returns a copy of the per-key suppressed press counters.
func (g *Gate) Drops() map[Key]uint64 {
	if g == nil {
		return nil
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make(map[Key]uint64, len(g.drops))
	for key, count := range g.drops {
		out[key] = count
	}
	return out
}

// Reset clears the debounce history, typically between runs.
func (g *Gate) Reset() {
	if g == nil {
		return
	}
	g.mu.Lock()
	g.last = make(map[Key]time.Time)
	g.drops = make(map[Key]uint64)
	g.mu.Unlock()
}
