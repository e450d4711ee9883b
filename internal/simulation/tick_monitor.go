package simulation

import (
	"sync"
	"time"
)

// TickMetrics summarises observed simulation tick durations.
type TickMetrics struct {
	Samples  int
	Average  time.Duration
	Max      time.Duration
	Last     time.Duration
	Overruns int
}

// AverageTPS derives the ticks-per-second equivalent of the average duration.
func (m TickMetrics) AverageTPS() float64 {
	if m.Average <= 0 {
		return 0
	}
	return float64(time.Second) / float64(m.Average)
}

// TickMonitor accumulates timing statistics for the simulation loop. A budget
// marks ticks that ran longer than the fixed step as overruns.
type TickMonitor struct {
	mu       sync.Mutex
	budget   time.Duration
	samples  int
	total    time.Duration
	max      time.Duration
	last     time.Duration
	overruns int
}

// NewTickMonitor constructs a monitor; a non-positive budget disables overrun
// counting.
func NewTickMonitor(budget time.Duration) *TickMonitor {
	return &TickMonitor{budget: budget}
}

// Observe records the duration of a completed simulation tick.
func (m *TickMonitor) Observe(duration time.Duration) {
	if m == nil || duration <= 0 {
		return
	}
	m.mu.Lock()
	//1.- Aggregate count and total for average calculations.
	m.samples++
	m.total += duration
	//2.- Track the worst case so operators can spot spikes quickly.
	if duration > m.max {
		m.max = duration
	}
	m.last = duration
	//3.- Flag ticks that blew through the fixed-step budget.
	if m.budget > 0 && duration > m.budget {
		m.overruns++
	}
	m.mu.Unlock()
}

// Snapshot returns a copy of the aggregated tick statistics.
func (m *TickMonitor) Snapshot() TickMetrics {
	if m == nil {
		return TickMetrics{}
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	average := time.Duration(0)
	if m.samples > 0 {
		average = m.total / time.Duration(m.samples)
	}
	return TickMetrics{
		Samples:  m.samples,
		Average:  average,
		Max:      m.max,
		Last:     m.last,
		Overruns: m.overruns,
	}
}

// Reset clears the accumulated statistics so a fresh run starts cleanly.
func (m *TickMonitor) Reset() {
	if m == nil {
		return
	}
	m.mu.Lock()
	m.samples = 0
	m.total = 0
	m.max = 0
	m.last = 0
	m.overruns = 0
	m.mu.Unlock()
}
