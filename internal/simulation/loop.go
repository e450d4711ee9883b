// Package simulation drives the fixed-timestep tick loop and collects the
// timing statistics operators use to spot overruns.
package simulation

import (
	"context"
	"sync"
	"time"
)

// StepFunc advances the simulation by one fixed timestep.
type StepFunc func(step time.Duration)

// StepForRate converts a target tick rate in Hz into the fixed timestep the
// loop will use, falling back to 60 Hz for non-positive or degenerate rates.
// Callers sizing tick budgets or accounting simulated time should derive them
// from this so they agree with the loop exactly.
func StepForRate(targetHz float64) time.Duration {
	if targetHz <= 0 {
		return time.Second / 60
	}
	interval := time.Duration(float64(time.Second) / targetHz)
	if interval <= 0 {
		return time.Second / 60
	}
	return interval
}

// Loop drives a fixed timestep simulation at the configured target frequency.
// Ticks that fall behind are caught up with extra steps rather than larger
// ones, so the step duration seen by the simulation never varies.
type Loop struct {
	step     time.Duration
	stepFunc StepFunc
	monitor  *TickMonitor
	ticker   *time.Ticker
	quit     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// NewLoop configures a loop that targets the provided tick rate in Hz. An
// optional monitor receives the measured duration of every step callback.
func NewLoop(targetHz float64, step StepFunc, monitor *TickMonitor) *Loop {
	if step == nil {
		step = func(time.Duration) {}
	}
	return &Loop{
		step:     StepForRate(targetHz),
		stepFunc: step,
		monitor:  monitor,
	}
}

// Start begins ticking until the context is cancelled or Stop is invoked.
func (l *Loop) Start(ctx context.Context) {
	if l == nil || l.stepFunc == nil {
		return
	}

	l.ticker = time.NewTicker(l.step)
	l.quit = make(chan struct{})
	l.done = make(chan struct{})
	go func() {
		defer close(l.done)
		defer l.ticker.Stop()
		last := time.Now()
		accumulator := time.Duration(0)
		for {
			select {
			case <-ctx.Done():
				return
			case <-l.quit:
				return
			case now := <-l.ticker.C:
				//1.- Accumulate elapsed wall time and run fixed steps while catching up.
				accumulator += now.Sub(last)
				last = now
				for accumulator >= l.step {
					l.runStep()
					accumulator -= l.step
				}
			}
		}
	}()
}

// runStep invokes the callback and feeds the measured duration to the monitor.
func (l *Loop) runStep() {
	if l.monitor == nil {
		l.stepFunc(l.step)
		return
	}
	started := time.Now()
	l.stepFunc(l.step)
	l.monitor.Observe(time.Since(started))
}

// Stop cancels the loop and waits for the goroutine to exit. It unblocks the
// goroutine itself, so it is safe to call while the start context is live.
func (l *Loop) Stop() {
	if l == nil || l.done == nil {
		return
	}
	l.stopOnce.Do(func() { close(l.quit) })
	<-l.done
}

// StepDuration exposes the configured timestep.
func (l *Loop) StepDuration() time.Duration {
	if l == nil {
		return 0
	}
	return l.step
}
