package service

import "sync"

// FaultInjector forces a deterministic fraction of step calls to fail so the
// retry and failure paths are exercisable in tests and staging. When enabled,
// every Nth call per step fails (N = period). Counters are tracked per step
// so one noisy step cannot shift another step's failure schedule.
type FaultInjector struct {
	enabled bool
	period  int

	mu     sync.Mutex
	counts map[string]int
}

// NewFaultInjector creates a new FaultInjector. A period below 1 disables injection.
func NewFaultInjector(enabled bool, period int) *FaultInjector {
	if period < 1 {
		enabled = false
	}
	return &FaultInjector{
		enabled: enabled,
		period:  period,
		counts:  make(map[string]int),
	}
}

// ShouldFail reports whether this call to the step must fail. Safe to call on
// a nil injector.
func (f *FaultInjector) ShouldFail(step string) bool {
	if f == nil || !f.enabled {
		return false
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.counts[step]++
	return f.counts[step]%f.period == 0
}
