package watchdog

import (
	"sync"
	"time"
)

// Timer tracks forward progress for a single transport. It is the Go
// analogue of the firmware's per-transport watchdog_set_time plus the
// watchdog_extend flag: the extended threshold is explicit state rather
// than a hidden static, per spec design note "static flags inside
// functions."
type Timer struct {
	mu sync.Mutex

	threshold         time.Duration
	extendedThreshold time.Duration
	extended          bool

	lastProgress time.Time
	running      bool

	now func() time.Time
}

// New creates a Timer with the given normal and extended thresholds. The
// extended threshold applies only while Extend(true) is in effect (e.g.
// during a DFU file download).
func New(threshold, extendedThreshold time.Duration) *Timer {
	return &Timer{
		threshold:         threshold,
		extendedThreshold: extendedThreshold,
		now:               time.Now,
	}
}

// Reset records forward progress now and (re)starts the watchdog. Callers
// invoke this whenever a transport's cmdbuf observes an actual state
// transition (spec §4.1's SetState/watchdog coupling) or whenever the
// transport otherwise knows it is alive.
func (t *Timer) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lastProgress = t.now()
	t.running = true
}

// Stop disarms the watchdog, e.g. when the transport enters Idle.
func (t *Timer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.running = false
}

// Extend raises (or restores) the watchdog threshold for known
// long-running operations.
func (t *Timer) Extend(on bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.extended = on
}

// Expired reports whether the watchdog is armed and has exceeded its
// (possibly extended) threshold.
func (t *Timer) Expired() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.running {
		return false
	}
	threshold := t.threshold
	if t.extended {
		threshold = t.extendedThreshold
	}
	return t.now().Sub(t.lastProgress) >= threshold
}

// Remaining reports the time left before the watchdog would fire, which
// may be negative if it has already expired.
func (t *Timer) Remaining() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.running {
		return t.threshold
	}
	threshold := t.threshold
	if t.extended {
		threshold = t.extendedThreshold
	}
	return threshold - t.now().Sub(t.lastProgress)
}
