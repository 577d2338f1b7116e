package watcher

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Debouncer holds at most one pending call to fn. Every Trigger cancels the
// pending call and schedules a new one wait after now (trailing edge).
type Debouncer struct {
	clock clockwork.Clock
	wait  time.Duration
	fn    func()

	mu      sync.Mutex
	timer   clockwork.Timer
	stopped bool
}

// NewDebouncer returns a Debouncer that runs fn on clock.
func NewDebouncer(clock clockwork.Clock, wait time.Duration, fn func()) *Debouncer {
	return &Debouncer{clock: clock, wait: wait, fn: fn}
}

// Trigger (re)schedules fn. It is a no-op once Cancel has been called.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = d.clock.AfterFunc(d.wait, d.fn)
}

// Cancel drops the pending call, if any, and makes later Triggers no-ops.
// It does not wait for a call that has already started.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
