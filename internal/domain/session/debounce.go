package session

import (
	"sync"
	"time"
)

// Debouncer delays propagation of a rapidly changing value until it has
// stayed unchanged for the full quiet period. At most one timer is live
// at a time; every new input restarts it and discards the stale pending
// value.
type Debouncer struct {
	mu       sync.Mutex
	interval time.Duration
	timer    *time.Timer
	fn       func(string)
	stopped  bool
}

// NewDebouncer constructs a debouncer that calls fn with the stabilized
// value. fn runs on the timer goroutine.
func NewDebouncer(interval time.Duration, fn func(string)) *Debouncer {
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	return &Debouncer{interval: interval, fn: fn}
}

// Input feeds a new value, restarting the quiet period.
func (d *Debouncer) Input(value string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.interval, func() {
		d.mu.Lock()
		if d.stopped {
			d.mu.Unlock()
			return
		}
		d.timer = nil
		d.mu.Unlock()
		d.fn(value)
	})
}

// Cancel drops any pending propagation without stopping the debouncer.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// Stop cancels any pending propagation and rejects further input.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
