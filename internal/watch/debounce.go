// Package watch reacts to page changes: it debounces rescans and reports
// model responses that have not been seen before.
package watch

import (
	"sync"
	"time"
)

// Debouncer runs fn once the triggers stop arriving for the quiet interval.
// Each Trigger replaces the pending run.
type Debouncer struct {
	quiet time.Duration

	mu    sync.Mutex
	timer *time.Timer
	gen   uint64
}

func NewDebouncer(quiet time.Duration) *Debouncer {
	return &Debouncer{quiet: quiet}
}

// Trigger cancels any pending run and schedules fn after the quiet interval.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.timer = time.AfterFunc(d.quiet, func() {
		d.mu.Lock()
		current := gen == d.gen
		if current {
			d.timer = nil
		}
		d.mu.Unlock()
		// A timer that fired while being replaced must not run.
		if current {
			fn()
		}
	})
}

// Stop cancels the pending run, if any.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.gen++
}

// Pending reports whether a run is scheduled.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}
