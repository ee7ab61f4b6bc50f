// Package sched provides a per-key debouncer for deferring work until
// input quiesces, with structural cancel-on-superseding-edit semantics.
package sched

import (
	"sync"
	"time"
)

// Debouncer schedules one pending task per key. Scheduling a key that
// already has a pending task cancels the earlier one, so only the latest
// task for a key can ever fire. Cancellation is token-based: a stopped
// timer that already fired is still discarded by its stale generation.
type Debouncer struct {
	mu      sync.Mutex
	delay   time.Duration
	pending map[string]*task
	stopped bool
}

type task struct {
	timer *time.Timer
	gen   uint64
}

// NewDebouncer creates a debouncer with the given quiescence delay.
func NewDebouncer(delay time.Duration) *Debouncer {
	return &Debouncer{
		delay:   delay,
		pending: make(map[string]*task),
	}
}

// Schedule queues fn to run after the debounce delay, replacing any
// pending task for the same key. fn runs on a timer goroutine.
func (d *Debouncer) Schedule(key string, fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}

	var gen uint64 = 1
	if prev, ok := d.pending[key]; ok {
		prev.timer.Stop()
		gen = prev.gen + 1
	}

	t := &task{gen: gen}
	t.timer = time.AfterFunc(d.delay, func() {
		if !d.claim(key, gen) {
			return
		}
		fn()
	})
	d.pending[key] = t
}

// claim removes the pending entry for key if it still belongs to gen.
// A false return means the task was superseded or cancelled after its
// timer fired but before it ran.
func (d *Debouncer) claim(key string, gen uint64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	current, ok := d.pending[key]
	if !ok || current.gen != gen || d.stopped {
		return false
	}
	delete(d.pending, key)
	return true
}

// Cancel drops any pending task for the key.
func (d *Debouncer) Cancel(key string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if t, ok := d.pending[key]; ok {
		t.timer.Stop()
		delete(d.pending, key)
	}
}

// Pending reports whether a task is queued for the key.
func (d *Debouncer) Pending(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.pending[key]
	return ok
}

// Stop cancels all pending tasks and rejects future scheduling.
// Safe to call more than once.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	for key, t := range d.pending {
		t.timer.Stop()
		delete(d.pending, key)
	}
}
