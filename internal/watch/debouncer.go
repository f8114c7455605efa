package watch

import (
	"log/slog"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Debouncer collects events until none arrive for the configured interval,
// then hands the whole batch to the callback in arrival order. Callbacks
// never overlap: a batch that becomes ready while the previous one is still
// being handled waits for it.
type Debouncer struct {
	interval time.Duration
	run      sync.Mutex
	mu       sync.Mutex
	timer    *time.Timer
	callback func(batch []fsnotify.Event)
	pending  []fsnotify.Event
}

// NewDebouncer creates a debouncer that waits for interval of quiet before
// firing callback with the events seen since the previous batch.
func NewDebouncer(interval time.Duration, callback func(batch []fsnotify.Event)) *Debouncer {
	return &Debouncer{
		interval: interval,
		callback: callback,
	}
}

// Trigger records an event. Each call restarts the quiet period.
func (d *Debouncer) Trigger(ev fsnotify.Event) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.pending = append(d.pending, ev)

	if d.timer != nil {
		d.timer.Stop()
	}

	d.timer = time.AfterFunc(d.interval, func() {
		defer func() {
			if r := recover(); r != nil {
				slog.Error("debouncer callback panicked", slog.Any("error", r))
			}
		}()

		d.run.Lock()
		defer d.run.Unlock()

		d.mu.Lock()
		batch := d.pending
		d.pending = nil
		d.mu.Unlock()

		if len(batch) > 0 {
			d.callback(batch)
		}
	})
}

// Stop cancels any pending callback and drops the events collected so far.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}

	d.pending = nil
}
