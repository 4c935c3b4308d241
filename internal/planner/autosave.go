package planner

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/javiermolinar/planboard/internal/task"
)

// DefaultAutosaveDelay is the quiet period before a change is saved.
const DefaultAutosaveDelay = 1500 * time.Millisecond

// SaveFunc persists a plan.
type SaveFunc func(ctx context.Context, plan task.Plan) error

// Autosaver debounces saves: each Schedule cancels the pending save and
// starts the delay again, so a burst of edits produces one write. At most one
// timer exists at a time. The save runs on the clock's goroutine with the
// plan captured at Schedule time; its result goes to the report callback and
// nothing is rolled back on failure.
type Autosaver struct {
	clock  clockwork.Clock
	delay  time.Duration
	save   SaveFunc
	report func(error)

	mu      sync.Mutex
	enabled bool
	timer   clockwork.Timer
	pending *task.Plan
	gen     uint64
	// inflight is closed when the save started by the timer returns.
	inflight chan struct{}
}

// NewAutosaver returns an enabled autosaver. report may be nil.
func NewAutosaver(clock clockwork.Clock, delay time.Duration, save SaveFunc, report func(error)) *Autosaver {
	if delay <= 0 {
		delay = DefaultAutosaveDelay
	}
	if report == nil {
		report = func(error) {}
	}
	return &Autosaver{
		clock:   clock,
		delay:   delay,
		save:    save,
		report:  report,
		enabled: true,
	}
}

// Schedule replaces any pending save with one of plan after the delay.
// It does nothing while disabled.
func (a *Autosaver) Schedule(plan task.Plan) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.enabled {
		return
	}
	a.stopLocked()

	p := plan.Clone()
	a.pending = &p
	a.gen++
	gen := a.gen
	a.timer = a.clock.AfterFunc(a.delay, func() { a.fire(gen) })
}

func (a *Autosaver) fire(gen uint64) {
	a.mu.Lock()
	if gen != a.gen || a.pending == nil {
		a.mu.Unlock()
		return
	}
	p := *a.pending
	a.pending = nil
	a.timer = nil
	done := make(chan struct{})
	a.inflight = done
	a.mu.Unlock()

	err := a.save(context.Background(), p)

	a.mu.Lock()
	if a.inflight == done {
		a.inflight = nil
	}
	a.mu.Unlock()
	close(done)

	a.report(err)
}

// Flush waits for a save already running on the timer and then saves the
// pending plan, if any. It gives up when ctx is done.
func (a *Autosaver) Flush(ctx context.Context) error {
	a.mu.Lock()
	p := a.pending
	a.stopLocked()
	a.mu.Unlock()

	if err := a.Wait(ctx); err != nil {
		return err
	}
	if p == nil {
		return nil
	}
	return a.save(ctx, *p)
}

// Wait blocks until a save started by the timer has returned.
func (a *Autosaver) Wait(ctx context.Context) error {
	a.mu.Lock()
	done := a.inflight
	a.mu.Unlock()

	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Cancel drops the pending save.
func (a *Autosaver) Cancel() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stopLocked()
}

// Stop cancels the pending save and disables the autosaver.
func (a *Autosaver) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stopLocked()
	a.enabled = false
}

// SetEnabled turns autosave on or off. Turning it off drops the pending save.
func (a *Autosaver) SetEnabled(on bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !on {
		a.stopLocked()
	}
	a.enabled = on
}

// Enabled reports whether changes are being saved.
func (a *Autosaver) Enabled() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.enabled
}

// Pending reports whether a save is waiting for its delay. A save already
// running is not pending; see Wait.
func (a *Autosaver) Pending() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.pending != nil
}

func (a *Autosaver) stopLocked() {
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	a.pending = nil
	a.gen++
}
