// Package planner owns the canonical task collection and the visible window.
//
// Canonical tasks carry a DayIndex relative to a base day fixed when the
// Controller is created. The grid works on window tasks, whose day 0 is the
// anchor (the first visible day); the controller converts between the two by
// the whole-day distance from base to anchor.
package planner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/javiermolinar/planboard/internal/dateutil"
	"github.com/javiermolinar/planboard/internal/store"
	"github.com/javiermolinar/planboard/internal/task"
)

// Errors returned by store-facing operations.
var (
	// ErrNotFound matches a missing snapshot or plan.
	ErrNotFound = store.ErrNotFound
	// ErrNotLoggedIn is returned when no plan store is attached.
	ErrNotLoggedIn = errors.New("please log in")
)

// DayPresets are the window lengths offered next to a custom value.
var DayPresets = []int{3, 7, 15}

// PlanStore is the persistence seen by one logged-in user.
type PlanStore interface {
	LoadPlan(ctx context.Context) (task.Plan, error)
	SavePlan(ctx context.Context, plan task.Plan) error
	ListHistory(ctx context.Context, limit int) ([]task.HistoryEntry, error)
	GetSnapshot(ctx context.Context, ts int64) (task.Plan, error)
}

// Controller tracks the visible window and the canonical tasks.
type Controller struct {
	clock  clockwork.Clock
	base   time.Time
	anchor time.Time
	view   task.View
	days   int
	tasks  []task.Task

	store PlanStore
	saver *Autosaver
}

// Option configures a Controller.
type Option func(*Controller)

// WithStore attaches persistence.
func WithStore(s PlanStore) Option {
	return func(c *Controller) { c.store = s }
}

// WithAutosaver schedules a save after every change.
func WithAutosaver(a *Autosaver) Option {
	return func(c *Controller) { c.saver = a }
}

// WithWindow sets the initial view and window length.
func WithWindow(view task.View, days int) Option {
	return func(c *Controller) {
		if view.Valid() {
			c.view = view
		}
		c.days = task.Clamp(days, task.MinDays, task.MaxDays)
	}
}

// New creates a controller whose base and anchor are today.
func New(clock clockwork.Clock, opts ...Option) *Controller {
	today := dateutil.TruncateToDay(clock.Now())
	c := &Controller{
		clock:  clock,
		base:   today,
		anchor: today,
		view:   task.ViewWeek,
		days:   task.DefaultDays,
		tasks:  []task.Task{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Base returns the fixed origin day of canonical indices.
func (c *Controller) Base() time.Time { return c.base }

// Anchor returns the first visible day.
func (c *Controller) Anchor() time.Time { return c.anchor }

// View returns the layout.
func (c *Controller) View() task.View { return c.view }

// Days returns the window length.
func (c *Controller) Days() int { return c.days }

// Shift is the whole-day distance from base to anchor.
func (c *Controller) Shift() int {
	return dateutil.DaysBetween(c.base, c.anchor)
}

// Dates returns the calendar day of each visible column.
func (c *Controller) Dates() []time.Time {
	dates := make([]time.Time, c.days)
	for i := range dates {
		dates[i] = c.anchor.AddDate(0, 0, i)
	}
	return dates
}

// Previous moves the window back by its length, or by a month.
func (c *Controller) Previous() {
	if c.view == task.ViewMonth {
		c.anchor = dateutil.AddMonths(c.anchor, -1)
	} else {
		c.anchor = c.anchor.AddDate(0, 0, -c.days)
	}
	c.scheduleSave()
}

// Next moves the window forward by its length, or by a month.
func (c *Controller) Next() {
	if c.view == task.ViewMonth {
		c.anchor = dateutil.AddMonths(c.anchor, 1)
	} else {
		c.anchor = c.anchor.AddDate(0, 0, c.days)
	}
	c.scheduleSave()
}

// Today anchors the window at the start of the current day.
func (c *Controller) Today() {
	c.anchor = dateutil.TruncateToDay(c.clock.Now())
	c.scheduleSave()
}

// SetView changes the layout. Day view uses a 3-day window unless the
// window is a single day; week view uses 7; month keeps the length.
func (c *Controller) SetView(v task.View) error {
	if !v.Valid() {
		return fmt.Errorf("%w: %q", task.ErrInvalidView, v)
	}
	c.view = v
	switch v {
	case task.ViewDay:
		if c.days != 1 {
			c.days = 3
		}
	case task.ViewWeek:
		c.days = 7
	}
	c.scheduleSave()
	return nil
}

// SetDays sets the window length, clamped to 1..30.
func (c *Controller) SetDays(n int) {
	c.days = task.Clamp(n, task.MinDays, task.MaxDays)
	c.scheduleSave()
}

// Tasks returns a copy of the canonical collection.
func (c *Controller) Tasks() []task.Task {
	return task.CloneAll(c.tasks)
}

// WindowTasks returns the tasks with day 0 at the anchor.
func (c *Controller) WindowTasks() []task.Task {
	return task.ShiftDays(c.tasks, -c.Shift())
}

// Apply commits a window-relative collection proposed by the grid.
func (c *Controller) Apply(window []task.Task) {
	c.tasks = task.ShiftDays(window, c.Shift())
	c.scheduleSave()
}

// Plan returns the persisted form: tasks relative to the anchor.
func (c *Controller) Plan() task.Plan {
	return task.Plan{
		Tasks:      c.WindowTasks(),
		View:       c.view,
		Days:       c.days,
		AnchorDate: c.anchor,
	}
}

// Load replaces the state with a persisted plan. The base day is kept.
func (c *Controller) Load(p task.Plan) {
	anchor := c.base
	if !p.AnchorDate.IsZero() {
		a := p.AnchorDate.In(c.base.Location())
		anchor = dateutil.TruncateToDay(a)
	}
	c.anchor = anchor
	if p.View.Valid() {
		c.view = p.View
	}
	if p.Days > 0 {
		c.days = task.Clamp(p.Days, task.MinDays, task.MaxDays)
	}
	c.tasks = task.ShiftDays(p.Tasks, c.Shift())
}

// NowMarker locates now in the window: the column and the fraction of the
// visible time range. ok is false when now is outside the window or range.
func (c *Controller) NowMarker(now time.Time) (day int, frac float64, ok bool) {
	if c.view == task.ViewMonth {
		return 0, 0, false
	}
	now = now.In(c.anchor.Location())
	day = dateutil.DaysBetween(c.anchor, now)
	if day < 0 || day >= c.days {
		return 0, 0, false
	}
	m := now.Hour()*60 + now.Minute()
	if m < task.RangeStart || m > task.RangeEnd {
		return 0, 0, false
	}
	return day, task.OffsetFraction(task.MinutesToTime(m), task.RangeStart, task.RangeEnd), true
}

// LoadFrom loads the saved plan, or an empty one when the user has none.
// On error the state is untouched.
func (c *Controller) LoadFrom(ctx context.Context) error {
	if c.store == nil {
		return ErrNotLoggedIn
	}
	p, err := c.store.LoadPlan(ctx)
	if errors.Is(err, ErrNotFound) {
		p = task.DefaultPlan(c.clock.Now())
		p.View, p.Days = c.view, c.days
	} else if err != nil {
		return fmt.Errorf("loading plan: %w", err)
	}
	c.Load(p)
	return nil
}

// SaveNow saves immediately, replacing any pending autosave.
func (c *Controller) SaveNow(ctx context.Context) error {
	if c.store == nil {
		return ErrNotLoggedIn
	}
	if c.saver != nil {
		c.saver.Cancel()
		if err := c.saver.Wait(ctx); err != nil {
			return fmt.Errorf("saving plan: %w", err)
		}
	}
	if err := c.store.SavePlan(ctx, c.Plan()); err != nil {
		return fmt.Errorf("saving plan: %w", err)
	}
	return nil
}

// History lists snapshots, most recent first.
func (c *Controller) History(ctx context.Context, limit int) ([]task.HistoryEntry, error) {
	if c.store == nil {
		return nil, ErrNotLoggedIn
	}
	entries, err := c.store.ListHistory(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("listing history: %w", err)
	}
	return entries, nil
}

// Restore loads the snapshot saved at ts and schedules it to be saved as the
// current plan. A missing snapshot leaves the state untouched.
func (c *Controller) Restore(ctx context.Context, ts int64) error {
	if c.store == nil {
		return ErrNotLoggedIn
	}
	p, err := c.store.GetSnapshot(ctx, ts)
	if err != nil {
		return fmt.Errorf("restoring snapshot %d: %w", ts, err)
	}
	c.Adopt(p)
	return nil
}

// Adopt loads p and schedules it to be saved as the current plan.
func (c *Controller) Adopt(p task.Plan) {
	c.Load(p)
	c.scheduleSave()
}

// Autosaver returns the attached autosaver, if any.
func (c *Controller) Autosaver() *Autosaver {
	return c.saver
}

// scheduleSave queues an autosave of the whole plan. The anchor, view and
// length are saved with the tasks, so navigation schedules one too.
func (c *Controller) scheduleSave() {
	if c.saver != nil && c.store != nil {
		c.saver.Schedule(c.Plan())
	}
}
