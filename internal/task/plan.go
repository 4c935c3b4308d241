package task

import (
	"errors"
	"fmt"
	"time"
)

// Plan validation errors.
var (
	ErrTasksNotArray = errors.New("tasks must be an array")
	ErrInvalidView   = errors.New("view must be 'day', 'week' or 'month'")
	ErrInvalidDays   = errors.New("days must be between 1 and 30")
)

// View is the calendar layout of a plan.
type View string

const (
	ViewDay   View = "day"
	ViewWeek  View = "week"
	ViewMonth View = "month"
)

// Valid returns true if the view is a known layout.
func (v View) Valid() bool {
	switch v {
	case ViewDay, ViewWeek, ViewMonth:
		return true
	default:
		return false
	}
}

// Window length limits.
const (
	MinDays     = 1
	MaxDays     = 30
	DefaultDays = 7
)

// Plan is the persisted unit. Task day indices are relative to AnchorDate.
type Plan struct {
	Tasks      []Task    `json:"tasks"`
	View       View      `json:"view"`
	Days       int       `json:"days"`
	AnchorDate time.Time `json:"anchorDate"`
}

// DefaultPlan returns the empty plan served to users with nothing saved yet.
func DefaultPlan(now time.Time) Plan {
	return Plan{
		Tasks:      []Task{},
		View:       ViewWeek,
		Days:       DefaultDays,
		AnchorDate: now,
	}
}

// Validate checks a plan received from a client.
func (p Plan) Validate() error {
	if p.Tasks == nil {
		return ErrTasksNotArray
	}
	if !p.View.Valid() {
		return ErrInvalidView
	}
	if p.Days < MinDays || p.Days > MaxDays {
		return ErrInvalidDays
	}
	for i, t := range p.Tasks {
		if err := t.Validate(); err != nil {
			return fmt.Errorf("task %d (%s): %w", i, t.ID, err)
		}
	}
	return nil
}

// Clone returns a deep copy of the plan.
func (p Plan) Clone() Plan {
	p.Tasks = CloneAll(p.Tasks)
	return p
}

// HistoryLabelLayout formats snapshot timestamps for display.
const HistoryLabelLayout = "2006-01-02 15:04:05"

// HistoryEntry identifies one snapshot in a user's history log.
type HistoryEntry struct {
	Timestamp int64  `json:"ts"` // unix milliseconds
	Label     string `json:"label"`
}

// NewHistoryEntry builds an entry with a label in the given location.
func NewHistoryEntry(ts int64, loc *time.Location) HistoryEntry {
	if loc == nil {
		loc = time.Local
	}
	return HistoryEntry{
		Timestamp: ts,
		Label:     time.UnixMilli(ts).In(loc).Format(HistoryLabelLayout),
	}
}
