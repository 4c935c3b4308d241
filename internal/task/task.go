// Package task defines the core domain types for planboard: time blocks on a
// window-relative day grid, the persisted plan, and the pure arithmetic the grid uses.
package task

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Validation errors.
var (
	ErrEmptyTitle        = errors.New("title cannot be empty")
	ErrInvalidTimeFormat = errors.New("time must be in HH:MM format")
	ErrEndBeforeStart    = errors.New("end time must be after start time")
	ErrInvalidColor      = errors.New("unknown color")
)

// DefaultTitle is the title given to tasks created on the grid.
const DefaultTitle = "New task"

// Color is one of the fixed palette entries.
type Color string

const (
	ColorBlue   Color = "blue"
	ColorGreen  Color = "green"
	ColorRed    Color = "red"
	ColorYellow Color = "yellow"
	ColorPurple Color = "purple"
	ColorOrange Color = "orange"
	ColorGray   Color = "gray"
)

// Palette lists the colors in display order. The first entry is the default.
var Palette = []Color{ColorBlue, ColorGreen, ColorRed, ColorYellow, ColorPurple, ColorOrange, ColorGray}

// Valid returns true for palette colors and the empty (default) color.
func (c Color) Valid() bool {
	if c == "" {
		return true
	}
	for _, p := range Palette {
		if c == p {
			return true
		}
	}
	return false
}

// OrDefault returns the color, or the first palette entry when unset.
func (c Color) OrDefault() Color {
	if c == "" {
		return Palette[0]
	}
	return c
}

// Task is a scheduled time block. DayIndex is relative to some origin day
// chosen by the owner of the collection, never an absolute date.
type Task struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	DayIndex int    `json:"dayIndex"`
	Start    string `json:"start"` // "HH:MM" format
	End      string `json:"end"`   // "HH:MM" format
	Done     bool   `json:"done,omitempty"`
	Color    Color  `json:"color,omitempty"`
}

// NewID returns a fresh task id.
func NewID() string {
	return "t" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

// New creates a task with a fresh id and the default color.
func New(title string, dayIndex int, start, end string) (Task, error) {
	t := Task{
		ID:       NewID(),
		Title:    strings.TrimSpace(title),
		DayIndex: dayIndex,
		Start:    start,
		End:      end,
	}
	if err := t.Validate(); err != nil {
		return Task{}, err
	}
	return t, nil
}

// Validate checks the task fields.
func (t Task) Validate() error {
	if strings.TrimSpace(t.Title) == "" {
		return ErrEmptyTitle
	}
	if err := validateTimeFormat(t.Start); err != nil {
		return fmt.Errorf("start time: %w", err)
	}
	if err := validateTimeFormat(t.End); err != nil {
		return fmt.Errorf("end time: %w", err)
	}
	if t.End <= t.Start {
		return ErrEndBeforeStart
	}
	if !t.Color.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidColor, t.Color)
	}
	return nil
}

func validateTimeFormat(s string) error {
	if len(s) != 5 {
		return ErrInvalidTimeFormat
	}
	if _, err := time.Parse("15:04", s); err != nil {
		return ErrInvalidTimeFormat
	}
	return nil
}

// Duration returns the task duration in minutes.
func (t Task) Duration() int {
	return Duration(t.Start, t.End)
}

// StartMinutes returns the start as minutes since midnight.
func (t Task) StartMinutes() int {
	return TimeToMinutes(t.Start)
}

// EndMinutes returns the end as minutes since midnight.
func (t Task) EndMinutes() int {
	return TimeToMinutes(t.End)
}

// WithTimes returns a copy of t spanning [start, end) minutes.
func (t Task) WithTimes(start, end int) Task {
	t.Start = MinutesToTime(start)
	t.End = MinutesToTime(end)
	return t
}

// Clone returns a copy of t with a fresh id.
func (t Task) Clone() Task {
	t.ID = NewID()
	return t
}

// OverlapsWith returns true if both tasks sit on the same day and their
// time ranges overlap.
func (t Task) OverlapsWith(other Task) bool {
	if t.DayIndex != other.DayIndex {
		return false
	}
	return TimesOverlap(t.Start, t.End, other.Start, other.End)
}

// CloneAll returns a copy of the slice. A nil input yields an empty, non-nil slice.
func CloneAll(tasks []Task) []Task {
	out := make([]Task, len(tasks))
	copy(out, tasks)
	return out
}

// ShiftDays returns a copy of tasks with delta added to every DayIndex.
func ShiftDays(tasks []Task, delta int) []Task {
	out := CloneAll(tasks)
	for i := range out {
		out[i].DayIndex += delta
	}
	return out
}
