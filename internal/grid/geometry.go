package grid

import (
	"math"

	"github.com/javiermolinar/planboard/internal/task"
)

// Rect is an axis-aligned rectangle in grid coordinates.
type Rect struct {
	X0, Y0, X1, Y1 float64
}

// Canon returns r with X0 <= X1 and Y0 <= Y1.
func (r Rect) Canon() Rect {
	if r.X0 > r.X1 {
		r.X0, r.X1 = r.X1, r.X0
	}
	if r.Y0 > r.Y1 {
		r.Y0, r.Y1 = r.Y1, r.Y0
	}
	return r
}

// Contains reports whether (x, y) lies inside r, top-left inclusive.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X0 && x < r.X1 && y >= r.Y0 && y < r.Y1
}

// Empty reports whether r has no area at all.
func (r Rect) Empty() bool {
	return r.X0 == r.X1 && r.Y0 == r.Y1
}

// Geometry maps grid coordinates to day columns and minutes. The origin is
// the top-left corner of day 0 at RangeStart; units are whatever the host
// renders in (pixels, terminal cells).
type Geometry struct {
	Width, Height float64
	Days          int
	// HandleSize is the height of the resize zones at the top and bottom of a
	// task box. Zero disables handle hits.
	HandleSize float64
}

func (g Geometry) days() int {
	return max(g.Days, 1)
}

// ColumnWidth returns the width of one day column.
func (g Geometry) ColumnWidth() float64 {
	return g.Width / float64(g.days())
}

// Column returns the day column under x, clamped to [0, Days-1].
func (g Geometry) Column(x float64) int {
	if g.Width <= 0 {
		return 0
	}
	col := int(math.Floor(x / g.ColumnWidth()))
	return task.Clamp(col, 0, g.days()-1)
}

// MinutesAt returns the unsnapped time under y, clamped to the visible range.
func (g Geometry) MinutesAt(y float64) int {
	if g.Height <= 0 {
		return task.RangeStart
	}
	frac := task.ClampFloat(y/g.Height, 0, 1)
	return task.RangeStart + int(math.Round(frac*task.RangeMinutes))
}

// Y returns the vertical offset of minutes, clamped to the grid.
func (g Geometry) Y(minutes int) float64 {
	y := float64(minutes-task.RangeStart) * g.Height / task.RangeMinutes
	return task.ClampFloat(y, 0, g.Height)
}

// TaskBox returns the rendered bounding box of t. Boxes are never shorter
// than MinDuration.
func (g Geometry) TaskBox(t task.Task) Rect {
	w := g.ColumnWidth()
	y0 := g.Y(t.StartMinutes())
	y1 := g.Y(t.EndMinutes())
	minHeight := float64(task.MinDuration) * g.Height / task.RangeMinutes
	return Rect{
		X0: float64(t.DayIndex) * w,
		Y0: y0,
		X1: float64(t.DayIndex+1) * w,
		Y1: math.Max(y1, y0+minHeight),
	}
}

// Visible reports whether t falls inside the window's day columns.
func (g Geometry) Visible(t task.Task) bool {
	return t.DayIndex >= 0 && t.DayIndex < g.days()
}

// HitTest returns what lies under (x, y). Later tasks are drawn on top and
// win ties.
func (g Geometry) HitTest(tasks []task.Task, x, y float64) Hit {
	for i := len(tasks) - 1; i >= 0; i-- {
		t := tasks[i]
		if !g.Visible(t) {
			continue
		}
		box := g.TaskBox(t)
		if !box.Contains(x, y) {
			continue
		}
		if g.HandleSize > 0 && box.Y1-box.Y0 > 3*g.HandleSize {
			if y < box.Y0+g.HandleSize {
				return Hit{Kind: HitTopHandle, TaskID: t.ID}
			}
			if y >= box.Y1-g.HandleSize {
				return Hit{Kind: HitBottomHandle, TaskID: t.ID}
			}
		}
		return Hit{Kind: HitBody, TaskID: t.ID}
	}
	return Hit{Kind: HitBackground}
}
