package grid

import "github.com/javiermolinar/planboard/internal/task"

// gesture is the one active interaction of a Grid. idle is the resting value.
type gesture interface {
	state() State
}

type idle struct{}

func (idle) state() State { return StateIdle }

// moveGesture drags a group of tasks anchored to the pressed one.
type moveGesture struct {
	anchor string
	ids    []string
	orig   map[string]task.Task
	// base is the collection at press time, including any clones.
	base []task.Task

	// Group extents at press time, for clamping.
	minDay, maxDay   int
	minStart, maxEnd int

	// Last proposed deltas.
	dDay, dMin int
}

func (*moveGesture) state() State { return StateMove }

func newMoveGesture(anchor string, group []task.Task, base []task.Task) *moveGesture {
	m := &moveGesture{
		anchor:   anchor,
		orig:     make(map[string]task.Task, len(group)),
		base:     base,
		minDay:   group[0].DayIndex,
		maxDay:   group[0].DayIndex,
		minStart: group[0].StartMinutes(),
		maxEnd:   group[0].EndMinutes(),
	}
	for _, t := range group {
		m.ids = append(m.ids, t.ID)
		m.orig[t.ID] = t
		m.minDay = min(m.minDay, t.DayIndex)
		m.maxDay = max(m.maxDay, t.DayIndex)
		m.minStart = min(m.minStart, t.StartMinutes())
		m.maxEnd = max(m.maxEnd, t.EndMinutes())
	}
	return m
}

// target computes the group deltas for a pointer at (day, raw minutes).
// The 30-minute snap is overridden by a neighbor boundary within the
// threshold, tried first for the anchor's start and then for its end.
// Boundaries come from the day the anchor lands on once the group is
// clamped to the window.
func (m *moveGesture) target(day, raw, days int, idx *task.SnapIndex) (dDay, dMin int, guide *Guide) {
	a := m.orig[m.anchor]
	dur := a.Duration()

	dDay = task.Clamp(day-a.DayIndex, -m.minDay, days-1-m.maxDay)
	landing := a.DayIndex + dDay

	start := task.SnapToHalfHour(raw)
	snapped := -1
	if b, ok := idx.Snap(landing, raw, m.ids...); ok {
		start, snapped = b, b
	} else if b, ok := idx.Snap(landing, raw+dur, m.ids...); ok {
		start, snapped = b-dur, b
	}

	want := start - a.StartMinutes()
	// The end bound wins so that an over-long group still ends on the range edge.
	dMin = min(task.RangeEnd-m.maxEnd, max(task.RangeStart-m.minStart, want))

	if snapped >= 0 && dMin == want {
		guide = &Guide{Day: landing, Minutes: snapped}
	}
	return dDay, dMin, guide
}

// apply returns base with every group member shifted by the deltas.
func (m *moveGesture) apply(dDay, dMin int) []task.Task {
	out := task.CloneAll(m.base)
	for i, t := range out {
		o, ok := m.orig[t.ID]
		if !ok {
			continue
		}
		o.DayIndex += dDay
		out[i] = o.WithTimes(o.StartMinutes()+dMin, o.EndMinutes()+dMin)
	}
	return out
}

// Edge is the side of a task being resized.
type Edge int

const (
	EdgeTop Edge = iota
	EdgeBottom
)

// resizeGesture moves one edge of a single task.
type resizeGesture struct {
	edge Edge
	orig task.Task
	base []task.Task
	last int
}

func (r *resizeGesture) state() State {
	if r.edge == EdgeTop {
		return StateResizeTop
	}
	return StateResizeBottom
}

// target returns the new edge minute for a pointer at raw minutes. The
// opposite edge never moves, and MinDuration beats the range clamp.
func (r *resizeGesture) target(raw int, idx *task.SnapIndex) (int, *Guide) {
	m := task.SnapToHalfHour(raw)
	var guide *Guide
	if b, ok := idx.Snap(r.orig.DayIndex, raw, r.orig.ID); ok {
		m = b
		guide = &Guide{Day: r.orig.DayIndex, Minutes: b}
	}

	var clamped int
	if r.edge == EdgeTop {
		clamped = min(r.orig.EndMinutes()-task.MinDuration, max(task.RangeStart, m))
	} else {
		clamped = max(r.orig.StartMinutes()+task.MinDuration, min(task.RangeEnd, m))
	}
	if clamped != m {
		guide = nil
	}
	return clamped, guide
}

func (r *resizeGesture) apply(m int) []task.Task {
	out := task.CloneAll(r.base)
	for i, t := range out {
		if t.ID != r.orig.ID {
			continue
		}
		if r.edge == EdgeTop {
			out[i] = r.orig.WithTimes(m, r.orig.EndMinutes())
		} else {
			out[i] = r.orig.WithTimes(r.orig.StartMinutes(), m)
		}
	}
	return out
}

// marqueeGesture is a rubber-band selection from (X0, Y0) to the pointer.
type marqueeGesture struct {
	rect Rect
}

func (*marqueeGesture) state() State { return StateMarquee }

// editGesture holds an in-progress title edit.
type editGesture struct {
	id   string
	text string
}

func (*editGesture) state() State { return StateEditTitle }
