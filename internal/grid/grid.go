// Package grid is the interactive scheduling grid: it turns pointer and key
// events over a window of day columns into proposed task collections.
//
// A Grid never owns canonical data. Every change is proposed as a full
// replacement collection through the OnChange callback; without a callback
// gestures still update selection and drag state but never change tasks.
package grid

import (
	"strings"

	"github.com/javiermolinar/planboard/internal/task"
)

// Grid holds the window-relative tasks and transient interaction state.
type Grid struct {
	geo       Geometry
	tasks     []task.Task
	conflicts map[string]bool
	snap      *task.SnapIndex

	selected map[string]bool
	gesture  gesture
	guide    *Guide
	preview  []task.Task

	onChange func([]task.Task)
}

// New creates an empty grid.
func New(geo Geometry) *Grid {
	g := &Grid{
		geo:      geo,
		selected: make(map[string]bool),
		gesture:  idle{},
	}
	g.SetTasks(nil)
	return g
}

// OnChange sets the callback that receives proposed collections.
// A nil callback makes the grid read-only.
func (g *Grid) OnChange(fn func([]task.Task)) {
	g.onChange = fn
}

// SetGeometry updates the window layout.
func (g *Grid) SetGeometry(geo Geometry) {
	g.geo = geo
}

// Geometry returns the current layout.
func (g *Grid) Geometry() Geometry {
	return g.geo
}

// SetTasks replaces the window-relative collection. Selected ids that no
// longer exist are dropped, and an edit of a vanished task is abandoned.
func (g *Grid) SetTasks(tasks []task.Task) {
	g.tasks = task.CloneAll(tasks)
	g.conflicts = task.Conflicts(g.tasks)
	g.snap = task.NewSnapIndex(g.tasks)

	for id := range g.selected {
		if g.index(id) < 0 {
			delete(g.selected, id)
		}
	}
	if e, ok := g.gesture.(*editGesture); ok && g.index(e.id) < 0 {
		g.gesture = idle{}
	}
}

// Tasks returns a copy of the current collection.
func (g *Grid) Tasks() []task.Task {
	return task.CloneAll(g.tasks)
}

// Preview returns what a drag in progress would produce, or the current
// collection when nothing is being dragged.
func (g *Grid) Preview() []task.Task {
	if g.preview != nil {
		return task.CloneAll(g.preview)
	}
	return g.Tasks()
}

// State returns the active gesture kind.
func (g *Grid) State() State {
	return g.gesture.state()
}

// Selected returns the selected ids in collection order.
func (g *Grid) Selected() []string {
	var ids []string
	for _, t := range g.tasks {
		if g.selected[t.ID] {
			ids = append(ids, t.ID)
		}
	}
	return ids
}

// IsSelected reports whether id is selected.
func (g *Grid) IsSelected(id string) bool {
	return g.selected[id]
}

// Conflicts returns the ids of tasks overlapping another task on the same
// day. The map must not be modified.
func (g *Grid) Conflicts() map[string]bool {
	return g.conflicts
}

// IsConflict reports whether id overlaps another task.
func (g *Grid) IsConflict(id string) bool {
	return g.conflicts[id]
}

// Guide returns the active alignment guide.
func (g *Grid) Guide() (Guide, bool) {
	if g.guide == nil {
		return Guide{}, false
	}
	return *g.guide, true
}

// Marquee returns the selection rectangle while one is being drawn.
func (g *Grid) Marquee() (Rect, bool) {
	m, ok := g.gesture.(*marqueeGesture)
	if !ok {
		return Rect{}, false
	}
	return m.rect.Canon(), true
}

// Editing returns the task whose title is being edited and the current text.
func (g *Grid) Editing() (id, text string, ok bool) {
	e, ok := g.gesture.(*editGesture)
	if !ok {
		return "", "", false
	}
	return e.id, e.text, true
}

// ClearSelection empties the selection.
func (g *Grid) ClearSelection() {
	g.selected = make(map[string]bool)
}

// PointerDown starts a gesture from a press.
func (g *Grid) PointerDown(p Pointer) {
	g.endDrag()

	if e, ok := g.gesture.(*editGesture); ok {
		if p.Hit.Kind != HitBackground && p.Hit.TaskID == e.id {
			return
		}
		g.commitEdit()
	}

	if p.Hit.Kind != HitBackground && g.index(p.Hit.TaskID) < 0 {
		p.Hit = Hit{Kind: HitBackground}
	}

	switch p.Hit.Kind {
	case HitBody:
		g.beginMove(p)
	case HitTopHandle:
		g.beginResize(p.Hit.TaskID, EdgeTop)
	case HitBottomHandle:
		g.beginResize(p.Hit.TaskID, EdgeBottom)
	default:
		g.selected = make(map[string]bool)
		g.gesture = &marqueeGesture{rect: Rect{X0: p.X, Y0: p.Y, X1: p.X, Y1: p.Y}}
	}
}

// PointerMove updates the active drag.
func (g *Grid) PointerMove(x, y float64) {
	switch gs := g.gesture.(type) {
	case *moveGesture:
		dDay, dMin, guide := gs.target(g.geo.Column(x), g.geo.MinutesAt(y), g.geo.days(), g.snap)
		g.guide = guide
		if dDay == gs.dDay && dMin == gs.dMin {
			return
		}
		gs.dDay, gs.dMin = dDay, dMin
		g.drag(gs.apply(dDay, dMin))
	case *resizeGesture:
		m, guide := gs.target(g.geo.MinutesAt(y), g.snap)
		g.guide = guide
		if m == gs.last {
			return
		}
		gs.last = m
		g.drag(gs.apply(m))
	case *marqueeGesture:
		gs.rect.X1, gs.rect.Y1 = x, y
		g.selectIn(gs.rect)
	}
}

// PointerUp ends any drag.
func (g *Grid) PointerUp() {
	g.endDrag()
}

// DoubleClick creates a task on the background or starts editing the title
// of the task under the pointer.
func (g *Grid) DoubleClick(p Pointer) {
	g.endDrag()

	if e, ok := g.gesture.(*editGesture); ok {
		if p.Hit.Kind != HitBackground && p.Hit.TaskID == e.id {
			return
		}
		g.commitEdit()
	}

	if p.Hit.Kind == HitBackground {
		g.create(p.X, p.Y)
		return
	}
	g.beginEdit(p.Hit.TaskID)
}

// Key handles a keyboard command. While a title is being edited only Enter
// and Escape reach the grid; everything else belongs to the text input.
func (g *Grid) Key(k Key) {
	if _, ok := g.gesture.(*editGesture); ok {
		switch k {
		case KeyEnter:
			g.commitEdit()
		case KeyEscape:
			g.gesture = idle{}
		}
		return
	}

	if k == KeyEscape {
		g.selected = make(map[string]bool)
		return
	}
	if g.State() != StateIdle {
		return
	}

	switch k {
	case KeyDelete:
		g.deleteSelected()
	case KeySpace:
		g.toggleDone()
	case KeyEnter:
		if ids := g.Selected(); len(ids) == 1 {
			g.beginEdit(ids[0])
		}
	}
}

// SetEditText replaces the text of the title being edited.
func (g *Grid) SetEditText(s string) {
	if e, ok := g.gesture.(*editGesture); ok {
		e.text = s
	}
}

// Blur commits a title edit in progress.
func (g *Grid) Blur() {
	g.commitEdit()
}

func (g *Grid) beginMove(p Pointer) {
	id := p.Hit.TaskID

	var group []task.Task
	if g.selected[id] && len(g.selected) > 1 {
		for _, t := range g.tasks {
			if g.selected[t.ID] && g.geo.Visible(t) {
				group = append(group, t)
			}
		}
	} else {
		group = []task.Task{g.tasks[g.index(id)]}
	}

	base := task.CloneAll(g.tasks)
	anchor := id
	if p.Duplicate && g.onChange != nil {
		clones := make([]task.Task, len(group))
		for i, t := range group {
			clones[i] = t.Clone()
			if t.ID == id {
				anchor = clones[i].ID
			}
		}
		group = clones
		base = append(base, clones...)
	}

	g.selected = make(map[string]bool, len(group))
	for _, t := range group {
		g.selected[t.ID] = true
	}
	g.gesture = newMoveGesture(anchor, group, base)

	if len(base) != len(g.tasks) {
		g.propose(base)
	}
}

func (g *Grid) beginResize(id string, edge Edge) {
	t := g.tasks[g.index(id)]
	g.selected = map[string]bool{id: true}

	last := t.EndMinutes()
	if edge == EdgeTop {
		last = t.StartMinutes()
	}
	g.gesture = &resizeGesture{edge: edge, orig: t, base: task.CloneAll(g.tasks), last: last}
}

func (g *Grid) beginEdit(id string) {
	i := g.index(id)
	if i < 0 {
		return
	}
	g.selected = map[string]bool{id: true}
	g.gesture = &editGesture{id: id, text: g.tasks[i].Title}
}

func (g *Grid) commitEdit() {
	e, ok := g.gesture.(*editGesture)
	if !ok {
		return
	}
	g.gesture = idle{}

	title := strings.TrimSpace(e.text)
	i := g.index(e.id)
	if title == "" || i < 0 || g.tasks[i].Title == title {
		return
	}
	out := task.CloneAll(g.tasks)
	out[i].Title = title
	g.propose(out)
}

// create adds a default task at the pressed column and half hour.
func (g *Grid) create(x, y float64) {
	if g.onChange == nil {
		return
	}
	start := task.SnapToHalfHour(g.geo.MinutesAt(y))
	end := start + task.DefaultDuration
	if end > task.RangeEnd {
		end = task.RangeEnd
		start = max(task.RangeStart, end-task.DefaultDuration)
	}

	t := task.Task{
		ID:       task.NewID(),
		Title:    task.DefaultTitle,
		DayIndex: g.geo.Column(x),
	}.WithTimes(start, end)

	out := append(task.CloneAll(g.tasks), t)
	g.selected = map[string]bool{t.ID: true}
	g.propose(out)
}

func (g *Grid) deleteSelected() {
	out := make([]task.Task, 0, len(g.tasks))
	for _, t := range g.tasks {
		if !g.selected[t.ID] {
			out = append(out, t)
		}
	}
	if len(out) == len(g.tasks) {
		return
	}
	g.propose(out)
}

func (g *Grid) toggleDone() {
	if len(g.selected) == 0 {
		return
	}
	out := task.CloneAll(g.tasks)
	changed := false
	for i := range out {
		if g.selected[out[i].ID] {
			out[i].Done = !out[i].Done
			changed = true
		}
	}
	if changed {
		g.propose(out)
	}
}

// selectIn replaces the selection with the visible tasks intersecting r.
func (g *Grid) selectIn(r Rect) {
	g.selected = make(map[string]bool)
	r = r.Canon()
	if r.Empty() {
		return
	}
	c0, c1 := g.geo.Column(r.X0), g.geo.Column(r.X1)
	for _, t := range g.tasks {
		if !g.geo.Visible(t) || t.DayIndex < c0 || t.DayIndex > c1 {
			continue
		}
		box := g.geo.TaskBox(t)
		if box.Y0 < r.Y1 && r.Y0 < box.Y1 {
			g.selected[t.ID] = true
		}
	}
}

// drag records a drag frame and proposes it.
func (g *Grid) drag(tasks []task.Task) {
	g.preview = tasks
	g.propose(tasks)
}

func (g *Grid) endDrag() {
	switch g.gesture.(type) {
	case *moveGesture, *resizeGesture, *marqueeGesture:
		g.gesture = idle{}
	}
	g.guide = nil
	g.preview = nil
}

// propose adopts tasks locally and hands them to the callback. Without a
// callback nothing changes.
func (g *Grid) propose(tasks []task.Task) {
	if g.onChange == nil {
		return
	}
	g.SetTasks(tasks)
	g.onChange(task.CloneAll(tasks))
}

func (g *Grid) index(id string) int {
	for i, t := range g.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}
