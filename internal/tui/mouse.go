package tui

import (
	"github.com/javiermolinar/planboard/internal/grid"
)

// gridCell maps a terminal cell to a day column and grid row. ok is false
// outside the grid body.
func (m Model) gridCell(x, y int) (col, row int, ok bool) {
	col = (x - timeColWidth) / max(m.colWidth, 1)
	row = y - headerLines + m.scrollOffset
	if x < timeColWidth || col >= m.ctl.Days() {
		return 0, 0, false
	}
	if y < headerLines || y >= headerLines+m.visibleRows() || row >= gridRows {
		return 0, 0, false
	}
	return col, row, true
}

// clampedCell is gridCell for drags, which keep tracking past the edges.
func (m Model) clampedCell(x, y int) (col, row int) {
	col = (max(x-timeColWidth, 0)) / max(m.colWidth, 1)
	row = y - headerLines + m.scrollOffset
	return min(col, m.ctl.Days()-1), min(max(row, 0), gridRows-1)
}

// pointer builds a grid press for a cell. With ctrl held a press on a task
// body grabs whichever edge is nearer.
func (m Model) pointer(col, row int, alt, ctrl bool) grid.Pointer {
	x := float64(col*m.colWidth) + 0.5
	y := float64(row)
	hit := m.grid.Geometry().HitTest(m.grid.Tasks(), x, y+0.5)

	if ctrl && hit.Kind == grid.HitBody {
		for _, t := range m.grid.Tasks() {
			if t.ID != hit.TaskID {
				continue
			}
			box := m.grid.Geometry().TaskBox(t)
			if y+0.5 < (box.Y0+box.Y1)/2 {
				hit.Kind = grid.HitTopHandle
			} else {
				hit.Kind = grid.HitBottomHandle
			}
		}
	}
	return grid.Pointer{X: x, Y: y, Hit: hit, Duplicate: alt}
}

// motionY is the grid y for a drag over row. Rows are addressed by their top
// edge, except when the gesture is pulling something down: a bottom edge or a
// marquee growing downward covers the whole row.
func (m Model) motionY(row int) float64 {
	switch m.grid.State() {
	case grid.StateResizeBottom:
		return float64(row + 1)
	case grid.StateMarquee:
		if row >= m.pressRow {
			return float64(row + 1)
		}
	}
	return float64(row)
}

func dragging(s grid.State) bool {
	switch s {
	case grid.StateMove, grid.StateResizeTop, grid.StateResizeBottom, grid.StateMarquee:
		return true
	}
	return false
}
