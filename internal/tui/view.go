package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/x/ansi"

	"github.com/javiermolinar/planboard/internal/grid"
	"github.com/javiermolinar/planboard/internal/task"
)

const helpText = "dbl-click new · drag move · ctrl-drag resize · alt-drag copy · enter rename · space done · del delete · p/n move · t today · d/w/m view · 1/3/7/f days · s save · h history · a autosave · y copy · q quit"

// placement is one row of a task block in a day column.
type placement struct {
	task  task.Task
	first int // row the block starts on
}

// View renders the TUI.
func (m Model) View() string {
	if m.width < timeColWidth+minColWidth || m.visibleRows() <= 0 {
		return "Terminal too small"
	}

	lines := make([]string, 0, m.height)
	lines = append(lines, m.renderTitle(), m.renderDayHeaders())
	if m.history != nil {
		lines = append(lines, m.renderHistory()...)
	} else {
		lines = append(lines, m.renderGrid()...)
	}
	lines = append(lines, m.renderStatus(), m.styles.HelpStyle.Render(ansi.Truncate(helpText, m.width, "…")))
	return strings.Join(lines, "\n")
}

func (m Model) renderTitle() string {
	dates := m.ctl.Dates()
	span := dates[0].Format("Mon Jan 2, 2006")
	if len(dates) > 1 {
		span = dates[0].Format("Jan 2") + " - " + dates[len(dates)-1].Format("Jan 2, 2006")
	}

	meta := []string{string(m.ctl.View()), fmt.Sprintf("%dd", m.ctl.Days())}
	if saver := m.ctl.Autosaver(); saver != nil {
		meta = append(meta, "autosave "+onOff(saver.Enabled()))
	}
	if m.user != "" {
		meta = append(meta, m.user)
	} else {
		meta = append(meta, "not logged in")
	}

	title := m.styles.TitleStyle.Render("planboard  "+span) + m.styles.TitleMetaStyle.Render("  "+strings.Join(meta, " · "))
	return ansi.Truncate(title, m.width, "…")
}

func (m Model) renderDayHeaders() string {
	var b strings.Builder
	b.WriteString(m.styles.TimeColumnStyle.Render(""))
	for _, d := range m.ctl.Dates() {
		label := ansi.Truncate(d.Format("Mon 2"), m.colWidth, "")
		if sameDay(d, m.now) {
			b.WriteString(m.styleCache.DayHeaderToday.Render(label))
		} else {
			b.WriteString(m.styleCache.DayHeader.Render(label))
		}
	}
	return b.String()
}

func (m Model) renderGrid() []string {
	days := m.ctl.Days()
	columns := m.layoutColumns(days)

	nowDay, nowFrac, nowOK := m.ctl.NowMarker(m.now)
	nowRow := -1
	if nowOK {
		nowRow = min(int(nowFrac*gridRows), gridRows-1)
	}

	guide, guideOK := m.grid.Guide()
	marquee, marqueeOK := m.grid.Marquee()
	editID, _, editing := m.grid.Editing()

	rows := m.visibleRows()
	lines := make([]string, 0, rows)
	for r := m.scrollOffset; r < m.scrollOffset+rows; r++ {
		var b strings.Builder
		b.WriteString(m.renderTimeLabel(r, nowOK && r == nowRow))

		for d := 0; d < days; d++ {
			if p, ok := columns[d][r]; ok {
				b.WriteString(m.renderTaskCell(p, r, editing && p.task.ID == editID))
				continue
			}
			switch {
			case marqueeOK && m.inMarquee(marquee.Canon(), d, r):
				b.WriteString(m.styleCache.Marquee)
			case guideOK && guide.Day == d && guideRow(guide.Minutes) == r:
				b.WriteString(m.styleCache.GuideCell)
			case nowOK && nowDay == d && r == nowRow:
				b.WriteString(m.styleCache.NowCell)
			case r%2 == 0:
				b.WriteString(m.styleCache.HourCell)
			default:
				b.WriteString(m.styleCache.EmptyCell)
			}
		}
		lines = append(lines, b.String())
	}
	return lines
}

// renderHistory lists snapshots in place of the grid, keeping the cursor in
// view.
func (m Model) renderHistory() []string {
	rows := m.visibleRows()
	lines := make([]string, 0, rows)
	lines = append(lines, m.styles.TitleMetaStyle.Render(ansi.Truncate("Restore a snapshot: enter or 1-9 to pick, esc to cancel", m.width, "…")))

	first := max(m.historyCursor-(rows-2), 0)
	for i := first; i < len(m.history) && len(lines) < rows; i++ {
		e := m.history[i]
		num := "  "
		if i < 9 {
			num = fmt.Sprintf("%d ", i+1)
		}
		line := ansi.Truncate(fmt.Sprintf(" %s %s", num, e.Label), m.width-2, "…")
		if i == m.historyCursor {
			lines = append(lines, m.styles.TitleStyle.Render("> "+line))
		} else {
			lines = append(lines, m.styles.StatusStyle.Render("  "+line))
		}
	}
	for len(lines) < rows {
		lines = append(lines, "")
	}
	return lines
}

// layoutColumns maps each day column's rows to the task drawn there. Later
// tasks are drawn on top, matching hit testing.
func (m Model) layoutColumns(days int) []map[int]placement {
	columns := make([]map[int]placement, days)
	for i := range columns {
		columns[i] = make(map[int]placement)
	}
	for _, t := range m.grid.Preview() {
		if t.DayIndex < 0 || t.DayIndex >= days {
			continue
		}
		first, last := taskRows(t)
		for r := first; r <= last; r++ {
			columns[t.DayIndex][r] = placement{task: t, first: first}
		}
	}
	return columns
}

// taskRows returns the first and last grid rows covered by t.
func taskRows(t task.Task) (first, last int) {
	start := task.Clamp(t.StartMinutes(), task.RangeStart, task.RangeEnd) - task.RangeStart
	end := task.Clamp(t.EndMinutes(), task.RangeStart, task.RangeEnd) - task.RangeStart
	first = min(start/task.SnapStep, gridRows-1)
	last = (end+task.SnapStep-1)/task.SnapStep - 1
	return first, task.Clamp(last, first, gridRows-1)
}

func guideRow(minutes int) int {
	return task.Clamp((minutes-task.RangeStart)/task.SnapStep, 0, gridRows-1)
}

func (m Model) inMarquee(r grid.Rect, day, row int) bool {
	x0 := float64(day * m.colWidth)
	x1 := x0 + float64(m.colWidth)
	return r.X0 < x1 && r.X1 > x0 && r.Y0 < float64(row+1) && r.Y1 > float64(row)
}

func (m Model) renderTimeLabel(row int, now bool) string {
	label := ""
	if row%2 == 0 {
		label = task.MinutesToTime(task.RangeStart + row*task.SnapStep)
	}
	if now {
		return m.styles.TimeNowStyle.Render(label)
	}
	return m.styles.TimeColumnStyle.Render(label)
}

func (m Model) renderTaskCell(p placement, row int, editing bool) string {
	t := p.task
	style := m.styleCache.Task(t, m.grid.IsSelected(t.ID))

	var text string
	switch row - p.first {
	case 0:
		marker := ""
		switch {
		case m.grid.IsConflict(t.ID):
			marker = m.styles.ConflictStyle.Render("!")
		case t.Done:
			marker = "✓"
		}
		title := t.Title
		if editing {
			title = m.title.View()
		}
		text = marker + title
	case 1:
		text = t.Start + "-" + t.End
	}
	return style.Render(ansi.Truncate(text, m.colWidth, "…"))
}

func (m Model) renderStatus() string {
	if m.statusMsg != "" {
		msg := ansi.Truncate(m.statusMsg, m.width, "…")
		if m.statusErr {
			return m.styles.StatusErrorStyle.Render(msg)
		}
		return m.styles.StatusStyle.Render(msg)
	}

	parts := []string{fmt.Sprintf("%d tasks", len(m.grid.Tasks()))}
	if n := len(m.grid.Selected()); n > 0 {
		parts = append(parts, fmt.Sprintf("%d selected", n))
	}
	if n := len(m.grid.Conflicts()); n > 0 {
		parts = append(parts, m.styles.StatusErrorStyle.Render(fmt.Sprintf("%d conflicting", n)))
	}
	if s := m.grid.State(); s != grid.StateIdle {
		parts = append(parts, s.String())
	}
	return ansi.Truncate(m.styles.StatusStyle.Render(strings.Join(parts, " · ")), m.width, "…")
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.In(a.Location()).Date()
	return ay == by && am == bm && ad == bd
}
