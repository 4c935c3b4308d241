package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/javiermolinar/planboard/internal/task"
)

// taskStyleKey identifies one of the precomputed task block styles.
type taskStyleKey struct {
	color    task.Color
	selected bool
	done     bool
}

// StyleCache stores width-specific styles and pre-rendered cells to avoid
// per-cell mutations.
type StyleCache struct {
	DayHeader      lipgloss.Style
	DayHeaderToday lipgloss.Style

	EmptyCell string
	HourCell  string
	NowCell   string
	GuideCell string
	Marquee   string

	tasks map[taskStyleKey]lipgloss.Style
}

// NewStyleCache precomputes all width-dependent styles for the grid.
func NewStyleCache(styles *Styles, width int) StyleCache {
	c := StyleCache{
		DayHeader:      styles.DayHeaderStyleWidth(width),
		DayHeaderToday: styles.DayHeaderTodayStyleWidth(width),
		EmptyCell:      styles.EmptyCellStyle.Render(strings.Repeat(" ", width)),
		HourCell:       styles.HourCellStyle.Render(strings.Repeat("┈", width)),
		NowCell:        styles.NowLineStyle.Render(strings.Repeat("━", width)),
		GuideCell:      styles.GuideStyle.Render(strings.Repeat("╌", width)),
		Marquee:        styles.MarqueeStyle.Render(strings.Repeat("░", width)),
		tasks:          make(map[taskStyleKey]lipgloss.Style, len(task.Palette)*3),
	}
	for _, col := range task.Palette {
		for _, k := range []taskStyleKey{
			{color: col},
			{color: col, selected: true},
			{color: col, done: true},
		} {
			t := task.Task{Color: k.color, Done: k.done}
			c.tasks[k] = styles.TaskStyle(t, k.selected).Width(width)
		}
	}
	return c
}

// Task returns the cached block style for t.
func (c StyleCache) Task(t task.Task, selected bool) lipgloss.Style {
	k := taskStyleKey{color: t.Color.OrDefault(), selected: selected}
	if !selected {
		k.done = t.Done
	}
	return c.tasks[k]
}
