package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/javiermolinar/planboard/internal/task"
	"github.com/javiermolinar/planboard/internal/tui/theme"
)

// Styles holds all lipgloss styles for the TUI, derived from a theme.
type Styles struct {
	palette *theme.Palette

	// Title bar
	TitleStyle     lipgloss.Style
	TitleMetaStyle lipgloss.Style

	// Day headers
	DayHeaderStyle      lipgloss.Style
	DayHeaderTodayStyle lipgloss.Style

	// Time column
	TimeColumnStyle lipgloss.Style
	TimeNowStyle    lipgloss.Style

	// Grid cells
	EmptyCellStyle lipgloss.Style
	HourCellStyle  lipgloss.Style // Empty cell on the hour
	NowLineStyle   lipgloss.Style
	GuideStyle     lipgloss.Style
	MarqueeStyle   lipgloss.Style
	ConflictStyle  lipgloss.Style

	// Title input
	EditStyle lipgloss.Style

	// Footer
	StatusStyle      lipgloss.Style
	StatusErrorStyle lipgloss.Style
	HelpStyle        lipgloss.Style
}

// NewStyles creates a new Styles instance from a theme.
func NewStyles(t *theme.Theme) *Styles {
	p := theme.NewPalette(t)
	s := &Styles{palette: p}

	s.TitleStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(p.Accent).
		Background(p.Bg)
	s.TitleMetaStyle = lipgloss.NewStyle().
		Foreground(p.FgMuted).
		Background(p.Bg)

	s.DayHeaderStyle = lipgloss.NewStyle().
		Bold(true).
		Align(lipgloss.Center).
		Foreground(p.Fg).
		Background(p.BgHighlight)
	s.DayHeaderTodayStyle = s.DayHeaderStyle.
		Foreground(p.TextOnCurrent).
		Background(p.Current)

	s.TimeColumnStyle = lipgloss.NewStyle().
		Foreground(p.FgMuted).
		Background(p.Bg).
		Width(timeColWidth)
	s.TimeNowStyle = s.TimeColumnStyle.
		Bold(true).
		Foreground(p.Current)

	s.EmptyCellStyle = lipgloss.NewStyle().
		Foreground(p.BgHighlight).
		Background(p.Bg)
	s.HourCellStyle = s.EmptyCellStyle
	s.NowLineStyle = lipgloss.NewStyle().
		Foreground(p.Current).
		Background(p.Bg)
	s.GuideStyle = lipgloss.NewStyle().
		Foreground(p.Accent).
		Background(p.Bg)
	s.MarqueeStyle = lipgloss.NewStyle().
		Foreground(p.Fg).
		Background(p.BgSelection)
	s.ConflictStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(p.TextOnWarning).
		Background(p.Warning)

	s.EditStyle = lipgloss.NewStyle().
		Foreground(p.TextOnAccent).
		Background(p.Accent)

	s.StatusStyle = lipgloss.NewStyle().
		Foreground(p.Fg).
		Background(p.Bg)
	s.StatusErrorStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(p.Warning).
		Background(p.Bg)
	s.HelpStyle = lipgloss.NewStyle().
		Foreground(p.FgMuted).
		Background(p.Bg)

	return s
}

// TaskStyle returns the block style for a task.
func (s *Styles) TaskStyle(t task.Task, selected bool) lipgloss.Style {
	c := s.palette.Task(t.Color)
	style := lipgloss.NewStyle().Foreground(c.Text).Background(c.Bg)
	switch {
	case selected:
		style = style.Bold(true).Background(c.BgAlt)
	case t.Done:
		style = style.Foreground(c.TextDone).Background(c.BgDone).Strikethrough(true)
	}
	return style
}

// DayHeaderStyleWidth returns the day header style at a column width.
func (s *Styles) DayHeaderStyleWidth(width int) lipgloss.Style {
	return s.DayHeaderStyle.Width(width)
}

// DayHeaderTodayStyleWidth returns today's header style at a column width.
func (s *Styles) DayHeaderTodayStyleWidth(width int) lipgloss.Style {
	return s.DayHeaderTodayStyle.Width(width)
}
