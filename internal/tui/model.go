// Package tui provides the terminal user interface for planboard.
package tui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/jonboulle/clockwork"
	"github.com/muesli/termenv"

	"github.com/javiermolinar/planboard/internal/config"
	"github.com/javiermolinar/planboard/internal/grid"
	"github.com/javiermolinar/planboard/internal/logger"
	"github.com/javiermolinar/planboard/internal/planner"
	"github.com/javiermolinar/planboard/internal/task"
	"github.com/javiermolinar/planboard/internal/tui/commands"
	"github.com/javiermolinar/planboard/internal/tui/theme"
)

// Layout constants, in terminal cells.
const (
	timeColWidth = 6
	headerLines  = 2 // title bar, day headers
	footerLines  = 2 // status, help
	minColWidth  = 6
	maxColWidth  = 24

	// One grid row per snap step.
	gridRows = task.RangeMinutes / task.SnapStep
)

const (
	doubleClickWindow = 400 * time.Millisecond
	nowRefresh        = 30 * time.Second
	statusDuration    = 3 * time.Second
	errorDuration     = 5 * time.Second
)

type cell struct{ x, y int }

// Model is the main TUI model.
type Model struct {
	// Dependencies
	ctl    *planner.Controller
	grid   *grid.Grid
	store  planner.PlanStore
	clock  clockwork.Clock
	config *config.Config
	user   string

	styles     *Styles
	styleCache StyleCache
	title      textinput.Model

	// Terminal dimensions and layout
	width        int
	height       int
	colWidth     int
	scrollOffset int

	// Pointer state
	lastClick     time.Time
	lastClickCell cell
	pressRow      int

	// History picker, open while history is non-nil
	history       []task.HistoryEntry
	historyCursor int

	// Messages
	statusMsg  string
	statusErr  bool
	statusTime time.Time

	now time.Time
}

// New creates a TUI model over ctl. store may be nil when nobody is logged in.
func New(ctl *planner.Controller, store planner.PlanStore, cfg *config.Config, clock clockwork.Clock) Model {
	t, err := theme.Load(cfg.UI.Theme)
	if err != nil {
		t, _ = theme.Load(theme.DefaultName)
	}
	styles := NewStyles(t)

	ti := textinput.New()
	ti.Placeholder = task.DefaultTitle
	ti.CharLimit = 200
	ti.Prompt = ""
	ti.TextStyle = styles.EditStyle
	ti.Cursor.Style = styles.EditStyle

	g := grid.New(grid.Geometry{})
	g.OnChange(ctl.Apply)

	m := Model{
		ctl:      ctl,
		grid:     g,
		store:    store,
		clock:    clock,
		config:   cfg,
		user:     cfg.Planner.User,
		styles:   styles,
		title:    ti,
		colWidth: maxColWidth,
		now:      clock.Now(),
	}
	m.styleCache = NewStyleCache(styles, m.colWidth)
	m.syncGrid()
	return m
}

// Init starts the now-line ticker.
func (m Model) Init() tea.Cmd {
	return commands.Tick(nowRefresh)
}

// Run loads the user's plan and runs the TUI until the user quits. A pending
// autosave is flushed on exit.
func Run(ctx context.Context, cfg *config.Config, store planner.PlanStore) error {
	if cfg.UI.NoColor {
		lipgloss.SetColorProfile(termenv.Ascii)
	}

	clock := clockwork.NewRealClock()
	view, err := parseView(cfg.Planner.DefaultView)
	if err != nil {
		return err
	}

	// Saves are only scheduled from Update, so program is set before any
	// report can run.
	var program *tea.Program
	report := func(err error) {
		if err != nil {
			logger.Warn("autosave failed", "err", err)
		}
		if program != nil {
			program.Send(commands.AutosaveMsg{Err: err})
		}
	}

	opts := []planner.Option{planner.WithWindow(view, cfg.Planner.DefaultDays)}
	var saver *planner.Autosaver
	if store != nil {
		saver = planner.NewAutosaver(clock, cfg.AutosaveDelay(), store.SavePlan, report)
		saver.SetEnabled(cfg.Planner.Autosave)
		opts = append(opts, planner.WithStore(store), planner.WithAutosaver(saver))
	}
	ctl := planner.New(clock, opts...)

	if store != nil {
		if err := ctl.LoadFrom(ctx); err != nil {
			return err
		}
	}

	program = tea.NewProgram(New(ctl, store, cfg, clock), tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))

	_, runErr := program.Run()
	if errors.Is(runErr, tea.ErrProgramKilled) && ctx.Err() != nil {
		runErr = nil
	}

	if saver != nil {
		flushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := saver.Flush(flushCtx); err != nil {
			return fmt.Errorf("saving on exit: %w", err)
		}
		saver.Stop()
	}
	return runErr
}

func parseView(s string) (task.View, error) {
	if s == "" {
		return task.ViewWeek, nil
	}
	v := task.View(s)
	if !v.Valid() {
		return "", fmt.Errorf("%w: %q", task.ErrInvalidView, s)
	}
	return v, nil
}

// geometry maps one cell to one unit: columns are colWidth wide and each row
// is one snap step.
func (m Model) geometry() grid.Geometry {
	return grid.Geometry{
		Width:  float64(m.colWidth * m.ctl.Days()),
		Height: gridRows,
		Days:   m.ctl.Days(),
	}
}

// syncGrid pushes the controller's window into the grid after navigation or
// a resize.
func (m *Model) syncGrid() {
	m.grid.SetGeometry(m.geometry())
	m.grid.SetTasks(m.ctl.WindowTasks())
}

func (m *Model) layout() {
	days := m.ctl.Days()
	w := (m.width - timeColWidth) / max(days, 1)
	m.colWidth = min(max(w, minColWidth), maxColWidth)
	m.styleCache = NewStyleCache(m.styles, m.colWidth)
	m.scrollOffset = min(m.scrollOffset, max(gridRows-m.visibleRows(), 0))
}

func (m Model) visibleRows() int {
	return max(min(m.height-headerLines-footerLines, gridRows), 0)
}

func (m *Model) setStatus(msg string) tea.Cmd {
	m.statusMsg = msg
	m.statusErr = false
	m.statusTime = m.clock.Now().Add(statusDuration)
	return tea.Tick(statusDuration, func(time.Time) tea.Msg { return commands.ClearStatusMsg{} })
}

func (m *Model) setError(err error) tea.Cmd {
	m.statusMsg = "Error: " + err.Error()
	m.statusErr = true
	m.statusTime = m.clock.Now().Add(errorDuration)
	return tea.Tick(errorDuration, func(time.Time) tea.Msg { return commands.ClearStatusMsg{} })
}
