package tui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/javiermolinar/planboard/internal/grid"
	"github.com/javiermolinar/planboard/internal/logger"
	"github.com/javiermolinar/planboard/internal/task"
	"github.com/javiermolinar/planboard/internal/tui/commands"
)

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case tea.MouseMsg:
		return m.handleMouseMsg(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		m.syncGrid()
		return m, nil

	case commands.TickMsg:
		m.now = time.Time(msg)
		return m, commands.Tick(nowRefresh)

	case commands.HistoryMsg:
		m.grid.PointerUp()
		m.grid.Blur()
		m.history = msg.Entries
		m.historyCursor = 0
		return m, nil

	case commands.SnapshotMsg:
		m.grid.PointerUp()
		m.ctl.Adopt(msg.Plan)
		m.syncGrid()
		return m, m.setStatus("Restored snapshot " + msg.Entry.Label)

	case commands.SavedMsg:
		return m, m.setStatus(fmt.Sprintf("Saved %d tasks", msg.Tasks))

	case commands.AutosaveMsg:
		if msg.Err != nil {
			return m, m.setError(fmt.Errorf("autosave failed: %w", msg.Err))
		}
		return m, m.setStatus("Saved")

	case commands.ErrMsg:
		return m, m.setError(msg.Err)

	case commands.StatusMsgCmd:
		return m, m.setStatus(msg.Msg)

	case commands.ClearStatusMsg:
		if !m.clock.Now().Before(m.statusTime) {
			m.statusMsg = ""
			m.statusErr = false
		}
		return m, nil
	}

	if m.title.Focused() {
		var cmd tea.Cmd
		m.title, cmd = m.title.Update(msg)
		return m, cmd
	}
	return m, nil
}

// afterGridEvent keeps the title input in step with the grid's edit state.
func (m Model) afterGridEvent() (Model, tea.Cmd) {
	_, text, editing := m.grid.Editing()
	switch {
	case editing && !m.title.Focused():
		m.title.SetValue(text)
		m.title.CursorEnd()
		return m, m.title.Focus()
	case !editing && m.title.Focused():
		m.title.Blur()
		m.title.SetValue("")
	}
	return m, nil
}

func (m Model) handleMouseMsg(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if m.history != nil {
		return m, nil
	}
	switch {
	case msg.Button == tea.MouseButtonWheelUp:
		m.scroll(-1)
		return m, nil
	case msg.Button == tea.MouseButtonWheelDown:
		m.scroll(1)
		return m, nil
	}

	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft {
			return m, nil
		}
		return m.handlePress(msg)
	case tea.MouseActionMotion:
		m.handleMotion(msg)
		return m, nil
	case tea.MouseActionRelease:
		if s := m.grid.State(); s != grid.StateIdle && s != grid.StateEditTitle {
			logger.Debug("gesture end", "state", s, "tasks", len(m.grid.Tasks()))
		}
		m.grid.PointerUp()
		return m, nil
	}
	return m, nil
}

func (m Model) handlePress(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	col, row, ok := m.gridCell(msg.X, msg.Y)
	if !ok {
		return m, nil
	}
	m.pressRow = row
	p := m.pointer(col, row, msg.Alt, msg.Ctrl)

	now := m.clock.Now()
	c := cell{x: msg.X, y: msg.Y}
	if c == m.lastClickCell && now.Sub(m.lastClick) <= doubleClickWindow {
		m.lastClick = time.Time{}
		m.grid.DoubleClick(p)
	} else {
		m.lastClick, m.lastClickCell = now, c
		m.grid.PointerDown(p)
	}
	logger.Debug("pointer down", "col", col, "row", row, "hit", p.Hit.Kind, "state", m.grid.State())
	return m.afterGridEvent()
}

func (m Model) handleMotion(msg tea.MouseMsg) {
	if !dragging(m.grid.State()) {
		return
	}
	col, row := m.clampedCell(msg.X, msg.Y)
	m.grid.PointerMove(float64(col*m.colWidth)+0.5, m.motionY(row))
}

func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}
	if m.history != nil {
		return m.handleHistoryKeys(msg)
	}
	if m.title.Focused() {
		return m.handleEditKeys(msg)
	}
	return m.handleNormalKeys(msg)
}

// handleHistoryKeys drives the snapshot picker. Digits pick one of the first
// nine entries directly.
func (m Model) handleHistoryKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch s := msg.String(); s {
	case "up", "k":
		m.historyCursor = max(m.historyCursor-1, 0)
	case "down", "j":
		m.historyCursor = min(m.historyCursor+1, len(m.history)-1)
	case "enter":
		return m.restore(m.historyCursor)
	case "esc", "q", "h":
		m.history = nil
	case "1", "2", "3", "4", "5", "6", "7", "8", "9":
		if i := int(s[0] - '1'); i < len(m.history) {
			return m.restore(i)
		}
	}
	return m, nil
}

// restore closes the picker and fetches the i-th snapshot.
func (m Model) restore(i int) (tea.Model, tea.Cmd) {
	entry := m.history[i]
	m.history = nil
	return m, commands.Snapshot(m.store, entry)
}

// handleEditKeys routes keys to the title input. Enter commits and Escape
// discards.
func (m Model) handleEditKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		m.grid.SetEditText(m.title.Value())
		m.grid.Key(grid.KeyEnter)
		return m.afterGridEvent()
	case tea.KeyEsc:
		m.grid.Key(grid.KeyEscape)
		return m.afterGridEvent()
	}

	var cmd tea.Cmd
	m.title, cmd = m.title.Update(msg)
	m.grid.SetEditText(m.title.Value())
	return m, cmd
}

// handleNormalKeys handles keys in normal mode.
func (m Model) handleNormalKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit

	// Grid commands
	case "delete", "backspace":
		m.grid.Key(grid.KeyDelete)
	case " ":
		m.grid.Key(grid.KeySpace)
	case "esc":
		m.grid.Key(grid.KeyEscape)
	case "enter":
		m.grid.Key(grid.KeyEnter)
		return m.afterGridEvent()

	// Navigation
	case "p", "left":
		m.navigate(m.ctl.Previous)
	case "n", "right":
		m.navigate(m.ctl.Next)
	case "t":
		m.navigate(m.ctl.Today)
	case "up", "k":
		m.scroll(-1)
	case "down", "j":
		m.scroll(1)

	// Window
	case "d":
		return m.setView(task.ViewDay)
	case "w":
		return m.setView(task.ViewWeek)
	case "m":
		return m.setView(task.ViewMonth)
	case "1", "3", "7":
		n := int(msg.Runes[0] - '0')
		m.navigate(func() { m.ctl.SetDays(n) })
		m.layout()
		m.syncGrid()
	case "f":
		m.navigate(func() { m.ctl.SetDays(15) })
		m.layout()
		m.syncGrid()

	// Persistence
	case "s":
		if saver := m.ctl.Autosaver(); saver != nil {
			saver.Cancel()
		}
		return m, commands.Save(m.store, m.ctl.Plan())
	case "h":
		return m, commands.History(m.store, m.config.Planner.HistoryLimit)
	case "a":
		saver := m.ctl.Autosaver()
		if saver == nil {
			return m, m.setStatus("Autosave needs a logged-in user")
		}
		saver.SetEnabled(!saver.Enabled())
		return m, m.setStatus("Autosave " + onOff(saver.Enabled()))
	case "y":
		return m, commands.CopyPlan(m.ctl.Plan())
	}
	return m, nil
}

func (m Model) setView(v task.View) (tea.Model, tea.Cmd) {
	var err error
	m.navigate(func() { err = m.ctl.SetView(v) })
	if err != nil {
		return m, m.setError(err)
	}
	m.layout()
	m.syncGrid()
	return m, nil
}

// navigate ends any gesture before the window moves so no drag spans two
// windows.
func (m Model) navigate(fn func()) {
	m.grid.PointerUp()
	m.grid.Blur()
	fn()
	m.syncGrid()
}

func (m *Model) scroll(delta int) {
	limit := max(gridRows-m.visibleRows(), 0)
	m.scrollOffset = min(max(m.scrollOffset+delta, 0), limit)
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
