package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jonboulle/clockwork"

	"github.com/javiermolinar/planboard/internal/config"
	"github.com/javiermolinar/planboard/internal/planner"
	"github.com/javiermolinar/planboard/internal/task"
	"github.com/javiermolinar/planboard/internal/tui/commands"
)

// Wednesday morning, so the week window starts today.
var testNow = time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)

const (
	testWidth  = timeColWidth + 7*14
	testHeight = 40
)

func newTestModel(t *testing.T, tasks ...task.Task) (Model, *planner.Controller, *clockwork.FakeClock) {
	t.Helper()
	clock := clockwork.NewFakeClockAt(testNow)
	ctl := planner.New(clock, planner.WithWindow(task.ViewWeek, 7))
	if len(tasks) > 0 {
		p := task.DefaultPlan(testNow)
		p.Tasks = tasks
		ctl.Load(p)
	}
	m := New(ctl, nil, config.Default(), clock)
	m = send(t, m, tea.WindowSizeMsg{Width: testWidth, Height: testHeight})
	return m, ctl, clock
}

func send(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	out, ok := next.(Model)
	if !ok {
		t.Fatalf("Update returned %T", next)
	}
	return out
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "delete":
		return tea.KeyMsg{Type: tea.KeyDelete}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// cellAt returns the terminal coordinates of a day column and grid row.
func cellAt(col, row int) (x, y int) {
	return timeColWidth + col*14 + 1, headerLines + row
}

func mouse(action tea.MouseAction, col, row int) tea.MouseMsg {
	x, y := cellAt(col, row)
	return tea.MouseMsg{X: x, Y: y, Action: action, Button: tea.MouseButtonLeft}
}

func meeting() task.Task {
	return task.Task{ID: "m1", Title: "Meeting", DayIndex: 0, Start: "09:00", End: "10:00"}
}

func TestLayout(t *testing.T) {
	m, _, _ := newTestModel(t)
	if m.colWidth != 14 {
		t.Errorf("colWidth = %d, want 14", m.colWidth)
	}
	if got := m.visibleRows(); got != gridRows {
		t.Errorf("visibleRows = %d, want %d", got, gridRows)
	}

	m = send(t, m, tea.WindowSizeMsg{Width: 300, Height: 20})
	if m.colWidth != maxColWidth {
		t.Errorf("wide terminal colWidth = %d, want %d", m.colWidth, maxColWidth)
	}
	if got := m.visibleRows(); got != 16 {
		t.Errorf("short terminal visibleRows = %d, want 16", got)
	}
}

func TestGridCell(t *testing.T) {
	m, _, _ := newTestModel(t)

	tests := []struct {
		name     string
		x, y     int
		col, row int
		ok       bool
	}{
		{"first cell", timeColWidth, headerLines, 0, 0, true},
		{"third column", timeColWidth + 2*14 + 5, headerLines + 10, 2, 10, true},
		{"time column", 2, headerLines + 3, 0, 0, false},
		{"header", timeColWidth + 1, 1, 0, 0, false},
		{"past last column", timeColWidth + 7*14, headerLines, 0, 0, false},
		{"footer", timeColWidth + 1, headerLines + gridRows, 0, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			col, row, ok := m.gridCell(tt.x, tt.y)
			if ok != tt.ok || (ok && (col != tt.col || row != tt.row)) {
				t.Errorf("gridCell(%d, %d) = %d, %d, %v; want %d, %d, %v", tt.x, tt.y, col, row, ok, tt.col, tt.row, tt.ok)
			}
		})
	}
}

func TestDoubleClickCreatesTask(t *testing.T) {
	m, ctl, _ := newTestModel(t)

	m = send(t, m, mouse(tea.MouseActionPress, 1, 6))
	m = send(t, m, mouse(tea.MouseActionRelease, 1, 6))
	m = send(t, m, mouse(tea.MouseActionPress, 1, 6))
	_ = send(t, m, mouse(tea.MouseActionRelease, 1, 6))

	tasks := ctl.Tasks()
	if len(tasks) != 1 {
		t.Fatalf("got %d tasks, want 1", len(tasks))
	}
	got := tasks[0]
	if got.DayIndex != 1 || got.Start != "09:00" || got.End != "10:00" || got.Title != task.DefaultTitle {
		t.Errorf("created %+v", got)
	}
}

func TestSlowClicksDoNotCreate(t *testing.T) {
	m, ctl, clock := newTestModel(t)

	m = send(t, m, mouse(tea.MouseActionPress, 1, 6))
	m = send(t, m, mouse(tea.MouseActionRelease, 1, 6))
	clock.Advance(time.Second)
	m = send(t, m, mouse(tea.MouseActionPress, 1, 6))
	_ = send(t, m, mouse(tea.MouseActionRelease, 1, 6))

	if n := len(ctl.Tasks()); n != 0 {
		t.Errorf("got %d tasks, want 0", n)
	}
}

func TestDragMovesTask(t *testing.T) {
	m, ctl, _ := newTestModel(t, meeting())

	m = send(t, m, mouse(tea.MouseActionPress, 0, 6))
	m = send(t, m, mouse(tea.MouseActionMotion, 2, 8))
	if got := ctl.Tasks()[0]; got.DayIndex != 2 || got.Start != "10:00" {
		t.Errorf("during drag %+v", got)
	}
	m = send(t, m, mouse(tea.MouseActionRelease, 2, 8))

	got := ctl.Tasks()[0]
	if got.DayIndex != 2 || got.Start != "10:00" || got.End != "11:00" {
		t.Errorf("after drag %+v", got)
	}
	if !m.grid.IsSelected("m1") {
		t.Error("moved task should stay selected")
	}
}

func TestAltDragDuplicates(t *testing.T) {
	m, ctl, _ := newTestModel(t, meeting())

	press := mouse(tea.MouseActionPress, 0, 6)
	press.Alt = true
	m = send(t, m, press)
	m = send(t, m, mouse(tea.MouseActionMotion, 0, 12))
	_ = send(t, m, mouse(tea.MouseActionRelease, 0, 12))

	tasks := ctl.Tasks()
	if len(tasks) != 2 {
		t.Fatalf("got %d tasks, want 2", len(tasks))
	}
	if tasks[0].Start != "09:00" {
		t.Errorf("original moved to %s", tasks[0].Start)
	}
	if tasks[1].ID == "m1" || tasks[1].Start != "12:00" || tasks[1].Title != "Meeting" {
		t.Errorf("copy = %+v", tasks[1])
	}
}

func TestCtrlDragResizes(t *testing.T) {
	tests := []struct {
		name      string
		pressRow  int
		moveRow   int
		wantStart string
		wantEnd   string
	}{
		{"bottom edge", 7, 9, "09:00", "11:00"},
		{"top edge", 6, 4, "08:00", "10:00"},
		{"bottom keeps minimum", 7, 2, "09:00", "09:30"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, ctl, _ := newTestModel(t, meeting())

			press := mouse(tea.MouseActionPress, 0, tt.pressRow)
			press.Ctrl = true
			m = send(t, m, press)
			m = send(t, m, mouse(tea.MouseActionMotion, 3, tt.moveRow))
			_ = send(t, m, mouse(tea.MouseActionRelease, 3, tt.moveRow))

			got := ctl.Tasks()[0]
			if got.DayIndex != 0 || got.Start != tt.wantStart || got.End != tt.wantEnd {
				t.Errorf("got %+v, want %s-%s on day 0", got, tt.wantStart, tt.wantEnd)
			}
		})
	}
}

func TestMarqueeSelects(t *testing.T) {
	other := task.Task{ID: "m2", Title: "Lunch", DayIndex: 1, Start: "12:00", End: "13:00"}
	m, _, _ := newTestModel(t, meeting(), other)

	m = send(t, m, mouse(tea.MouseActionPress, 0, 0))
	m = send(t, m, mouse(tea.MouseActionMotion, 1, 6))
	if !m.grid.IsSelected("m1") || m.grid.IsSelected("m2") {
		t.Errorf("selected = %v", m.grid.Selected())
	}
	m = send(t, m, mouse(tea.MouseActionMotion, 1, 12))
	_ = send(t, m, mouse(tea.MouseActionRelease, 1, 12))
	if len(m.grid.Selected()) != 2 {
		t.Errorf("selected = %v, want both", m.grid.Selected())
	}
}

func TestKeys_EditTitle(t *testing.T) {
	m, ctl, _ := newTestModel(t, meeting())

	m = send(t, m, mouse(tea.MouseActionPress, 0, 6))
	m = send(t, m, mouse(tea.MouseActionRelease, 0, 6))
	m = send(t, m, key("enter"))
	if !m.title.Focused() || m.title.Value() != "Meeting" {
		t.Fatalf("title input focused=%v value=%q", m.title.Focused(), m.title.Value())
	}

	m = send(t, m, key("!"))
	m = send(t, m, key("q"))
	if ctl.Tasks()[0].Title != "Meeting" {
		t.Error("title changed before commit")
	}
	m = send(t, m, key("enter"))

	if m.title.Focused() {
		t.Error("title input still focused")
	}
	if got := ctl.Tasks()[0].Title; got != "Meeting!q" {
		t.Errorf("title = %q", got)
	}
}

func TestKeys_EditEscapeDiscards(t *testing.T) {
	m, ctl, _ := newTestModel(t, meeting())

	m = send(t, m, mouse(tea.MouseActionPress, 0, 6))
	m = send(t, m, mouse(tea.MouseActionRelease, 0, 6))
	m = send(t, m, mouse(tea.MouseActionPress, 0, 6))
	m = send(t, m, key("x"))
	m = send(t, m, key("esc"))

	if m.title.Focused() {
		t.Error("title input still focused")
	}
	if got := ctl.Tasks()[0].Title; got != "Meeting" {
		t.Errorf("title = %q", got)
	}
}

func TestKeys_DoneAndDelete(t *testing.T) {
	m, ctl, _ := newTestModel(t, meeting())

	m = send(t, m, mouse(tea.MouseActionPress, 0, 6))
	m = send(t, m, mouse(tea.MouseActionRelease, 0, 6))
	m = send(t, m, key(" "))
	if !ctl.Tasks()[0].Done {
		t.Fatal("space should mark done")
	}
	_ = send(t, m, key("delete"))
	if n := len(ctl.Tasks()); n != 0 {
		t.Errorf("got %d tasks after delete", n)
	}
}

func TestKeys_Navigation(t *testing.T) {
	m, ctl, _ := newTestModel(t, meeting())
	today := ctl.Anchor()

	m = send(t, m, key("n"))
	if got := ctl.Anchor(); !got.Equal(today.AddDate(0, 0, 7)) {
		t.Errorf("next anchor = %v", got)
	}
	if n := len(m.grid.Tasks()); n != 1 || m.grid.Tasks()[0].DayIndex != -7 {
		t.Errorf("grid tasks after next = %+v", m.grid.Tasks())
	}

	m = send(t, m, key("p"))
	m = send(t, m, key("p"))
	if got := ctl.Anchor(); !got.Equal(today.AddDate(0, 0, -7)) {
		t.Errorf("previous anchor = %v", got)
	}

	m = send(t, m, key("t"))
	if got := ctl.Anchor(); !got.Equal(today) {
		t.Errorf("today anchor = %v", got)
	}

	m = send(t, m, key("d"))
	if ctl.View() != task.ViewDay || ctl.Days() != 3 {
		t.Errorf("day view = %s/%d", ctl.View(), ctl.Days())
	}
	if m.colWidth != maxColWidth {
		t.Errorf("colWidth after day view = %d", m.colWidth)
	}

	m = send(t, m, key("f"))
	if ctl.Days() != 15 {
		t.Errorf("days = %d, want 15", ctl.Days())
	}
	_ = send(t, m, key("1"))
	if ctl.Days() != 1 {
		t.Errorf("days = %d, want 1", ctl.Days())
	}
}

func TestKeys_Scroll(t *testing.T) {
	m, _, _ := newTestModel(t)
	m = send(t, m, tea.WindowSizeMsg{Width: testWidth, Height: 14})
	limit := gridRows - m.visibleRows()

	m = send(t, m, key("k"))
	if m.scrollOffset != 0 {
		t.Errorf("scrolled above the top: %d", m.scrollOffset)
	}
	for range gridRows {
		m = send(t, m, key("j"))
	}
	if m.scrollOffset != limit {
		t.Errorf("scrollOffset = %d, want %d", m.scrollOffset, limit)
	}

	col, row, ok := m.gridCell(timeColWidth, headerLines)
	if !ok || col != 0 || row != limit {
		t.Errorf("gridCell at top after scroll = %d, %d, %v", col, row, ok)
	}
}

func TestSnapshotMsgAdoptsPlan(t *testing.T) {
	m, ctl, _ := newTestModel(t, meeting())

	p := task.DefaultPlan(testNow)
	p.Tasks = []task.Task{{ID: "r1", Title: "Restored", DayIndex: 2, Start: "14:00", End: "15:00"}}
	m = send(t, m, commands.SnapshotMsg{Entry: task.HistoryEntry{Timestamp: 1, Label: "yesterday"}, Plan: p})

	tasks := ctl.Tasks()
	if len(tasks) != 1 || tasks[0].ID != "r1" {
		t.Fatalf("controller tasks = %+v", tasks)
	}
	if got := m.grid.Tasks(); len(got) != 1 || got[0].ID != "r1" {
		t.Errorf("grid tasks = %+v", got)
	}
	if !strings.Contains(m.statusMsg, "yesterday") {
		t.Errorf("status = %q", m.statusMsg)
	}
}

type historyStore struct {
	entries   []task.HistoryEntry
	snapshots map[int64]task.Plan
}

func (h historyStore) LoadPlan(ctx context.Context) (task.Plan, error) {
	return task.Plan{}, planner.ErrNotFound
}

func (h historyStore) SavePlan(ctx context.Context, p task.Plan) error { return nil }

func (h historyStore) ListHistory(ctx context.Context, limit int) ([]task.HistoryEntry, error) {
	return h.entries[:min(limit, len(h.entries))], nil
}

func (h historyStore) GetSnapshot(ctx context.Context, ts int64) (task.Plan, error) {
	p, ok := h.snapshots[ts]
	if !ok {
		return task.Plan{}, planner.ErrNotFound
	}
	return p, nil
}

// run sends msg and then the message its command produces.
func run(t *testing.T, m Model, msg tea.Msg) (Model, tea.Msg) {
	t.Helper()
	next, cmd := m.Update(msg)
	m = next.(Model)
	if cmd == nil {
		t.Fatalf("%v returned no command", msg)
	}
	out := cmd()
	return send(t, m, out), out
}

func TestHistoryPicker(t *testing.T) {
	planWith := func(title string) task.Plan {
		p := task.DefaultPlan(testNow)
		p.Tasks = []task.Task{{ID: title, Title: title, DayIndex: 1, Start: "14:00", End: "15:00"}}
		return p
	}
	st := historyStore{
		entries: []task.HistoryEntry{
			{Timestamp: 3, Label: "Jan 15 12:00"},
			{Timestamp: 2, Label: "Jan 15 11:00"},
			{Timestamp: 1, Label: "Jan 15 10:00"},
		},
		snapshots: map[int64]task.Plan{1: planWith("Oldest"), 2: planWith("Middle"), 3: planWith("Newest")},
	}

	open := func(t *testing.T) (Model, *planner.Controller) {
		t.Helper()
		clock := clockwork.NewFakeClockAt(testNow)
		ctl := planner.New(clock, planner.WithWindow(task.ViewWeek, 7), planner.WithStore(st))
		m := New(ctl, st, config.Default(), clock)
		m = send(t, m, tea.WindowSizeMsg{Width: testWidth, Height: testHeight})
		m, msg := run(t, m, key("h"))
		if _, ok := msg.(commands.HistoryMsg); !ok {
			t.Fatalf("h produced %#v", msg)
		}
		if len(m.history) != 3 {
			t.Fatalf("picker entries = %+v", m.history)
		}
		return m, ctl
	}

	t.Run("enter restores the entry under the cursor", func(t *testing.T) {
		m, ctl := open(t)
		out := m.View()
		for _, want := range []string{"Restore a snapshot", "1  Jan 15 12:00", "3  Jan 15 10:00"} {
			if !strings.Contains(out, want) {
				t.Errorf("picker view missing %q", want)
			}
		}

		m = send(t, m, key("j"))
		m = send(t, m, key("down"))
		m = send(t, m, key("down"))
		m = send(t, m, key("k"))
		if m.historyCursor != 1 {
			t.Fatalf("cursor = %d, want 1", m.historyCursor)
		}

		m, _ = run(t, m, key("enter"))
		if m.history != nil {
			t.Error("picker still open after restore")
		}
		if tasks := ctl.Tasks(); len(tasks) != 1 || tasks[0].Title != "Middle" {
			t.Errorf("restored tasks = %+v", tasks)
		}
		if !strings.Contains(m.statusMsg, "Jan 15 11:00") {
			t.Errorf("status = %q", m.statusMsg)
		}
	})

	t.Run("digit restores directly", func(t *testing.T) {
		m, ctl := open(t)
		m, _ = run(t, m, key("3"))
		if tasks := ctl.Tasks(); len(tasks) != 1 || tasks[0].Title != "Oldest" {
			t.Errorf("restored tasks = %+v", tasks)
		}
		if m.history != nil {
			t.Error("picker still open after restore")
		}
	})

	t.Run("escape cancels", func(t *testing.T) {
		m, ctl := open(t)
		m = send(t, m, key("9"))
		m = send(t, m, key("d"))
		if m.history == nil || ctl.View() != task.ViewWeek {
			t.Fatalf("picker handled keys outside it: open=%v view=%s", m.history != nil, ctl.View())
		}
		m = send(t, m, key("esc"))
		if m.history != nil {
			t.Error("picker still open after esc")
		}
		if len(ctl.Tasks()) != 0 {
			t.Errorf("cancel changed tasks: %+v", ctl.Tasks())
		}
	})
}

func TestStatusMessages(t *testing.T) {
	m, _, clock := newTestModel(t)

	m = send(t, m, commands.ErrMsg{Err: errors.New("boom")})
	if !m.statusErr || m.statusMsg != "Error: boom" {
		t.Fatalf("status = %q err=%v", m.statusMsg, m.statusErr)
	}

	m = send(t, m, commands.ClearStatusMsg{})
	if m.statusMsg == "" {
		t.Error("status cleared early")
	}
	clock.Advance(errorDuration)
	m = send(t, m, commands.ClearStatusMsg{})
	if m.statusMsg != "" || m.statusErr {
		t.Errorf("status not cleared: %q", m.statusMsg)
	}

	m = send(t, m, commands.AutosaveMsg{Err: errors.New("offline")})
	if !m.statusErr || !strings.Contains(m.statusMsg, "offline") {
		t.Errorf("autosave failure status = %q", m.statusMsg)
	}
}

func TestSaveWithoutStore(t *testing.T) {
	m, _, _ := newTestModel(t)

	_, cmd := m.Update(key("s"))
	if cmd == nil {
		t.Fatal("save returned no command")
	}
	msg, ok := cmd().(commands.ErrMsg)
	if !ok || !errors.Is(msg.Err, planner.ErrNotLoggedIn) {
		t.Errorf("save msg = %#v", msg)
	}
}

func TestView(t *testing.T) {
	m, _, _ := newTestModel(t, meeting(), task.Task{ID: "m2", Title: "Overlap", DayIndex: 0, Start: "09:30", End: "11:00"})
	out := m.View()

	for _, want := range []string{"planboard", "Jan 15 - Jan 21, 2025", "Wed 15", "09:00", "Overlap", "2 conflicting"} {
		if !strings.Contains(out, want) {
			t.Errorf("view missing %q", want)
		}
	}
	if lines := strings.Count(out, "\n") + 1; lines != headerLines+gridRows+footerLines {
		t.Errorf("view has %d lines, want %d", lines, headerLines+gridRows+footerLines)
	}
}

func TestViewTooSmall(t *testing.T) {
	m, _, _ := newTestModel(t)
	m = send(t, m, tea.WindowSizeMsg{Width: 8, Height: 3})
	if got := m.View(); got != "Terminal too small" {
		t.Errorf("View = %q", got)
	}
}

func TestTaskRows(t *testing.T) {
	tests := []struct {
		start, end  string
		first, last int
	}{
		{"06:00", "06:30", 0, 0},
		{"09:00", "10:00", 6, 7},
		{"09:15", "09:45", 6, 7},
		{"22:30", "23:00", gridRows - 1, gridRows - 1},
	}
	for _, tt := range tests {
		t.Run(tt.start+"-"+tt.end, func(t *testing.T) {
			first, last := taskRows(task.Task{Start: tt.start, End: tt.end})
			if first != tt.first || last != tt.last {
				t.Errorf("taskRows = %d, %d; want %d, %d", first, last, tt.first, tt.last)
			}
		})
	}
}
