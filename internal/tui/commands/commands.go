// Package commands provides TUI command constructors and message types.
package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/javiermolinar/planboard/internal/planner"
	"github.com/javiermolinar/planboard/internal/task"
)

const requestTimeout = 15 * time.Second

// ErrNoHistory is returned when the user has no snapshots to restore.
var ErrNoHistory = errors.New("no saved history")

// ErrMsg is sent when an error occurs.
type ErrMsg struct {
	Err error
}

// StatusMsgCmd is sent for temporary status messages.
type StatusMsgCmd struct {
	Msg string
}

// ClearStatusMsg is sent to clear the status message.
type ClearStatusMsg struct{}

// SavedMsg is sent when an explicit save completes.
type SavedMsg struct {
	Tasks int
}

// AutosaveMsg carries the result of a background save.
type AutosaveMsg struct {
	Err error
}

// HistoryMsg carries the snapshot entries to pick from.
type HistoryMsg struct {
	Entries []task.HistoryEntry
}

// SnapshotMsg is sent when a history snapshot has been fetched.
type SnapshotMsg struct {
	Entry task.HistoryEntry
	Plan  task.Plan
}

// TickMsg refreshes the now line.
type TickMsg time.Time

// Save persists plan, captured by the caller on the update loop.
func Save(store planner.PlanStore, plan task.Plan) tea.Cmd {
	return func() tea.Msg {
		if store == nil {
			return ErrMsg{Err: planner.ErrNotLoggedIn}
		}
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		if err := store.SavePlan(ctx, plan); err != nil {
			return ErrMsg{Err: fmt.Errorf("saving plan: %w", err)}
		}
		return SavedMsg{Tasks: len(plan.Tasks)}
	}
}

// History fetches up to limit snapshot entries, most recent first.
func History(store planner.PlanStore, limit int) tea.Cmd {
	return func() tea.Msg {
		if store == nil {
			return ErrMsg{Err: planner.ErrNotLoggedIn}
		}
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		entries, err := store.ListHistory(ctx, limit)
		if err != nil {
			return ErrMsg{Err: fmt.Errorf("listing history: %w", err)}
		}
		if len(entries) == 0 {
			return ErrMsg{Err: ErrNoHistory}
		}
		return HistoryMsg{Entries: entries}
	}
}

// Snapshot fetches the plan saved with entry.
func Snapshot(store planner.PlanStore, entry task.HistoryEntry) tea.Cmd {
	return func() tea.Msg {
		if store == nil {
			return ErrMsg{Err: planner.ErrNotLoggedIn}
		}
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		p, err := store.GetSnapshot(ctx, entry.Timestamp)
		if err != nil {
			return ErrMsg{Err: fmt.Errorf("loading snapshot: %w", err)}
		}
		return SnapshotMsg{Entry: entry, Plan: p}
	}
}

// CopyPlan copies plan as indented JSON to the system clipboard.
func CopyPlan(plan task.Plan) tea.Cmd {
	return func() tea.Msg {
		data, err := json.MarshalIndent(plan, "", "  ")
		if err != nil {
			return ErrMsg{Err: fmt.Errorf("encoding plan: %w", err)}
		}
		if err := clipboard.WriteAll(string(data)); err != nil {
			return ErrMsg{Err: fmt.Errorf("copying to clipboard: %w", err)}
		}
		return StatusMsgCmd{Msg: fmt.Sprintf("Copied %d tasks to clipboard", len(plan.Tasks))}
	}
}

// Tick schedules the next now-line refresh.
func Tick(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg { return TickMsg(t) })
}
