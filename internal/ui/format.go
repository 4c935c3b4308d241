package ui

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/javiermolinar/planboard/internal/dateutil"
	"github.com/javiermolinar/planboard/internal/task"
)

// DayGroup is the tasks of one calendar day, sorted by start.
type DayGroup struct {
	Date  time.Time
	Tasks []task.Task
}

// GroupByDate resolves each task's day index against the plan's anchor and
// groups the tasks by calendar day, earliest first.
func GroupByDate(p task.Plan) []DayGroup {
	byDay := make(map[int][]task.Task)
	for _, t := range p.Tasks {
		byDay[t.DayIndex] = append(byDay[t.DayIndex], t)
	}

	days := make([]int, 0, len(byDay))
	for d := range byDay {
		days = append(days, d)
	}
	sort.Ints(days)

	anchor := p.AnchorDate
	groups := make([]DayGroup, 0, len(days))
	for _, d := range days {
		tasks := byDay[d]
		sort.SliceStable(tasks, func(i, j int) bool {
			return tasks[i].StartMinutes() < tasks[j].StartMinutes()
		})
		date := time.Date(anchor.Year(), anchor.Month(), anchor.Day()+d, 0, 0, 0, 0, anchor.Location())
		groups = append(groups, DayGroup{Date: date, Tasks: tasks})
	}
	return groups
}

// DateRange limits the days a plan prints. The zero value includes every day.
type DateRange struct {
	From, To time.Time
}

// Contains reports whether the calendar day of d lies in the range.
func (r DateRange) Contains(d time.Time) bool {
	if r.From.IsZero() && r.To.IsZero() {
		return true
	}
	return dateutil.DaysBetween(r.From, d) >= 0 && dateutil.DaysBetween(d, r.To) >= 0
}

// PlanRange resolves the --date and --week flags against now. day accepts
// the forms of dateutil.ParseRelativeDate; week widens it to its ISO week.
func PlanRange(day string, week bool, now time.Time) (DateRange, error) {
	if day == "" && !week {
		return DateRange{}, nil
	}
	d, err := dateutil.ParseRelativeDate(day, now)
	if err != nil {
		return DateRange{}, err
	}
	if week {
		monday, sunday := dateutil.WeekRange(d)
		return DateRange{From: monday, To: sunday}, nil
	}
	return DateRange{From: d, To: d}, nil
}

// PrintPlan prints the days of a plan within r, marking conflicts and
// completed blocks.
func PrintPlan(w io.Writer, p task.Plan, r DateRange) {
	var groups []DayGroup
	count := 0
	for _, g := range GroupByDate(p) {
		if r.Contains(g.Date) {
			groups = append(groups, g)
			count += len(g.Tasks)
		}
	}
	if count == 0 {
		fmt.Fprintln(w, "No time blocks planned.")
		return
	}

	conflicts := task.Conflicts(p.Tasks)
	shown := 0
	total := 0
	for i, g := range groups {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "=== %s ===\n", formatHeader(g.Date.Format("Monday, January 2, 2006")))
		for _, t := range g.Tasks {
			PrintTaskRow(w, t, conflicts[t.ID])
			total += t.Duration()
			if conflicts[t.ID] {
				shown++
			}
		}
	}

	fmt.Fprintln(w)
	summary := fmt.Sprintf("%d blocks, %s planned", count, FormatDuration(total))
	if n := shown; n > 0 {
		summary += ", " + formatWarning(fmt.Sprintf("%d conflicting", n))
	}
	fmt.Fprintln(w, summary)
}

// PrintTaskRow prints a single task line.
func PrintTaskRow(w io.Writer, t task.Task, conflict bool) {
	symbol := " "
	switch {
	case conflict:
		symbol = formatWarning("!")
	case t.Done:
		symbol = formatSuccess("✓")
	}

	title := formatTaskColor(t.Color, t.Title)
	if t.Done {
		title = formatMuted(t.Title)
	}
	fmt.Fprintf(w, "  %s %s-%s  %s  %s\n", symbol, t.Start, t.End, title,
		formatMuted(FormatDuration(t.Duration())))
}

// PrintHistory prints history entries, most recent first.
func PrintHistory(w io.Writer, entries []task.HistoryEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No saved history.")
		return
	}
	for _, e := range entries {
		fmt.Fprintf(w, "  %d  %s\n", e.Timestamp, e.Label)
	}
}

// FormatDuration formats minutes as a human-readable duration.
func FormatDuration(minutes int) string {
	if minutes == 0 {
		return "0m"
	}
	hours := minutes / 60
	mins := minutes % 60
	if hours == 0 {
		return fmt.Sprintf("%dm", mins)
	}
	if mins == 0 {
		return fmt.Sprintf("%dh", hours)
	}
	return fmt.Sprintf("%dh%dm", hours, mins)
}
