package integration

import (
	"context"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/jonboulle/clockwork"

	"github.com/javiermolinar/planboard/internal/config"
	"github.com/javiermolinar/planboard/internal/planner"
	"github.com/javiermolinar/planboard/internal/store"
	"github.com/javiermolinar/planboard/internal/task"
)

// Windows that span a DST change must keep one column per calendar day.
func TestWindowAcrossDST(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("LoadLocation: %v", err)
	}
	ctx := context.Background()
	// DST starts on 2025-03-09 in New York.
	clock := clockwork.NewFakeClockAt(time.Date(2025, 3, 7, 22, 30, 0, 0, ny))
	st := openStore(t, config.BackendSQLite, clock)
	plans := store.UserPlans{Store: st, Username: "alice"}

	s := newSession(t, clock, plans)
	s.create(t, 3, "08:00", "After the change")

	wantDates := []string{"03-07", "03-08", "03-09", "03-10", "03-11", "03-12", "03-13"}
	for i, d := range s.ctl.Dates() {
		if got := d.Format("01-02"); got != wantDates[i] {
			t.Errorf("column %d = %s, want %s", i, got, wantDates[i])
		}
	}
	if day, _, ok := s.ctl.NowMarker(clock.Now()); !ok || day != 0 {
		t.Errorf("NowMarker = %d, %v, want column 0", day, ok)
	}

	if err := s.ctl.SaveNow(ctx); err != nil {
		t.Fatalf("SaveNow: %v", err)
	}

	// A day later the saved task must still land on Monday the 10th.
	clock.Advance(36 * time.Hour)
	reloaded := newSession(t, clock, plans)
	reloaded.ctl.Today()
	reloaded.sync()
	got, ok := find(reloaded.grid.Tasks(), "After the change")
	if !ok {
		t.Fatalf("task missing after reload: %+v", reloaded.grid.Tasks())
	}
	if date := reloaded.ctl.Dates()[got.DayIndex].Format("01-02"); date != "03-10" || got.Start != "08:00" {
		t.Errorf("task on %s at %s, want 03-10 at 08:00", date, got.Start)
	}
}

// A plan anchored in UTC keeps its calendar days for a viewer east of UTC.
func TestPlanLoadedInAnotherZone(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		t.Fatalf("LoadLocation: %v", err)
	}
	ctx := context.Background()
	clock := clockwork.NewFakeClockAt(time.Date(2025, 1, 15, 12, 0, 0, 0, tokyo))
	st := openStore(t, config.BackendFile, clock)

	p := task.DefaultPlan(time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC))
	p.Tasks = []task.Task{{ID: "a", Title: "Call", DayIndex: 1, Start: "09:00", End: "10:00"}}
	if err := st.SavePlan(ctx, "alice", p); err != nil {
		t.Fatalf("SavePlan: %v", err)
	}

	ctl := planner.New(clock, planner.WithStore(store.UserPlans{Store: st, Username: "alice"}))
	if err := ctl.LoadFrom(ctx); err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if got := ctl.Anchor().Format("2006-01-02"); got != "2025-01-15" {
		t.Errorf("anchor = %s, want 2025-01-15", got)
	}
	if w := ctl.WindowTasks(); len(w) != 1 || w[0].DayIndex != 1 {
		t.Errorf("window = %+v", w)
	}
}
