package client

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/javiermolinar/planboard/internal/config"
	"github.com/javiermolinar/planboard/internal/planner"
	"github.com/javiermolinar/planboard/internal/server"
	"github.com/javiermolinar/planboard/internal/store"
	"github.com/javiermolinar/planboard/internal/task"
)

var _ planner.PlanStore = (*Client)(nil)

var epoch = time.Date(2025, 1, 15, 9, 0, 0, 0, time.UTC)

func newTestClient(t *testing.T) (*Client, *clockwork.FakeClock) {
	t.Helper()
	clock := clockwork.NewFakeClockAt(epoch)
	st, err := store.NewFile(t.TempDir(), store.WithClock(clock), store.WithLocation(time.UTC))
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}
	s, err := server.New(st, config.ServerConfig{Secret: "test-secret"}, server.WithClock(clock))
	if err != nil {
		t.Fatalf("server.New: %v", err)
	}
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)

	c, err := New(srv.URL + "/")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c, clock
}

func TestNew_RejectsBadURL(t *testing.T) {
	for _, u := range []string{"", "localhost:8080", "://x"} {
		if _, err := New(u); err == nil {
			t.Errorf("New(%q) should fail", u)
		}
	}
}

func TestAuthFlow(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	if _, err := c.Me(ctx); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("Me before login: got %v", err)
	}
	if _, err := c.LoadPlan(ctx); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("LoadPlan before login: got %v", err)
	}

	if err := c.Register(ctx, "alice", "password1"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	err := c.Register(ctx, "alice", "password1")
	if !IsConflict(err) {
		t.Errorf("duplicate Register: got %v, want 409", err)
	}

	var apiErr *APIError
	if err := c.Register(ctx, "bob", "short"); !errors.As(err, &apiErr) || apiErr.Status != 400 || apiErr.Message == "" {
		t.Errorf("short password: got %v", err)
	}

	if _, err := c.Login(ctx, "alice", "nope-nope", false); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("bad Login: got %v", err)
	}
	u, err := c.Login(ctx, " alice ", "password1", false)
	if err != nil || u != "alice" {
		t.Fatalf("Login = %q, %v", u, err)
	}
	if u, err := c.Me(ctx); err != nil || u != "alice" {
		t.Errorf("Me = %q, %v", u, err)
	}

	if err := c.Logout(ctx); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, err := c.Me(ctx); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("Me after logout: got %v", err)
	}
}

func TestPlanStore(t *testing.T) {
	c, clock := newTestClient(t)
	ctx := context.Background()
	_ = c.Register(ctx, "alice", "password1")
	if _, err := c.Login(ctx, "alice", "password1", false); err != nil {
		t.Fatalf("Login: %v", err)
	}

	def, err := c.LoadPlan(ctx)
	if err != nil || len(def.Tasks) != 0 || def.View != task.ViewWeek {
		t.Fatalf("default plan = %+v, %v", def, err)
	}

	var stamps []int64
	for _, title := range []string{"one", "two"} {
		p := task.DefaultPlan(epoch)
		p.Tasks = []task.Task{{ID: "t", Title: title, Start: "09:00", End: "10:00"}}
		stamps = append(stamps, clock.Now().UnixMilli())
		if err := c.SavePlan(ctx, p); err != nil {
			t.Fatalf("SavePlan: %v", err)
		}
		clock.Advance(time.Second)
	}

	p, err := c.LoadPlan(ctx)
	if err != nil || p.Tasks[0].Title != "two" {
		t.Errorf("LoadPlan = %+v, %v", p, err)
	}

	entries, err := c.ListHistory(ctx, 1)
	if err != nil || len(entries) != 1 || entries[0].Timestamp != stamps[1] {
		t.Fatalf("ListHistory = %+v, %v", entries, err)
	}

	snap, err := c.GetSnapshot(ctx, stamps[0])
	if err != nil || snap.Tasks[0].Title != "one" {
		t.Errorf("GetSnapshot = %+v, %v", snap, err)
	}
	if _, err := c.GetSnapshot(ctx, 42); !errors.Is(err, ErrNotFound) || !errors.Is(err, planner.ErrNotFound) {
		t.Errorf("missing snapshot: got %v", err)
	}

	bad := task.DefaultPlan(epoch)
	bad.Days = 99
	var apiErr *APIError
	if err := c.SavePlan(ctx, bad); !errors.As(err, &apiErr) || apiErr.Status != 400 {
		t.Errorf("invalid plan: got %v", err)
	}
}

func TestRemoteController(t *testing.T) {
	c, clock := newTestClient(t)
	ctx := context.Background()
	_ = c.Register(ctx, "alice", "password1")
	_, _ = c.Login(ctx, "alice", "password1", false)

	ctl := planner.New(clock, planner.WithStore(c))
	if err := ctl.LoadFrom(ctx); err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	ctl.Apply([]task.Task{{ID: "a", Title: "Remote", DayIndex: 1, Start: "10:00", End: "11:00"}})
	if err := ctl.SaveNow(ctx); err != nil {
		t.Fatalf("SaveNow: %v", err)
	}

	other := planner.New(clock, planner.WithStore(c))
	if err := other.LoadFrom(ctx); err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if got := other.WindowTasks(); len(got) != 1 || got[0].Title != "Remote" || got[0].DayIndex != 1 {
		t.Errorf("reloaded window = %+v", got)
	}
}
