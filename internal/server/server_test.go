package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/javiermolinar/planboard/internal/auth"
	"github.com/javiermolinar/planboard/internal/config"
	"github.com/javiermolinar/planboard/internal/store"
	"github.com/javiermolinar/planboard/internal/task"
)

var epoch = time.Date(2025, 1, 15, 9, 0, 0, 0, time.UTC)

type testEnv struct {
	t     *testing.T
	srv   *httptest.Server
	http  *http.Client
	clock *clockwork.FakeClock
}

func newTestEnv(t *testing.T, opts ...Option) *testEnv {
	t.Helper()
	clock := clockwork.NewFakeClockAt(epoch)
	st, err := store.NewFile(t.TempDir(), store.WithClock(clock), store.WithLocation(time.UTC))
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}
	opts = append([]Option{WithClock(clock), WithHistoryLimit(2)}, opts...)
	s, err := New(st, config.ServerConfig{Secret: "test-secret"}, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)

	jar, _ := cookiejar.New(nil)
	return &testEnv{t: t, srv: srv, http: &http.Client{Jar: jar}, clock: clock}
}

func (e *testEnv) do(method, path string, body any) (int, []byte) {
	e.t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			e.t.Fatalf("encoding body: %v", err)
		}
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, e.srv.URL+path, r)
	if err != nil {
		e.t.Fatalf("new request: %v", err)
	}
	resp, err := e.http.Do(req)
	if err != nil {
		e.t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	out, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, out
}

func (e *testEnv) login(username, password string) {
	e.t.Helper()
	if code, body := e.do("POST", "/api/auth/register", Credentials{Username: username, Password: password}); code != http.StatusOK {
		e.t.Fatalf("register: %d %s", code, body)
	}
	if code, body := e.do("POST", "/api/auth/login", Credentials{Username: username, Password: password}); code != http.StatusOK {
		e.t.Fatalf("login: %d %s", code, body)
	}
}

func decode[T any](t *testing.T, body []byte) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(body, &v); err != nil {
		t.Fatalf("decoding %s: %v", body, err)
	}
	return v
}

func TestRegister(t *testing.T) {
	e := newTestEnv(t)

	tests := []struct {
		name     string
		body     any
		wantCode int
	}{
		{name: "ok", body: Credentials{Username: "alice", Password: "password1"}, wantCode: http.StatusOK},
		{name: "taken", body: Credentials{Username: "alice", Password: "password2"}, wantCode: http.StatusConflict},
		{name: "taken after trim", body: Credentials{Username: " alice ", Password: "password2"}, wantCode: http.StatusConflict},
		{name: "short username", body: Credentials{Username: "al", Password: "password1"}, wantCode: http.StatusBadRequest},
		{name: "bad characters", body: Credentials{Username: "a/b/c", Password: "password1"}, wantCode: http.StatusBadRequest},
		{name: "short password", body: Credentials{Username: "bob", Password: "short"}, wantCode: http.StatusBadRequest},
		{name: "not json", body: "nope", wantCode: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := e.do("POST", "/api/auth/register", tt.body)
			if code != tt.wantCode {
				t.Fatalf("status = %d (%s), want %d", code, body, tt.wantCode)
			}
			if code != http.StatusOK && decode[ErrorResponse](t, body).Error == "" {
				t.Errorf("error body missing message: %s", body)
			}
		})
	}
}

func TestLoginAndMe(t *testing.T) {
	e := newTestEnv(t)

	code, body := e.do("GET", "/api/auth/me", nil)
	if code != http.StatusUnauthorized || decode[MeResponse](t, body).Authenticated {
		t.Fatalf("me before login: %d %s", code, body)
	}

	e.do("POST", "/api/auth/register", Credentials{Username: "alice", Password: "password1"})

	for _, bad := range []Credentials{
		{Username: "alice", Password: "wrong-pass"},
		{Username: "nobody", Password: "password1"},
		{Username: "alice"},
	} {
		code, body := e.do("POST", "/api/auth/login", bad)
		if code != http.StatusUnauthorized {
			t.Errorf("login %+v: %d", bad, code)
		}
		if msg := decode[ErrorResponse](t, body).Error; msg != auth.ErrBadCredentials.Error() {
			t.Errorf("login %+v: message %q should be generic", bad, msg)
		}
	}

	code, body = e.do("POST", "/api/auth/login", Credentials{Username: "alice", Password: "password1"})
	if code != http.StatusOK {
		t.Fatalf("login: %d %s", code, body)
	}
	if got := decode[OKResponse](t, body); !got.OK || got.Username != "alice" {
		t.Errorf("login response = %+v", got)
	}

	code, body = e.do("GET", "/api/auth/me", nil)
	if got := decode[MeResponse](t, body); code != http.StatusOK || !got.Authenticated || got.Username != "alice" {
		t.Errorf("me = %d %+v", code, got)
	}

	e.do("POST", "/api/auth/logout", nil)
	if code, _ := e.do("GET", "/api/auth/me", nil); code != http.StatusUnauthorized {
		t.Errorf("me after logout = %d", code)
	}
}

func TestLogin_UnknownUserVerifiesDummyHash(t *testing.T) {
	var (
		mu     sync.Mutex
		hashes []string
	)
	e := newTestEnv(t, func(s *Server) {
		s.verify = func(password, stored string) bool {
			mu.Lock()
			hashes = append(hashes, stored)
			mu.Unlock()
			return auth.VerifyPassword(password, stored)
		}
	})
	e.do("POST", "/api/auth/register", Credentials{Username: "alice", Password: "password1"})

	wrongCode, wrongBody := e.do("POST", "/api/auth/login", Credentials{Username: "alice", Password: "wrong-pass"})
	unknownCode, unknownBody := e.do("POST", "/api/auth/login", Credentials{Username: "nobody", Password: "wrong-pass"})

	if wrongCode != unknownCode || string(wrongBody) != string(unknownBody) {
		t.Errorf("responses differ: %d %s vs %d %s", wrongCode, wrongBody, unknownCode, unknownBody)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(hashes) != 2 {
		t.Fatalf("verified %d times, want 2", len(hashes))
	}
	if hashes[0] == auth.DummyHash() || hashes[1] != auth.DummyHash() {
		t.Errorf("verified against %q, want alice's hash then the dummy hash", hashes)
	}
}

func TestLogin_SetsCookie(t *testing.T) {
	e := newTestEnv(t)
	e.do("POST", "/api/auth/register", Credentials{Username: "alice", Password: "password1"})

	for _, remember := range []bool{false, true} {
		b, _ := json.Marshal(Credentials{Username: "alice", Password: "password1", Remember: remember})
		resp, err := http.Post(e.srv.URL+"/api/auth/login", "application/json", bytes.NewReader(b))
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()

		var ck *http.Cookie
		for _, c := range resp.Cookies() {
			if c.Name == auth.CookieName {
				ck = c
			}
		}
		if ck == nil || !ck.HttpOnly || ck.SameSite != http.SameSiteLaxMode {
			t.Fatalf("remember=%v: cookie = %+v", remember, ck)
		}
		if remember == ck.Expires.IsZero() {
			t.Errorf("remember=%v: expires = %v", remember, ck.Expires)
		}
	}
}

func TestPlan(t *testing.T) {
	e := newTestEnv(t)

	if code, _ := e.do("GET", "/api/plan", nil); code != http.StatusUnauthorized {
		t.Fatalf("plan without session = %d", code)
	}
	e.login("alice", "password1")

	code, body := e.do("GET", "/api/plan", nil)
	if code != http.StatusOK {
		t.Fatalf("GET plan: %d %s", code, body)
	}
	def := decode[task.Plan](t, body)
	if def.Tasks == nil || len(def.Tasks) != 0 || def.View != task.ViewWeek || def.Days != 7 || !def.AnchorDate.Equal(epoch) {
		t.Errorf("default plan = %+v", def)
	}

	p := task.DefaultPlan(epoch)
	p.Tasks = []task.Task{{ID: "t1", Title: "Write", DayIndex: 1, Start: "09:00", End: "10:00"}}
	if code, body := e.do("PUT", "/api/plan", p); code != http.StatusOK {
		t.Fatalf("PUT plan: %d %s", code, body)
	}
	_, body = e.do("GET", "/api/plan", nil)
	if got := decode[task.Plan](t, body); len(got.Tasks) != 1 || got.Tasks[0] != p.Tasks[0] {
		t.Errorf("saved plan = %+v", got)
	}

	bad := []struct {
		name string
		body any
	}{
		{name: "tasks missing", body: map[string]any{"view": "week", "days": 7}},
		{name: "tasks not array", body: map[string]any{"tasks": "x", "view": "week", "days": 7}},
		{name: "bad view", body: map[string]any{"tasks": []any{}, "view": "year", "days": 7}},
		{name: "bad task", body: map[string]any{"tasks": []any{map[string]any{"id": "x", "title": "", "start": "09:00", "end": "10:00"}}, "view": "week", "days": 7}},
	}
	for _, tt := range bad {
		t.Run(tt.name, func(t *testing.T) {
			if code, body := e.do("PUT", "/api/plan", tt.body); code != http.StatusBadRequest {
				t.Errorf("status = %d (%s), want 400", code, body)
			}
		})
	}
}

func TestHistory(t *testing.T) {
	e := newTestEnv(t)
	e.login("alice", "password1")

	var stamps []int64
	for _, title := range []string{"one", "two", "three"} {
		p := task.DefaultPlan(epoch)
		p.Tasks = []task.Task{{ID: "t", Title: title, Start: "09:00", End: "10:00"}}
		stamps = append(stamps, e.clock.Now().UnixMilli())
		if code, body := e.do("PUT", "/api/plan", p); code != http.StatusOK {
			t.Fatalf("PUT: %d %s", code, body)
		}
		e.clock.Advance(time.Minute)
	}

	code, body := e.do("GET", "/api/plan/history", nil)
	if code != http.StatusOK {
		t.Fatalf("history: %d %s", code, body)
	}
	items := decode[HistoryResponse](t, body).Items
	if len(items) != 2 || items[0].Timestamp != stamps[2] || items[1].Timestamp != stamps[1] {
		t.Fatalf("items = %+v", items)
	}
	if items[0].Label != "2025-01-15 09:02:00" {
		t.Errorf("label = %q", items[0].Label)
	}

	code, body = e.do("GET", "/api/plan/history?ts="+strconv.FormatInt(stamps[0], 10), nil)
	if code != http.StatusOK || decode[task.Plan](t, body).Tasks[0].Title != "one" {
		t.Errorf("snapshot: %d %s", code, body)
	}

	if code, _ := e.do("GET", "/api/plan/history?ts=42", nil); code != http.StatusNotFound {
		t.Errorf("unknown ts = %d, want 404", code)
	}
	if code, _ := e.do("GET", "/api/plan/history?ts=abc", nil); code != http.StatusBadRequest {
		t.Errorf("bad ts = %d, want 400", code)
	}
}

func TestSecurityHeaders(t *testing.T) {
	e := newTestEnv(t)
	resp, err := e.http.Get(e.srv.URL + "/api/auth/me")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	for _, h := range []string{"X-Content-Type-Options", "Referrer-Policy", "Content-Security-Policy"} {
		if resp.Header.Get(h) == "" {
			t.Errorf("missing %s", h)
		}
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Errorf("content type = %q", ct)
	}
}

func TestRecovery(t *testing.T) {
	h := withRecovery(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") }))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}
