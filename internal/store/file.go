package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/javiermolinar/planboard/internal/task"
)

// File implements Store as JSON files under a base directory:
//
//	users/<username>.json
//	plans/<username>.json
//	plans_history/<username>/<ts>.json
type File struct {
	BaseDir string
	mu      sync.RWMutex
	opts    options
}

// NewFile creates the directory layout under dir.
func NewFile(dir string, opts ...Option) (*File, error) {
	for _, sub := range []string{"users", "plans", "plans_history"} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}
	return &File{BaseDir: dir, opts: newOptions(opts)}, nil
}

func (f *File) userPath(u string) string {
	return filepath.Join(f.BaseDir, "users", u+".json")
}

func (f *File) planPath(u string) string {
	return filepath.Join(f.BaseDir, "plans", u+".json")
}

func (f *File) historyDir(u string) string {
	return filepath.Join(f.BaseDir, "plans_history", u)
}

// GetUser retrieves a user by name.
func (f *File) GetUser(ctx context.Context, username string) (User, error) {
	if err := checkUsername(username); err != nil {
		return User{}, err
	}
	f.mu.RLock()
	defer f.mu.RUnlock()

	var u User
	if err := readJSON(f.userPath(username), &u); err != nil {
		return User{}, fmt.Errorf("user %q: %w", username, err)
	}
	return u, nil
}

// CreateUser adds a new user, or returns ErrUserExists.
func (f *File) CreateUser(ctx context.Context, u User) error {
	if err := checkUsername(u.Username); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, err := os.Stat(f.userPath(u.Username)); err == nil {
		return fmt.Errorf("%q: %w", u.Username, ErrUserExists)
	}
	return writeJSON(f.userPath(u.Username), u)
}

// SetUser creates or replaces a user.
func (f *File) SetUser(ctx context.Context, u User) error {
	if err := checkUsername(u.Username); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	return writeJSON(f.userPath(u.Username), u)
}

// UserExists reports whether the username is taken.
func (f *File) UserExists(ctx context.Context, username string) (bool, error) {
	if checkUsername(username) != nil {
		return false, nil
	}
	f.mu.RLock()
	defer f.mu.RUnlock()

	_, err := os.Stat(f.userPath(username))
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking user: %w", err)
	}
	return true, nil
}

// LoadPlan returns the user's current plan.
func (f *File) LoadPlan(ctx context.Context, username string) (task.Plan, error) {
	if err := checkUsername(username); err != nil {
		return task.Plan{}, err
	}
	f.mu.RLock()
	defer f.mu.RUnlock()

	return readPlan(f.planPath(username))
}

// SavePlan writes the current plan and a snapshot named after the save time.
func (f *File) SavePlan(ctx context.Context, username string, plan task.Plan) error {
	if err := checkUsername(username); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	ts := f.opts.clock.Now().UnixMilli()
	if err := writeJSON(f.planPath(username), plan); err != nil {
		return fmt.Errorf("saving plan: %w", err)
	}
	snap := filepath.Join(f.historyDir(username), strconv.FormatInt(ts, 10)+".json")
	if err := writeJSON(snap, plan); err != nil {
		return fmt.Errorf("appending snapshot: %w", err)
	}
	return nil
}

// ListHistory returns snapshot entries, most recent first.
func (f *File) ListHistory(ctx context.Context, username string, limit int) ([]task.HistoryEntry, error) {
	if err := checkUsername(username); err != nil {
		return nil, err
	}
	f.mu.RLock()
	defer f.mu.RUnlock()

	files, err := os.ReadDir(f.historyDir(username))
	if errors.Is(err, os.ErrNotExist) {
		return []task.HistoryEntry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading history: %w", err)
	}

	var stamps []int64
	for _, e := range files {
		name, ok := strings.CutSuffix(e.Name(), ".json")
		if !ok {
			continue
		}
		ts, err := strconv.ParseInt(name, 10, 64)
		if err != nil {
			continue
		}
		stamps = append(stamps, ts)
	}
	sort.Slice(stamps, func(i, j int) bool { return stamps[i] > stamps[j] })
	stamps = stamps[:min(len(stamps), historyLimit(limit))]

	entries := make([]task.HistoryEntry, len(stamps))
	for i, ts := range stamps {
		entries[i] = task.NewHistoryEntry(ts, f.opts.loc)
	}
	return entries, nil
}

// GetSnapshot returns the plan saved at ts.
func (f *File) GetSnapshot(ctx context.Context, username string, ts int64) (task.Plan, error) {
	if err := checkUsername(username); err != nil {
		return task.Plan{}, err
	}
	f.mu.RLock()
	defer f.mu.RUnlock()

	p, err := readPlan(filepath.Join(f.historyDir(username), strconv.FormatInt(ts, 10)+".json"))
	if err != nil {
		return task.Plan{}, fmt.Errorf("snapshot %d: %w", ts, err)
	}
	return p, nil
}

// Close is a no-op.
func (f *File) Close() error {
	return nil
}

func readPlan(path string) (task.Plan, error) {
	var p task.Plan
	if err := readJSON(path, &p); err != nil {
		return task.Plan{}, err
	}
	if p.Tasks == nil {
		p.Tasks = []task.Task{}
	}
	return p, nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("reading %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decoding %s: %w", filepath.Base(path), err)
	}
	return nil
}

// writeJSON writes through a temp file so readers never see partial data.
func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", filepath.Base(path), err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("renaming %s: %w", filepath.Base(path), err)
	}
	return nil
}
