// Package store persists users, plans and plan history snapshots.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/javiermolinar/planboard/internal/config"
	"github.com/javiermolinar/planboard/internal/task"
)

// DefaultHistoryLimit is used when ListHistory gets a non-positive limit.
const DefaultHistoryLimit = 20

// Storage errors.
var (
	ErrNotFound        = errors.New("not found")
	ErrUserExists      = errors.New("user already exists")
	ErrInvalidUsername = errors.New("invalid username")
)

// User is a registered account. Password holds "salthex:keyhex".
type User struct {
	Username  string    `json:"username"`
	Password  string    `json:"password"`
	CreatedAt time.Time `json:"createdAt"`
}

// Store is keyed by username. Saving a plan replaces it wholesale and appends
// a snapshot keyed by the save time in unix milliseconds. Snapshots are never
// evicted; only listing is capped.
type Store interface {
	// GetUser returns ErrNotFound for unknown users.
	GetUser(ctx context.Context, username string) (User, error)

	// CreateUser adds a user, or returns ErrUserExists.
	CreateUser(ctx context.Context, u User) error

	// SetUser creates or replaces a user.
	SetUser(ctx context.Context, u User) error

	// UserExists reports whether the username is taken.
	UserExists(ctx context.Context, username string) (bool, error)

	// LoadPlan returns ErrNotFound when the user never saved.
	LoadPlan(ctx context.Context, username string) (task.Plan, error)

	// SavePlan replaces the current plan and appends a history snapshot.
	SavePlan(ctx context.Context, username string, plan task.Plan) error

	// ListHistory returns snapshot entries, most recent first, at most limit.
	ListHistory(ctx context.Context, username string, limit int) ([]task.HistoryEntry, error)

	// GetSnapshot returns ErrNotFound for unknown timestamps.
	GetSnapshot(ctx context.Context, username string, ts int64) (task.Plan, error)

	// Close releases any resources held by the store.
	Close() error
}

type options struct {
	clock clockwork.Clock
	loc   *time.Location
}

// Option configures a backend.
type Option func(*options)

// WithClock sets the clock used to timestamp snapshots.
func WithClock(c clockwork.Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithLocation sets the zone of history labels. Defaults to local time.
func WithLocation(loc *time.Location) Option {
	return func(o *options) { o.loc = loc }
}

func newOptions(opts []Option) options {
	o := options{clock: clockwork.NewRealClock(), loc: time.Local}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Open returns the backend selected by the storage config.
func Open(cfg config.StorageConfig, opts ...Option) (Store, error) {
	switch cfg.Backend {
	case config.BackendSQLite:
		return NewSQLite(cfg.DBPath, opts...)
	case config.BackendFile:
		return NewFile(cfg.DataDir, opts...)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// checkUsername rejects keys that cannot safely name a file or row.
func checkUsername(u string) error {
	if u == "" || u == "." || u == ".." || strings.ContainsAny(u, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidUsername, u)
	}
	return nil
}

func historyLimit(limit int) int {
	if limit <= 0 {
		return DefaultHistoryLimit
	}
	return limit
}

// UserPlans scopes a Store to one user for the planner.
type UserPlans struct {
	Store    Store
	Username string
}

// LoadPlan returns the user's plan or ErrNotFound.
func (u UserPlans) LoadPlan(ctx context.Context) (task.Plan, error) {
	return u.Store.LoadPlan(ctx, u.Username)
}

// SavePlan saves the plan and appends a snapshot.
func (u UserPlans) SavePlan(ctx context.Context, plan task.Plan) error {
	return u.Store.SavePlan(ctx, u.Username, plan)
}

// ListHistory lists the user's snapshots, most recent first.
func (u UserPlans) ListHistory(ctx context.Context, limit int) ([]task.HistoryEntry, error) {
	return u.Store.ListHistory(ctx, u.Username, limit)
}

// GetSnapshot returns one snapshot or ErrNotFound.
func (u UserPlans) GetSnapshot(ctx context.Context, ts int64) (task.Plan, error) {
	return u.Store.GetSnapshot(ctx, u.Username, ts)
}
