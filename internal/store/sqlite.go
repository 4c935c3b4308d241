package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/javiermolinar/planboard/internal/task"
)

// SQLite implements Store using SQLite.
type SQLite struct {
	db   *sql.DB
	opts options
}

// NewSQLite opens the database at path, creating it if needed, and runs migrations.
func NewSQLite(path string, opts ...Option) (*SQLite, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	s := &SQLite{db: db, opts: newOptions(opts)}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// GetUser retrieves a user by name.
func (s *SQLite) GetUser(ctx context.Context, username string) (User, error) {
	var (
		u         User
		createdAt string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT username, password, created_at FROM users WHERE username = ?`, username,
	).Scan(&u.Username, &u.Password, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, fmt.Errorf("user %q: %w", username, ErrNotFound)
	}
	if err != nil {
		return User{}, fmt.Errorf("querying user: %w", err)
	}

	u.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return User{}, fmt.Errorf("parsing created at: %w", err)
	}
	return u, nil
}

// CreateUser inserts a new user, or returns ErrUserExists.
func (s *SQLite) CreateUser(ctx context.Context, u User) error {
	if err := checkUsername(u.Username); err != nil {
		return err
	}
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO users (username, password, created_at) VALUES (?, ?, ?)
		ON CONFLICT(username) DO NOTHING
	`, u.Username, u.Password, u.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("inserting user: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%q: %w", u.Username, ErrUserExists)
	}
	return nil
}

// SetUser creates or replaces a user.
func (s *SQLite) SetUser(ctx context.Context, u User) error {
	if err := checkUsername(u.Username); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (username, password, created_at) VALUES (?, ?, ?)
		ON CONFLICT(username) DO UPDATE SET password = excluded.password
	`, u.Username, u.Password, u.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("upserting user: %w", err)
	}
	return nil
}

// UserExists reports whether the username is taken.
func (s *SQLite) UserExists(ctx context.Context, username string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE username = ?`, username).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("querying user: %w", err)
	}
	return n > 0, nil
}

// LoadPlan returns the user's current plan.
func (s *SQLite) LoadPlan(ctx context.Context, username string) (task.Plan, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM plans WHERE username = ?`, username).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return task.Plan{}, fmt.Errorf("plan for %q: %w", username, ErrNotFound)
	}
	if err != nil {
		return task.Plan{}, fmt.Errorf("querying plan: %w", err)
	}
	return decodePlan(data)
}

// SavePlan replaces the current plan and appends a history snapshot in one
// transaction. Two saves in the same millisecond share a snapshot.
func (s *SQLite) SavePlan(ctx context.Context, username string, plan task.Plan) error {
	if err := checkUsername(username); err != nil {
		return err
	}
	data, err := json.Marshal(plan)
	if err != nil {
		return fmt.Errorf("encoding plan: %w", err)
	}
	now := s.opts.clock.Now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO plans (username, data, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(username) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at
	`, username, string(data), now.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("saving plan: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO plan_history (username, ts, data) VALUES (?, ?, ?)`,
		username, now.UnixMilli(), string(data),
	)
	if err != nil {
		return fmt.Errorf("appending snapshot: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// ListHistory returns snapshot entries, most recent first.
func (s *SQLite) ListHistory(ctx context.Context, username string, limit int) ([]task.HistoryEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT ts FROM plan_history WHERE username = ? ORDER BY ts DESC LIMIT ?`,
		username, historyLimit(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	entries := []task.HistoryEntry{}
	for rows.Next() {
		var ts int64
		if err := rows.Scan(&ts); err != nil {
			return nil, fmt.Errorf("scanning history row: %w", err)
		}
		entries = append(entries, task.NewHistoryEntry(ts, s.opts.loc))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating history: %w", err)
	}
	return entries, nil
}

// GetSnapshot returns the plan saved at ts.
func (s *SQLite) GetSnapshot(ctx context.Context, username string, ts int64) (task.Plan, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM plan_history WHERE username = ? AND ts = ?`, username, ts,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return task.Plan{}, fmt.Errorf("snapshot %d: %w", ts, ErrNotFound)
	}
	if err != nil {
		return task.Plan{}, fmt.Errorf("querying snapshot: %w", err)
	}
	return decodePlan(data)
}

// Close releases database resources.
func (s *SQLite) Close() error {
	return s.db.Close()
}

func decodePlan(data string) (task.Plan, error) {
	var p task.Plan
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return task.Plan{}, fmt.Errorf("decoding plan: %w", err)
	}
	if p.Tasks == nil {
		p.Tasks = []task.Task{}
	}
	return p, nil
}
