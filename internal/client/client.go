// Package client talks to a planboard server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/javiermolinar/planboard/internal/auth"
	"github.com/javiermolinar/planboard/internal/server"
	"github.com/javiermolinar/planboard/internal/store"
	"github.com/javiermolinar/planboard/internal/task"
)

// Client errors. ErrNotFound is the store's sentinel so callers can match
// local and remote misses alike.
var (
	ErrUnauthenticated = auth.ErrUnauthenticated
	ErrNotFound        = store.ErrNotFound
)

// APIError is a rejected request that is not an auth or not-found failure.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server error (%d): %s", e.Status, e.Message)
}

// Client is an HTTP client holding one session in its cookie jar.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a client for the server at baseURL.
func New(baseURL string) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid server url %q", baseURL)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("creating cookie jar: %w", err)
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Jar:     jar,
			Timeout: 30 * time.Second,
		},
	}, nil
}

// Register creates an account.
func (c *Client) Register(ctx context.Context, username, password string) error {
	return c.request(ctx, http.MethodPost, "/api/auth/register",
		server.Credentials{Username: username, Password: password}, nil)
}

// Login starts a session and returns the canonical username.
func (c *Client) Login(ctx context.Context, username, password string, remember bool) (string, error) {
	var resp server.OKResponse
	err := c.request(ctx, http.MethodPost, "/api/auth/login",
		server.Credentials{Username: username, Password: password, Remember: remember}, &resp)
	if err != nil {
		return "", err
	}
	return resp.Username, nil
}

// Logout ends the session.
func (c *Client) Logout(ctx context.Context) error {
	return c.request(ctx, http.MethodPost, "/api/auth/logout", nil, nil)
}

// Me returns the logged-in username, or ErrUnauthenticated.
func (c *Client) Me(ctx context.Context) (string, error) {
	var resp server.MeResponse
	if err := c.request(ctx, http.MethodGet, "/api/auth/me", nil, &resp); err != nil {
		return "", err
	}
	return resp.Username, nil
}

// LoadPlan returns the saved plan. The server answers with a default plan
// when none was saved, so this never returns ErrNotFound.
func (c *Client) LoadPlan(ctx context.Context) (task.Plan, error) {
	var p task.Plan
	if err := c.request(ctx, http.MethodGet, "/api/plan", nil, &p); err != nil {
		return task.Plan{}, err
	}
	return p, nil
}

// SavePlan replaces the saved plan.
func (c *Client) SavePlan(ctx context.Context, plan task.Plan) error {
	return c.request(ctx, http.MethodPut, "/api/plan", plan, nil)
}

// ListHistory returns snapshot entries, most recent first. The server caps
// the list; limit trims it further.
func (c *Client) ListHistory(ctx context.Context, limit int) ([]task.HistoryEntry, error) {
	var resp server.HistoryResponse
	if err := c.request(ctx, http.MethodGet, "/api/plan/history", nil, &resp); err != nil {
		return nil, err
	}
	if resp.Items == nil {
		resp.Items = []task.HistoryEntry{}
	}
	if limit > 0 && len(resp.Items) > limit {
		resp.Items = resp.Items[:limit]
	}
	return resp.Items, nil
}

// GetSnapshot returns the plan saved at ts.
func (c *Client) GetSnapshot(ctx context.Context, ts int64) (task.Plan, error) {
	var p task.Plan
	path := "/api/plan/history?ts=" + strconv.FormatInt(ts, 10)
	if err := c.request(ctx, http.MethodGet, path, nil, &p); err != nil {
		return task.Plan{}, err
	}
	return p, nil
}

func (c *Client) request(ctx context.Context, method, path string, body, out any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return statusError(resp.StatusCode, respBody)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}

func statusError(status int, body []byte) error {
	var errResp server.ErrorResponse
	_ = json.Unmarshal(body, &errResp)

	switch status {
	case http.StatusUnauthorized:
		// Login failures carry a message worth showing; session checks do not.
		if errResp.Error != "" && errResp.Error != "unauthorized" {
			return fmt.Errorf("%s: %w", errResp.Error, ErrUnauthenticated)
		}
		return ErrUnauthenticated
	case http.StatusNotFound:
		return ErrNotFound
	default:
		msg := errResp.Error
		if msg == "" {
			msg = strings.TrimSpace(string(body))
		}
		return &APIError{Status: status, Message: msg}
	}
}

// IsConflict reports whether err is a 409 from the server.
func IsConflict(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusConflict
}
