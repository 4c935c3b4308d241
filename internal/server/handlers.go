package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/javiermolinar/planboard/internal/auth"
	"github.com/javiermolinar/planboard/internal/logger"
	"github.com/javiermolinar/planboard/internal/store"
	"github.com/javiermolinar/planboard/internal/task"
)

const maxBodyBytes = 1 << 20

// Credentials is the register and login request body.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Remember bool   `json:"remember,omitempty"`
}

// OKResponse acknowledges a write. Username is set by login.
type OKResponse struct {
	OK       bool   `json:"ok"`
	Username string `json:"username,omitempty"`
}

// MeResponse reports the session state.
type MeResponse struct {
	Authenticated bool   `json:"authenticated"`
	Username      string `json:"username,omitempty"`
}

// HistoryResponse lists snapshots, most recent first.
type HistoryResponse struct {
	Items []task.HistoryEntry `json:"items"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req Credentials
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad request")
		return
	}
	username, err := auth.ValidateUsername(req.Username)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := auth.ValidatePassword(req.Password); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.internalError(w, "hashing password", err)
		return
	}
	err = s.store.CreateUser(r.Context(), store.User{
		Username:  username,
		Password:  hash,
		CreatedAt: s.clock.Now(),
	})
	if errors.Is(err, store.ErrUserExists) {
		writeError(w, http.StatusConflict, "username already exists")
		return
	}
	if err != nil {
		s.internalError(w, "creating user", err)
		return
	}

	logger.Info("user registered", "user", username)
	writeJSON(w, http.StatusOK, OKResponse{OK: true})
}

// handleLogin answers every failure with the same 401 so callers cannot probe
// which usernames exist.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req Credentials
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusUnauthorized, auth.ErrBadCredentials.Error())
		return
	}
	username, err := auth.ValidateUsername(req.Username)
	if err != nil || req.Password == "" {
		writeError(w, http.StatusUnauthorized, auth.ErrBadCredentials.Error())
		return
	}

	// Unknown users still pay for one verification.
	hash := auth.DummyHash()
	u, err := s.store.GetUser(r.Context(), username)
	switch {
	case err == nil:
		hash = u.Password
	case !errors.Is(err, store.ErrNotFound):
		logger.Error("loading user", "user", username, "err", err)
	}
	if !s.verify(req.Password, hash) || err != nil {
		writeError(w, http.StatusUnauthorized, auth.ErrBadCredentials.Error())
		return
	}

	token, exp, err := s.issuer.Issue(username, req.Remember)
	if err != nil {
		s.internalError(w, "issuing token", err)
		return
	}
	http.SetCookie(w, auth.SessionCookie(token, exp, req.Remember, s.cfg.SecureCookies))
	logger.Info("user logged in", "user", username, "remember", req.Remember)
	writeJSON(w, http.StatusOK, OKResponse{OK: true, Username: username})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, auth.ClearCookie(s.cfg.SecureCookies))
	writeJSON(w, http.StatusOK, OKResponse{OK: true})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	username, err := s.issuer.Username(r)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, MeResponse{Authenticated: false})
		return
	}
	writeJSON(w, http.StatusOK, MeResponse{Authenticated: true, Username: username})
}

type userHandler func(w http.ResponseWriter, r *http.Request, username string)

func (s *Server) requireUser(next userHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username, err := s.issuer.Username(r)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next(w, r, username)
	}
}

func (s *Server) handleGetPlan(w http.ResponseWriter, r *http.Request, username string) {
	p, err := s.store.LoadPlan(r.Context(), username)
	if errors.Is(err, store.ErrNotFound) {
		p = task.DefaultPlan(s.clock.Now())
	} else if err != nil {
		s.internalError(w, "loading plan", err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handlePutPlan(w http.ResponseWriter, r *http.Request, username string) {
	var p task.Plan
	if err := decodeJSON(w, r, &p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := p.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.store.SavePlan(r.Context(), username, p); err != nil {
		s.internalError(w, "saving plan", err)
		return
	}
	logger.Debug("plan saved", "user", username, "tasks", len(p.Tasks))
	writeJSON(w, http.StatusOK, OKResponse{OK: true})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request, username string) {
	if raw := r.URL.Query().Get("ts"); raw != "" {
		ts, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid ts")
			return
		}
		p, err := s.store.GetSnapshot(r.Context(), username, ts)
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not found")
			return
		}
		if err != nil {
			s.internalError(w, "loading snapshot", err)
			return
		}
		writeJSON(w, http.StatusOK, p)
		return
	}

	entries, err := s.store.ListHistory(r.Context(), username, s.historyLimit)
	if err != nil {
		s.internalError(w, "listing history", err)
		return
	}
	writeJSON(w, http.StatusOK, HistoryResponse{Items: entries})
}

func (s *Server) internalError(w http.ResponseWriter, doing string, err error) {
	logger.Error(doing, "err", err)
	writeError(w, http.StatusInternalServerError, "internal error")
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("writing response", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}
