// Package server exposes auth and plan persistence as a JSON HTTP API.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/javiermolinar/planboard/internal/auth"
	"github.com/javiermolinar/planboard/internal/config"
	"github.com/javiermolinar/planboard/internal/logger"
	"github.com/javiermolinar/planboard/internal/store"
)

const shutdownTimeout = 5 * time.Second

// Server serves the planboard API over a Store.
type Server struct {
	cfg          config.ServerConfig
	store        store.Store
	issuer       *auth.Issuer
	clock        clockwork.Clock
	historyLimit int
	verify       func(password, stored string) bool
}

// Option configures a Server.
type Option func(*Server)

// WithClock sets the clock used for tokens and default plans.
func WithClock(c clockwork.Clock) Option {
	return func(s *Server) { s.clock = c }
}

// WithHistoryLimit caps history listings.
func WithHistoryLimit(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.historyLimit = n
		}
	}
}

// New creates a server. Without a configured secret, tokens are signed with a
// random key and do not survive a restart.
func New(st store.Store, cfg config.ServerConfig, opts ...Option) (*Server, error) {
	if st == nil {
		return nil, errors.New("server: missing store")
	}
	s := &Server{
		cfg:          cfg,
		store:        st,
		clock:        clockwork.NewRealClock(),
		historyLimit: store.DefaultHistoryLimit,
		verify:       auth.VerifyPassword,
	}
	for _, opt := range opts {
		opt(s)
	}

	secret := cfg.Secret
	if secret == "" {
		var err error
		if secret, err = auth.RandomSecret(); err != nil {
			return nil, err
		}
		logger.Warn("no server secret configured, sessions end on restart")
	}
	s.issuer = auth.NewIssuer(secret, s.clock)
	return s, nil
}

// Handler returns the routed API with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/register", s.handleRegister)
	mux.HandleFunc("POST /api/auth/login", s.handleLogin)
	mux.HandleFunc("POST /api/auth/logout", s.handleLogout)
	mux.HandleFunc("GET /api/auth/me", s.handleMe)
	mux.HandleFunc("GET /api/plan", s.requireUser(s.handleGetPlan))
	mux.HandleFunc("PUT /api/plan", s.requireUser(s.handlePutPlan))
	mux.HandleFunc("GET /api/plan/history", s.requireUser(s.handleHistory))
	return withRecovery(withLogging(withSecurityHeaders(mux)))
}

// Run listens on the configured address until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", s.cfg.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("serving: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	logger.Info("server stopped")
	return nil
}
