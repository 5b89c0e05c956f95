// Package fakeapi is a reference implementation of the account API the
// client talks to: JWT session endpoints plus user registration,
// activation and password reset, all held in memory. It backs the
// end-to-end tests and can be run standalone with cmd/fakeapi.
//
// Besides the HTTP surface it exposes a few hooks for tests: the number of
// refresh calls served, a switch that invalidates every access token issued
// so far, and a callback run before each refresh is answered.
package fakeapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/fakeapi/auth"
	"github.com/dmitrijs2005/gophauth/internal/fakeapi/config"
	"github.com/dmitrijs2005/gophauth/internal/fakeapi/users"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/go-chi/chi/v5"
)

const shutdownTimeout = 5 * time.Second

type Server struct {
	config *config.Config
	users  *users.Service
	secret []byte
	logger logging.Logger

	// generation is stamped into every access token; tokens from an older
	// generation are rejected.
	generation atomic.Int64
	refreshes  atomic.Int64

	mu            sync.Mutex
	beforeRefresh func()

	handler http.Handler
}

func New(cfg *config.Config, logger logging.Logger) *Server {
	if logger == nil {
		logger = logging.Discard()
	}
	s := &Server{
		config: cfg,
		users:  users.NewService(users.NewMemoryRepository(), cfg.BcryptCost),
		secret: []byte(cfg.SecretKey),
		logger: logger.With("component", "fakeapi"),
	}
	s.handler = s.newRouter()
	return s
}

func (s *Server) newRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(s.recoverer, s.requestID, s.logging)
	registerRoutes(r, s)
	return r
}

func (s *Server) Handler() http.Handler {
	return s.handler
}

// Users exposes the account service, including its outbox.
func (s *Server) Users() *users.Service {
	return s.users
}

// RefreshCount is the number of refresh requests received.
func (s *Server) RefreshCount() int64 {
	return s.refreshes.Load()
}

// ExpireAccessTokens invalidates every access token issued so far.
// Refresh tokens stay valid.
func (s *Server) ExpireAccessTokens() {
	s.generation.Add(1)
}

// SetBeforeRefresh installs fn to run before each refresh request is
// answered. nil removes it.
func (s *Server) SetBeforeRefresh(fn func()) {
	s.mu.Lock()
	s.beforeRefresh = fn
	s.mu.Unlock()
}

func (s *Server) runBeforeRefresh() {
	s.mu.Lock()
	fn := s.beforeRefresh
	s.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func (s *Server) issueAccess(userID string) (string, error) {
	return auth.GenerateToken(userID, auth.Access, s.generation.Load(), s.secret, s.config.AccessTokenValidityDuration)
}

func (s *Server) issueRefresh(userID string) (string, error) {
	return auth.GenerateToken(userID, auth.Refresh, 0, s.secret, s.config.RefreshTokenValidityDuration)
}

// parseAccess accepts an access token of the current generation.
func (s *Server) parseAccess(token string) (*auth.Claims, error) {
	claims, err := auth.ParseToken(token, auth.Access, s.secret)
	if err != nil {
		return nil, err
	}
	if claims.Generation < s.generation.Load() {
		return nil, auth.ErrTokenExpired
	}
	return claims, nil
}

// Run serves HTTP on the configured address until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.config.ListenAddr,
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "listening", "addr", s.config.ListenAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen %s: %w", s.config.ListenAddr, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	s.logger.Info(ctx, "shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
