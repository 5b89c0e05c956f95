package fakeapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

type ctxKey string

const (
	userIDKey    ctxKey = "userID"
	requestIDKey ctxKey = "requestID"
)

func userIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// recoverer turns a handler panic into a 500 with a generic body.
func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				s.logger.Error(r.Context(), "panic", "path", r.URL.Path, "reason", rec)
				writeDetail(w, http.StatusInternalServerError, detailServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// requestID keeps the caller's X-Request-ID, or assigns one, and echoes it.
func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(common.RequestIDHeaderName)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(common.RequestIDHeaderName, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

func (s *Server) logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		s.logger.Debug(r.Context(), "http",
			"request_id", requestIDFrom(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"dur", time.Since(start),
			"bytes", ww.BytesWritten(),
		)
	})
}

// authenticate requires "<scheme> <access token>" in the Authorization
// header and puts the token owner's ID into the request context.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get(common.AuthorizationHeaderName)
		if header == "" {
			w.Header().Set("WWW-Authenticate", s.config.AuthScheme+` realm="api"`)
			writeDetail(w, http.StatusUnauthorized, detailNoCredentials)
			return
		}

		scheme, token, ok := strings.Cut(header, " ")
		token = strings.TrimSpace(token)
		if !ok || scheme != s.config.AuthScheme || token == "" {
			w.Header().Set("WWW-Authenticate", s.config.AuthScheme+` realm="api"`)
			writeDetail(w, http.StatusUnauthorized, detailNoCredentials)
			return
		}

		claims, err := s.parseAccess(token)
		if err != nil {
			s.logger.Debug(r.Context(), "rejected access token", "error", err)
			writeTokenNotValid(w, detailTokenInvalid)
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userIDKey, claims.UserID)))
	})
}
