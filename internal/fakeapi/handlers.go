package fakeapi

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/gophauth/internal/fakeapi/auth"
	"github.com/dmitrijs2005/gophauth/internal/fakeapi/users"
)

type userResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

func toUserResponse(u *users.User) userResponse {
	return userResponse{ID: u.ID, Email: u.Email, FirstName: u.FirstName, LastName: u.LastName}
}

// decode reads the JSON body into value, answering 400 on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, value any) bool {
	if err := decodeStrict(r, value); err != nil {
		writeDetail(w, http.StatusBadRequest, "JSON parse error - "+err.Error())
		return false
	}
	return true
}

// writeError maps a service error to its HTTP answer.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr users.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, verr)
	case errors.Is(err, users.ErrStaleToken):
		writeDetail(w, http.StatusForbidden, detailStaleToken)
	case errors.Is(err, users.ErrInvalidCredentials):
		writeDetail(w, http.StatusUnauthorized, detailBadCredentials)
	default:
		s.logger.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		writeDetail(w, http.StatusInternalServerError, detailServerError)
	}
}

func blank(fields map[string]string) users.ValidationError {
	verr := users.ValidationError{}
	for name, v := range fields {
		if v == "" {
			verr[name] = []string{users.MsgBlank}
		}
	}
	return verr
}

func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !s.decode(w, r, &in) {
		return
	}
	if verr := blank(map[string]string{"email": in.Email, "password": in.Password}); len(verr) > 0 {
		writeJSON(w, http.StatusBadRequest, verr)
		return
	}

	user, err := s.users.Authenticate(r.Context(), in.Email, in.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	access, err := s.issueAccess(user.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	refresh, err := s.issueRefresh(user.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"access": access, "refresh": refresh})
}

func (s *Server) refreshSession(w http.ResponseWriter, r *http.Request) {
	s.refreshes.Add(1)

	var in struct {
		Refresh string `json:"refresh"`
	}
	if !s.decode(w, r, &in) {
		return
	}
	if verr := blank(map[string]string{"refresh": in.Refresh}); len(verr) > 0 {
		writeJSON(w, http.StatusBadRequest, verr)
		return
	}

	s.runBeforeRefresh()

	claims, err := auth.ParseToken(in.Refresh, auth.Refresh, s.secret)
	if err != nil {
		writeTokenNotValid(w, detailTokenExpired)
		return
	}
	if _, err := s.users.Get(r.Context(), claims.UserID); err != nil {
		writeTokenNotValid(w, detailTokenExpired)
		return
	}

	access, err := s.issueAccess(claims.UserID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"access": access})
}

// verifyToken accepts any valid token: a current-generation access token or
// a refresh token.
func (s *Server) verifyToken(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Token string `json:"token"`
	}
	if !s.decode(w, r, &in) {
		return
	}
	if verr := blank(map[string]string{"token": in.Token}); len(verr) > 0 {
		writeJSON(w, http.StatusBadRequest, verr)
		return
	}

	if _, err := s.parseAccess(in.Token); err != nil {
		if _, err := auth.ParseToken(in.Token, auth.Refresh, s.secret); err != nil {
			writeTokenNotValid(w, detailTokenExpired)
			return
		}
	}

	writeJSON(w, http.StatusOK, struct{}{})
}

func (s *Server) registerUser(w http.ResponseWriter, r *http.Request) {
	var in users.Registration
	if !s.decode(w, r, &in) {
		return
	}

	user, err := s.users.Register(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toUserResponse(user))
}

func (s *Server) activateUser(w http.ResponseWriter, r *http.Request) {
	var in struct {
		UID   string `json:"uid"`
		Token string `json:"token"`
	}
	if !s.decode(w, r, &in) {
		return
	}

	if err := s.users.Activate(r.Context(), in.UID, in.Token); err != nil {
		s.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) resetPassword(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email string `json:"email"`
	}
	if !s.decode(w, r, &in) {
		return
	}

	if err := s.users.RequestPasswordReset(r.Context(), in.Email); err != nil {
		s.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) resetPasswordConfirm(w http.ResponseWriter, r *http.Request) {
	var in users.PasswordReset
	if !s.decode(w, r, &in) {
		return
	}

	if err := s.users.ConfirmPasswordReset(r.Context(), in); err != nil {
		s.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	user, err := s.users.Get(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			writeTokenNotValid(w, detailTokenInvalid)
			return
		}
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(user))
}
