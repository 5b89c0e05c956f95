package fakeapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/fakeapi/config"
	"github.com/dmitrijs2005/gophauth/internal/fakeapi/users"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.BcryptCost = bcrypt.MinCost
	cfg.SecretKey = "test-secret"
	return cfg
}

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	s := New(testConfig(), nil)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

type response struct {
	status int
	header http.Header
	body   map[string]any
}

func call(t *testing.T, ts *httptest.Server, method, path, authorization string, in any) response {
	t.Helper()

	var body bytes.Buffer
	if in != nil {
		require.NoError(t, json.NewEncoder(&body).Encode(in))
	}
	req, err := http.NewRequest(method, ts.URL+path, &body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if authorization != "" {
		req.Header.Set(common.AuthorizationHeaderName, authorization)
	}

	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	out := response{status: resp.StatusCode, header: resp.Header}
	if resp.StatusCode != http.StatusNoContent {
		_ = json.NewDecoder(resp.Body).Decode(&out.body)
	}
	return out
}

// activeUser registers and activates ada@example.com and returns its tokens.
func activeUser(t *testing.T, s *Server, ts *httptest.Server) (access, refresh string) {
	t.Helper()

	r := call(t, ts, http.MethodPost, "/auth/users/", "", users.Registration{
		FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com",
		Password: "analytical-engine", RePassword: "analytical-engine",
	})
	require.Equal(t, http.StatusCreated, r.status, r.body)

	m, ok := s.Users().LastMail(users.MailActivation, "ada@example.com")
	require.True(t, ok)
	r = call(t, ts, http.MethodPost, "/auth/users/activation/", "", map[string]string{"uid": m.UID, "token": m.Token})
	require.Equal(t, http.StatusNoContent, r.status)

	r = call(t, ts, http.MethodPost, "/auth/jwt/create/", "", map[string]string{"email": "ada@example.com", "password": "analytical-engine"})
	require.Equal(t, http.StatusOK, r.status, r.body)
	return r.body["access"].(string), r.body["refresh"].(string)
}

func TestRegister_ReturnsProfileAndFieldErrors(t *testing.T) {
	_, ts := newTestServer(t)

	r := call(t, ts, http.MethodPost, "/auth/users/", "", users.Registration{
		FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com",
		Password: "analytical-engine", RePassword: "analytical-engine",
	})
	require.Equal(t, http.StatusCreated, r.status)
	assert.Equal(t, "ada@example.com", r.body["email"])
	assert.Equal(t, "Ada", r.body["first_name"])
	assert.NotEmpty(t, r.body["id"])

	r = call(t, ts, http.MethodPost, "/auth/users/", "", users.Registration{
		FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com",
		Password: "analytical-engine", RePassword: "analytical-engine",
	})
	require.Equal(t, http.StatusBadRequest, r.status)
	assert.Equal(t, []any{users.MsgEmailTaken}, r.body["email"])
}

func TestDecode_RejectsUnknownFields(t *testing.T) {
	_, ts := newTestServer(t)

	r := call(t, ts, http.MethodPost, "/auth/jwt/create/", "", map[string]string{"username": "x", "password": "y"})

	assert.Equal(t, http.StatusBadRequest, r.status)
	assert.Contains(t, r.body["detail"], "JSON parse error")
}

func TestCreateSession_WrongPassword(t *testing.T) {
	s, ts := newTestServer(t)
	activeUser(t, s, ts)

	r := call(t, ts, http.MethodPost, "/auth/jwt/create/", "", map[string]string{"email": "ada@example.com", "password": "nope-nope"})

	assert.Equal(t, http.StatusUnauthorized, r.status)
	assert.Equal(t, detailBadCredentials, r.body["detail"])
}

func TestCreateSession_BlankFields(t *testing.T) {
	_, ts := newTestServer(t)

	r := call(t, ts, http.MethodPost, "/auth/jwt/create/", "", map[string]string{"email": "", "password": ""})

	assert.Equal(t, http.StatusBadRequest, r.status)
	assert.Equal(t, []any{users.MsgBlank}, r.body["email"])
	assert.Equal(t, []any{users.MsgBlank}, r.body["password"])
}

func TestMe_RequiresConfiguredScheme(t *testing.T) {
	s, ts := newTestServer(t)
	access, _ := activeUser(t, s, ts)

	r := call(t, ts, http.MethodGet, "/auth/users/me/", "", nil)
	assert.Equal(t, http.StatusUnauthorized, r.status)
	assert.Equal(t, detailNoCredentials, r.body["detail"])
	assert.Contains(t, r.header.Get("WWW-Authenticate"), "Bearer")

	r = call(t, ts, http.MethodGet, "/auth/users/me/", "JWT "+access, nil)
	assert.Equal(t, http.StatusUnauthorized, r.status)

	r = call(t, ts, http.MethodGet, "/auth/users/me/", "Bearer "+access, nil)
	require.Equal(t, http.StatusOK, r.status)
	assert.Equal(t, "ada@example.com", r.body["email"])
	assert.Equal(t, "Lovelace", r.body["last_name"])
}

func TestMe_RejectsRefreshToken(t *testing.T) {
	s, ts := newTestServer(t)
	_, refresh := activeUser(t, s, ts)

	r := call(t, ts, http.MethodGet, "/auth/users/me/", "Bearer "+refresh, nil)

	assert.Equal(t, http.StatusUnauthorized, r.status)
	assert.Equal(t, detailTokenInvalid, r.body["detail"])
	assert.Equal(t, codeTokenNotValid, r.body["code"])
}

func TestExpireAccessTokens_RefreshIssuesWorkingToken(t *testing.T) {
	s, ts := newTestServer(t)
	access, refresh := activeUser(t, s, ts)

	s.ExpireAccessTokens()

	r := call(t, ts, http.MethodGet, "/auth/users/me/", "Bearer "+access, nil)
	require.Equal(t, http.StatusUnauthorized, r.status)

	r = call(t, ts, http.MethodPost, "/auth/jwt/verify/", "", map[string]string{"token": access})
	assert.Equal(t, http.StatusUnauthorized, r.status)

	r = call(t, ts, http.MethodPost, "/auth/jwt/refresh/", "", map[string]string{"refresh": refresh})
	require.Equal(t, http.StatusOK, r.status)
	fresh := r.body["access"].(string)
	assert.NotEqual(t, access, fresh)
	assert.Equal(t, int64(1), s.RefreshCount())

	r = call(t, ts, http.MethodGet, "/auth/users/me/", "Bearer "+fresh, nil)
	assert.Equal(t, http.StatusOK, r.status)

	r = call(t, ts, http.MethodPost, "/auth/jwt/verify/", "", map[string]string{"token": fresh})
	assert.Equal(t, http.StatusOK, r.status)
}

func TestRefresh_InvalidToken(t *testing.T) {
	s, ts := newTestServer(t)
	access, _ := activeUser(t, s, ts)

	r := call(t, ts, http.MethodPost, "/auth/jwt/refresh/", "", map[string]string{"refresh": access})
	assert.Equal(t, http.StatusUnauthorized, r.status)
	assert.Equal(t, detailTokenExpired, r.body["detail"])

	r = call(t, ts, http.MethodPost, "/auth/jwt/refresh/", "", map[string]string{"refresh": "garbage"})
	assert.Equal(t, http.StatusUnauthorized, r.status)
	assert.Equal(t, int64(2), s.RefreshCount())
}

func TestRefresh_ExpiredRefreshToken(t *testing.T) {
	cfg := testConfig()
	cfg.RefreshTokenValidityDuration = -time.Second
	s := New(cfg, nil)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	_, refresh := activeUser(t, s, ts)

	r := call(t, ts, http.MethodPost, "/auth/jwt/refresh/", "", map[string]string{"refresh": refresh})

	assert.Equal(t, http.StatusUnauthorized, r.status)
}

func TestSetBeforeRefresh_HoldsResponse(t *testing.T) {
	s, ts := newTestServer(t)
	_, refresh := activeUser(t, s, ts)

	gate := make(chan struct{})
	entered := make(chan struct{}, 1)
	s.SetBeforeRefresh(func() {
		entered <- struct{}{}
		<-gate
	})

	var wg sync.WaitGroup
	var status int
	wg.Add(1)
	go func() {
		defer wg.Done()
		resp, err := ts.Client().Post(ts.URL+"/auth/jwt/refresh/", "application/json", bytes.NewBufferString(`{"refresh":"`+refresh+`"}`))
		if !assert.NoError(t, err) {
			return
		}
		resp.Body.Close()
		status = resp.StatusCode
	}()

	<-entered
	close(gate)
	wg.Wait()
	assert.Equal(t, http.StatusOK, status)

	s.SetBeforeRefresh(nil)
	assert.Equal(t, http.StatusOK, call(t, ts, http.MethodPost, "/auth/jwt/refresh/", "", map[string]string{"refresh": refresh}).status)
}

func TestActivation_StaleAndInvalid(t *testing.T) {
	s, ts := newTestServer(t)
	activeUser(t, s, ts)
	m, _ := s.Users().LastMail(users.MailActivation, "ada@example.com")

	r := call(t, ts, http.MethodPost, "/auth/users/activation/", "", map[string]string{"uid": m.UID, "token": m.Token})
	assert.Equal(t, http.StatusForbidden, r.status)
	assert.Equal(t, detailStaleToken, r.body["detail"])

	r = call(t, ts, http.MethodPost, "/auth/users/activation/", "", map[string]string{"uid": "nope", "token": "x"})
	assert.Equal(t, http.StatusBadRequest, r.status)
	assert.Equal(t, []any{users.MsgInvalidUID}, r.body["uid"])
}

func TestPasswordReset_Endpoints(t *testing.T) {
	s, ts := newTestServer(t)
	activeUser(t, s, ts)

	r := call(t, ts, http.MethodPost, "/auth/users/reset_password/", "", map[string]string{"email": "ada@example.com"})
	require.Equal(t, http.StatusNoContent, r.status)
	m, ok := s.Users().LastMail(users.MailPasswordReset, "ada@example.com")
	require.True(t, ok)

	r = call(t, ts, http.MethodPost, "/auth/users/reset_password_confirm/", "", users.PasswordReset{
		UID: m.UID, Token: m.Token, NewPassword: "short", ReNewPassword: "short",
	})
	require.Equal(t, http.StatusBadRequest, r.status)
	assert.Equal(t, []any{users.MsgPasswordTooShort}, r.body["new_password"])

	r = call(t, ts, http.MethodPost, "/auth/users/reset_password_confirm/", "", users.PasswordReset{
		UID: m.UID, Token: m.Token, NewPassword: "difference-engine", ReNewPassword: "difference-engine",
	})
	require.Equal(t, http.StatusNoContent, r.status)

	r = call(t, ts, http.MethodPost, "/auth/jwt/create/", "", map[string]string{"email": "ada@example.com", "password": "difference-engine"})
	assert.Equal(t, http.StatusOK, r.status)
}

func TestRequestID_EchoedOrAssigned(t *testing.T) {
	_, ts := newTestServer(t)

	req, err := http.NewRequest(http.MethodPost, ts.URL+"/auth/users/reset_password/", bytes.NewBufferString(`{"email":"x@y.z"}`))
	require.NoError(t, err)
	req.Header.Set(common.RequestIDHeaderName, "req-42")
	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "req-42", resp.Header.Get(common.RequestIDHeaderName))

	r := call(t, ts, http.MethodPost, "/auth/users/reset_password/", "", map[string]string{"email": "x@y.z"})
	assert.NotEmpty(t, r.header.Get(common.RequestIDHeaderName))
}

func TestRecoverer_AnswersServerError(t *testing.T) {
	s := New(testConfig(), nil)
	h := s.recoverer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") }))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), detailServerError)
}
