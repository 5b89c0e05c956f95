package fakeapi_test

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/client/client"
	"github.com/dmitrijs2005/gophauth/internal/client/credentials"
	"github.com/dmitrijs2005/gophauth/internal/client/events"
	"github.com/dmitrijs2005/gophauth/internal/client/metrics"
	"github.com/dmitrijs2005/gophauth/internal/client/models"
	"github.com/dmitrijs2005/gophauth/internal/client/renewal"
	"github.com/dmitrijs2005/gophauth/internal/client/repositories"
	"github.com/dmitrijs2005/gophauth/internal/client/services"
	"github.com/dmitrijs2005/gophauth/internal/client/session"
	"github.com/dmitrijs2005/gophauth/internal/fakeapi"
	"github.com/dmitrijs2005/gophauth/internal/fakeapi/config"
	"github.com/dmitrijs2005/gophauth/internal/fakeapi/users"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"
)

const (
	email    = "ada@example.com"
	password = "analytical-engine"
)

type stack struct {
	api     *fakeapi.Server
	svc     services.AuthService
	store   *credentials.Store
	coord   *renewal.Coordinator
	tracker *session.Tracker
	rec     *events.Recorder
	reg     *prometheus.Registry
	expired atomic.Int32
}

func newStack(t *testing.T, scheme string) *stack {
	t.Helper()
	ctx := context.Background()

	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.BcryptCost = bcrypt.MinCost
	cfg.AuthScheme = scheme

	st := &stack{api: fakeapi.New(cfg, nil), rec: &events.Recorder{}}
	ts := httptest.NewServer(st.api.Handler())
	t.Cleanup(ts.Close)

	db, err := repositories.InitDatabase(ctx, filepath.Join(t.TempDir(), "session.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	st.store = credentials.NewSQLiteStore(db, logging.Discard())

	st.reg = prometheus.NewRegistry()
	m := metrics.New(st.reg)

	api, err := client.NewHTTPClient(ts.URL, st.store, client.Options{Scheme: scheme, Timeout: 10 * time.Second, Metrics: m})
	require.NoError(t, err)

	bus := events.NewBus()
	bus.Subscribe(st.rec.Dispatch)
	st.tracker = session.NewTracker(bus)

	st.coord = renewal.NewCoordinator(st.store, api, bus, m, logging.Discard())
	st.coord.OnSessionExpired = func(context.Context, error) { st.expired.Add(1) }
	api.SetRenewer(st.coord)

	st.svc = services.NewAuthService(api, st.store, st.coord, bus, logging.Discard())
	t.Cleanup(func() { _ = st.svc.Close(context.Background()) })
	return st
}

func (st *stack) signupAndActivate(t *testing.T) {
	t.Helper()
	ctx := context.Background()

	_, err := st.svc.Signup(ctx, models.Registration{
		FirstName: "Ada", LastName: "Lovelace", Email: email,
		Password: password, ConfirmPassword: password,
	})
	require.NoError(t, err)

	m, ok := st.api.Users().LastMail(users.MailActivation, email)
	require.True(t, ok)
	require.NoError(t, st.svc.VerifyEmail(ctx, m.UID, m.Token))
}

func TestEndToEnd_SignupActivateLogin(t *testing.T) {
	st := newStack(t, "Bearer")
	ctx := context.Background()

	_, err := st.svc.Login(ctx, email, password)
	require.Error(t, err, "account is not active yet")
	assert.Equal(t, session.Unauthenticated, st.tracker.State().Auth)
	assert.Equal(t, "No active account found with the given credentials", st.tracker.State().Error)

	st.signupAndActivate(t)
	assert.Equal(t, services.MsgActivationSucceeded, st.tracker.State().Message)

	u, err := st.svc.Login(ctx, email, password)
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "Ada Lovelace", u.DisplayName())

	state := st.tracker.State()
	assert.Equal(t, session.Authenticated, state.Auth)
	require.NotNil(t, state.User)
	assert.Equal(t, email, state.User.Email)
	assert.NotEmpty(t, st.store.RefreshToken(ctx))

	assert.True(t, st.svc.CheckAuthenticated(ctx))
	assert.Zero(t, st.api.RefreshCount())
}

func TestEndToEnd_SignupErrorsSurfaceFieldMessage(t *testing.T) {
	st := newStack(t, "Bearer")
	st.signupAndActivate(t)

	_, err := st.svc.Signup(context.Background(), models.Registration{
		FirstName: "Ada", LastName: "Lovelace", Email: email,
		Password: password, ConfirmPassword: password,
	})

	require.Error(t, err)
	assert.Equal(t, users.MsgEmailTaken, st.tracker.State().Error)
}

func TestEndToEnd_ExpiredAccessTokenIsRenewedTransparently(t *testing.T) {
	st := newStack(t, "JWT")
	ctx := context.Background()
	st.signupAndActivate(t)
	_, err := st.svc.Login(ctx, email, password)
	require.NoError(t, err)
	before := st.store.AccessToken(ctx)

	st.api.ExpireAccessTokens()
	st.rec.Reset()

	u, err := st.svc.LoadCurrentUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, email, u.Email)

	assert.Equal(t, int64(1), st.api.RefreshCount())
	assert.NotEqual(t, before, st.store.AccessToken(ctx))
	assert.Contains(t, st.rec.Types(), events.TokenRefreshSuccess)
	assert.Equal(t, session.Authenticated, st.tracker.State().Auth)
	assert.NoError(t, testutil.GatherAndCompare(st.reg, strings.NewReader(`
# HELP gophauth_requests_replayed_total Requests replayed after a 401, by final status class.
# TYPE gophauth_requests_replayed_total counter
gophauth_requests_replayed_total{status="2xx"} 1
`), "gophauth_requests_replayed_total"))
}

func TestEndToEnd_ConcurrentCallsShareOneRefresh(t *testing.T) {
	st := newStack(t, "Bearer")
	ctx := context.Background()
	st.signupAndActivate(t)
	_, err := st.svc.Login(ctx, email, password)
	require.NoError(t, err)

	st.api.ExpireAccessTokens()

	gate := make(chan struct{})
	st.api.SetBeforeRefresh(func() { <-gate })

	const n = 8
	var g errgroup.Group
	for i := 0; i < n; i++ {
		g.Go(func() error {
			_, err := st.svc.LoadCurrentUser(ctx)
			return err
		})
	}

	require.Eventually(t, func() bool { return st.coord.Pending() == n-1 }, 5*time.Second, 5*time.Millisecond)
	close(gate)

	require.NoError(t, g.Wait())
	assert.Equal(t, int64(1), st.api.RefreshCount())
	assert.False(t, st.coord.Renewing())
	assert.Zero(t, st.expired.Load())
}

func TestEndToEnd_DeadRefreshTokenEndsSession(t *testing.T) {
	st := newStack(t, "Bearer")
	ctx := context.Background()
	st.signupAndActivate(t)
	_, err := st.svc.Login(ctx, email, password)
	require.NoError(t, err)

	st.store.SaveTokens(ctx, st.store.AccessToken(ctx), "not-a-token")
	st.api.ExpireAccessTokens()

	_, err = st.svc.LoadCurrentUser(ctx)

	var actionErr *services.ActionError
	require.ErrorAs(t, err, &actionErr)
	assert.Equal(t, services.KindSessionExpired, actionErr.Kind)
	assert.Empty(t, st.store.AccessToken(ctx))
	assert.Empty(t, st.store.RefreshToken(ctx))
	assert.Equal(t, int32(1), st.expired.Load())

	state := st.tracker.State()
	assert.Equal(t, session.Unauthenticated, state.Auth)
	assert.Nil(t, state.User)
	assert.Contains(t, st.rec.Types(), events.TokenRefreshFail)
	assert.Contains(t, st.rec.Types(), events.Logout)

	assert.False(t, st.svc.CheckAuthenticated(ctx))
	assert.Equal(t, int64(1), st.api.RefreshCount())
}

func TestEndToEnd_PasswordReset(t *testing.T) {
	st := newStack(t, "Bearer")
	ctx := context.Background()
	st.signupAndActivate(t)

	require.NoError(t, st.svc.ResetPassword(ctx, email))
	m, ok := st.api.Users().LastMail(users.MailPasswordReset, email)
	require.True(t, ok)

	err := st.svc.ConfirmPasswordReset(ctx, models.PasswordResetConfirmation{
		UID: m.UID, Token: "wrong", NewPassword: "difference-engine", ConfirmNewPassword: "difference-engine",
	})
	require.Error(t, err)
	assert.Equal(t, services.MsgResetTokenInvalid, st.tracker.State().Error)

	err = st.svc.ConfirmPasswordReset(ctx, models.PasswordResetConfirmation{
		UID: m.UID, Token: m.Token, NewPassword: "difference-engine", ConfirmNewPassword: "difference-engine",
	})
	require.NoError(t, err)
	assert.Equal(t, services.MsgResetConfirmed, st.tracker.State().Message)

	_, err = st.svc.Login(ctx, email, password)
	require.Error(t, err)
	_, err = st.svc.Login(ctx, email, "difference-engine")
	require.NoError(t, err)
}

func TestEndToEnd_LogoutForgetsTokens(t *testing.T) {
	st := newStack(t, "Bearer")
	ctx := context.Background()
	st.signupAndActivate(t)
	_, err := st.svc.Login(ctx, email, password)
	require.NoError(t, err)

	st.svc.Logout(ctx)

	assert.Empty(t, st.store.AccessToken(ctx))
	assert.Equal(t, session.Unauthenticated, st.tracker.State().Auth)

	_, err = st.svc.LoadCurrentUser(ctx)
	var actionErr *services.ActionError
	require.ErrorAs(t, err, &actionErr)
	assert.Equal(t, services.KindNoCredentials, actionErr.Kind)
}
