// Package renewal owns the single-flight access token renewal protocol.
//
// A Coordinator is either idle or renewing. The first caller that reports a
// rejected access token while idle runs the refresh call; every caller that
// reports one while renewing waits for that same call and receives its
// outcome. At most one refresh call is outstanding at any instant.
package renewal

import (
	"context"
	"errors"
	"sync"

	"github.com/dmitrijs2005/gophauth/internal/client/events"
	"github.com/dmitrijs2005/gophauth/internal/client/metrics"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/redact"
)

var (
	// ErrNoRefreshToken is returned when renewal is needed but no refresh
	// token is stored. No network call is made.
	ErrNoRefreshToken = errors.New("no refresh token")

	// ErrRenewalAborted is delivered to waiters when the refresh path
	// panicked before producing an outcome.
	ErrRenewalAborted = errors.New("token renewal aborted")
)

const defaultFailMessage = "Token refresh failed"

// TokenStore is the part of the credential store the coordinator needs.
type TokenStore interface {
	AccessToken(ctx context.Context) string
	RefreshToken(ctx context.Context) string
	SetAccessToken(ctx context.Context, token string)
	ClearTokens(ctx context.Context)
}

// Refresher exchanges a refresh token for a new access token.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (string, error)
}

type outcome struct {
	token string
	err   error
}

// Coordinator serializes access token renewal.
type Coordinator struct {
	store     TokenStore
	refresher Refresher
	notifier  events.Dispatcher
	metrics   *metrics.Metrics
	log       logging.Logger

	// OnSessionExpired runs after a failed renewal has cleared the
	// credentials. Set it before the first Renew.
	OnSessionExpired func(ctx context.Context, err error)

	mu       sync.Mutex
	renewing bool
	queue    []chan outcome
}

func NewCoordinator(store TokenStore, refresher Refresher, notifier events.Dispatcher, m *metrics.Metrics, log logging.Logger) *Coordinator {
	return &Coordinator{
		store:     store,
		refresher: refresher,
		notifier:  notifier,
		metrics:   m,
		log:       log.With("component", "renewal"),
	}
}

// Renew returns an access token to replace stale, the token a request was
// rejected with.
//
// If a renewal is in flight the call waits for it. If the store already
// holds a different token, stale was superseded by an earlier renewal and
// that token is returned without a network call. If the store was emptied
// after stale was sent, ErrNoRefreshToken is returned without reporting the
// expiry again. Otherwise this call runs the refresh.
//
// The refresh call is detached from ctx cancellation. A waiting caller stops
// waiting when its ctx is done.
func (c *Coordinator) Renew(ctx context.Context, stale string) (string, error) {
	c.mu.Lock()
	if c.renewing {
		ch := make(chan outcome, 1)
		c.queue = append(c.queue, ch)
		c.mu.Unlock()

		c.metrics.Queued()
		c.log.Debug(ctx, "waiting for in-flight renewal")

		select {
		case o := <-ch:
			return o.token, o.err
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	current := c.store.AccessToken(ctx)
	if current != "" && current != stale {
		c.mu.Unlock()
		c.metrics.Renewal(metrics.OutcomeStale)
		return current, nil
	}

	// Both tokens are gone since stale was sent: a failed renewal or a
	// logout already ended the session and reported it.
	if stale != "" && current == "" && c.store.RefreshToken(ctx) == "" {
		c.mu.Unlock()
		return "", ErrNoRefreshToken
	}

	c.renewing = true
	c.mu.Unlock()

	return c.run(context.WithoutCancel(ctx))
}

// Renewing reports whether a refresh call is in flight.
func (c *Coordinator) Renewing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.renewing
}

// Pending is the number of callers waiting on the in-flight renewal.
func (c *Coordinator) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue)
}

func (c *Coordinator) run(ctx context.Context) (token string, err error) {
	err = ErrRenewalAborted
	defer func() {
		if err != nil {
			c.store.ClearTokens(ctx)
		}
		c.settle(outcome{token: token, err: err})
		if err != nil {
			c.expire(ctx, err)
		}
	}()

	token, err = c.refresh(ctx)
	return token, err
}

func (c *Coordinator) refresh(ctx context.Context) (string, error) {
	refresh := c.store.RefreshToken(ctx)
	if refresh == "" {
		c.metrics.Renewal(metrics.OutcomeNoRefresh)
		c.log.Warn(ctx, "access token rejected and no refresh token stored")
		return "", ErrNoRefreshToken
	}

	access, err := c.refresher.Refresh(ctx, refresh)
	if err != nil {
		c.metrics.Renewal(metrics.OutcomeFailure)
		c.log.Warn(ctx, "token refresh failed", "error", err)
		return "", err
	}

	c.store.SetAccessToken(ctx, access)
	c.metrics.Renewal(metrics.OutcomeSuccess)
	c.log.Info(ctx, "access token renewed", "token", redact.Token(access))
	c.notifier.Dispatch(ctx, events.Event{Type: events.TokenRefreshSuccess})

	return access, nil
}

// settle returns the coordinator to idle and hands o to every waiter.
func (c *Coordinator) settle(o outcome) {
	c.mu.Lock()
	queue := c.queue
	c.queue = nil
	c.renewing = false
	c.mu.Unlock()

	for _, ch := range queue {
		ch <- o
	}
}

// expire reports the end of the session. Credentials are already gone.
func (c *Coordinator) expire(ctx context.Context, cause error) {
	c.notifier.Dispatch(ctx, events.Event{Type: events.TokenRefreshFail, Message: failMessage(cause)})
	c.notifier.Dispatch(ctx, events.Event{Type: events.Logout})

	c.log.Info(ctx, "session expired", "error", cause)

	if c.OnSessionExpired != nil {
		c.OnSessionExpired(ctx, cause)
	}
}

// failMessage extracts an API-provided reason when cause carries one.
func failMessage(cause error) string {
	var m interface{ Message(fallback string) string }
	if errors.As(cause, &m) {
		return m.Message(defaultFailMessage)
	}
	return defaultFailMessage
}
