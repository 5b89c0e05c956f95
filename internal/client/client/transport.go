package client

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/client/metrics"
	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/google/uuid"
)

// maxErrorBody caps how much of a rejected response is buffered while a
// renewal runs.
const maxErrorBody = 1 << 20

// TokenSource yields the current access token, or "" when none is stored.
type TokenSource interface {
	AccessToken(ctx context.Context) string
}

// Renewer produces a replacement for an access token the API rejected.
type Renewer interface {
	Renew(ctx context.Context, stale string) (string, error)
}

// SetAuthorization writes the Authorization header for token under scheme,
// or removes it when token is empty. It is the only place the header is
// built.
func SetAuthorization(h http.Header, scheme, token string) {
	if token == "" {
		h.Del(common.AuthorizationHeaderName)
		return
	}
	h.Set(common.AuthorizationHeaderName, scheme+" "+token)
}

type noRenewalKey struct{}

// withoutRenewal marks ctx so a 401 is returned as is. Session endpoints use
// it: their 401 means bad credentials, not an expired access token.
func withoutRenewal(ctx context.Context) context.Context {
	return context.WithValue(ctx, noRenewalKey{}, true)
}

func renewalDisabled(ctx context.Context) bool {
	v, _ := ctx.Value(noRenewalKey{}).(bool)
	return v
}

// authTransport authorizes every request with the stored access token and
// recovers from one 401 per request through the renewer.
type authTransport struct {
	base    http.RoundTripper
	tokens  TokenSource
	scheme  string
	renewer Renewer
	metrics *metrics.Metrics
	log     logging.Logger
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	token := t.tokens.AccessToken(ctx)

	out := req.Clone(ctx)
	if out.Header.Get(common.RequestIDHeaderName) == "" {
		out.Header.Set(common.RequestIDHeaderName, uuid.NewString())
	}
	SetAuthorization(out.Header, t.scheme, token)

	resp, err := t.send(out)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusUnauthorized || t.renewer == nil || renewalDisabled(ctx) {
		return resp, nil
	}
	if req.Body != nil && req.Body != http.NoBody && req.GetBody == nil {
		t.log.Warn(ctx, "401 on a request that cannot be replayed", "path", req.URL.Path)
		return resp, nil
	}

	if err := bufferBody(resp); err != nil {
		return nil, err
	}

	fresh, err := t.renewer.Renew(ctx, token)
	if err != nil {
		t.log.Info(ctx, "renewal failed, returning original response",
			"path", req.URL.Path, "request_id", out.Header.Get(common.RequestIDHeaderName), "error", err)
		return resp, nil
	}
	_ = resp.Body.Close()

	replay := out.Clone(ctx)
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, err
		}
		replay.Body = body
	}
	SetAuthorization(replay.Header, t.scheme, fresh)

	resp, err = t.send(replay)
	if err != nil {
		return nil, err
	}
	t.metrics.Replayed(resp.StatusCode)
	return resp, nil
}

func (t *authTransport) send(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := t.base.RoundTrip(req)

	args := []any{
		"method", req.Method,
		"path", req.URL.Path,
		"request_id", req.Header.Get(common.RequestIDHeaderName),
		"duration", time.Since(start),
	}
	if err != nil {
		t.metrics.Request(0)
		t.log.Debug(req.Context(), "request failed", append(args, "error", err)...)
		return nil, err
	}

	t.metrics.Request(resp.StatusCode)
	t.log.Debug(req.Context(), "request done", append(args, "status", resp.StatusCode)...)
	return resp, nil
}

// bufferBody reads resp.Body into memory so the connection is released
// while a renewal runs and the body can still be returned to the caller.
func bufferBody(resp *http.Response) error {
	b, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	_ = resp.Body.Close()
	if err != nil {
		return err
	}
	resp.Body = io.NopCloser(bytes.NewReader(b))
	return nil
}
