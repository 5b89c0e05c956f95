package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/client/metrics"
	"github.com/dmitrijs2005/gophauth/internal/client/models"
	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/logging"
)

// Options tunes an HTTPClient. Zero values select the defaults.
type Options struct {
	// Scheme prefixes the access token in the Authorization header.
	// Default common.SchemeBearer.
	Scheme string
	// Timeout bounds each request including a replay. Zero means none.
	Timeout time.Duration
	// Transport is the underlying round tripper. Default
	// http.DefaultTransport.
	Transport http.RoundTripper
	Metrics   *metrics.Metrics
	Logger    logging.Logger
}

// HTTPClient implements Client over net/http.
type HTTPClient struct {
	baseURL   *url.URL
	http      *http.Client
	transport *authTransport
}

var _ Client = (*HTTPClient)(nil)

// NewHTTPClient builds a client for the API rooted at baseURL. tokens is read
// on every request to authorize it.
func NewHTTPClient(baseURL string, tokens TokenSource, opts Options) (*HTTPClient, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", baseURL)
	}

	if opts.Scheme == "" {
		opts.Scheme = common.SchemeBearer
	}
	if opts.Transport == nil {
		opts.Transport = http.DefaultTransport
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}

	t := &authTransport{
		base:    opts.Transport,
		tokens:  tokens,
		scheme:  opts.Scheme,
		metrics: opts.Metrics,
		log:     opts.Logger.With("component", "http"),
	}

	return &HTTPClient{
		baseURL:   u,
		http:      &http.Client{Transport: t, Timeout: opts.Timeout},
		transport: t,
	}, nil
}

// SetRenewer enables 401 recovery. Call it once while wiring, before the
// first request.
func (c *HTTPClient) SetRenewer(r Renewer) {
	c.transport.renewer = r
}

func (c *HTTPClient) CreateSession(ctx context.Context, email, password string) (models.TokenPair, error) {
	var pair models.TokenPair
	err := c.do(withoutRenewal(ctx), http.MethodPost, PathCreate, models.Credentials{Email: email, Password: password}, &pair)
	if err != nil {
		return models.TokenPair{}, err
	}
	if pair.Access == "" {
		return models.TokenPair{}, fmt.Errorf("create session: %w", errMissingAccess)
	}
	return pair, nil
}

func (c *HTTPClient) VerifyToken(ctx context.Context, token string) error {
	return c.do(withoutRenewal(ctx), http.MethodPost, PathVerify, map[string]string{"token": token}, nil)
}

// Refresh exchanges refreshToken for a new access token.
func (c *HTTPClient) Refresh(ctx context.Context, refreshToken string) (string, error) {
	var out struct {
		Access string `json:"access"`
	}
	if err := c.do(withoutRenewal(ctx), http.MethodPost, PathRefresh, map[string]string{"refresh": refreshToken}, &out); err != nil {
		return "", err
	}
	if out.Access == "" {
		return "", fmt.Errorf("refresh: %w", errMissingAccess)
	}
	return out.Access, nil
}

func (c *HTTPClient) Register(ctx context.Context, r models.Registration) (*models.User, error) {
	var u models.User
	if err := c.do(ctx, http.MethodPost, PathUsers, r, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *HTTPClient) Activate(ctx context.Context, uid, token string) error {
	return c.do(ctx, http.MethodPost, PathActivation, models.Activation{UID: uid, Token: token}, nil)
}

func (c *HTTPClient) ResetPassword(ctx context.Context, email string) error {
	return c.do(ctx, http.MethodPost, PathResetRequest, map[string]string{"email": email}, nil)
}

func (c *HTTPClient) ResetPasswordConfirm(ctx context.Context, conf models.PasswordResetConfirmation) error {
	return c.do(ctx, http.MethodPost, PathResetConfirm, conf, nil)
}

func (c *HTTPClient) Me(ctx context.Context) (*models.User, error) {
	var u models.User
	if err := c.do(ctx, http.MethodGet, PathMe, nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *HTTPClient) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s: %w", path, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, body)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %w", ErrUnavailable, method, path, err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return fmt.Errorf("%w: read %s: %w", ErrUnavailable, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newAPIError(resp.StatusCode, b)
	}

	if out == nil || len(bytes.TrimSpace(b)) == 0 {
		return nil
	}
	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
