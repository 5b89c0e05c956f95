package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
)

// Config holds runtime settings for the gophauth CLI.
//
// Fields:
//   - APIBaseURL: root URL of the authentication API.
//   - StoragePath: SQLite file holding the session credentials.
//   - RequestTimeout: upper bound for one API call, renewal replay included.
//   - SessionCheckInterval: how often the CLI re-verifies the session.
//   - AuthScheme: Authorization header scheme, "Bearer" or "JWT".
//   - LogLevel: debug, info, warn or error.
//   - MetricsAddr: listen address for /metrics; empty disables it.
type Config struct {
	APIBaseURL           string        `env:"GOPHAUTH_API_URL"`
	StoragePath          string        `env:"GOPHAUTH_STORAGE"`
	RequestTimeout       time.Duration `env:"GOPHAUTH_REQUEST_TIMEOUT"`
	SessionCheckInterval time.Duration `env:"GOPHAUTH_SESSION_CHECK_INTERVAL"`
	AuthScheme           string        `env:"GOPHAUTH_AUTH_SCHEME"`
	LogLevel             string        `env:"GOPHAUTH_LOG_LEVEL"`
	MetricsAddr          string        `env:"GOPHAUTH_METRICS_ADDR"`
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.APIBaseURL = "http://127.0.0.1:8000"
	c.StoragePath = "gophauth.db"
	c.RequestTimeout = 15 * time.Second
	c.SessionCheckInterval = time.Minute
	c.AuthScheme = common.SchemeBearer
	c.LogLevel = "info"
	c.MetricsAddr = ""
}

// Validate reports settings the client cannot run with.
func (c *Config) Validate() error {
	var errs []error

	u, err := url.Parse(c.APIBaseURL)
	switch {
	case c.APIBaseURL == "":
		errs = append(errs, errors.New("api base url is empty"))
	case err != nil:
		errs = append(errs, fmt.Errorf("api base url: %w", err))
	case u.Scheme != "http" && u.Scheme != "https":
		errs = append(errs, fmt.Errorf("api base url %q: scheme must be http or https", c.APIBaseURL))
	}

	if c.StoragePath == "" {
		errs = append(errs, errors.New("storage path is empty"))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, fmt.Errorf("request timeout must be positive, got %s", c.RequestTimeout))
	}
	if c.SessionCheckInterval <= 0 {
		errs = append(errs, fmt.Errorf("session check interval must be positive, got %s", c.SessionCheckInterval))
	}
	if c.AuthScheme != common.SchemeBearer && c.AuthScheme != common.SchemeJWT {
		errs = append(errs, fmt.Errorf("auth scheme %q: want %s or %s", c.AuthScheme, common.SchemeBearer, common.SchemeJWT))
	}

	return errors.Join(errs...)
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present), the environment and command-line flags. Later sources
// take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseEnv(cfg)
	parseFlags(cfg)
	return cfg
}
