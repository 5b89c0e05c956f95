package cli

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/client/client"
	"github.com/dmitrijs2005/gophauth/internal/client/config"
	"github.com/dmitrijs2005/gophauth/internal/client/credentials"
	"github.com/dmitrijs2005/gophauth/internal/client/events"
	"github.com/dmitrijs2005/gophauth/internal/client/metrics"
	"github.com/dmitrijs2005/gophauth/internal/client/renewal"
	"github.com/dmitrijs2005/gophauth/internal/client/repositories"
	"github.com/dmitrijs2005/gophauth/internal/client/services"
	"github.com/dmitrijs2005/gophauth/internal/client/session"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
)

// stateReader is the read side of the session tracker.
type stateReader interface {
	State() session.State
}

type App struct {
	config      *config.Config
	log         logging.Logger
	authService services.AuthService
	tracker     stateReader
	registry    *prometheus.Registry
	reader      *bufio.Reader
	out         io.Writer

	closers []func() error
}

func NewApp(ctx context.Context, c *config.Config, log logging.Logger) (*App, error) {
	if log == nil {
		log = logging.Discard()
	}

	db, err := repositories.InitDatabase(ctx, c.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("error initializing database: %w", err)
	}

	app, err := newApp(c, log, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return app, nil
}

func newApp(c *config.Config, log logging.Logger, db *sql.DB) (*App, error) {
	store := credentials.NewSQLiteStore(db, log)
	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	api, err := client.NewHTTPClient(c.APIBaseURL, store, client.Options{
		Scheme:  c.AuthScheme,
		Timeout: c.RequestTimeout,
		Metrics: m,
		Logger:  log,
	})
	if err != nil {
		return nil, err
	}

	bus := events.NewBus()

	coord := renewal.NewCoordinator(store, api, bus, m, log)
	coord.OnSessionExpired = func(context.Context, error) {
		printlnFn("Session expired, please log in again.")
	}
	api.SetRenewer(coord)

	as := services.NewAuthService(api, store, coord, bus, log)
	tracker := session.NewTracker(bus)

	evLog := log.With("component", "events")
	bus.Subscribe(func(ctx context.Context, e events.Event) {
		evLog.Debug(ctx, "event", "type", string(e.Type), "message", e.Message)
	})

	return &App{
		config:      c,
		log:         log,
		authService: as,
		tracker:     tracker,
		registry:    registry,
		reader:      bufio.NewReader(os.Stdin),
		out:         os.Stdout,
		closers:     []func() error{func() error { tracker.Stop(); return nil }, db.Close},
	}, nil
}

// Run starts the optional metrics endpoint and blocks in the REPL until the
// user exits or ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if a.config.MetricsAddr != "" {
		go func() {
			if err := a.serveMetrics(ctx, a.config.MetricsAddr); err != nil {
				a.log.Error(ctx, "metrics server", "error", err)
			}
		}()
	}

	a.Root(ctx)
	return a.Close(ctx)
}

func (a *App) Close(ctx context.Context) error {
	errs := []error{a.authService.Close(ctx)}
	for _, c := range a.closers {
		errs = append(errs, c())
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *App) isLoggedIn() bool {
	return a.tracker.State().Auth == session.Authenticated
}

// restoreSession checks the stored access token and loads the profile
// concurrently, the way the client starts up.
func (a *App) restoreSession(ctx context.Context) {
	var g errgroup.Group
	g.Go(func() error {
		a.authService.CheckAuthenticated(ctx)
		return nil
	})
	g.Go(func() error {
		_, _ = a.authService.LoadCurrentUser(ctx)
		return nil
	})
	_ = g.Wait()
}

// StartSessionWatcher re-checks the session every interval while logged in,
// which renews the access token before the user needs it.
func (a *App) StartSessionWatcher(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if !a.isLoggedIn() {
				continue
			}
			a.checkSession(ctx)

		case <-ctx.Done():
			return
		}
	}
}

func (a *App) checkSession(ctx context.Context) {
	timeout := a.config.RequestTimeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if !a.authService.CheckAuthenticated(cctx) {
		a.log.Warn(ctx, "session check failed")
	}
}
