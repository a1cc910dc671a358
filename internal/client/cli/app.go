package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"sync"
	"time"

	"github.com/loominal/loominal/internal/client/browser"
	"github.com/loominal/loominal/internal/client/client"
	"github.com/loominal/loominal/internal/client/config"
	"github.com/loominal/loominal/internal/client/identity"
	"github.com/loominal/loominal/internal/client/models"
	"github.com/loominal/loominal/internal/client/notify"
	"github.com/loominal/loominal/internal/client/prefs"
	"github.com/loominal/loominal/internal/client/repositories/metadata"
	"github.com/loominal/loominal/internal/client/services"
	"github.com/loominal/loominal/internal/client/session"
	"github.com/loominal/loominal/internal/client/storage"
	"github.com/loominal/loominal/internal/client/tenancy"
	"github.com/loominal/loominal/internal/filex"
	"github.com/loominal/loominal/internal/logging"
	"golang.org/x/term"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

const (
	dbFileName  = "loominal.db"
	logFileName = "loominal.log"

	pingTimeout  = 3 * time.Second
	loginTimeout = 5 * time.Minute
)

// sessionView is what the REPL needs from session.Manager.
type sessionView interface {
	Init(ctx context.Context)
	Login(ctx context.Context)
	Logout(ctx context.Context)
	Token(ctx context.Context) (string, bool)
	IsAuthenticated() bool
	Identity() *models.Identity
	Snapshot() session.Snapshot
}

// tenancyView is what the REPL needs from tenancy.Manager.
type tenancyView interface {
	Refresh(ctx context.Context)
	Switch(ctx context.Context, id int64) error
	Create(ctx context.Context, req models.CreateOrganizationRequest) (*models.Organization, error)
	Organizations() []models.Organization
	Current() *models.Organization
	IsLoading() bool
}

type pinger interface {
	Ping(ctx context.Context) error
}

// locator is the navigator as seen by the login flow.
type locator interface {
	SetLocation(u *url.URL)
}

// callbackWaiter receives one identity-provider redirect.
type callbackWaiter interface {
	Wait(ctx context.Context) (*url.URL, error)
	Close(ctx context.Context) error
}

type App struct {
	config   *config.Config
	log      logging.Logger
	out      io.Writer
	reader   *bufio.Reader
	notifier notify.Notifier
	api      pinger
	nav      locator

	// listen opens the loopback callback listener; reload rebuilds the
	// session and organization state, as a page reload would.
	listen func(redirectURL string) (callbackWaiter, error)
	reload func(ctx context.Context)
	closer func() error

	mu      sync.RWMutex
	session sessionView
	tenancy tenancyView
	members services.MembershipService
	mode    Mode
}

// NewApp wires the client: log file and local database in the data
// directory, the API client, the identity provider and the navigator.
// The session is not started until Run.
func NewApp(c *config.Config) (*App, error) {
	ctx := context.Background()

	logPath, err := filex.DataFile(c.DataDir, logFileName)
	if err != nil {
		return nil, err
	}
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	log := logging.NewTextLogger(logFile, parseLevel(c.LogLevel))

	api, err := client.NewHTTPClient(c.APIBaseURL,
		client.WithTimeout(c.RequestTimeout),
		client.WithLogger(log),
	)
	if err != nil {
		_ = logFile.Close()
		return nil, err
	}

	redirect, err := url.Parse(c.RedirectURL)
	if err != nil {
		_ = logFile.Close()
		return nil, fmt.Errorf("parse redirect url: %w", err)
	}
	origin, _ := url.Parse(browser.Origin(redirect))

	store, db := openStore(ctx, c.DataDir, log)

	out := os.Stdout
	nav := browser.NewSystemNavigator(origin, out, term.IsTerminal(int(os.Stdout.Fd())), log)
	factory := providerFactory(c, store, log)

	a := &App{
		config:   c,
		log:      log.With("component", "cli"),
		out:      out,
		reader:   bufio.NewReader(os.Stdin),
		notifier: notify.NewTerminal(out),
		api:      api,
		nav:      nav,
		mode:     ModeOffline,
	}
	a.listen = func(redirectURL string) (callbackWaiter, error) {
		return browser.ListenCallback(redirectURL, log)
	}
	a.reload = func(ctx context.Context) {
		a.bootstrap(ctx, factory, nav, api, store, log)
	}
	a.closer = func() error {
		if db != nil {
			_ = db.Close()
		}
		return logFile.Close()
	}
	return a, nil
}

// openStore backs preferences with the local database, or with memory when
// the database cannot be opened.
func openStore(ctx context.Context, dataDir string, log logging.Logger) (prefs.KV, *sql.DB) {
	dsn, err := filex.DataFile(dataDir, dbFileName)
	if err == nil {
		var db *sql.DB
		if db, err = storage.OpenDatabase(ctx, dsn); err == nil {
			return prefs.NewStore(metadata.NewSQLiteRepository(db), log), db
		}
	}
	log.Warn(ctx, "local database unavailable, preferences will not persist", "error", err)
	return prefs.NewMemory(), nil
}

func providerFactory(c *config.Config, store prefs.KV, log logging.Logger) identity.Factory {
	if !c.AuthConfigured() {
		return func(context.Context) (identity.Provider, error) {
			return nil, fmt.Errorf("identity provider is not configured")
		}
	}
	return identity.NewFactory(identity.Config{
		Domain:        c.AuthDomain,
		IssuerURL:     c.AuthIssuerURL,
		ClientID:      c.ClientID,
		Audience:      c.Audience,
		RedirectURL:   c.RedirectURL,
		RefreshLeeway: c.TokenRefreshLeeway,
		HTTPClient:    &http.Client{Timeout: c.RequestTimeout},
	}, store, log)
}

func parseLevel(s string) slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

// bootstrap builds a fresh session and organization context and runs their
// initial handshake. The API client follows the new instances.
func (a *App) bootstrap(ctx context.Context, factory identity.Factory, nav browser.Navigator, api *client.HTTPClient, store prefs.KV, log logging.Logger) {
	sess := session.NewManager(factory, nav, log)
	ten := tenancy.NewManager(sess, api, store, a.notifier, log)
	api.SetTokenSource(sess)
	api.SetOrganizationSource(ten)

	a.mu.Lock()
	a.session = sess
	a.tenancy = ten
	a.members = services.NewMembershipService(api, ten)
	a.mu.Unlock()

	sess.Init(ctx)
	ten.Refresh(ctx)
}

func (a *App) state() (sessionView, tenancyView, services.MembershipService) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.session, a.tenancy, a.members
}

func (a *App) Mode() Mode {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.mode
}

func (a *App) setMode(ctx context.Context, mode Mode) {
	a.mu.Lock()
	changed := a.mode != mode
	a.mode = mode
	a.mu.Unlock()
	if changed {
		a.log.Info(ctx, "connectivity changed", "mode", mode)
	}
}

func (a *App) isLoggedIn() bool {
	sess, _, _ := a.state()
	return sess != nil && sess.IsAuthenticated()
}

// Run starts the session, the connectivity watcher and the REPL, and blocks
// until the user exits.
func (a *App) Run(ctx context.Context) {
	defer func() {
		if a.closer != nil {
			_ = a.closer()
		}
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	a.checkOnline(ctx)
	a.reload(ctx)
	go a.StartOnlineStatusWatcher(ctx, a.config.OnlineCheckInterval)

	a.Root(ctx)
}

func (a *App) checkOnline(ctx context.Context) {
	pctx, cancel := context.WithTimeout(ctx, pingTimeout)
	err := a.api.Ping(pctx)
	cancel()

	if err != nil {
		a.log.Debug(ctx, "health check failed", "error", err)
		a.setMode(ctx, ModeOffline)
		return
	}
	a.setMode(ctx, ModeOnline)
}

// StartOnlineStatusWatcher pings the backend every interval until ctx is
// done.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.checkOnline(ctx)
		case <-ctx.Done():
			return
		}
	}
}
