// Package session owns the authentication state of one client bootstrap and
// mediates every access to the identity provider.
//
// A Manager moves Uninitialized -> Initializing -> Authenticated or
// Unauthenticated exactly once. Provider failures never escape it: they are
// logged and the session falls back to Unauthenticated, and Token reports
// "no token" instead of an error.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/loominal/loominal/internal/client/browser"
	"github.com/loominal/loominal/internal/client/identity"
	"github.com/loominal/loominal/internal/client/models"
	"github.com/loominal/loominal/internal/logging"
	"golang.org/x/sync/singleflight"
)

type State int

const (
	Uninitialized State = iota
	Initializing
	Authenticated
	Unauthenticated
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Initializing:
		return "initializing"
	case Authenticated:
		return "authenticated"
	case Unauthenticated:
		return "unauthenticated"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// refreshTimeout bounds one shared silent refresh. Callers that give up
// early do not cancel it, so without a bound a hung provider would block
// every later Token call.
const refreshTimeout = 15 * time.Second

// callbackParams are stripped from the location once a redirect is handled.
var callbackParams = []string{"code", "state", "error", "error_description"}

// Snapshot is a consistent view of the session.
type Snapshot struct {
	State           State
	IsAuthenticated bool
	IsLoading       bool
	Identity        *models.Identity
}

type Manager struct {
	factory identity.Factory
	nav     browser.Navigator
	log     logging.Logger

	initOnce       sync.Once
	tokens         singleflight.Group
	refreshTimeout time.Duration

	mu       sync.RWMutex
	state    State
	identity *models.Identity
	provider identity.Provider
}

func NewManager(factory identity.Factory, nav browser.Navigator, log logging.Logger) *Manager {
	return &Manager{
		factory: factory,
		nav:     nav,
		log:     log.With("component", "session"),
		state:   Uninitialized,

		refreshTimeout: refreshTimeout,
	}
}

// Init runs the initial handshake. Only the first call does any work; calls
// made while it is running wait for it to finish, then return.
func (m *Manager) Init(ctx context.Context) {
	m.initOnce.Do(func() { m.init(ctx) })
}

func (m *Manager) init(ctx context.Context) {
	m.mu.Lock()
	m.state = Initializing
	m.mu.Unlock()

	if m.hasCallback() {
		defer m.stripCallback()
	}

	p, id := m.handshake(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.provider = p
	if id != nil {
		m.state = Authenticated
		m.identity = id
	} else {
		m.state = Unauthenticated
		m.identity = nil
	}
	m.log.Info(ctx, "session initialized", "state", m.state)
}

func (m *Manager) handshake(ctx context.Context) (p identity.Provider, id *models.Identity) {
	defer func() {
		if r := recover(); r != nil {
			m.log.Error(ctx, "identity provider panicked during initialization", "panic", r)
			id = nil
		}
	}()

	p, err := m.factory(ctx)
	if err != nil {
		m.log.Error(ctx, "identity provider unavailable", "error", err)
		return nil, nil
	}
	if p == nil {
		m.log.Error(ctx, "identity provider factory returned nothing")
		return nil, nil
	}

	if m.hasCallback() {
		if err := p.HandleRedirectCallback(ctx, m.nav.Location()); err != nil {
			m.log.Warn(ctx, "redirect callback failed", "error", err)
		}
	}

	if !p.IsAuthenticated(ctx) {
		return p, nil
	}
	id, err = p.User(ctx)
	if err != nil {
		m.log.Warn(ctx, "cannot load identity", "error", err)
		return p, nil
	}
	return p, id
}

func (m *Manager) hasCallback() bool {
	q := m.nav.Location().Query()
	return q.Get("code") != "" && q.Get("state") != ""
}

func (m *Manager) stripCallback() {
	loc := m.nav.Location()
	q := loc.Query()
	for _, k := range callbackParams {
		q.Del(k)
	}
	loc.RawQuery = q.Encode()
	m.nav.Replace(loc)
}

// ready returns the provider once the handshake has resolved.
func (m *Manager) ready() (identity.Provider, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.state == Uninitialized || m.state == Initializing || m.provider == nil {
		return nil, false
	}
	return m.provider, true
}

// Login hands the provider's authorization URL to the navigator. It does
// nothing while the session is loading or without a provider.
func (m *Manager) Login(ctx context.Context) {
	p, ok := m.ready()
	if !ok {
		return
	}
	m.guard(ctx, "login", func() {
		target, err := p.LoginURL(ctx)
		if err != nil {
			m.log.Error(ctx, "cannot start login", "error", err)
			return
		}
		if err := m.nav.Navigate(ctx, target); err != nil {
			m.log.Error(ctx, "cannot navigate to login", "error", err)
		}
	})
}

// Logout hands the provider's sign-out URL to the navigator, returning the
// user to the application origin.
func (m *Manager) Logout(ctx context.Context) {
	p, ok := m.ready()
	if !ok {
		return
	}
	m.guard(ctx, "logout", func() {
		target, err := p.LogoutURL(ctx, browser.Origin(m.nav.Location()))
		if err != nil {
			m.log.Error(ctx, "cannot start logout", "error", err)
			return
		}
		if err := m.nav.Navigate(ctx, target); err != nil {
			m.log.Error(ctx, "cannot navigate to logout", "error", err)
		}
	})
}

// Token returns a bearer token, or ok=false when none is available. It never
// fails: callers proceed unauthenticated on false. Concurrent callers share
// a single silent refresh.
func (m *Manager) Token(ctx context.Context) (token string, ok bool) {
	p, ready := m.ready()
	if !ready || !m.IsAuthenticated() {
		return "", false
	}

	ch := m.tokens.DoChan("token", func() (any, error) {
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.refreshTimeout)
		defer cancel()
		return m.tokenSilently(rctx, p)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			m.log.Debug(ctx, "no token available", "error", res.Err)
			return "", false
		}
		token, _ = res.Val.(string)
		return token, token != ""
	case <-ctx.Done():
		return "", false
	}
}

func (m *Manager) tokenSilently(ctx context.Context, p identity.Provider) (token string, err error) {
	defer func() {
		if r := recover(); r != nil {
			token, err = "", fmt.Errorf("token provider panicked: %v", r)
		}
	}()
	return p.TokenSilently(ctx)
}

func (m *Manager) guard(ctx context.Context, op string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			m.log.Error(ctx, "identity provider panicked", "op", op, "panic", r)
		}
	}()
	fn()
}

func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

func (m *Manager) IsAuthenticated() bool {
	return m.State() == Authenticated
}

// IsLoading is true until the handshake resolves, then false for good.
func (m *Manager) IsLoading() bool {
	s := m.State()
	return s == Uninitialized || s == Initializing
}

// Identity returns a copy of the signed-in identity, or nil.
func (m *Manager) Identity() *models.Identity {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.identity == nil {
		return nil
	}
	id := *m.identity
	return &id
}

func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snap := Snapshot{
		State:           m.state,
		IsAuthenticated: m.state == Authenticated,
		IsLoading:       m.state == Uninitialized || m.state == Initializing,
	}
	if m.identity != nil {
		id := *m.identity
		snap.Identity = &id
	}
	return snap
}
