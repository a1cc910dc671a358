// Package tenancy keeps the list of organizations the signed-in identity
// belongs to and which one is selected. The selection survives restarts
// through a prefs.KV.
package tenancy

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"sync"

	"github.com/loominal/loominal/internal/client/client"
	"github.com/loominal/loominal/internal/client/models"
	"github.com/loominal/loominal/internal/client/notify"
	"github.com/loominal/loominal/internal/client/prefs"
	"github.com/loominal/loominal/internal/common"
	"github.com/loominal/loominal/internal/logging"
)

var ErrOrganizationNotFound = errors.New("organization not found")

// Authenticator reports whether a session is established.
type Authenticator interface {
	IsAuthenticated() bool
}

// OrganizationsAPI is the slice of the backend the manager needs.
type OrganizationsAPI interface {
	ListOrganizations(ctx context.Context) ([]models.Organization, error)
	CreateOrganization(ctx context.Context, req models.CreateOrganizationRequest) (*models.Organization, error)
}

// SwitchConfirmer asks the backend to accept a switch. A failure rolls the
// selection back.
type SwitchConfirmer func(ctx context.Context, org models.Organization) error

type Option func(*Manager)

func WithSwitchConfirmer(c SwitchConfirmer) Option {
	return func(m *Manager) { m.confirm = c }
}

// refreshHandle identifies one refresh. Only the installed handle may apply
// its result.
type refreshHandle struct {
	cancel context.CancelFunc
}

type Manager struct {
	auth     Authenticator
	api      OrganizationsAPI
	store    prefs.KV
	notifier notify.Notifier
	log      logging.Logger
	confirm  SwitchConfirmer

	mu            sync.Mutex
	organizations []models.Organization
	current       *models.Organization
	loading       bool
	inflight      *refreshHandle
}

func NewManager(auth Authenticator, api OrganizationsAPI, store prefs.KV, notifier notify.Notifier, log logging.Logger, opts ...Option) *Manager {
	m := &Manager{
		auth:     auth,
		api:      api,
		store:    store,
		notifier: notifier,
		log:      log.With("component", "tenancy"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Refresh reloads the organization list. A newer call supersedes an older
// one: the older call's context is cancelled and its result, whatever it
// is, is discarded. Without a session the state is cleared and nothing is
// fetched.
func (m *Manager) Refresh(ctx context.Context) {
	if !m.auth.IsAuthenticated() {
		m.mu.Lock()
		m.supersedeLocked()
		m.organizations = nil
		m.current = nil
		m.loading = false
		m.mu.Unlock()
		return
	}

	rctx, cancel := context.WithCancel(ctx)
	defer cancel()
	h := &refreshHandle{cancel: cancel}

	m.mu.Lock()
	m.supersedeLocked()
	m.inflight = h
	m.loading = true
	m.mu.Unlock()

	orgs, err := m.api.ListOrganizations(rctx)

	m.mu.Lock()
	if m.inflight != h {
		m.mu.Unlock()
		m.log.Debug(ctx, "superseded refresh discarded", "error", err)
		return
	}
	m.inflight = nil
	m.loading = false

	if err != nil {
		m.mu.Unlock()
		m.reportRefreshError(ctx, err)
		return
	}

	m.organizations = slices.Clone(orgs)
	persisted, ok := m.persistedID(ctx)
	m.current = Resolve(m.organizations, persisted, ok)
	if m.current != nil {
		m.persistLocked(ctx, m.current.ID)
	}
	count, current := len(m.organizations), m.current
	m.mu.Unlock()

	if current != nil {
		m.log.Info(ctx, "organizations refreshed", "count", count, "current", current.ID)
	} else {
		m.log.Info(ctx, "organizations refreshed", "count", count)
	}
}

func (m *Manager) supersedeLocked() {
	if m.inflight != nil {
		m.inflight.cancel()
		m.inflight = nil
	}
}

func (m *Manager) reportRefreshError(ctx context.Context, err error) {
	switch {
	case errors.Is(err, context.Canceled) && ctx.Err() != nil:
		m.log.Debug(ctx, "refresh cancelled by caller")
	case errors.Is(err, client.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		m.log.Warn(ctx, "organization refresh timed out", "error", err)
		m.notifier.Error(ctx, "Loading organizations timed out, please try again")
	default:
		m.log.Error(ctx, "organization refresh failed", "error", err)
		m.notifier.Error(ctx, "Failed to load organizations")
	}
}

// Switch selects a listed organization. The in-memory change is visible
// when Switch returns.
func (m *Manager) Switch(ctx context.Context, id int64) error {
	m.mu.Lock()
	idx := slices.IndexFunc(m.organizations, func(o models.Organization) bool { return o.ID == id })
	if idx < 0 {
		m.mu.Unlock()
		m.notifier.Error(ctx, "Organization not found")
		return fmt.Errorf("%w: %d", ErrOrganizationNotFound, id)
	}

	previous := m.current
	next := m.organizations[idx]
	m.current = &next
	m.persistLocked(ctx, next.ID)
	confirm := m.confirm
	m.mu.Unlock()

	if confirm != nil {
		if err := confirm(ctx, next); err != nil {
			m.rollback(ctx, next.ID, previous)
			m.log.Warn(ctx, "organization switch rejected", "id", id, "error", err)
			m.notifier.Error(ctx, "Failed to switch organization")
			return err
		}
	}

	m.log.Info(ctx, "organization switched", "id", id)
	m.notifier.Success(ctx, "Switched to "+next.Name)
	return nil
}

// rollback restores previous unless the selection moved on since.
func (m *Manager) rollback(ctx context.Context, attempted int64, previous *models.Organization) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil || m.current.ID != attempted {
		return
	}
	m.current = previous
	if previous != nil {
		m.persistLocked(ctx, previous.ID)
	} else if !m.store.Delete(ctx, common.CurrentOrganizationKey) {
		m.log.Warn(ctx, "cannot clear persisted organization")
	}
}

// Create posts a new organization and selects it. Unlike the other
// operations it returns the failure to the caller.
func (m *Manager) Create(ctx context.Context, req models.CreateOrganizationRequest) (*models.Organization, error) {
	org, err := m.api.CreateOrganization(ctx, req)
	if err != nil {
		m.log.Error(ctx, "create organization failed", "slug", req.Slug, "error", err)
		m.notifier.Error(ctx, "Failed to create organization: "+client.MessageOf(err))
		return nil, err
	}

	m.mu.Lock()
	m.organizations = append(slices.Clone(m.organizations), *org)
	created := *org
	m.current = &created
	m.persistLocked(ctx, created.ID)
	m.mu.Unlock()

	m.log.Info(ctx, "organization created", "id", created.ID, "slug", created.Slug)
	m.notifier.Success(ctx, "Created organization "+created.Name)
	out := created
	return &out, nil
}

func (m *Manager) persistedID(ctx context.Context) (int64, bool) {
	raw, ok := m.store.Get(ctx, common.CurrentOrganizationKey)
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		m.log.Debug(ctx, "ignoring unparsable persisted organization", "value", raw)
		return 0, false
	}
	return id, true
}

func (m *Manager) persistLocked(ctx context.Context, id int64) {
	if !m.store.Set(ctx, common.CurrentOrganizationKey, strconv.FormatInt(id, 10)) {
		m.log.Warn(ctx, "cannot persist selected organization", "id", id)
	}
}

// Organizations returns a copy of the list in server order.
func (m *Manager) Organizations() []models.Organization {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.organizations)
}

// Current returns a copy of the selected organization, or nil.
func (m *Manager) Current() *models.Organization {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return nil
	}
	c := *m.current
	return &c
}

func (m *Manager) IsLoading() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loading
}

// CurrentOrganizationID implements client.OrganizationSource.
func (m *Manager) CurrentOrganizationID() (int64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return 0, false
	}
	return m.current.ID, true
}

var _ client.OrganizationSource = (*Manager)(nil)
