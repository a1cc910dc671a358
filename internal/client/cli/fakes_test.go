package cli

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/loominal/loominal/internal/client/config"
	"github.com/loominal/loominal/internal/client/models"
	"github.com/loominal/loominal/internal/client/services"
	"github.com/loominal/loominal/internal/client/session"
	"github.com/loominal/loominal/internal/logging"
)

type fakeSession struct {
	authenticated bool
	loading       bool
	identity      *models.Identity
	token         string

	inits, logins, logouts int
}

func signedIn(email string) *fakeSession {
	return &fakeSession{
		authenticated: true,
		identity:      &models.Identity{ID: "auth0|1", Email: email, DisplayName: "Ada Lovelace"},
		token:         "tok-1",
	}
}

func (f *fakeSession) Init(context.Context)   { f.inits++ }
func (f *fakeSession) Login(context.Context)  { f.logins++ }
func (f *fakeSession) Logout(context.Context) { f.logouts++ }
func (f *fakeSession) IsAuthenticated() bool  { return f.authenticated }

func (f *fakeSession) Token(context.Context) (string, bool) {
	return f.token, f.authenticated && f.token != ""
}

func (f *fakeSession) Identity() *models.Identity {
	if f.identity == nil {
		return nil
	}
	id := *f.identity
	return &id
}

func (f *fakeSession) Snapshot() session.Snapshot {
	return session.Snapshot{
		IsAuthenticated: f.authenticated,
		IsLoading:       f.loading,
		Identity:        f.Identity(),
	}
}

type fakeTenancy struct {
	orgs    []models.Organization
	current *models.Organization
	loading bool

	refreshes int
	switched  []int64
	switchErr error
	created   []models.CreateOrganizationRequest
	createErr error
}

func (f *fakeTenancy) Refresh(context.Context) { f.refreshes++ }

func (f *fakeTenancy) Switch(_ context.Context, id int64) error {
	f.switched = append(f.switched, id)
	return f.switchErr
}

func (f *fakeTenancy) Create(_ context.Context, req models.CreateOrganizationRequest) (*models.Organization, error) {
	f.created = append(f.created, req)
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &models.Organization{ID: 99, Name: req.Name, Slug: req.Slug}, nil
}

func (f *fakeTenancy) Organizations() []models.Organization { return f.orgs }
func (f *fakeTenancy) Current() *models.Organization        { return f.current }
func (f *fakeTenancy) IsLoading() bool                      { return f.loading }

type fakeMembers struct {
	members     []models.Member
	invitations []models.Invitation
	err         error

	invited []models.InviteRequest
	revoked []int64
	roles   map[int64]models.Role
	removed []int64
}

var _ services.MembershipService = (*fakeMembers)(nil)

func (f *fakeMembers) Members(context.Context) ([]models.Member, error) {
	return f.members, f.err
}

func (f *fakeMembers) Invitations(context.Context) ([]models.Invitation, error) {
	return f.invitations, f.err
}

func (f *fakeMembers) Invite(_ context.Context, req models.InviteRequest) (*models.Invitation, error) {
	f.invited = append(f.invited, req)
	if f.err != nil {
		return nil, f.err
	}
	return &models.Invitation{ID: 1, Email: req.Email, Role: req.Role, Status: models.InvitationPending}, nil
}

func (f *fakeMembers) Revoke(_ context.Context, id int64) error {
	f.revoked = append(f.revoked, id)
	return f.err
}

func (f *fakeMembers) UpdateRole(_ context.Context, id int64, role models.Role) error {
	if f.roles == nil {
		f.roles = map[int64]models.Role{}
	}
	f.roles[id] = role
	return f.err
}

func (f *fakeMembers) RemoveMember(_ context.Context, id int64) error {
	f.removed = append(f.removed, id)
	return f.err
}

type recordingNotifier struct {
	mu        sync.Mutex
	successes []string
	errs      []string
	infos     []string
}

func (n *recordingNotifier) Success(_ context.Context, msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.successes = append(n.successes, msg)
}

func (n *recordingNotifier) Error(_ context.Context, msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.errs = append(n.errs, msg)
}

func (n *recordingNotifier) Info(_ context.Context, msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.infos = append(n.infos, msg)
}

type fakePinger struct {
	mu  sync.Mutex
	err error
	n   int
}

func (p *fakePinger) Ping(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.n++
	return p.err
}

func (p *fakePinger) setErr(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
}

type fakeLocator struct {
	set []*url.URL
}

func (l *fakeLocator) SetLocation(u *url.URL) { l.set = append(l.set, u) }

type fakeCallback struct {
	location *url.URL
	err      error
	closed   bool
}

func (c *fakeCallback) Wait(context.Context) (*url.URL, error) { return c.location, c.err }
func (c *fakeCallback) Close(context.Context) error            { c.closed = true; return nil }

// testApp bundles an App with the fakes behind it.
type testApp struct {
	*App
	sess     *fakeSession
	ten      *fakeTenancy
	members  *fakeMembers
	notifier *recordingNotifier
	nav      *fakeLocator
	api      *fakePinger
	out      *bytes.Buffer
	reloads  int
}

func newTestApp(t *testing.T, input string) *testApp {
	t.Helper()

	ta := &testApp{
		sess:     &fakeSession{},
		ten:      &fakeTenancy{},
		members:  &fakeMembers{},
		notifier: &recordingNotifier{},
		nav:      &fakeLocator{},
		api:      &fakePinger{},
		out:      &bytes.Buffer{},
	}
	ta.App = &App{
		config: &config.Config{
			AuthDomain:  "tenant.example.com",
			ClientID:    "client-1",
			RedirectURL: "http://127.0.0.1:8765/callback",
		},
		log:      logging.NewDiscardLogger(),
		out:      ta.out,
		reader:   bufio.NewReader(strings.NewReader(input)),
		notifier: ta.notifier,
		api:      ta.api,
		nav:      ta.nav,
		session:  ta.sess,
		tenancy:  ta.ten,
		members:  ta.members,
	}
	ta.App.reload = func(context.Context) { ta.reloads++ }
	ta.App.listen = func(string) (callbackWaiter, error) {
		t.Fatal("unexpected callback listener")
		return nil, nil
	}
	return ta
}

// capturePrintln records everything written through printlnFn.
func capturePrintln(t *testing.T) *strings.Builder {
	t.Helper()
	var b strings.Builder
	orig := printlnFn
	printlnFn = func(a ...any) (int, error) { return fmt.Fprintln(&b, a...) }
	t.Cleanup(func() { printlnFn = orig })
	return &b
}

func silencePrintln(t *testing.T) {
	t.Helper()
	orig := printlnFn
	printlnFn = func(...any) (int, error) { return 0, nil }
	t.Cleanup(func() { printlnFn = orig })
}
