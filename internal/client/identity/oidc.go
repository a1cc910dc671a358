package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/loominal/loominal/internal/client/models"
	"github.com/loominal/loominal/internal/client/prefs"
	"github.com/loominal/loominal/internal/logging"
	"golang.org/x/oauth2"
)

// Cache keys. Everything under cachePrefix is dropped on logout.
const (
	cachePrefix    = "auth."
	tokenKey       = cachePrefix + "token"
	identityKey    = cachePrefix + "identity"
	stateKey       = cachePrefix + "state"
	verifierKey    = cachePrefix + "verifier"
	audienceParam  = "audience"
	idTokenExtra   = "id_token"
	defaultTokType = "Bearer"
)

// tokenSet is the cached form of a token response.
type tokenSet struct {
	AccessToken  string    `json:"access_token"`
	TokenType    string    `json:"token_type,omitempty"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	IDToken      string    `json:"id_token,omitempty"`
	Expiry       time.Time `json:"expiry"`
}

// OIDCProvider implements Provider against an OpenID Connect issuer. Tokens,
// the verified identity and any pending login live in a prefs.KV.
type OIDCProvider struct {
	cfg      Config
	oauth    *oauth2.Config
	provider *oidc.Provider
	verifier *oidc.IDTokenVerifier
	cache    prefs.KV
	log      logging.Logger
	now      func() time.Time

	// refreshMu serializes refresh-and-persist so one refresh token is not
	// spent twice.
	refreshMu sync.Mutex
}

// NewOIDCProvider runs discovery against the issuer and returns a ready
// provider.
func NewOIDCProvider(ctx context.Context, cfg Config, cache prefs.KV, log logging.Logger) (*OIDCProvider, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	p := &OIDCProvider{
		cfg:   cfg,
		cache: cache,
		log:   log.With("component", "identity"),
		now:   time.Now,
	}

	provider, err := oidc.NewProvider(p.clientContext(ctx), cfg.Issuer())
	if err != nil {
		return nil, fmt.Errorf("failed to create OIDC provider: %w", err)
	}

	p.provider = provider
	p.verifier = provider.Verifier(&oidc.Config{ClientID: cfg.ClientID})
	p.oauth = &oauth2.Config{
		ClientID:    cfg.ClientID,
		RedirectURL: cfg.RedirectURL,
		Endpoint:    provider.Endpoint(),
		Scopes:      cfg.scopes(),
	}
	return p, nil
}

// NewFactory binds configuration, cache and logger into a Factory.
func NewFactory(cfg Config, cache prefs.KV, log logging.Logger) Factory {
	return func(ctx context.Context) (Provider, error) {
		return NewOIDCProvider(ctx, cfg, cache, log)
	}
}

func (p *OIDCProvider) clientContext(ctx context.Context) context.Context {
	if p.cfg.HTTPClient == nil {
		return ctx
	}
	return oidc.ClientContext(ctx, p.cfg.HTTPClient)
}

func (p *OIDCProvider) IsAuthenticated(ctx context.Context) bool {
	ts, ok := p.loadTokens(ctx)
	if !ok || ts.AccessToken == "" {
		return false
	}
	if _, ok := p.cache.Get(ctx, identityKey); !ok {
		return false
	}
	return ts.RefreshToken != "" || !p.expired(ts, 0)
}

func (p *OIDCProvider) User(ctx context.Context) (*models.Identity, error) {
	raw, ok := p.cache.Get(ctx, identityKey)
	if !ok {
		return nil, nil
	}
	var id models.Identity
	if err := json.Unmarshal([]byte(raw), &id); err != nil {
		return nil, fmt.Errorf("decode cached identity: %w", err)
	}
	return &id, nil
}

func (p *OIDCProvider) LoginURL(ctx context.Context) (string, error) {
	state := uuid.NewString()
	verifier := oauth2.GenerateVerifier()

	if !p.cache.Set(ctx, stateKey, state) || !p.cache.Set(ctx, verifierKey, verifier) {
		return "", errors.New("cannot store pending login")
	}

	opts := []oauth2.AuthCodeOption{oauth2.S256ChallengeOption(verifier)}
	if p.cfg.Audience != "" {
		opts = append(opts, oauth2.SetAuthURLParam(audienceParam, p.cfg.Audience))
	}
	return p.oauth.AuthCodeURL(state, opts...), nil
}

func (p *OIDCProvider) HandleRedirectCallback(ctx context.Context, callback *url.URL) error {
	wantState, _ := p.cache.Get(ctx, stateKey)
	verifier, _ := p.cache.Get(ctx, verifierKey)
	p.cache.Delete(ctx, stateKey)
	p.cache.Delete(ctx, verifierKey)

	q := callback.Query()
	if e := q.Get("error"); e != "" {
		return fmt.Errorf("%w: %s: %s", ErrAuthorization, e, q.Get("error_description"))
	}
	code := q.Get("code")
	if code == "" {
		return ErrMissingCode
	}
	if wantState == "" || q.Get("state") != wantState {
		return ErrStateMismatch
	}

	tok, err := p.oauth.Exchange(p.clientContext(ctx), code, oauth2.VerifierOption(verifier))
	if err != nil {
		return fmt.Errorf("failed to exchange code for token: %w", err)
	}

	rawID, _ := tok.Extra(idTokenExtra).(string)
	if rawID == "" {
		return errors.New("token response has no id_token")
	}
	idToken, err := p.verifier.Verify(p.clientContext(ctx), rawID)
	if err != nil {
		return fmt.Errorf("failed to verify ID token: %w", err)
	}
	identity, err := identityFromToken(idToken)
	if err != nil {
		return err
	}

	ts, err := json.Marshal(p.fromOAuth(tok, tokenSet{}))
	if err != nil {
		return fmt.Errorf("encode token set: %w", err)
	}
	id, err := json.Marshal(identity)
	if err != nil {
		return fmt.Errorf("encode identity: %w", err)
	}
	// Token set and identity are stored together or not at all.
	if !p.cache.SetAll(ctx, map[string]string{tokenKey: string(ts), identityKey: string(id)}) {
		return errors.New("cannot store session")
	}

	p.log.Info(ctx, "login completed", "sub", identity.ID)
	return nil
}

func identityFromToken(t *oidc.IDToken) (*models.Identity, error) {
	var claims struct {
		Sub      string `json:"sub"`
		Email    string `json:"email"`
		Name     string `json:"name"`
		Nickname string `json:"nickname"`
		Picture  string `json:"picture"`
	}
	if err := t.Claims(&claims); err != nil {
		return nil, fmt.Errorf("failed to parse ID token claims: %w", err)
	}
	if claims.Sub == "" {
		return nil, errors.New("ID token missing 'sub' claim")
	}

	name := claims.Name
	if name == "" {
		name = claims.Nickname
	}
	return &models.Identity{
		ID:          claims.Sub,
		Email:       claims.Email,
		DisplayName: name,
		PictureURL:  claims.Picture,
	}, nil
}

func (p *OIDCProvider) TokenSilently(ctx context.Context) (string, error) {
	ts, ok := p.loadTokens(ctx)
	if !ok || ts.AccessToken == "" {
		return "", ErrNotAuthenticated
	}
	if !p.expired(ts, p.cfg.leeway()) {
		return ts.AccessToken, nil
	}

	p.refreshMu.Lock()
	defer p.refreshMu.Unlock()

	// Another caller may have refreshed while we waited.
	if cur, ok := p.loadTokens(ctx); ok && cur.AccessToken != ts.AccessToken && !p.expired(cur, p.cfg.leeway()) {
		return cur.AccessToken, nil
	}

	if ts.RefreshToken == "" {
		return "", fmt.Errorf("%w: no refresh token cached", ErrRefreshFailed)
	}

	src := p.oauth.TokenSource(p.clientContext(ctx), &oauth2.Token{RefreshToken: ts.RefreshToken})
	tok, err := src.Token()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRefreshFailed, err)
	}

	next := p.fromOAuth(tok, ts)
	if !p.saveTokens(ctx, next) {
		p.log.Warn(ctx, "refreshed token could not be cached")
	}
	p.log.Debug(ctx, "access token refreshed", "expiry", next.Expiry)
	return next.AccessToken, nil
}

func (p *OIDCProvider) LogoutURL(ctx context.Context, returnTo string) (string, error) {
	ts, _ := p.loadTokens(ctx)
	p.cache.DeletePrefix(ctx, cachePrefix)

	if endpoint := p.endSessionEndpoint(); endpoint != "" {
		u, err := url.Parse(endpoint)
		if err != nil {
			return "", fmt.Errorf("parse end_session_endpoint: %w", err)
		}
		q := u.Query()
		q.Set("client_id", p.cfg.ClientID)
		q.Set("post_logout_redirect_uri", returnTo)
		if ts.IDToken != "" {
			q.Set("id_token_hint", ts.IDToken)
		}
		u.RawQuery = q.Encode()
		return u.String(), nil
	}

	u, err := p.cfg.legacyLogoutURL()
	if err != nil {
		return "", err
	}
	q := url.Values{}
	q.Set("client_id", p.cfg.ClientID)
	q.Set("returnTo", returnTo)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// endSessionEndpoint returns the discovery document's end_session_endpoint,
// or "" when the provider does not advertise one.
func (p *OIDCProvider) endSessionEndpoint() string {
	var claims struct {
		EndSessionEndpoint string `json:"end_session_endpoint"`
	}
	if err := p.provider.Claims(&claims); err != nil {
		return ""
	}
	return claims.EndSessionEndpoint
}

func (p *OIDCProvider) loadTokens(ctx context.Context) (tokenSet, bool) {
	raw, ok := p.cache.Get(ctx, tokenKey)
	if !ok {
		return tokenSet{}, false
	}
	var ts tokenSet
	if err := json.Unmarshal([]byte(raw), &ts); err != nil {
		p.log.Warn(ctx, "cached token set is corrupt", "error", err)
		return tokenSet{}, false
	}
	return ts, true
}

func (p *OIDCProvider) saveTokens(ctx context.Context, ts tokenSet) bool {
	b, err := json.Marshal(ts)
	if err != nil {
		return false
	}
	return p.cache.Set(ctx, tokenKey, string(b))
}

// fromOAuth converts a token response, keeping prev's refresh and ID tokens
// when the response omits them (refresh responses often do).
func (p *OIDCProvider) fromOAuth(tok *oauth2.Token, prev tokenSet) tokenSet {
	ts := tokenSet{
		AccessToken:  tok.AccessToken,
		TokenType:    tok.TokenType,
		RefreshToken: tok.RefreshToken,
		Expiry:       tok.Expiry,
	}
	if ts.TokenType == "" {
		ts.TokenType = defaultTokType
	}
	if ts.RefreshToken == "" {
		ts.RefreshToken = prev.RefreshToken
	}
	if id, _ := tok.Extra(idTokenExtra).(string); id != "" {
		ts.IDToken = id
	} else {
		ts.IDToken = prev.IDToken
	}
	if ts.Expiry.IsZero() {
		ts.Expiry = jwtExpiry(ts.AccessToken)
	}
	return ts
}

// jwtExpiry reads the exp claim of a JWT access token without verifying it.
// Opaque tokens yield the zero time.
func jwtExpiry(raw string) time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}

// expired reports whether ts expires within leeway. Unknown expiry counts as
// valid.
func (p *OIDCProvider) expired(ts tokenSet, leeway time.Duration) bool {
	if ts.Expiry.IsZero() {
		return false
	}
	return !p.now().Add(leeway).Before(ts.Expiry)
}

var _ Provider = (*OIDCProvider)(nil)
