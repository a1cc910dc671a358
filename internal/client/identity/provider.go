// Package identity is the client's side of the OAuth identity provider: the
// contract the session relies on and an OpenID Connect implementation using
// the authorization-code flow with PKCE.
package identity

import (
	"context"
	"errors"
	"net/url"

	"github.com/loominal/loominal/internal/client/models"
)

var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrRefreshFailed    = errors.New("token refresh failed")
	ErrStateMismatch    = errors.New("authorization state mismatch")
	ErrMissingCode      = errors.New("authorization code missing")
	ErrAuthorization    = errors.New("authorization rejected by provider")
)

// Provider is an initialized identity-provider client.
type Provider interface {
	// IsAuthenticated reports whether a usable session is cached.
	IsAuthenticated(ctx context.Context) bool

	// User returns the cached identity, or nil when there is none.
	User(ctx context.Context) (*models.Identity, error)

	// LoginURL prepares a login and returns the authorization URL to visit.
	LoginURL(ctx context.Context) (string, error)

	// LogoutURL forgets the local session and returns the provider's sign-out
	// URL, which sends the user back to returnTo.
	LogoutURL(ctx context.Context, returnTo string) (string, error)

	// TokenSilently returns an access token, refreshing it if it is close to
	// expiry.
	TokenSilently(ctx context.Context) (string, error)

	// HandleRedirectCallback completes a login from the URL the provider
	// redirected back to.
	HandleRedirectCallback(ctx context.Context, callback *url.URL) error
}

// Factory constructs a Provider. It may fail, e.g. when discovery is
// unreachable.
type Factory func(ctx context.Context) (Provider, error)
