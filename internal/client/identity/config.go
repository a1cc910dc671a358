package identity

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var DefaultScopes = []string{"openid", "profile", "email", "offline_access"}

const DefaultRefreshLeeway = 60 * time.Second

type Config struct {
	// Domain is the provider's host, e.g. "loominal.eu.auth0.com".
	Domain string
	// IssuerURL overrides the issuer derived from Domain.
	IssuerURL   string
	ClientID    string
	Audience    string
	RedirectURL string
	Scopes      []string

	// RefreshLeeway is how long before expiry a cached token is refreshed.
	RefreshLeeway time.Duration

	HTTPClient *http.Client
}

// Issuer returns the OIDC issuer: IssuerURL when set, else "https://<Domain>/".
func (c Config) Issuer() string {
	if c.IssuerURL != "" {
		return c.IssuerURL
	}
	return "https://" + strings.Trim(c.Domain, "/") + "/"
}

func (c Config) validate() error {
	if c.Domain == "" && c.IssuerURL == "" {
		return errors.New("identity provider domain or issuer url is required")
	}
	if c.ClientID == "" {
		return errors.New("identity provider client id is required")
	}
	if c.RedirectURL == "" {
		return errors.New("redirect url is required")
	}
	if _, err := url.Parse(c.RedirectURL); err != nil {
		return err
	}
	return nil
}

func (c Config) scopes() []string {
	if len(c.Scopes) == 0 {
		return DefaultScopes
	}
	return c.Scopes
}

func (c Config) leeway() time.Duration {
	if c.RefreshLeeway <= 0 {
		return DefaultRefreshLeeway
	}
	return c.RefreshLeeway
}

// legacyLogoutURL is the Auth0-style /v2/logout endpoint on the issuer host.
func (c Config) legacyLogoutURL() (*url.URL, error) {
	u, err := url.Parse(c.Issuer())
	if err != nil {
		return nil, err
	}
	u.Path = "/v2/logout"
	u.RawQuery = ""
	return u, nil
}
