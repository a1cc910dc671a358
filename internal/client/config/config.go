package config

import (
	"fmt"
	"net/url"
	"time"
)

// Config holds runtime settings for the Loominal CLI.
//
// Fields:
//   - APIBaseURL: base URL of the backend REST API.
//   - AuthDomain / AuthIssuerURL: where the identity provider lives. The
//     issuer defaults to https://<AuthDomain>/.
//   - ClientID, Audience: the OAuth application and API the tokens are for.
//   - RedirectURL: loopback URL the provider redirects back to after login.
//   - RequestTimeout: upper bound for a single backend call.
//   - OnlineCheckInterval: how often the client checks server reachability.
//   - TokenRefreshLeeway: how long before expiry a token is refreshed.
//   - DataDir: directory holding the local database and log file.
//   - LogLevel: debug, info, warn or error.
type Config struct {
	APIBaseURL          string
	AuthDomain          string
	AuthIssuerURL       string
	ClientID            string
	Audience            string
	RedirectURL         string
	RequestTimeout      time.Duration
	OnlineCheckInterval time.Duration
	TokenRefreshLeeway  time.Duration
	DataDir             string
	LogLevel            string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.APIBaseURL = "http://127.0.0.1:5000"
	c.RedirectURL = "http://127.0.0.1:8765/callback"
	c.RequestTimeout = 30 * time.Second
	c.OnlineCheckInterval = 30 * time.Second
	c.TokenRefreshLeeway = 60 * time.Second
	c.DataDir = ".loominal"
	c.LogLevel = "info"
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

// AuthConfigured reports whether enough is known to reach an identity
// provider.
func (c *Config) AuthConfigured() bool {
	return (c.AuthDomain != "" || c.AuthIssuerURL != "") && c.ClientID != ""
}

// Validate checks the values the client cannot start without.
func (c *Config) Validate() error {
	for name, raw := range map[string]string{"api base url": c.APIBaseURL, "redirect url": c.RedirectURL} {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid %s %q", name, raw)
		}
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive, got %s", c.RequestTimeout)
	}
	if c.DataDir == "" {
		return fmt.Errorf("data dir is required")
	}
	return nil
}
