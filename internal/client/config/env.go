package config

import (
	"fmt"
	"os"
	"time"
)

// Environment variables read by parseEnv.
const (
	EnvAPIBaseURL         = "LOOMINAL_API_URL"
	EnvAuthDomain         = "LOOMINAL_AUTH_DOMAIN"
	EnvAuthIssuerURL      = "LOOMINAL_AUTH_ISSUER"
	EnvClientID           = "LOOMINAL_CLIENT_ID"
	EnvAudience           = "LOOMINAL_AUDIENCE"
	EnvRedirectURL        = "LOOMINAL_REDIRECT_URL"
	EnvRequestTimeout     = "LOOMINAL_REQUEST_TIMEOUT"
	EnvOnlineCheck        = "LOOMINAL_ONLINE_CHECK_INTERVAL"
	EnvTokenRefreshLeeway = "LOOMINAL_TOKEN_REFRESH_LEEWAY"
	EnvDataDir            = "LOOMINAL_DATA_DIR"
	EnvLogLevel           = "LOOMINAL_LOG_LEVEL"
)

// parseEnv overlays Config with set LOOMINAL_* variables. Durations use
// time.ParseDuration syntax ("30s"); a malformed one panics.
func parseEnv(cfg *Config) {
	setString(&cfg.APIBaseURL, os.Getenv(EnvAPIBaseURL))
	setString(&cfg.AuthDomain, os.Getenv(EnvAuthDomain))
	setString(&cfg.AuthIssuerURL, os.Getenv(EnvAuthIssuerURL))
	setString(&cfg.ClientID, os.Getenv(EnvClientID))
	setString(&cfg.Audience, os.Getenv(EnvAudience))
	setString(&cfg.RedirectURL, os.Getenv(EnvRedirectURL))
	setString(&cfg.DataDir, os.Getenv(EnvDataDir))
	setString(&cfg.LogLevel, os.Getenv(EnvLogLevel))

	setDuration(&cfg.RequestTimeout, EnvRequestTimeout)
	setDuration(&cfg.OnlineCheckInterval, EnvOnlineCheck)
	setDuration(&cfg.TokenRefreshLeeway, EnvTokenRefreshLeeway)
}

func setDuration(dst *time.Duration, env string) {
	raw := os.Getenv(env)
	if raw == "" {
		return
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		panic(fmt.Errorf("%s: %w", env, err))
	}
	*dst = d
}
