package config

import (
	"encoding/json"
	"os"

	"github.com/loominal/loominal/internal/flagx"
	"github.com/loominal/loominal/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
// It relies on timex.Duration so JSON can specify intervals either as
// strings like "30s" or as integer nanoseconds.
type JsonConfig struct {
	APIBaseURL          string         `json:"api_base_url"`
	AuthDomain          string         `json:"auth_domain"`
	AuthIssuerURL       string         `json:"auth_issuer_url"`
	ClientID            string         `json:"client_id"`
	Audience            string         `json:"audience"`
	RedirectURL         string         `json:"redirect_url"`
	RequestTimeout      timex.Duration `json:"request_timeout"`
	OnlineCheckInterval timex.Duration `json:"online_check_interval"`
	TokenRefreshLeeway  timex.Duration `json:"token_refresh_leeway"`
	DataDir             string         `json:"data_dir"`
	LogLevel            string         `json:"log_level"`
}

// parseJson overlays Config with the non-empty values of a JSON file chosen
// with -c/-config or $LOOMINAL_CONFIG. It panics on read or unmarshal
// errors.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.ConfigFile()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	setString(&cfg.APIBaseURL, jc.APIBaseURL)
	setString(&cfg.AuthDomain, jc.AuthDomain)
	setString(&cfg.AuthIssuerURL, jc.AuthIssuerURL)
	setString(&cfg.ClientID, jc.ClientID)
	setString(&cfg.Audience, jc.Audience)
	setString(&cfg.RedirectURL, jc.RedirectURL)
	setString(&cfg.DataDir, jc.DataDir)
	setString(&cfg.LogLevel, jc.LogLevel)
	if jc.RequestTimeout.Duration > 0 {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	if jc.OnlineCheckInterval.Duration > 0 {
		cfg.OnlineCheckInterval = jc.OnlineCheckInterval.Duration
	}
	if jc.TokenRefreshLeeway.Duration > 0 {
		cfg.TokenRefreshLeeway = jc.TokenRefreshLeeway.Duration
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
