package config

import (
	"flag"
	"os"
	"time"

	"github.com/loominal/loominal/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags:
//
//	-a string          backend API base URL
//	-d string          identity provider domain
//	-client-id string  OAuth client id
//	-audience string   API audience requested for access tokens
//	-redirect string   loopback redirect URL
//	-data-dir string   directory for the local database and logs
//	-i int             online check interval in seconds
//	-t int             request timeout in seconds
//	-log-level string  debug, info, warn or error
//
// The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{
		"-a", "-d", "-client-id", "-audience", "-redirect", "-data-dir", "-i", "-t", "-log-level",
	})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.APIBaseURL, "a", cfg.APIBaseURL, "backend API base URL")
	fs.StringVar(&cfg.AuthDomain, "d", cfg.AuthDomain, "identity provider domain")
	fs.StringVar(&cfg.ClientID, "client-id", cfg.ClientID, "OAuth client id")
	fs.StringVar(&cfg.Audience, "audience", cfg.Audience, "API audience")
	fs.StringVar(&cfg.RedirectURL, "redirect", cfg.RedirectURL, "loopback redirect URL")
	fs.StringVar(&cfg.DataDir, "data-dir", cfg.DataDir, "directory for local data")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level")
	onlineCheckInterval := fs.Int("i", int(cfg.OnlineCheckInterval.Seconds()), "online check interval (in seconds)")
	requestTimeout := fs.Int("t", int(cfg.RequestTimeout.Seconds()), "request timeout (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.OnlineCheckInterval = time.Duration(*onlineCheckInterval) * time.Second
	cfg.RequestTimeout = time.Duration(*requestTimeout) * time.Second
}
