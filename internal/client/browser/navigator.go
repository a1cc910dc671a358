// Package browser stands in for the web page the client would otherwise run
// in: it tracks the "current location", hands URLs to the system browser and
// receives the identity provider's redirect on a loopback listener.
package browser

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"sync"

	"github.com/loominal/loominal/internal/logging"
	pkgbrowser "github.com/pkg/browser"
)

// Navigator is the page's address bar.
type Navigator interface {
	// Location returns a copy of the current location.
	Location() *url.URL
	// Replace rewrites the current location without navigating.
	Replace(u *url.URL)
	// Navigate hands target to an external agent.
	Navigate(ctx context.Context, target string) error
}

// SystemNavigator opens URLs in the user's browser and always prints them,
// so a headless session can copy the link by hand.
type SystemNavigator struct {
	mu       sync.Mutex
	location *url.URL

	out         io.Writer
	interactive bool
	open        func(string) error
	log         logging.Logger
}

// NewSystemNavigator starts at origin. interactive controls whether a browser
// is launched; the URL is printed to out either way.
func NewSystemNavigator(origin *url.URL, out io.Writer, interactive bool, log logging.Logger) *SystemNavigator {
	pkgbrowser.Stdout = io.Discard
	pkgbrowser.Stderr = io.Discard
	return &SystemNavigator{
		location:    cloneURL(origin),
		out:         out,
		interactive: interactive,
		open:        pkgbrowser.OpenURL,
		log:         log.With("component", "navigator"),
	}
}

func (n *SystemNavigator) Location() *url.URL {
	n.mu.Lock()
	defer n.mu.Unlock()
	return cloneURL(n.location)
}

func (n *SystemNavigator) Replace(u *url.URL) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.location = cloneURL(u)
}

// SetLocation records where the external agent came back to, e.g. the
// provider's redirect.
func (n *SystemNavigator) SetLocation(u *url.URL) {
	n.Replace(u)
}

func (n *SystemNavigator) Navigate(ctx context.Context, target string) error {
	if _, err := url.Parse(target); err != nil {
		return fmt.Errorf("navigate: %w", err)
	}

	fmt.Fprintf(n.out, "Open this URL in your browser:\n  %s\n", target)
	if !n.interactive {
		return nil
	}
	if err := n.open(target); err != nil {
		n.log.Warn(ctx, "could not launch browser", "error", err)
	}
	return nil
}

// Origin is scheme://host/ of u.
func Origin(u *url.URL) string {
	if u == nil {
		return ""
	}
	return (&url.URL{Scheme: u.Scheme, Host: u.Host, Path: "/"}).String()
}

func cloneURL(u *url.URL) *url.URL {
	if u == nil {
		return &url.URL{}
	}
	c := *u
	if u.User != nil {
		user := *u.User
		c.User = &user
	}
	return &c
}
