package browser

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/loominal/loominal/internal/logging"
)

const callbackPage = `<!doctype html>
<html><head><meta charset="utf-8"><title>Loominal</title></head>
<body style="font-family: sans-serif; margin: 3em;">
<h2>%s</h2><p>You can close this window and return to the terminal, which reports the result.</p>
</body></html>`

// CallbackServer receives the identity provider's redirect on the host and
// path of the configured redirect URI.
type CallbackServer struct {
	redirect *url.URL
	listener net.Listener
	srv      *http.Server
	results  chan *url.URL
	log      logging.Logger
}

// ListenCallback binds the redirect URI's host:port and starts serving.
func ListenCallback(redirectURL string, log logging.Logger) (*CallbackServer, error) {
	u, err := url.Parse(redirectURL)
	if err != nil {
		return nil, fmt.Errorf("parse redirect url: %w", err)
	}
	if u.Scheme != "http" {
		return nil, fmt.Errorf("redirect url %q must be a loopback http url", redirectURL)
	}

	ln, err := net.Listen("tcp", u.Host)
	if err != nil {
		return nil, fmt.Errorf("listen for callback: %w", err)
	}

	path := u.Path
	if path == "" {
		path = "/"
	}

	s := &CallbackServer{
		redirect: u,
		listener: ln,
		results:  make(chan *url.URL, 1),
		log:      log.With("component", "callback"),
	}
	mux := http.NewServeMux()
	mux.HandleFunc(path, s.handle)
	s.srv = &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error(context.Background(), "callback server stopped", "error", err)
		}
	}()
	return s, nil
}

// Addr is the bound address, useful when the redirect URI used port 0.
func (s *CallbackServer) Addr() string {
	return s.listener.Addr().String()
}

func (s *CallbackServer) handle(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	hasCode := q.Get("code") != "" && q.Get("state") != ""
	hasError := q.Get("error") != ""
	if !hasCode && !hasError {
		http.Error(w, "missing authorization response", http.StatusBadRequest)
		return
	}

	cb := &url.URL{
		Scheme:   s.redirect.Scheme,
		Host:     s.redirect.Host,
		Path:     r.URL.Path,
		RawQuery: r.URL.RawQuery,
	}
	select {
	case s.results <- cb:
	default:
		s.log.Warn(r.Context(), "duplicate callback ignored")
	}

	// The code exchange runs after this page is served.
	title := "Sign-in response received"
	if hasError {
		title = "Sign-in was not completed"
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, callbackPage, title)
}

// Wait returns the first callback URL carrying code+state or error.
func (s *CallbackServer) Wait(ctx context.Context) (*url.URL, error) {
	select {
	case u := <-s.results:
		return u, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *CallbackServer) Close(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
