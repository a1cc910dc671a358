package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
)

var errNotSignedIn = errors.New("not signed in")

// Login sends the user to the identity provider and waits for the redirect
// on the loopback callback listener. The redirect becomes the current
// location and the session is rebuilt from it, the same way a browser would
// reload the page after coming back from the provider.
//
// The wait is bounded by loginTimeout and can be abandoned with Ctrl-C.
func (a *App) Login(ctx context.Context) error {
	sess, _, _ := a.state()
	if sess.IsAuthenticated() {
		printlnFn("Already signed in as", sess.Identity().Label())
		return nil
	}
	if !a.config.AuthConfigured() {
		a.notifier.Error(ctx, "Sign-in is not configured: set an auth domain and client id")
		return errors.New("identity provider is not configured")
	}

	cb, err := a.listen(a.config.RedirectURL)
	if err != nil {
		a.log.Error(ctx, "cannot listen for login callback", "error", err)
		a.notifier.Error(ctx, "Cannot start sign-in: "+err.Error())
		return err
	}
	defer func() { _ = cb.Close(context.WithoutCancel(ctx)) }()

	sess.Login(ctx)
	printlnFn("Waiting for sign-in to complete in the browser (Ctrl-C to cancel)...")

	wctx, cancel := context.WithTimeout(ctx, loginTimeout)
	defer cancel()
	wctx, stop := signal.NotifyContext(wctx, os.Interrupt)
	defer stop()

	location, err := cb.Wait(wctx)
	if err != nil {
		a.log.Warn(ctx, "login callback not received", "error", err)
		a.notifier.Error(ctx, "Sign-in was not completed")
		return err
	}

	a.nav.SetLocation(location)
	a.reload(ctx)

	if !a.isLoggedIn() {
		a.notifier.Error(ctx, "Sign-in failed, see the log for details")
		return errNotSignedIn
	}
	sess, _, _ = a.state()
	a.notifier.Success(ctx, "Signed in as "+sess.Identity().Label())
	return nil
}

// Logout clears the local session, hands the provider's sign-out URL to the
// browser and rebuilds the now anonymous state.
func (a *App) Logout(ctx context.Context) error {
	sess, _, _ := a.state()
	if !sess.IsAuthenticated() {
		printlnFn("Not signed in")
		return nil
	}

	sess.Logout(ctx)
	a.reload(ctx)
	a.notifier.Info(ctx, "Signed out")
	return nil
}

func (a *App) WhoAmI(ctx context.Context) error {
	sess, ten, _ := a.state()
	snap := sess.Snapshot()
	if snap.IsLoading {
		printlnFn("Session is still loading")
		return nil
	}
	if snap.Identity == nil {
		printlnFn("Not signed in")
		return nil
	}

	id := snap.Identity
	printlnFn("User:  ", id.Label())
	if id.DisplayName != "" && id.DisplayName != id.Label() {
		printlnFn("Name:  ", id.DisplayName)
	}
	printlnFn("ID:    ", id.ID)
	if org := ten.Current(); org != nil {
		printlnFn(fmt.Sprintf("Org:    %s (%s, #%d)", org.Name, org.Slug, org.ID))
	}
	return nil
}

// Token prints a bearer token for the current session, refreshing it
// silently when needed.
func (a *App) Token(ctx context.Context) error {
	sess, _, _ := a.state()
	token, ok := sess.Token(ctx)
	if !ok {
		printlnFn("No token available")
		return errNotSignedIn
	}
	printlnFn(token)
	return nil
}
