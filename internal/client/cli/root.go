package cli

import (
	"context"
	"fmt"
	"strings"
)

// getStatus renders the prompt status, e.g. "(ada@example.com @ acme online)".
func (a *App) getStatus() string {
	sess, ten, _ := a.state()

	var parts []string
	if sess != nil {
		if snap := sess.Snapshot(); snap.IsLoading {
			parts = append(parts, "loading")
		} else if snap.Identity != nil {
			parts = append(parts, snap.Identity.Label())
		}
	}
	if ten != nil {
		if org := ten.Current(); org != nil {
			parts = append(parts, "@", org.Slug)
		}
	}
	if m := a.Mode(); m != "" {
		parts = append(parts, string(m))
	}

	if len(parts) == 0 {
		return ""
	}
	return fmt.Sprintf("(%s)", strings.Join(parts, " "))
}

// Root runs the REPL on the app's input until the user exits.
func (a *App) Root(ctx context.Context) {
	printlnFn("Welcome to Loominal CLI (type 'help' for commands)")
	if !a.isLoggedIn() {
		printlnFn("You are not signed in. Type 'login' to continue.")
	}
	runREPL(ctx, a, a.getStatus, a.reader)
}
