// Package cli provides the interactive Loominal command-line client.
//
// It wires configuration, the local preference store, the API client, the
// identity provider and an interactive REPL. Typical flow: restore the
// session from the local cache, load the user's organizations, start a
// background connectivity watcher, and execute user commands.
//
// Key features:
//   - Login / Logout through the system browser and a loopback redirect
//   - whoami and token for inspecting the session
//   - Organizations: list, refresh, switch, create
//   - Members and invitations of the current organization
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// See App, StartOnlineStatusWatcher, and runREPL for details.
package cli
