package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the command surface the REPL dispatches to.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	WhoAmI(ctx context.Context) error
	Token(ctx context.Context) error
	Organizations(ctx context.Context) error
	Refresh(ctx context.Context) error
	Switch(ctx context.Context, id string) error
	CreateOrganization(ctx context.Context) error
	Members(ctx context.Context) error
	Invitations(ctx context.Context) error
	Invite(ctx context.Context) error
	Revoke(ctx context.Context, id string) error
	UpdateRole(ctx context.Context, memberID, role string) error
	RemoveMember(ctx context.Context, memberID string) error
}

const (
	helpSignedOut = "Available commands: login, whoami, help, exit"
	helpSignedIn  = "Available commands: whoami, token, orgs, refresh, switch <id>, create, " +
		"members, invitations, invite, revoke <id>, role <memberId> <role>, remove <memberId>, logout, help, exit"
)

// runREPL reads one command per line from reader and dispatches it to a.
// The loop exits on EOF or when the user types "exit" or "quit".
//
// Command handlers report their own failures to the user; errors they
// return are ignored here so one failed command never ends the session.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		if ctx.Err() != nil {
			return
		}
		printlnFn(fmt.Sprintf("loominal %s > ", statusFn()))

		line, err := reader.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn(helpSignedIn)
			} else {
				printlnFn(helpSignedOut)
			}

		case "login":
			_ = a.Login(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "whoami":
			_ = a.WhoAmI(ctx)

		case "token":
			_ = a.Token(ctx)

		case "orgs", "organizations":
			_ = a.Organizations(ctx)

		case "refresh":
			_ = a.Refresh(ctx)

		case "switch":
			if len(args) != 1 {
				printlnFn("Usage: switch <id>")
				continue
			}
			_ = a.Switch(ctx, args[0])

		case "create":
			_ = a.CreateOrganization(ctx)

		case "members":
			_ = a.Members(ctx)

		case "invitations":
			_ = a.Invitations(ctx)

		case "invite":
			_ = a.Invite(ctx)

		case "revoke":
			if len(args) != 1 {
				printlnFn("Usage: revoke <id>")
				continue
			}
			_ = a.Revoke(ctx, args[0])

		case "role":
			if len(args) != 2 {
				printlnFn("Usage: role <memberId> <owner|admin|member|viewer>")
				continue
			}
			_ = a.UpdateRole(ctx, args[0], args[1])

		case "remove":
			if len(args) != 1 {
				printlnFn("Usage: remove <memberId>")
				continue
			}
			_ = a.RemoveMember(ctx, args[0])

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
