package cli

import (
	"context"
	"errors"

	"github.com/loominal/loominal/internal/client/client"
	"github.com/loominal/loominal/internal/client/models"
	"github.com/loominal/loominal/internal/client/services"
)

// reportMembership turns a membership failure into a notification.
func (a *App) reportMembership(ctx context.Context, action string, err error) {
	if errors.Is(err, services.ErrNoOrganization) {
		a.notifier.Error(ctx, "Select an organization first (see 'orgs' and 'switch <id>')")
		return
	}
	a.log.Error(ctx, action+" failed", "error", err)
	a.notifier.Error(ctx, "Failed to "+action+": "+client.MessageOf(err))
}

func (a *App) Members(ctx context.Context) error {
	if !a.requireSession() {
		return errNotSignedIn
	}
	_, _, svc := a.state()
	members, err := svc.Members(ctx)
	if err != nil {
		a.reportMembership(ctx, "load members", err)
		return err
	}
	if len(members) == 0 {
		printlnFn("No members")
		return nil
	}
	printlnFn(membersTable(members))
	return nil
}

func (a *App) Invitations(ctx context.Context) error {
	if !a.requireSession() {
		return errNotSignedIn
	}
	_, _, svc := a.state()
	invitations, err := svc.Invitations(ctx)
	if err != nil {
		a.reportMembership(ctx, "load invitations", err)
		return err
	}
	if len(invitations) == 0 {
		printlnFn("No pending invitations")
		return nil
	}
	printlnFn(invitationsTable(invitations))
	return nil
}

// Invite asks for an email, a role and an optional message, and invites
// that person to the current organization.
func (a *App) Invite(ctx context.Context) error {
	if !a.requireSession() {
		return errNotSignedIn
	}

	email, err := getSimpleText(a.reader, "Email", a.out)
	if err != nil {
		return err
	}
	role, err := getTextWithDefault(a.reader, "Role (owner, admin, member, viewer)", string(models.RoleMember), a.out)
	if err != nil {
		return err
	}
	message, err := getMultiline(a.reader, "Message (optional)", a.out)
	if err != nil {
		return err
	}

	_, _, svc := a.state()
	_, err = svc.Invite(ctx, models.InviteRequest{Email: email, Role: models.Role(role), Message: message})
	if err != nil {
		a.reportMembership(ctx, "send invitation", err)
		return err
	}
	a.notifier.Success(ctx, "Invitation sent to "+email)
	return nil
}

func (a *App) Revoke(ctx context.Context, rawID string) error {
	if !a.requireSession() {
		return errNotSignedIn
	}
	id, err := parseID(rawID)
	if err != nil {
		printlnFn("Usage: revoke <id>")
		return err
	}
	_, _, svc := a.state()
	if err := svc.Revoke(ctx, id); err != nil {
		a.reportMembership(ctx, "revoke invitation", err)
		return err
	}
	a.notifier.Success(ctx, "Invitation revoked")
	return nil
}

func (a *App) UpdateRole(ctx context.Context, rawMemberID, role string) error {
	if !a.requireSession() {
		return errNotSignedIn
	}
	id, err := parseID(rawMemberID)
	if err != nil {
		printlnFn("Usage: role <memberId> <owner|admin|member|viewer>")
		return err
	}
	_, _, svc := a.state()
	if err := svc.UpdateRole(ctx, id, models.Role(role)); err != nil {
		a.reportMembership(ctx, "update role", err)
		return err
	}
	a.notifier.Success(ctx, "Role updated to "+role)
	return nil
}

func (a *App) RemoveMember(ctx context.Context, rawMemberID string) error {
	if !a.requireSession() {
		return errNotSignedIn
	}
	id, err := parseID(rawMemberID)
	if err != nil {
		printlnFn("Usage: remove <memberId>")
		return err
	}
	_, _, svc := a.state()
	if err := svc.RemoveMember(ctx, id); err != nil {
		a.reportMembership(ctx, "remove member", err)
		return err
	}
	a.notifier.Success(ctx, "Member removed")
	return nil
}
