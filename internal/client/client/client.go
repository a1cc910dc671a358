package client

import (
	"context"

	"github.com/loominal/loominal/internal/client/models"
)

type Client interface {
	Ping(ctx context.Context) error

	ListOrganizations(ctx context.Context) ([]models.Organization, error)
	CreateOrganization(ctx context.Context, req models.CreateOrganizationRequest) (*models.Organization, error)
	GetOrganization(ctx context.Context, id int64) (*models.Organization, error)

	ListMembers(ctx context.Context, orgID int64) ([]models.Member, error)
	UpdateMemberRole(ctx context.Context, orgID, memberID int64, role models.Role) error
	RemoveMember(ctx context.Context, orgID, memberID int64) error

	Invite(ctx context.Context, orgID int64, req models.InviteRequest) (*models.Invitation, error)
	ListInvitations(ctx context.Context, orgID int64) ([]models.Invitation, error)
	RevokeInvitation(ctx context.Context, orgID, invitationID int64) error
}

// TokenSource yields the bearer token for a request. ok=false means the
// request goes out without an Authorization header.
type TokenSource interface {
	Token(ctx context.Context) (token string, ok bool)
}

// OrganizationSource yields the currently selected organization id.
type OrganizationSource interface {
	CurrentOrganizationID() (id int64, ok bool)
}
