// Package services contains application services for the Loominal client.
// This file defines the organization-admin service: members and invitations
// of the currently selected organization.
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/loominal/loominal/internal/client/client"
	"github.com/loominal/loominal/internal/client/models"
	"github.com/loominal/loominal/internal/common"
)

var ErrNoOrganization = errors.New("no organization selected")

// MembershipService manages the people in the current organization.
//
// Contract:
//   - Every method acts on the organization selected at call time and fails
//     with ErrNoOrganization when there is none.
//   - Invite and UpdateRole reject malformed input before calling the API.
//   - Assigning the owner role is left to the backend to allow or refuse.
type MembershipService interface {
	Members(ctx context.Context) ([]models.Member, error)
	Invitations(ctx context.Context) ([]models.Invitation, error)
	Invite(ctx context.Context, req models.InviteRequest) (*models.Invitation, error)
	Revoke(ctx context.Context, invitationID int64) error
	UpdateRole(ctx context.Context, memberID int64, role models.Role) error
	RemoveMember(ctx context.Context, memberID int64) error
}

type membershipService struct {
	client client.Client
	orgs   client.OrganizationSource
}

// NewMembershipService binds the service to an API client and the source of
// the current organization.
func NewMembershipService(c client.Client, orgs client.OrganizationSource) MembershipService {
	return &membershipService{client: c, orgs: orgs}
}

func (s *membershipService) orgID() (int64, error) {
	id, ok := s.orgs.CurrentOrganizationID()
	if !ok {
		return 0, ErrNoOrganization
	}
	return id, nil
}

func (s *membershipService) Members(ctx context.Context) ([]models.Member, error) {
	id, err := s.orgID()
	if err != nil {
		return nil, err
	}
	return s.client.ListMembers(ctx, id)
}

func (s *membershipService) Invitations(ctx context.Context) ([]models.Invitation, error) {
	id, err := s.orgID()
	if err != nil {
		return nil, err
	}
	return s.client.ListInvitations(ctx, id)
}

func (s *membershipService) Invite(ctx context.Context, req models.InviteRequest) (*models.Invitation, error) {
	id, err := s.orgID()
	if err != nil {
		return nil, err
	}
	if req.Role == "" {
		req.Role = models.RoleMember
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return s.client.Invite(ctx, id, req)
}

func (s *membershipService) Revoke(ctx context.Context, invitationID int64) error {
	id, err := s.orgID()
	if err != nil {
		return err
	}
	return s.client.RevokeInvitation(ctx, id, invitationID)
}

func (s *membershipService) UpdateRole(ctx context.Context, memberID int64, role models.Role) error {
	id, err := s.orgID()
	if err != nil {
		return err
	}
	if !role.Valid() {
		return fmt.Errorf("%w: invalid role %q", common.ErrorValidation, role)
	}
	return s.client.UpdateMemberRole(ctx, id, memberID, role)
}

func (s *membershipService) RemoveMember(ctx context.Context, memberID int64) error {
	id, err := s.orgID()
	if err != nil {
		return err
	}
	return s.client.RemoveMember(ctx, id, memberID)
}
