package models

// Role is a member's role within an organization.
type Role string

const (
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
	RoleViewer Role = "viewer"
)

func (r Role) Valid() bool {
	switch r {
	case RoleOwner, RoleAdmin, RoleMember, RoleViewer:
		return true
	}
	return false
}

// InvitationStatus is the lifecycle state of an invitation.
type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "pending"
	InvitationAccepted InvitationStatus = "accepted"
	InvitationDeclined InvitationStatus = "declined"
	InvitationExpired  InvitationStatus = "expired"
)

// Member is one row of GET /api/organizations/{id}/members.
type Member struct {
	ID          int64     `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	AvatarURL   string    `json:"avatar_url,omitempty"`
	Role        Role      `json:"role"`
	JoinedAt    Timestamp `json:"joined_at"`
	IsActive    bool      `json:"is_active"`
}

// Invitation is one row of GET /api/organizations/{id}/invitations.
type Invitation struct {
	ID        int64            `json:"id"`
	Email     string           `json:"email"`
	Role      Role             `json:"role"`
	Status    InvitationStatus `json:"status"`
	CreatedAt Timestamp        `json:"created_at"`
	ExpiresAt Timestamp        `json:"expires_at"`
	InvitedBy string           `json:"invited_by"`
}

// InviteRequest is the body of POST /api/organizations/{id}/invite.
type InviteRequest struct {
	Email   string `json:"email"`
	Role    Role   `json:"role"`
	Message string `json:"message,omitempty"`
}

// UpdateMemberRequest is the body of PUT /api/organizations/{id}/members/{memberId}.
type UpdateMemberRequest struct {
	Role Role `json:"role"`
}
