package models

// PlanType is the billing plan of an organization.
type PlanType string

const (
	PlanFree       PlanType = "free"
	PlanPro        PlanType = "pro"
	PlanEnterprise PlanType = "enterprise"
)

// Valid reports whether p is a plan the backend accepts.
func (p PlanType) Valid() bool {
	switch p {
	case PlanFree, PlanPro, PlanEnterprise:
		return true
	}
	return false
}

// Organization is a workspace (tenant) the signed-in identity can act within.
// The client only ever holds a point-in-time snapshot fetched from the backend.
type Organization struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description,omitempty"`
	LogoURL     string    `json:"logo_url,omitempty"`
	IsPersonal  bool      `json:"is_personal"`
	IsActive    bool      `json:"is_active"`
	MemberCount int       `json:"member_count"`
	PlanType    PlanType  `json:"plan_type"`
	CreatedAt   Timestamp `json:"created_at"`
	UpdatedAt   Timestamp `json:"updated_at"`
}

// CreateOrganizationRequest is the body of POST /api/organizations.
type CreateOrganizationRequest struct {
	Name        string   `json:"name"`
	Slug        string   `json:"slug"`
	Description string   `json:"description,omitempty"`
	Website     string   `json:"website,omitempty"`
	PlanType    PlanType `json:"plan_type,omitempty"`
}
