// Package common contains shared constants and sentinel errors used across
// Loominal client components.
package common

// Header names attached to every outbound backend request.
const (
	// AuthorizationHeaderName carries "Bearer <token>" when a token is available.
	AuthorizationHeaderName = "Authorization"

	// OrganizationHeaderName carries the id of the currently selected organization.
	OrganizationHeaderName = "X-Organization-Id"

	// RequestIDHeaderName correlates client diagnostics with backend logs.
	RequestIDHeaderName = "X-Request-Id"
)

// CurrentOrganizationKey is the durable storage key holding the selected
// organization id as a base-10 string.
const CurrentOrganizationKey = "current_organization_id"
