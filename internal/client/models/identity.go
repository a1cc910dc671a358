// Package models defines client-side data models used by the Loominal CLI:
// the signed-in identity, organizations (tenants), memberships, invitations,
// and the request bodies the client sends.
package models

// Identity is the signed-in user as reported by the identity provider.
type Identity struct {
	// ID is the provider subject ("sub").
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	PictureURL  string `json:"picture_url,omitempty"`
}

// Label returns the most human-friendly non-empty name for the identity.
func (i Identity) Label() string {
	switch {
	case i.Email != "":
		return i.Email
	case i.DisplayName != "":
		return i.DisplayName
	default:
		return i.ID
	}
}
