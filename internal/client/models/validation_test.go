package models

import (
	"strings"
	"testing"

	"github.com/loominal/loominal/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Acme", "acme"},
		{"Acme Corp", "acme-corp"},
		{"  Acme -- Corp!! ", "acme-corp"},
		{"Ünïcode Team 42", "n-code-team-42"},
		{"", ""},
		{strings.Repeat("ab ", 30), strings.TrimRight(strings.Repeat("ab-", 17)[:50], "-")},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Slugify(tt.in), "Slugify(%q)", tt.in)
	}
}

func TestSlugify_ResultPassesValidation(t *testing.T) {
	require.NoError(t, ValidateSlug(Slugify("Loominal Writers Guild")))
}

func TestValidateSlug(t *testing.T) {
	tests := []struct {
		slug    string
		wantErr string
	}{
		{"acme", ""},
		{"acme-corp-2", ""},
		{"", "slug is required"},
		{"ab", "at least 3"},
		{strings.Repeat("a", 51), "less than 50"},
		{"Acme", "lowercase"},
		{"-acme", "start or end"},
		{"acme-", "start or end"},
		{"ac--me", "consecutive"},
		{"admin", "reserved"},
	}
	for _, tt := range tests {
		err := ValidateSlug(tt.slug)
		if tt.wantErr == "" {
			assert.NoError(t, err, tt.slug)
			continue
		}
		require.Error(t, err, tt.slug)
		assert.ErrorIs(t, err, common.ErrorValidation)
		assert.Contains(t, err.Error(), tt.wantErr)
	}
}

func TestValidateOrganizationName(t *testing.T) {
	assert.NoError(t, ValidateOrganizationName("Acme"))
	assert.ErrorContains(t, ValidateOrganizationName(""), "required")
	assert.ErrorContains(t, ValidateOrganizationName("A"), "at least 2")
	assert.ErrorContains(t, ValidateOrganizationName(" Acme"), "whitespace")
	assert.ErrorContains(t, ValidateOrganizationName(strings.Repeat("x", 101)), "less than 100")
}

func TestCreateOrganizationRequest_Validate(t *testing.T) {
	ok := CreateOrganizationRequest{Name: "Acme", Slug: "acme"}
	require.NoError(t, ok.Validate())

	withExtras := CreateOrganizationRequest{Name: "Acme", Slug: "acme", Website: "https://acme.test", PlanType: PlanPro}
	require.NoError(t, withExtras.Validate())

	badSite := CreateOrganizationRequest{Name: "Acme", Slug: "acme", Website: "acme.test"}
	assert.ErrorContains(t, badSite.Validate(), "http://")

	badPlan := CreateOrganizationRequest{Name: "Acme", Slug: "acme", PlanType: "gold"}
	assert.ErrorContains(t, badPlan.Validate(), "plan")

	longDesc := CreateOrganizationRequest{Name: "Acme", Slug: "acme", Description: strings.Repeat("d", 501)}
	assert.ErrorContains(t, longDesc.Validate(), "description")
}

func TestInviteRequest_Validate(t *testing.T) {
	require.NoError(t, InviteRequest{Email: "ada@example.com", Role: RoleMember}.Validate())
	assert.ErrorContains(t, InviteRequest{Email: "", Role: RoleMember}.Validate(), "email is required")
	assert.ErrorContains(t, InviteRequest{Email: "Ada <ada@example.com>", Role: RoleMember}.Validate(), "not a valid email")
	assert.ErrorContains(t, InviteRequest{Email: "ada@example.com", Role: "root"}.Validate(), "invalid role")
}

func TestIdentity_Label(t *testing.T) {
	assert.Equal(t, "ada@example.com", Identity{ID: "auth0|1", Email: "ada@example.com", DisplayName: "Ada"}.Label())
	assert.Equal(t, "Ada", Identity{ID: "auth0|1", DisplayName: "Ada"}.Label())
	assert.Equal(t, "auth0|1", Identity{ID: "auth0|1"}.Label())
}
