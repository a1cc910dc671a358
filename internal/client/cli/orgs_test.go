package cli

import (
	"context"
	"errors"
	"testing"

	"github.com/loominal/loominal/internal/client/models"
	"github.com/loominal/loominal/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedInApp(t *testing.T, input string) *testApp {
	t.Helper()
	ta := newTestApp(t, input)
	ta.sess = signedIn("ada@example.com")
	ta.App.session = ta.sess
	return ta
}

func TestCommands_RequireSession(t *testing.T) {
	out := capturePrintln(t)
	ta := newTestApp(t, "")
	ctx := context.Background()

	for name, run := range map[string]func() error{
		"orgs":        func() error { return ta.Organizations(ctx) },
		"refresh":     func() error { return ta.Refresh(ctx) },
		"switch":      func() error { return ta.Switch(ctx, "1") },
		"create":      func() error { return ta.CreateOrganization(ctx) },
		"members":     func() error { return ta.Members(ctx) },
		"invitations": func() error { return ta.Invitations(ctx) },
		"invite":      func() error { return ta.Invite(ctx) },
		"revoke":      func() error { return ta.Revoke(ctx, "1") },
		"role":        func() error { return ta.UpdateRole(ctx, "1", "admin") },
		"remove":      func() error { return ta.RemoveMember(ctx, "1") },
	} {
		assert.ErrorIs(t, run(), errNotSignedIn, name)
	}
	assert.Contains(t, out.String(), "Type 'login' first")
	assert.Zero(t, ta.ten.refreshes)
	assert.Empty(t, ta.ten.switched)
}

func TestOrganizations_ListsAndMarksCurrent(t *testing.T) {
	out := capturePrintln(t)
	ta := signedInApp(t, "")
	ta.ten.orgs = []models.Organization{
		{ID: 1, Name: "Ada's space", Slug: "ada", IsPersonal: true, PlanType: models.PlanFree, MemberCount: 1},
		{ID: 2, Name: "Acme", Slug: "acme", PlanType: models.PlanPro, MemberCount: 12},
	}
	ta.ten.current = &ta.ten.orgs[1]

	require.NoError(t, ta.Organizations(context.Background()))

	got := out.String()
	assert.Contains(t, got, "Ada's space")
	assert.Contains(t, got, "personal")
	assert.Contains(t, got, "acme")
	assert.Contains(t, got, "12")
	assert.Contains(t, got, "*")
}

func TestOrganizations_EmptyAndLoading(t *testing.T) {
	out := capturePrintln(t)
	ta := signedInApp(t, "")

	require.NoError(t, ta.Organizations(context.Background()))
	assert.Contains(t, out.String(), "not a member of any organization")

	ta.ten.loading = true
	require.NoError(t, ta.Organizations(context.Background()))
	assert.Contains(t, out.String(), "loading")
}

func TestRefresh(t *testing.T) {
	out := capturePrintln(t)
	ta := signedInApp(t, "")
	ta.ten.orgs = []models.Organization{{ID: 1}, {ID: 2}}

	require.NoError(t, ta.Refresh(context.Background()))
	assert.Equal(t, 1, ta.ten.refreshes)
	assert.Contains(t, out.String(), "2 organization(s)")
}

func TestSwitch(t *testing.T) {
	silencePrintln(t)
	ta := signedInApp(t, "")

	require.NoError(t, ta.Switch(context.Background(), "42"))
	assert.Equal(t, []int64{42}, ta.ten.switched)

	require.ErrorIs(t, ta.Switch(context.Background(), "acme"), errBadID)
	require.ErrorIs(t, ta.Switch(context.Background(), "-3"), errBadID)
	assert.Equal(t, []int64{42}, ta.ten.switched)

	ta.ten.switchErr = errors.New("organization not found")
	require.Error(t, ta.Switch(context.Background(), "7"))
}

func TestCreateOrganization_DefaultsSlugAndPlan(t *testing.T) {
	silencePrintln(t)
	ta := signedInApp(t, "Acme Corp\n\nWidgets for everyone\n\n\n")

	require.NoError(t, ta.CreateOrganization(context.Background()))

	require.Len(t, ta.ten.created, 1)
	assert.Equal(t, models.CreateOrganizationRequest{
		Name:        "Acme Corp",
		Slug:        "acme-corp",
		Description: "Widgets for everyone",
		PlanType:    models.PlanFree,
	}, ta.ten.created[0])
	assert.Contains(t, ta.out.String(), "Slug [acme-corp]")
}

func TestCreateOrganization_OverridesSlug(t *testing.T) {
	silencePrintln(t)
	ta := signedInApp(t, "Acme Corp\nacme\n\nhttps://acme.example\npro\n")

	require.NoError(t, ta.CreateOrganization(context.Background()))

	require.Len(t, ta.ten.created, 1)
	assert.Equal(t, "acme", ta.ten.created[0].Slug)
	assert.Equal(t, "https://acme.example", ta.ten.created[0].Website)
	assert.Equal(t, models.PlanPro, ta.ten.created[0].PlanType)
}

func TestCreateOrganization_RejectsInvalidInputLocally(t *testing.T) {
	silencePrintln(t)
	ta := signedInApp(t, "Acme\nadmin\n\n\n\n")

	err := ta.CreateOrganization(context.Background())

	require.ErrorIs(t, err, common.ErrorValidation)
	assert.Empty(t, ta.ten.created)
	assert.Len(t, ta.notifier.errs, 1)
}

func TestCreateOrganization_PropagatesBackendFailure(t *testing.T) {
	silencePrintln(t)
	ta := signedInApp(t, "Acme\n\n\n\n\n")
	ta.ten.createErr = errors.New("slug taken")

	require.EqualError(t, ta.CreateOrganization(context.Background()), "slug taken")
	assert.Len(t, ta.ten.created, 1)
}

func TestCreateOrganization_InputEnds(t *testing.T) {
	silencePrintln(t)
	ta := signedInApp(t, "")

	require.Error(t, ta.CreateOrganization(context.Background()))
	assert.Empty(t, ta.ten.created)
}

func TestParseID(t *testing.T) {
	id, err := parseID("17")
	require.NoError(t, err)
	assert.Equal(t, int64(17), id)

	for _, raw := range []string{"", "0", "-1", "x1", "1.5"} {
		_, err := parseID(raw)
		assert.ErrorIs(t, err, errBadID, raw)
	}
}
