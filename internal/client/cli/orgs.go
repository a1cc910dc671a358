package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/loominal/loominal/internal/client/client"
	"github.com/loominal/loominal/internal/client/models"
)

// getSimpleText and getTextWithDefault are indirections used to facilitate
// testing. They point to interactive input helpers and can be swapped in tests.
var (
	getSimpleText      = GetSimpleText
	getTextWithDefault = GetTextWithDefault
	getMultiline       = GetMultiline
)

var errBadID = errors.New("invalid id")

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %q", errBadID, raw)
	}
	return id, nil
}

// requireSession prints a hint and reports false when nobody is signed in.
func (a *App) requireSession() bool {
	if a.isLoggedIn() {
		return true
	}
	printlnFn("Not signed in. Type 'login' first.")
	return false
}

func (a *App) Organizations(ctx context.Context) error {
	if !a.requireSession() {
		return errNotSignedIn
	}
	_, ten, _ := a.state()
	if ten.IsLoading() {
		printlnFn("Organizations are loading...")
		return nil
	}

	orgs := ten.Organizations()
	if len(orgs) == 0 {
		printlnFn("You are not a member of any organization. Type 'create' to start one.")
		return nil
	}
	printlnFn(organizationsTable(orgs, ten.Current()))
	return nil
}

// Refresh reloads the organization list from the backend.
func (a *App) Refresh(ctx context.Context) error {
	if !a.requireSession() {
		return errNotSignedIn
	}
	_, ten, _ := a.state()
	ten.Refresh(ctx)
	printlnFn(fmt.Sprintf("%d organization(s)", len(ten.Organizations())))
	return nil
}

func (a *App) Switch(ctx context.Context, rawID string) error {
	if !a.requireSession() {
		return errNotSignedIn
	}
	id, err := parseID(rawID)
	if err != nil {
		printlnFn("Usage: switch <id>")
		return err
	}
	_, ten, _ := a.state()
	return ten.Switch(ctx, id)
}

// CreateOrganization runs the create form: name, slug (derived from the
// name unless overridden), description, website and plan. Input is checked
// locally before anything is sent.
func (a *App) CreateOrganization(ctx context.Context) error {
	if !a.requireSession() {
		return errNotSignedIn
	}

	req, err := a.inputCreateOrganization()
	if err != nil {
		return err
	}
	if err := req.Validate(); err != nil {
		a.notifier.Error(ctx, client.MessageOf(err))
		return err
	}

	_, ten, _ := a.state()
	_, err = ten.Create(ctx, req)
	return err
}

func (a *App) inputCreateOrganization() (models.CreateOrganizationRequest, error) {
	var req models.CreateOrganizationRequest
	var err error

	if req.Name, err = getSimpleText(a.reader, "Organization name", a.out); err != nil {
		return req, err
	}
	if req.Slug, err = getTextWithDefault(a.reader, "Slug", models.Slugify(req.Name), a.out); err != nil {
		return req, err
	}
	if req.Description, err = getSimpleText(a.reader, "Description (optional)", a.out); err != nil {
		return req, err
	}
	if req.Website, err = getSimpleText(a.reader, "Website (optional)", a.out); err != nil {
		return req, err
	}
	plan, err := getTextWithDefault(a.reader, "Plan (free, pro, enterprise)", string(models.PlanFree), a.out)
	if err != nil {
		return req, err
	}
	req.PlanType = models.PlanType(plan)
	return req, nil
}
