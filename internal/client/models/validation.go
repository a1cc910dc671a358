package models

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"

	"github.com/loominal/loominal/internal/common"
)

// The rules below mirror what the backend enforces, so the CLI forms can
// reject bad input before a round trip. The Tenancy Context does not call them.

var (
	slugPattern    = regexp.MustCompile(`^[a-z0-9-]+$`)
	websitePattern = regexp.MustCompile(`^https?://.+`)
	slugStrip      = regexp.MustCompile(`[^a-z0-9]+`)
)

var reservedSlugs = map[string]struct{}{
	"admin": {}, "api": {}, "auth": {}, "login": {}, "logout": {}, "signup": {},
	"register": {}, "settings": {}, "dashboard": {}, "profile": {}, "user": {},
	"users": {}, "organization": {}, "organizations": {}, "org": {}, "orgs": {},
	"team": {}, "teams": {}, "app": {}, "about": {}, "help": {}, "support": {},
	"contact": {}, "terms": {}, "privacy": {}, "security": {},
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", common.ErrorValidation, fmt.Sprintf(format, args...))
}

// Slugify derives a URL-safe slug from an organization name: lowercase ASCII
// letters, digits and single hyphens, at most 50 characters.
func Slugify(name string) string {
	s := slugStrip.ReplaceAllString(strings.ToLower(name), "-")
	s = strings.Trim(s, "-")
	if len(s) > 50 {
		s = strings.TrimRight(s[:50], "-")
	}
	return s
}

func ValidateOrganizationName(name string) error {
	switch {
	case name == "":
		return invalid("name is required")
	case strings.TrimSpace(name) != name:
		return invalid("name cannot have leading or trailing whitespace")
	case len(name) < 2:
		return invalid("name must be at least 2 characters")
	case len(name) > 100:
		return invalid("name must be less than 100 characters")
	}
	return nil
}

func ValidateSlug(slug string) error {
	switch {
	case slug == "":
		return invalid("slug is required")
	case len(slug) < 3:
		return invalid("slug must be at least 3 characters")
	case len(slug) > 50:
		return invalid("slug must be less than 50 characters")
	case !slugPattern.MatchString(slug):
		return invalid("slug can only contain lowercase letters, numbers, and hyphens")
	case strings.HasPrefix(slug, "-") || strings.HasSuffix(slug, "-"):
		return invalid("slug cannot start or end with a hyphen")
	case strings.Contains(slug, "--"):
		return invalid("slug cannot contain consecutive hyphens")
	}
	if _, reserved := reservedSlugs[slug]; reserved {
		return invalid("%q is a reserved slug and cannot be used", slug)
	}
	return nil
}

// ValidateWebsite accepts an empty value.
func ValidateWebsite(website string) error {
	if website == "" {
		return nil
	}
	if !websitePattern.MatchString(website) {
		return invalid("website must be a valid URL starting with http:// or https://")
	}
	if len(website) > 255 {
		return invalid("website URL is too long")
	}
	return nil
}

func ValidateEmail(email string) error {
	if email == "" {
		return invalid("email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return invalid("%q is not a valid email address", email)
	}
	return nil
}

// Validate checks a create request the way the create form does. An empty
// plan is allowed and means "free".
func (r CreateOrganizationRequest) Validate() error {
	if err := ValidateOrganizationName(r.Name); err != nil {
		return err
	}
	if err := ValidateSlug(r.Slug); err != nil {
		return err
	}
	if len(r.Description) > 500 {
		return invalid("description must be less than 500 characters")
	}
	if err := ValidateWebsite(r.Website); err != nil {
		return err
	}
	if r.PlanType != "" && !r.PlanType.Valid() {
		return invalid("invalid plan type %q", r.PlanType)
	}
	return nil
}

func (r InviteRequest) Validate() error {
	if err := ValidateEmail(r.Email); err != nil {
		return err
	}
	if !r.Role.Valid() {
		return invalid("invalid role %q", r.Role)
	}
	return nil
}
