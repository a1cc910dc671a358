package tenancy

import "github.com/loominal/loominal/internal/client/models"

// Resolve picks the current organization after a refresh: the persisted id
// if it is still listed, else the personal organization, else the first one.
// It returns nil only for an empty list.
func Resolve(orgs []models.Organization, persistedID int64, ok bool) *models.Organization {
	if len(orgs) == 0 {
		return nil
	}
	pick := func(o models.Organization) *models.Organization { return &o }

	if ok {
		for _, o := range orgs {
			if o.ID == persistedID {
				return pick(o)
			}
		}
	}
	for _, o := range orgs {
		if o.IsPersonal {
			return pick(o)
		}
	}
	return pick(orgs[0])
}
