// internal/siteinfo/resolve.go
//
// Identity resolver.
//
// Context
// -------
// Remote rows carry no foreign key into the central store.  The only
// stable handle is the site's base URL, so the protocol-stripped domain is
// the identity key for both Schools and Sites:
//
//   • School – matched on schools.domain.  Created on first sight with
//              name and shortname set to the sitename and no district.
//   • Site   – matched on sites.baseurl, which always stores the stripped
//              domain.  Existing sites get their gatherer-owned fields
//              (school_id, baseurl, basepath, location) overwritten.
//
// Lookup and storage use the same key, so a second run over unchanged
// sources finds every School and Site it created on the first.

package siteinfo

import (
	"context"
	"errors"
	"fmt"

	"github.com/orvsd/central/internal/central"
)

// Identity is the resolved owner of one record.
type Identity struct {
	School        central.School
	Site          central.Site
	SchoolCreated bool
	SiteCreated   bool
}

// ResolveIdentity finds or creates the School and Site for rec.  q is
// normally the record's transaction.  Store errors wrap ErrPersistence.
func ResolveIdentity(ctx context.Context, q central.Queryer, rec Record) (*Identity, error) {
	if !rec.Resolvable() {
		return nil, fmt.Errorf("%w: record from %s has no baseurl", ErrPersistence, rec.Source)
	}

	var id Identity

	school, err := central.SchoolByDomain(ctx, q, rec.Domain)
	switch {
	case err == nil:
		id.School = *school
	case errors.Is(err, central.ErrNotFound):
		id.School = central.School{
			DistrictID: central.NoDistrict,
			Name:       rec.SiteName,
			Shortname:  rec.SiteName,
			Domain:     rec.Domain,
			License:    "",
		}
		if err := central.InsertSchool(ctx, q, &id.School); err != nil {
			return nil, fmt.Errorf("%w: insert school %s: %v", ErrPersistence, rec.Domain, err)
		}
		id.SchoolCreated = true
	default:
		return nil, fmt.Errorf("%w: lookup school %s: %v", ErrPersistence, rec.Domain, err)
	}

	site, err := central.SiteByBaseURL(ctx, q, rec.Domain)
	switch {
	case err == nil:
		id.Site = *site
		id.Site.SchoolID = id.School.ID
		id.Site.BaseURL = rec.Domain
		id.Site.BasePath = rec.BasePath
		id.Site.Location = rec.Location
		if err := central.UpdateSiteLocation(ctx, q, &id.Site); err != nil {
			return nil, fmt.Errorf("%w: update site %d: %v", ErrPersistence, id.Site.ID, err)
		}
	case errors.Is(err, central.ErrNotFound):
		id.Site = central.Site{
			SchoolID: id.School.ID,
			Sitename: rec.SiteName,
			Sitetype: rec.SiteType,
			BaseURL:  rec.Domain,
			BasePath: rec.BasePath,
			Location: rec.Location,
		}
		if err := central.InsertSite(ctx, q, &id.Site); err != nil {
			return nil, fmt.Errorf("%w: insert site %s: %v", ErrPersistence, rec.Domain, err)
		}
		id.SiteCreated = true
	default:
		return nil, fmt.Errorf("%w: lookup site %s: %v", ErrPersistence, rec.Domain, err)
	}

	return &id, nil
}
