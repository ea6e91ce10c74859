// internal/siteinfo/writer.go
//
// Aggregation writer.  Appends one SiteDetail snapshot per record; it
// never updates or deletes an existing snapshot.

package siteinfo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/orvsd/central/internal/central"
)

// WriteDetail appends a snapshot of rec for site, stamped with the run
// time now.  A parsed course list is stored verbatim; nothing else is
// done with it.
func WriteDetail(ctx context.Context, q central.Queryer, site central.Site, rec Record, now time.Time) (*central.SiteDetail, error) {
	d := central.SiteDetail{
		SiteID:       site.ID,
		SiteVersion:  rec.SiteVersion,
		SiteRelease:  rec.SiteRelease,
		AdminEmail:   rec.AdminEmail,
		TotalUsers:   rec.TotalUsers,
		AdminUsers:   rec.AdminUsers,
		Teachers:     rec.Teachers,
		ActiveUsers:  rec.ActiveUsers,
		TotalCourses: rec.TotalCourses,
		TimeModified: now.UTC(),
	}
	if rec.HasCourses() {
		d.Courses = sql.NullString{String: rec.CoursesJSON, Valid: true}
	}

	if err := central.InsertSiteDetail(ctx, q, &d); err != nil {
		return nil, fmt.Errorf("%w: insert site detail for site %d: %v", ErrPersistence, site.ID, err)
	}
	return &d, nil
}
