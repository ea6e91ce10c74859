// internal/siteinfo/mirror.go
//
// Raw mirror.  Copies every remote row into the central `siteinfo`
// staging table without identity resolution.  Values are only coerced to
// the column types; baseurl, sitetype, and courses stay as reported.

package siteinfo

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/orvsd/central/internal/central"
	"github.com/orvsd/central/internal/database"
)

// Mirror copies all remote rows into the staging table and returns how
// many were copied.  Each source table is one transaction.
func (g *Gatherer) Mirror(ctx context.Context) (int, error) {
	log := g.log()

	release, err := g.acquire(ctx)
	if err != nil {
		return 0, err
	}
	defer release()

	tables, err := g.Source.Tables(ctx)
	if err != nil {
		return 0, err
	}

	now := g.now().UTC()
	copied := 0
	for _, t := range tables {
		rows, err := g.Source.Rows(ctx, t)
		if err != nil {
			return copied, err
		}

		err = database.RunTx(ctx, g.Store, func(tx *sqlx.Tx) error {
			for _, raw := range rows {
				s := stage(raw, t)
				if s.TimeModified.IsZero() {
					s.TimeModified = now
				}
				if err := central.InsertStagedSiteinfo(ctx, tx, &s); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return copied, fmt.Errorf("%w: mirror %s: %v", ErrPersistence, t, err)
		}
		copied += len(rows)
		log.Debugw("source mirrored", "table", t.String(), "rows", len(rows))
	}

	log.Infow("mirror finished", "tables", len(tables), "rows", copied)
	return copied, nil
}

func stage(raw RawRow, t Table) central.StagedSiteinfo {
	n := normalizer{raw: raw}
	s := central.StagedSiteinfo{
		Source:       t.String(),
		BaseURL:      n.str("baseurl"),
		BasePath:     n.str("basepath"),
		Sitename:     n.str("sitename"),
		Sitetype:     n.str("sitetype"),
		SiteVersion:  n.str("siteversion"),
		SiteRelease:  n.str("siterelease"),
		AdminEmail:   n.str("adminemail"),
		TotalUsers:   n.integer("totalusers"),
		AdminUsers:   n.integer("adminusers"),
		Teachers:     n.integer("teachers"),
		ActiveUsers:  n.integer("activeusers"),
		TotalCourses: n.integer("totalcourses"),
		TimeModified: n.timestamp("timemodified"),
	}
	if v, ok := n.lookup("courses"); ok {
		c, _ := asString(v)
		s.Courses = sql.NullString{String: c, Valid: true}
	}
	return s
}
