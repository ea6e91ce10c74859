// internal/central/staging.go
//
// Raw siteinfo staging table.  `cmd/gather -mirror` copies remote rows
// here unmodified (baseurl keeps its protocol) so operators can diff what
// sites reported against what the gatherer derived.

package central

import (
	"context"
	"database/sql"
	"time"
)

// StagedSiteinfo is one verbatim copy of a remote siteinfo row.
type StagedSiteinfo struct {
	ID           int64          `db:"id"`
	Source       string         `db:"source"`
	BaseURL      string         `db:"baseurl"`
	BasePath     string         `db:"basepath"`
	Sitename     string         `db:"sitename"`
	Sitetype     string         `db:"sitetype"`
	SiteVersion  string         `db:"siteversion"`
	SiteRelease  string         `db:"siterelease"`
	AdminEmail   string         `db:"adminemail"`
	TotalUsers   int64          `db:"totalusers"`
	AdminUsers   int64          `db:"adminusers"`
	Teachers     int64          `db:"teachers"`
	ActiveUsers  int64          `db:"activeusers"`
	TotalCourses int64          `db:"totalcourses"`
	Courses      sql.NullString `db:"courses"`
	TimeModified time.Time      `db:"timemodified"`
}

// InsertStagedSiteinfo appends s and sets s.ID.
func InsertStagedSiteinfo(ctx context.Context, q Queryer, s *StagedSiteinfo) error {
	id, err := insert(ctx, q,
		`INSERT INTO siteinfo (source, baseurl, basepath, sitename, sitetype, siteversion,
		     siterelease, adminemail, totalusers, adminusers, teachers, activeusers,
		     totalcourses, courses, timemodified)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.Source, s.BaseURL, s.BasePath, s.Sitename, s.Sitetype, s.SiteVersion,
		s.SiteRelease, s.AdminEmail, s.TotalUsers, s.AdminUsers, s.Teachers, s.ActiveUsers,
		s.TotalCourses, s.Courses, s.TimeModified.UTC())
	if err != nil {
		return err
	}
	s.ID = id
	return nil
}

// CountStagedSiteinfo returns the number of staged rows.
func CountStagedSiteinfo(ctx context.Context, q Queryer) (int, error) {
	var n int
	err := q.GetContext(ctx, &n, `SELECT COUNT(*) FROM siteinfo`)
	return n, err
}
