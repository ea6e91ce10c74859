// internal/central/site.go
//
// Site and SiteDetail query helpers.
//
// Notes
// -----
// • SiteDetail is append-only.  There is deliberately no update or delete
//   helper here; removal happens only through DeleteByIDs from the admin UI.
// • LatestSiteDetail breaks timemodified ties on id so "most recent" is
//   deterministic when two rows share a timestamp.

package central

import "context"

const siteCols = `id, school_id, sitename, sitetype, baseurl, basepath, jenkins_cron_job, location`

// ListSites returns every site ordered by sitename.
func ListSites(ctx context.Context, q Queryer) ([]Site, error) {
	var out []Site
	err := q.SelectContext(ctx, &out, `SELECT `+siteCols+` FROM sites ORDER BY sitename`)
	return out, err
}

// SitesBySchool returns the sites owned by schoolID ordered by id.
func SitesBySchool(ctx context.Context, q Queryer, schoolID int64) ([]Site, error) {
	var out []Site
	err := q.SelectContext(ctx, &out,
		`SELECT `+siteCols+` FROM sites WHERE school_id = ? ORDER BY id`, schoolID)
	return out, err
}

// SiteByBaseURL looks a site up by its stored (protocol-stripped) base URL.
func SiteByBaseURL(ctx context.Context, q Queryer, baseURL string) (*Site, error) {
	var s Site
	err := get(ctx, q, &s,
		`SELECT `+siteCols+` FROM sites WHERE baseurl = ? ORDER BY id LIMIT 1`, baseURL)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// InsertSite stores s and sets s.ID.
func InsertSite(ctx context.Context, q Queryer, s *Site) error {
	id, err := insert(ctx, q,
		`INSERT INTO sites (school_id, sitename, sitetype, baseurl, basepath, jenkins_cron_job, location)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		s.SchoolID, s.Sitename, string(s.Sitetype), s.BaseURL, s.BasePath, s.JenkinsCronJob, s.Location)
	if err != nil {
		return err
	}
	s.ID = id
	return nil
}

// UpdateSiteLocation overwrites the fields the gatherer owns: school_id,
// baseurl, basepath, and location.
func UpdateSiteLocation(ctx context.Context, q Queryer, s *Site) error {
	_, err := q.ExecContext(ctx,
		`UPDATE sites SET school_id = ?, baseurl = ?, basepath = ?, location = ? WHERE id = ?`,
		s.SchoolID, s.BaseURL, s.BasePath, s.Location, s.ID)
	return err
}

const detailCols = `id, site_id, siteversion, siterelease, adminemail, totalusers, adminusers,
       teachers, activeusers, totalcourses, courses, timemodified`

// InsertSiteDetail appends one snapshot and sets d.ID.
func InsertSiteDetail(ctx context.Context, q Queryer, d *SiteDetail) error {
	id, err := insert(ctx, q,
		`INSERT INTO site_details (site_id, siteversion, siterelease, adminemail, totalusers,
		     adminusers, teachers, activeusers, totalcourses, courses, timemodified)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.SiteID, d.SiteVersion, d.SiteRelease, d.AdminEmail, d.TotalUsers,
		d.AdminUsers, d.Teachers, d.ActiveUsers, d.TotalCourses, d.Courses, d.TimeModified.UTC())
	if err != nil {
		return err
	}
	d.ID = id
	return nil
}

// LatestSiteDetail returns the newest snapshot for siteID, or ErrNotFound
// when the site has never been gathered.
func LatestSiteDetail(ctx context.Context, q Queryer, siteID int64) (*SiteDetail, error) {
	var d SiteDetail
	err := get(ctx, q, &d,
		`SELECT `+detailCols+` FROM site_details WHERE site_id = ?
		 ORDER BY timemodified DESC, id DESC LIMIT 1`, siteID)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// CountSiteDetails returns how many snapshots exist for siteID.
func CountSiteDetails(ctx context.Context, q Queryer, siteID int64) (int, error) {
	var n int
	err := q.GetContext(ctx, &n, `SELECT COUNT(*) FROM site_details WHERE site_id = ?`, siteID)
	return n, err
}

// Counts holds the headline totals shown on the report page.
type Counts struct {
	Districts   int `db:"districts"`
	Schools     int `db:"schools"`
	Sites       int `db:"sites"`
	Courses     int `db:"courses"`
	SiteDetails int `db:"site_details"`
}

// CountAll returns row counts for the report header.
func CountAll(ctx context.Context, q Queryer) (Counts, error) {
	var c Counts
	err := q.GetContext(ctx, &c, `SELECT
	    (SELECT COUNT(*) FROM districts)    AS districts,
	    (SELECT COUNT(*) FROM schools)      AS schools,
	    (SELECT COUNT(*) FROM sites)        AS sites,
	    (SELECT COUNT(*) FROM courses)      AS courses,
	    (SELECT COUNT(*) FROM site_details) AS site_details`)
	return c, err
}
