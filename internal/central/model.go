// internal/central/model.go
//
// Row models for the central reporting store.
//
// Context
// -------
// Each struct mirrors one table.  They carry no behaviour beyond a few
// display helpers; all reads and writes go through the query helpers in
// this package, which accept a Queryer so callers decide whether they run
// inside a transaction.
//
// Notes
// -----
// • Nullable columns map to sql.Null* types; callers must check Valid.
// • `School.DistrictID` NULL means "no owning district yet".  Schools
//   created lazily by the siteinfo gatherer start that way.
// • Timestamps are written in UTC.

package central

import (
	"database/sql"
	"time"
)

// District owns many Schools.
type District struct {
	ID        int64  `db:"id"`
	Name      string `db:"name"`
	Shortname string `db:"shortname"`
	BasePath  string `db:"base_path"`
}

// School belongs to at most one District and owns many Sites.  Domain is
// the identity key used by the siteinfo gatherer.
type School struct {
	ID         int64         `db:"id"`
	DistrictID sql.NullInt64 `db:"district_id"`
	Name       string        `db:"name"`
	Shortname  string        `db:"shortname"`
	Domain     string        `db:"domain"`
	License    string        `db:"license"`
}

// SiteType enumerates the LMS flavours a Site can run.
type SiteType string

const (
	SiteTypeMoodle SiteType = "moodle"
	SiteTypeDrupal SiteType = "drupal"
)

// Valid reports whether t is one of the enum members.
func (t SiteType) Valid() bool {
	return t == SiteTypeMoodle || t == SiteTypeDrupal
}

// Site is one LMS install.  BaseURL stores the protocol-stripped domain.
type Site struct {
	ID             int64        `db:"id"`
	SchoolID       int64        `db:"school_id"`
	Sitename       string       `db:"sitename"`
	Sitetype       SiteType     `db:"sitetype"`
	BaseURL        string       `db:"baseurl"`
	BasePath       string       `db:"basepath"`
	JenkinsCronJob sql.NullTime `db:"jenkins_cron_job"`
	Location       string       `db:"location"`
}

// SiteDetail is one immutable snapshot of a site's self-reported status.
type SiteDetail struct {
	ID           int64          `db:"id"`
	SiteID       int64          `db:"site_id"`
	SiteVersion  string         `db:"siteversion"`
	SiteRelease  string         `db:"siterelease"`
	AdminEmail   string         `db:"adminemail"`
	TotalUsers   int64          `db:"totalusers"`
	AdminUsers   int64          `db:"adminusers"`
	Teachers     int64          `db:"teachers"`
	ActiveUsers  int64          `db:"activeusers"`
	TotalCourses int64          `db:"totalcourses"`
	Courses      sql.NullString `db:"courses"` // raw JSON, kept for later reconciliation
	TimeModified time.Time      `db:"timemodified"`
}

// Course is one installable course package.  Serial is the catalogue key
// remote sites report; it is distinct from ID.
type Course struct {
	ID        int64  `db:"id"`
	Serial    int64  `db:"serial"`
	Name      string `db:"name"`
	Shortname string `db:"shortname"`
	License   string `db:"license"`
	Category  string `db:"category"`
}

// CourseDetail is one packaged version of a Course.
type CourseDetail struct {
	ID            int64        `db:"id"`
	CourseID      int64        `db:"course_id"`
	Filename      string       `db:"filename"`
	Version       float64      `db:"version"`
	Updated       sql.NullTime `db:"updated"`
	Active        bool         `db:"active"`
	MoodleVersion string       `db:"moodle_version"`
	Source        string       `db:"source"`

	// Joined from courses; empty when loaded without the join.
	CourseName      string `db:"course_name"`
	CourseShortname string `db:"course_shortname"`
}

// Role levels, lowest to highest.  A user may access anything at or
// below their level.
const (
	RoleUser     = 1
	RoleHelpDesk = 2
	RoleAdmin    = 3
)

// User is an operator of the web UI.  Password holds a bcrypt hash.
type User struct {
	ID       int64  `db:"id"`
	Name     string `db:"name"`
	Email    string `db:"email"`
	Password string `db:"password"`
	Role     int    `db:"role"`
}
