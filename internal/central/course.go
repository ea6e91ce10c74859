// internal/central/course.go
//
// Course catalogue helpers.  The gatherer does not touch these tables;
// they back the admin UI and the course-install trigger.

package central

import (
	"context"

	"github.com/jmoiron/sqlx"
)

const courseCols = `id, serial, name, shortname, license, category`

// ListCourses returns every course ordered by name.
func ListCourses(ctx context.Context, q Queryer) ([]Course, error) {
	var out []Course
	err := q.SelectContext(ctx, &out, `SELECT `+courseCols+` FROM courses ORDER BY name`)
	return out, err
}

// CourseByName returns the first course with an exact name match.
func CourseByName(ctx context.Context, q Queryer, name string) (*Course, error) {
	var c Course
	if err := get(ctx, q, &c, `SELECT `+courseCols+` FROM courses WHERE name = ? LIMIT 1`, name); err != nil {
		return nil, err
	}
	return &c, nil
}

// InsertCourse stores c and sets c.ID.
func InsertCourse(ctx context.Context, q Queryer, c *Course) error {
	id, err := insert(ctx, q,
		`INSERT INTO courses (serial, name, shortname, license, category) VALUES (?, ?, ?, ?, ?)`,
		c.Serial, c.Name, c.Shortname, c.License, c.Category)
	if err != nil {
		return err
	}
	c.ID = id
	return nil
}

// CoursesBySite follows the sites_courses association.
func CoursesBySite(ctx context.Context, q Queryer, siteID int64) ([]Course, error) {
	var out []Course
	err := q.SelectContext(ctx, &out,
		`SELECT c.id, c.serial, c.name, c.shortname, c.license, c.category
		   FROM courses c
		   JOIN sites_courses sc ON sc.course_id = c.id
		  WHERE sc.site_id = ?
		  ORDER BY c.name`, siteID)
	return out, err
}

const courseDetailSelect = `SELECT cd.id, cd.course_id, cd.filename, cd.version, cd.updated, cd.active,
       cd.moodle_version, cd.source, c.name AS course_name, c.shortname AS course_shortname
  FROM course_details cd
  JOIN courses c ON c.id = cd.course_id`

// ListCourseDetails returns every packaged course version with its
// course name, ordered for the install picker.
func ListCourseDetails(ctx context.Context, q Queryer) ([]CourseDetail, error) {
	var out []CourseDetail
	err := q.SelectContext(ctx, &out, courseDetailSelect+` ORDER BY c.name, cd.version DESC`)
	return out, err
}

// CourseDetailsByCourseIDs returns the packaged versions of the given
// courses.  An empty ids slice returns nil without querying.
func CourseDetailsByCourseIDs(ctx context.Context, q Queryer, ids []int64) ([]CourseDetail, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(courseDetailSelect+` WHERE cd.course_id IN (?) ORDER BY cd.id`, ids)
	if err != nil {
		return nil, err
	}
	var out []CourseDetail
	err = q.SelectContext(ctx, &out, q.Rebind(query), args...)
	return out, err
}

// InsertCourseDetail stores d and sets d.ID.
func InsertCourseDetail(ctx context.Context, q Queryer, d *CourseDetail) error {
	id, err := insert(ctx, q,
		`INSERT INTO course_details (course_id, filename, version, updated, active, moodle_version, source)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		d.CourseID, d.Filename, d.Version, d.Updated, d.Active, d.MoodleVersion, d.Source)
	if err != nil {
		return err
	}
	d.ID = id
	return nil
}
