// internal/central/category.go
//
// Generic listing and removal by category.
//
// Context
// -------
// The admin UI has one "display" page and one "remove" action that work
// for every entity.  A Category names the entity; its definition fixes the
// table and the columns shown, so no user input ever reaches the SQL text.
// Password hashes are never listed.

package central

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
)

// Category identifies an entity for the generic admin pages.
type Category string

const (
	CatDistricts     Category = "districts"
	CatSchools       Category = "schools"
	CatSites         Category = "sites"
	CatSiteDetails   Category = "sitedetails"
	CatCourses       Category = "courses"
	CatCourseDetails Category = "coursedetails"
	CatUsers         Category = "users"
)

// ErrUnknownCategory is returned by ParseCategory.
var ErrUnknownCategory = errors.New("central: unknown category")

type categoryDef struct {
	table string
	cols  []string
}

var categories = map[Category]categoryDef{
	CatDistricts:     {"districts", []string{"id", "name", "shortname", "base_path"}},
	CatSchools:       {"schools", []string{"id", "district_id", "name", "shortname", "domain", "license"}},
	CatSites:         {"sites", []string{"id", "school_id", "sitename", "sitetype", "baseurl", "basepath", "jenkins_cron_job", "location"}},
	CatSiteDetails:   {"site_details", []string{"id", "site_id", "siteversion", "siterelease", "adminemail", "totalusers", "adminusers", "teachers", "activeusers", "totalcourses", "timemodified"}},
	CatCourses:       {"courses", []string{"id", "serial", "name", "shortname", "license", "category"}},
	CatCourseDetails: {"course_details", []string{"id", "course_id", "filename", "version", "updated", "active", "moodle_version", "source"}},
	CatUsers:         {"users", []string{"id", "name", "email", "role"}},
}

// ParseCategory matches s case-insensitively.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := categories[c]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownCategory, s)
	}
	return c, nil
}

// Categories returns every category in display order.
func Categories() []Category {
	return []Category{CatDistricts, CatSchools, CatSites, CatSiteDetails, CatCourses, CatCourseDetails, CatUsers}
}

// Columns returns the column names shown for c.
func (c Category) Columns() []string { return categories[c].cols }

// ListingRow is one displayed row; ID duplicates Cells[0] for form values.
type ListingRow struct {
	ID    int64
	Cells []string
}

// Listing is the generic table rendered by the display page.
type Listing struct {
	Category Category
	Columns  []string
	Rows     []ListingRow
}

// Display loads every row of c, formatted as strings.
func Display(ctx context.Context, q Queryer, c Category) (*Listing, error) {
	def, ok := categories[c]
	if !ok {
		return nil, ErrUnknownCategory
	}

	rows, err := q.QueryxContext(ctx,
		`SELECT `+strings.Join(def.cols, ", ")+` FROM `+def.table+` ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := &Listing{Category: c, Columns: def.cols}
	for rows.Next() {
		vals, err := rows.SliceScan()
		if err != nil {
			return nil, err
		}
		row := ListingRow{Cells: make([]string, len(vals))}
		for i, v := range vals {
			row.Cells[i] = cell(v)
		}
		if id, ok := asInt64(vals[0]); ok {
			row.ID = id
		}
		out.Rows = append(out.Rows, row)
	}
	return out, rows.Err()
}

// DeleteByIDs removes the given rows of c and returns how many went.
func DeleteByIDs(ctx context.Context, q Queryer, c Category, ids []int64) (int64, error) {
	def, ok := categories[c]
	if !ok {
		return 0, ErrUnknownCategory
	}
	if len(ids) == 0 {
		return 0, nil
	}

	query, args, err := sqlx.In(`DELETE FROM `+def.table+` WHERE id IN (?)`, ids)
	if err != nil {
		return 0, err
	}
	res, err := q.ExecContext(ctx, q.Rebind(query), args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func cell(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(t)
	case time.Time:
		return t.UTC().Format("2006-01-02 15:04:05")
	default:
		return fmt.Sprint(t)
	}
}

func asInt64(v any) (int64, bool) {
	switch t := v.(type) {
	case int64:
		return t, true
	case int:
		return int64(t), true
	case uint64:
		return int64(t), true
	case []byte:
		var n int64
		_, err := fmt.Sscan(string(t), &n)
		return n, err == nil
	}
	return 0, false
}
