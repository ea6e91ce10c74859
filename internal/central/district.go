// internal/central/district.go
//
// District and School query helpers.

package central

import (
	"context"
	"database/sql"
)

const districtCols = `id, name, shortname, base_path`

// ListDistricts returns every district ordered by name.
func ListDistricts(ctx context.Context, q Queryer) ([]District, error) {
	var out []District
	err := q.SelectContext(ctx, &out, `SELECT `+districtCols+` FROM districts ORDER BY name`)
	return out, err
}

// DistrictByName returns the first district with an exact name match.
func DistrictByName(ctx context.Context, q Queryer, name string) (*District, error) {
	var d District
	if err := get(ctx, q, &d, `SELECT `+districtCols+` FROM districts WHERE name = ? LIMIT 1`, name); err != nil {
		return nil, err
	}
	return &d, nil
}

// DistrictByID returns one district.
func DistrictByID(ctx context.Context, q Queryer, id int64) (*District, error) {
	var d District
	if err := get(ctx, q, &d, `SELECT `+districtCols+` FROM districts WHERE id = ?`, id); err != nil {
		return nil, err
	}
	return &d, nil
}

// InsertDistrict stores d and sets d.ID.
func InsertDistrict(ctx context.Context, q Queryer, d *District) error {
	id, err := insert(ctx, q,
		`INSERT INTO districts (name, shortname, base_path) VALUES (?, ?, ?)`,
		d.Name, d.Shortname, d.BasePath)
	if err != nil {
		return err
	}
	d.ID = id
	return nil
}

const schoolCols = `id, district_id, name, shortname, domain, license`

// ListSchools returns every school ordered by name.
func ListSchools(ctx context.Context, q Queryer) ([]School, error) {
	var out []School
	err := q.SelectContext(ctx, &out, `SELECT `+schoolCols+` FROM schools ORDER BY name`)
	return out, err
}

// SchoolsByDistrict returns the schools owned by districtID.
func SchoolsByDistrict(ctx context.Context, q Queryer, districtID int64) ([]School, error) {
	var out []School
	err := q.SelectContext(ctx, &out,
		`SELECT `+schoolCols+` FROM schools WHERE district_id = ? ORDER BY name`, districtID)
	return out, err
}

// SchoolByName returns the first school with an exact name match.
func SchoolByName(ctx context.Context, q Queryer, name string) (*School, error) {
	var s School
	if err := get(ctx, q, &s, `SELECT `+schoolCols+` FROM schools WHERE name = ? LIMIT 1`, name); err != nil {
		return nil, err
	}
	return &s, nil
}

// SchoolByDomain looks a school up by its identity key.  Domains are not
// unique in the schema; the lowest id wins so repeated lookups are stable.
func SchoolByDomain(ctx context.Context, q Queryer, domain string) (*School, error) {
	var s School
	err := get(ctx, q, &s,
		`SELECT `+schoolCols+` FROM schools WHERE domain = ? ORDER BY id LIMIT 1`, domain)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// InsertSchool stores s and sets s.ID.
func InsertSchool(ctx context.Context, q Queryer, s *School) error {
	id, err := insert(ctx, q,
		`INSERT INTO schools (district_id, name, shortname, domain, license) VALUES (?, ?, ?, ?, ?)`,
		s.DistrictID, s.Name, s.Shortname, s.Domain, s.License)
	if err != nil {
		return err
	}
	s.ID = id
	return nil
}

// NoDistrict is the zero DistrictID: the school has no owner.
var NoDistrict = sql.NullInt64{}
