// internal/report/report.go
//
// Report page model.
//
// Context
// -------
// The /report page shows an accordion of districts → schools → sites with
// per-district totals, a flat course list, and store-wide counts.  Build
// assembles that tree in one read pass; the template only walks it.
//
// Filters
// -------
// Filter.District and Filter.School narrow the tree by exact name.  The
// empty string and "All" mean no filter.  Schools without a district are
// grouped under a synthetic "Unassigned" section so freshly gathered
// schools are visible before an admin assigns them.

package report

import (
	"context"
	"errors"

	"github.com/orvsd/central/internal/central"
	"github.com/orvsd/central/internal/routing"
)

// FilterAll disables a name filter.
const FilterAll = "All"

// Filter narrows the report tree.
type Filter struct {
	District string
	School   string
}

func (f Filter) matchDistrict(name string) bool {
	return f.District == "" || f.District == FilterAll || f.District == name
}

func (f Filter) matchSchool(name string) bool {
	return f.School == "" || f.School == FilterAll || f.School == name
}

// SiteRow is one site with its newest snapshot, if any.
type SiteRow struct {
	central.Site
	Latest *central.SiteDetail
}

// SchoolSection is one school in the accordion.
type SchoolSection struct {
	School central.School
	Anchor string
	Sites  []SiteRow
	Totals Totals
}

// DistrictSection is one district in the accordion.  District.ID is 0
// for the Unassigned section.
type DistrictSection struct {
	District central.District
	Anchor   string
	Schools  []SchoolSection
	Totals   Totals
}

// Report is the full page model.
type Report struct {
	Filter    Filter
	Counts    central.Counts
	Districts []DistrictSection
	Courses   []central.Course

	// Names feed the filter drop-downs.
	DistrictNames []string
	SchoolNames   []string
}

// Build reads the store and assembles the report tree.
func Build(ctx context.Context, q central.Queryer, f Filter) (*Report, error) {
	r := &Report{Filter: f}

	var err error
	if r.Counts, err = central.CountAll(ctx, q); err != nil {
		return nil, err
	}
	if r.Courses, err = central.ListCourses(ctx, q); err != nil {
		return nil, err
	}

	districts, err := central.ListDistricts(ctx, q)
	if err != nil {
		return nil, err
	}
	schools, err := central.ListSchools(ctx, q)
	if err != nil {
		return nil, err
	}

	byDistrict := make(map[int64][]central.School)
	for _, s := range schools {
		r.SchoolNames = append(r.SchoolNames, s.Name)
		key := int64(0)
		if s.DistrictID.Valid {
			key = s.DistrictID.Int64
		}
		byDistrict[key] = append(byDistrict[key], s)
	}

	for _, d := range districts {
		r.DistrictNames = append(r.DistrictNames, d.Name)
		if !f.matchDistrict(d.Name) {
			continue
		}
		sec, err := buildDistrict(ctx, q, f, d, byDistrict[d.ID])
		if err != nil {
			return nil, err
		}
		r.Districts = append(r.Districts, sec)
	}

	if orphans := byDistrict[0]; len(orphans) > 0 && (f.District == "" || f.District == FilterAll) {
		sec, err := buildDistrict(ctx, q, f, central.District{Name: "Unassigned", Shortname: "unassigned"}, orphans)
		if err != nil {
			return nil, err
		}
		r.Districts = append(r.Districts, sec)
	}
	return r, nil
}

func buildDistrict(ctx context.Context, q central.Queryer, f Filter, d central.District, schools []central.School) (DistrictSection, error) {
	sec := DistrictSection{
		District: d,
		Anchor:   routing.AnchorID("district", d.ID, d.Shortname),
	}

	for _, s := range schools {
		if !f.matchSchool(s.Name) {
			continue
		}
		ss := SchoolSection{
			School: s,
			Anchor: routing.AnchorID("school", s.ID, s.Shortname),
		}

		sites, err := central.SitesBySchool(ctx, q, s.ID)
		if err != nil {
			return sec, err
		}
		for _, site := range sites {
			row := SiteRow{Site: site}
			latest, err := central.LatestSiteDetail(ctx, q, site.ID)
			switch {
			case err == nil:
				row.Latest = latest
				ss.Totals = ss.Totals.Add(Totals{Admins: latest.AdminUsers, Teachers: latest.Teachers, Users: latest.TotalUsers})
			case !errors.Is(err, central.ErrNotFound):
				return sec, err
			}
			ss.Sites = append(ss.Sites, row)
		}

		sec.Totals = sec.Totals.Add(ss.Totals)
		sec.Schools = append(sec.Schools, ss)
	}
	return sec, nil
}
