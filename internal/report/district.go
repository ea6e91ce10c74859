// internal/report/district.go
//
// District totals.
//
// DistrictDetails sums the newest SiteDetail of every site owned by the
// given schools.  A site that was never gathered adds nothing.  The query
// runs once per site, which is fine for the tens of sites per district
// this store holds.

package report

import (
	"context"
	"errors"
	"fmt"

	"github.com/orvsd/central/internal/central"
)

// Totals are the headline counters shown per district.
type Totals struct {
	Admins   int64 `json:"admins"`
	Teachers int64 `json:"teachers"`
	Users    int64 `json:"users"`
}

// Add returns t + o.
func (t Totals) Add(o Totals) Totals {
	return Totals{
		Admins:   t.Admins + o.Admins,
		Teachers: t.Teachers + o.Teachers,
		Users:    t.Users + o.Users,
	}
}

// DistrictDetails returns the summed admin, teacher, and user counts of
// the newest snapshot of every site of schools.  Read-only.
func DistrictDetails(ctx context.Context, q central.Queryer, schools []central.School) (Totals, error) {
	var sum Totals
	for _, school := range schools {
		t, err := SchoolDetails(ctx, q, school.ID)
		if err != nil {
			return Totals{}, err
		}
		sum = sum.Add(t)
	}
	return sum, nil
}

// SchoolDetails is DistrictDetails for one school.
func SchoolDetails(ctx context.Context, q central.Queryer, schoolID int64) (Totals, error) {
	sites, err := central.SitesBySchool(ctx, q, schoolID)
	if err != nil {
		return Totals{}, fmt.Errorf("sites of school %d: %w", schoolID, err)
	}

	var sum Totals
	for _, site := range sites {
		d, err := central.LatestSiteDetail(ctx, q, site.ID)
		switch {
		case errors.Is(err, central.ErrNotFound):
			continue
		case err != nil:
			return Totals{}, fmt.Errorf("latest detail of site %d: %w", site.ID, err)
		}
		sum = sum.Add(Totals{Admins: d.AdminUsers, Teachers: d.Teachers, Users: d.TotalUsers})
	}
	return sum, nil
}
