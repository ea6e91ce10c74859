package central_test

import (
	"context"
	"testing"

	"github.com/orvsd/central/internal/central"
	"github.com/orvsd/central/internal/central/centraltest"
)

func TestMigrate_CreatesTables(t *testing.T) {
	db := centraltest.Open(t)

	tables := []string{
		"districts", "schools", "sites", "site_details", "courses",
		"course_details", "sites_courses", "users", "siteinfo",
	}
	for _, table := range tables {
		var name string
		err := db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %q not found: %v", table, err)
		}
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	db := centraltest.Open(t)

	if err := central.Migrate(context.Background(), db); err != nil {
		t.Fatalf("second migrate failed: %v", err)
	}
}

func TestSchoolAndSiteRoundTrip(t *testing.T) {
	db := centraltest.Open(t)
	ctx := context.Background()

	school := central.School{Name: "Lincoln", Shortname: "Lincoln", Domain: "lincoln.example.org"}
	if err := central.InsertSchool(ctx, db, &school); err != nil {
		t.Fatalf("InsertSchool: %v", err)
	}
	if school.ID == 0 {
		t.Fatal("InsertSchool did not set ID")
	}

	got, err := central.SchoolByDomain(ctx, db, "lincoln.example.org")
	if err != nil {
		t.Fatalf("SchoolByDomain: %v", err)
	}
	if got.ID != school.ID || got.DistrictID.Valid {
		t.Fatalf("SchoolByDomain = %+v, want id %d with no district", got, school.ID)
	}

	if _, err := central.SchoolByDomain(ctx, db, "missing.example.org"); err != central.ErrNotFound {
		t.Fatalf("missing domain err = %v, want ErrNotFound", err)
	}

	site := central.Site{
		SchoolID: school.ID,
		Sitename: "Lincoln Moodle",
		Sitetype: central.SiteTypeMoodle,
		BaseURL:  "lincoln.example.org",
		Location: "platform",
	}
	if err := central.InsertSite(ctx, db, &site); err != nil {
		t.Fatalf("InsertSite: %v", err)
	}

	site.BasePath = "/var/www/lincoln"
	if err := central.UpdateSiteLocation(ctx, db, &site); err != nil {
		t.Fatalf("UpdateSiteLocation: %v", err)
	}
	back, err := central.SiteByBaseURL(ctx, db, "lincoln.example.org")
	if err != nil {
		t.Fatalf("SiteByBaseURL: %v", err)
	}
	if back.BasePath != "/var/www/lincoln" || back.Sitetype != central.SiteTypeMoodle {
		t.Fatalf("SiteByBaseURL = %+v", back)
	}
}
