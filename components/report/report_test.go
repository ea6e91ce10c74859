package report

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/orvsd/central/internal/central"
	"github.com/orvsd/central/internal/component/componenttest"
	ireport "github.com/orvsd/central/internal/report"
)

func seed(t *testing.T, env *componenttest.Env) central.District {
	t.Helper()
	ctx := context.Background()
	d := central.District{Name: "Applegate SD", Shortname: "applegate"}
	if err := central.InsertDistrict(ctx, env.DB, &d); err != nil {
		t.Fatalf("InsertDistrict: %v", err)
	}
	s := central.School{DistrictID: sql.NullInt64{Int64: d.ID, Valid: true}, Name: "Ruch", Shortname: "ruch", Domain: "ruch.example.org"}
	if err := central.InsertSchool(ctx, env.DB, &s); err != nil {
		t.Fatalf("InsertSchool: %v", err)
	}
	site := central.Site{SchoolID: s.ID, Sitename: "Ruch Moodle", Sitetype: central.SiteTypeMoodle, BaseURL: s.Domain, Location: "platform"}
	if err := central.InsertSite(ctx, env.DB, &site); err != nil {
		t.Fatalf("InsertSite: %v", err)
	}
	for i, users := range []int64{1000, 1234} {
		det := central.SiteDetail{SiteID: site.ID, SiteRelease: "2.5.1", AdminUsers: 2, Teachers: 9, TotalUsers: users,
			TimeModified: time.Date(2024, 9, 1+i, 0, 0, 0, 0, time.UTC)}
		if err := central.InsertSiteDetail(ctx, env.DB, &det); err != nil {
			t.Fatalf("InsertSiteDetail: %v", err)
		}
	}
	return d
}

func TestReportPage(t *testing.T) {
	env := componenttest.New(t)
	env.Mount(t, &Component{})
	seed(t, env)
	u := env.User(t, "viewer", central.RoleUser)

	rec := env.Get(t, "/report", u)
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"Applegate SD", "Ruch Moodle", "ruch.example.org", "1,234"} {
		if !strings.Contains(body, want) {
			t.Errorf("report missing %q", want)
		}
	}

	rec = env.Get(t, "/report?district=Nowhere", u)
	if !strings.Contains(rec.Body.String(), "No districts match.") {
		t.Error("filter did not narrow the report")
	}
}

func TestReportRequiresLogin(t *testing.T) {
	env := componenttest.New(t)
	env.Mount(t, &Component{})
	if rec := env.Get(t, "/report", nil); rec.Code != http.StatusSeeOther {
		t.Errorf("code = %d", rec.Code)
	}
}

func TestDistrictDetailsJSON(t *testing.T) {
	env := componenttest.New(t)
	env.Mount(t, &Component{})
	d := seed(t, env)
	u := env.User(t, "viewer", central.RoleUser)

	rec := env.Get(t, "/report/districts/"+strconv.FormatInt(d.ID, 10)+"/details", u)
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d", rec.Code)
	}
	var got ireport.Totals
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got != (ireport.Totals{Admins: 2, Teachers: 9, Users: 1234}) {
		t.Errorf("totals = %+v", got)
	}

	if rec := env.Get(t, "/report/districts/999/details", u); rec.Code != http.StatusNotFound {
		t.Errorf("unknown district code = %d", rec.Code)
	}
	if rec := env.Get(t, "/report/districts/x/details", u); rec.Code != http.StatusBadRequest {
		t.Errorf("bad id code = %d", rec.Code)
	}
}
