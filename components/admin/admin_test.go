package admin

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/orvsd/central/internal/auth"
	"github.com/orvsd/central/internal/central"
	"github.com/orvsd/central/internal/central/centraltest"
	"github.com/orvsd/central/internal/component/componenttest"
)

func newEnv(t *testing.T) (*componenttest.Env, *central.User) {
	env := componenttest.New(t)
	env.Mount(t, &Component{})
	return env, env.User(t, "root", central.RoleAdmin)
}

func TestAdminRequiresRole(t *testing.T) {
	env, _ := newEnv(t)
	desk := env.User(t, "desk", central.RoleHelpDesk)

	if rec := env.Get(t, "/add/district", nil); rec.Code != http.StatusSeeOther {
		t.Errorf("anonymous code = %d", rec.Code)
	}
	if rec := env.Get(t, "/add/district", desk); rec.Code != http.StatusForbidden {
		t.Errorf("help desk code = %d", rec.Code)
	}
	if rec := env.Post(t, "/remove/courses", url.Values{"remove": {"1"}}, desk); rec.Code != http.StatusForbidden {
		t.Errorf("help desk remove code = %d", rec.Code)
	}
}

func TestAddDistrict(t *testing.T) {
	env, admin := newEnv(t)

	rec := env.Post(t, "/add/district", url.Values{"name": {"Applegate SD"}, "shortname": {"applegate"}}, admin)
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "District Applegate SD added.") {
		t.Error("missing success notice")
	}
	if n := centraltest.Count(t, env.DB, "districts"); n != 1 {
		t.Errorf("districts = %d", n)
	}

	rec = env.Post(t, "/add/district", url.Values{"name": {"  "}, "shortname": {"x"}}, admin)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("invalid code = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "This field is required.") {
		t.Error("missing required message")
	}
	if n := centraltest.Count(t, env.DB, "districts"); n != 1 {
		t.Errorf("districts after invalid post = %d", n)
	}
}

func TestAddSchool(t *testing.T) {
	env, admin := newEnv(t)
	ctx := context.Background()
	d := central.District{Name: "Applegate SD", Shortname: "applegate"}
	if err := central.InsertDistrict(ctx, env.DB, &d); err != nil {
		t.Fatalf("InsertDistrict: %v", err)
	}

	if rec := env.Get(t, "/add/school", admin); !strings.Contains(rec.Body.String(), "Applegate SD") {
		t.Error("district missing from select")
	}

	rec := env.Post(t, "/add/school", url.Values{
		"district":  {strconv.FormatInt(d.ID, 10)},
		"name":      {"Ruch"},
		"shortname": {"ruch"},
		"domain":    {"https://ruch.example.org"},
	}, admin)
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d", rec.Code)
	}
	s, err := central.SchoolByDomain(ctx, env.DB, "ruch.example.org")
	if err != nil {
		t.Fatalf("SchoolByDomain: %v", err)
	}
	if !s.DistrictID.Valid || s.DistrictID.Int64 != d.ID {
		t.Errorf("district_id = %+v", s.DistrictID)
	}

	rec = env.Post(t, "/add/school", url.Values{
		"district": {"999"}, "name": {"Lost"}, "shortname": {"lost"}, "domain": {"lost.example.org"},
	}, admin)
	if rec.Code != http.StatusUnprocessableEntity || !strings.Contains(rec.Body.String(), "No such district.") {
		t.Errorf("unknown district code = %d", rec.Code)
	}

	rec = env.Post(t, "/add/school", url.Values{
		"district": {"abc"}, "name": {"Odd"}, "shortname": {"odd"}, "domain": {"odd.example.org"},
	}, admin)
	if rec.Code != http.StatusUnprocessableEntity || !strings.Contains(rec.Body.String(), "Invalid value.") {
		t.Errorf("non-numeric district code = %d", rec.Code)
	}

	rec = env.Post(t, "/add/school", url.Values{"name": {"Free"}, "shortname": {"free"}, "domain": {"free.example.org"}}, admin)
	if rec.Code != http.StatusOK {
		t.Fatalf("no district code = %d", rec.Code)
	}
	if s, err := central.SchoolByDomain(ctx, env.DB, "free.example.org"); err != nil || s.DistrictID.Valid {
		t.Errorf("school without district = %+v, %v", s, err)
	}
}

func TestAddCourseAndPackage(t *testing.T) {
	env, admin := newEnv(t)
	ctx := context.Background()

	rec := env.Post(t, "/add/course", url.Values{
		"serial": {"1042"}, "name": {"Biology"}, "shortname": {"Bio101"}, "category": {"Science"},
	}, admin)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Course Biology added successfully.") {
		t.Fatalf("code = %d", rec.Code)
	}
	co, err := central.CourseByName(ctx, env.DB, "Biology")
	if err != nil {
		t.Fatalf("CourseByName: %v", err)
	}
	if co.Serial != 1042 {
		t.Errorf("serial = %d", co.Serial)
	}

	rec = env.Post(t, "/add/coursedetail", url.Values{
		"course":   {strconv.FormatInt(co.ID, 10)},
		"filename": {"bio.mbz"},
		"version":  {"2.5"},
		"source":   {"oer"},
		"active":   {"true"},
	}, admin)
	if rec.Code != http.StatusOK {
		t.Fatalf("package code = %d", rec.Code)
	}
	details, err := central.CourseDetailsByCourseIDs(ctx, env.DB, []int64{co.ID})
	if err != nil || len(details) != 1 {
		t.Fatalf("details = %+v, %v", details, err)
	}
	if d := details[0]; d.Filename != "bio.mbz" || d.Version != 2.5 || !d.Active || !d.Updated.Valid {
		t.Errorf("detail = %+v", d)
	}

	rec = env.Post(t, "/add/coursedetail", url.Values{"course": {"999"}, "filename": {"x.mbz"}, "source": {"oer"}}, admin)
	if rec.Code != http.StatusUnprocessableEntity || !strings.Contains(rec.Body.String(), "No such course.") {
		t.Errorf("unknown course code = %d", rec.Code)
	}
}

func TestAddUser(t *testing.T) {
	env, admin := newEnv(t)
	ctx := context.Background()

	valid := url.Values{
		"name":     {"helper"},
		"email":    {"helper@example.org"},
		"password": {"longenough"},
		"confirm":  {"longenough"},
		"role":     {"2"},
	}

	bad := url.Values{}
	for k, v := range valid {
		bad[k] = v
	}
	bad.Set("confirm", "different")
	rec := env.Post(t, "/add/user", bad, admin)
	if rec.Code != http.StatusUnprocessableEntity || !strings.Contains(rec.Body.String(), "Values do not match.") {
		t.Fatalf("mismatch code = %d", rec.Code)
	}

	rec = env.Post(t, "/add/user", valid, admin)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "helper has been added successfully.") {
		t.Fatalf("code = %d", rec.Code)
	}
	u, err := auth.Authenticate(ctx, env.DB, "helper", "longenough")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if u.Role != central.RoleHelpDesk {
		t.Errorf("role = %d", u.Role)
	}

	rec = env.Post(t, "/add/user", valid, admin)
	if rec.Code != http.StatusUnprocessableEntity || !strings.Contains(rec.Body.String(), "That name is taken.") {
		t.Errorf("duplicate name code = %d", rec.Code)
	}

	valid.Set("name", "other")
	rec = env.Post(t, "/add/user", valid, admin)
	if rec.Code != http.StatusUnprocessableEntity || !strings.Contains(rec.Body.String(), "That e-mail is already registered.") {
		t.Errorf("duplicate email code = %d", rec.Code)
	}
}

func TestDisplayAndRemove(t *testing.T) {
	env, admin := newEnv(t)
	ctx := context.Background()
	var ids []string
	for _, name := range []string{"Biology", "Chemistry", "Physics"} {
		co := central.Course{Name: name, Shortname: name[:3]}
		if err := central.InsertCourse(ctx, env.DB, &co); err != nil {
			t.Fatalf("InsertCourse: %v", err)
		}
		ids = append(ids, strconv.FormatInt(co.ID, 10))
	}

	rec := env.Get(t, "/display/courses", admin)
	if rec.Code != http.StatusOK {
		t.Fatalf("display code = %d", rec.Code)
	}
	for _, want := range []string{"Biology", "Chemistry", "Physics", `name="remove"`} {
		if !strings.Contains(rec.Body.String(), want) {
			t.Errorf("display missing %q", want)
		}
	}
	if strings.Contains(env.Get(t, "/display/users", admin).Body.String(), "$2a$") {
		t.Error("password hash listed")
	}

	rec = env.Post(t, "/remove/courses", url.Values{"remove": ids[:2]}, admin)
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/display/courses?removed=2" {
		t.Fatalf("remove code = %d, location = %q", rec.Code, rec.Header().Get("Location"))
	}
	if n := centraltest.Count(t, env.DB, "courses"); n != 1 {
		t.Errorf("courses left = %d", n)
	}
	if !strings.Contains(env.Get(t, "/display/courses?removed=2", admin).Body.String(), "Removed 2 courses.") {
		t.Error("missing removal notice")
	}

	if rec := env.Post(t, "/remove/courses", url.Values{"remove": {"x"}}, admin); rec.Code != http.StatusBadRequest {
		t.Errorf("bad id code = %d", rec.Code)
	}
	if rec := env.Get(t, "/display/widgets", admin); rec.Code != http.StatusNotFound {
		t.Errorf("unknown category code = %d", rec.Code)
	}
}
