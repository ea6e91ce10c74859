// components/admin/add.go
//
// Add-form handlers.

package admin

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/orvsd/central/internal/auth"
	"github.com/orvsd/central/internal/central"
	"github.com/orvsd/central/internal/form"
	"github.com/orvsd/central/internal/siteinfo"
)

/*──────────────────────────── Districts ────────────────────────────────────*/

type districtInput struct {
	Name      string `form:"name"      validate:"required,max=255"`
	Shortname string `form:"shortname" validate:"required,max=255"`
	BasePath  string `form:"base_path" validate:"max=255"`
}

func (c *Component) getDistrict(w http.ResponseWriter, r *http.Request) {
	c.render(w, r, "add_district", "Add district", formData{Input: &districtInput{}}, nil, "")
}

func (c *Component) postDistrict(w http.ResponseWriter, r *http.Request) {
	var in districtInput
	none := func() formData { return formData{} }
	if !c.decode(w, r, &in, "add_district", "Add district", none) {
		return
	}

	d := central.District{Name: in.Name, Shortname: in.Shortname, BasePath: in.BasePath}
	if err := central.InsertDistrict(r.Context(), c.d.DB, &d); err != nil {
		c.d.Fail(w, r, err)
		return
	}
	c.d.Audit(r, "district added", "id", d.ID, "name", d.Name)
	c.render(w, r, "add_district", "Add district", formData{Input: &districtInput{}}, nil,
		fmt.Sprintf("District %s added.", d.Name))
}

/*──────────────────────────── Schools ──────────────────────────────────────*/

type schoolInput struct {
	District  int64  `form:"district"  validate:"gte=0"`
	Name      string `form:"name"      validate:"required,max=255"`
	Shortname string `form:"shortname" validate:"required,max=255"`
	Domain    string `form:"domain"    validate:"required,max=255"`
	License   string `form:"license"   validate:"max=255"`
}

func (c *Component) getSchool(w http.ResponseWriter, r *http.Request) {
	ds, err := central.ListDistricts(r.Context(), c.d.DB)
	if err != nil {
		c.d.Fail(w, r, err)
		return
	}
	c.render(w, r, "add_school", "Add school", formData{Input: &schoolInput{}, Districts: ds}, nil, "")
}

func (c *Component) postSchool(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ds, err := central.ListDistricts(ctx, c.d.DB)
	if err != nil {
		c.d.Fail(w, r, err)
		return
	}
	withDistricts := func() formData { return formData{Districts: ds} }

	var in schoolInput
	if !c.decode(w, r, &in, "add_school", "Add school", withDistricts) {
		return
	}

	s := central.School{
		Name:      in.Name,
		Shortname: in.Shortname,
		Domain:    siteinfo.StripProtocol(in.Domain),
		License:   in.License,
	}
	if in.District > 0 {
		if _, err := central.DistrictByID(ctx, c.d.DB, in.District); err != nil {
			if errors.Is(err, central.ErrNotFound) {
				c.render(w, r, "add_school", "Add school", formData{Input: &in, Districts: ds},
					[]form.ErrorField{{Name: "district", Message: "No such district."}}, "")
				return
			}
			c.d.Fail(w, r, err)
			return
		}
		s.DistrictID = sql.NullInt64{Int64: in.District, Valid: true}
	}

	if err := central.InsertSchool(ctx, c.d.DB, &s); err != nil {
		c.d.Fail(w, r, err)
		return
	}
	c.d.Audit(r, "school added", "id", s.ID, "name", s.Name, "domain", s.Domain)
	c.render(w, r, "add_school", "Add school", formData{Input: &schoolInput{}, Districts: ds}, nil,
		fmt.Sprintf("School %s added.", s.Name))
}

/*──────────────────────────── Courses ──────────────────────────────────────*/

type courseInput struct {
	Serial    int64  `form:"serial"    validate:"gte=0"`
	Name      string `form:"name"      validate:"required,max=255"`
	Shortname string `form:"shortname" validate:"required,max=255"`
	License   string `form:"license"   validate:"max=255"`
	Category  string `form:"category"  validate:"max=255"`
}

func (c *Component) getCourse(w http.ResponseWriter, r *http.Request) {
	c.render(w, r, "add_course", "Add course", formData{Input: &courseInput{}}, nil, "")
}

func (c *Component) postCourse(w http.ResponseWriter, r *http.Request) {
	var in courseInput
	none := func() formData { return formData{} }
	if !c.decode(w, r, &in, "add_course", "Add course", none) {
		return
	}

	co := central.Course{Serial: in.Serial, Name: in.Name, Shortname: in.Shortname, License: in.License, Category: in.Category}
	if err := central.InsertCourse(r.Context(), c.d.DB, &co); err != nil {
		c.d.Fail(w, r, err)
		return
	}
	c.d.Audit(r, "course added", "id", co.ID, "name", co.Name)
	c.render(w, r, "add_course", "Add course", formData{Input: &courseInput{}}, nil,
		fmt.Sprintf("Course %s added successfully.", co.Name))
}

/*──────────────────────────── Course packages ──────────────────────────────*/

type courseDetailInput struct {
	Course        int64   `form:"course"         validate:"required,gt=0"`
	Filename      string  `form:"filename"       validate:"required,max=255"`
	Version       float64 `form:"version"        validate:"gte=0"`
	MoodleVersion string  `form:"moodle_version" validate:"max=255"`
	Source        string  `form:"source"         validate:"required,max=255"`
	Active        bool    `form:"active"`
}

func (c *Component) getCourseDetail(w http.ResponseWriter, r *http.Request) {
	cs, err := central.ListCourses(r.Context(), c.d.DB)
	if err != nil {
		c.d.Fail(w, r, err)
		return
	}
	c.render(w, r, "add_coursedetail", "Add course package",
		formData{Input: &courseDetailInput{Active: true}, Courses: cs}, nil, "")
}

func (c *Component) postCourseDetail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	cs, err := central.ListCourses(ctx, c.d.DB)
	if err != nil {
		c.d.Fail(w, r, err)
		return
	}
	withCourses := func() formData { return formData{Courses: cs} }

	var in courseDetailInput
	if !c.decode(w, r, &in, "add_coursedetail", "Add course package", withCourses) {
		return
	}

	known := false
	for _, co := range cs {
		known = known || co.ID == in.Course
	}
	if !known {
		c.render(w, r, "add_coursedetail", "Add course package", formData{Input: &in, Courses: cs},
			[]form.ErrorField{{Name: "course", Message: "No such course."}}, "")
		return
	}

	d := central.CourseDetail{
		CourseID:      in.Course,
		Filename:      in.Filename,
		Version:       in.Version,
		Updated:       sql.NullTime{Time: time.Now().UTC(), Valid: true},
		Active:        in.Active,
		MoodleVersion: in.MoodleVersion,
		Source:        in.Source,
	}
	if err := central.InsertCourseDetail(ctx, c.d.DB, &d); err != nil {
		c.d.Fail(w, r, err)
		return
	}
	c.d.Audit(r, "course package added", "id", d.ID, "course_id", d.CourseID, "file", d.Filename)
	c.render(w, r, "add_coursedetail", "Add course package",
		formData{Input: &courseDetailInput{Active: true}, Courses: cs}, nil,
		fmt.Sprintf("Package %s added.", d.Filename))
}

/*──────────────────────────── Users ────────────────────────────────────────*/

type userInput struct {
	Name     string `form:"name"     validate:"required,max=50"`
	Email    string `form:"email"    validate:"required,email,max=120"`
	Password string `form:"password" validate:"required,min=8"`
	Confirm  string `form:"confirm"  validate:"required,eqfield=Password"`
	Role     int    `form:"role"     validate:"required,oneof=1 2 3"`
}

func (c *Component) getUser(w http.ResponseWriter, r *http.Request) {
	c.render(w, r, "add_user", "Add user", formData{Input: &userInput{Role: central.RoleUser}}, nil, "")
}

func (c *Component) postUser(w http.ResponseWriter, r *http.Request) {
	var in userInput
	none := func() formData { return formData{} }
	if !c.decode(w, r, &in, "add_user", "Add user", none) {
		return
	}
	ctx := r.Context()

	blank := userInput{Name: in.Name, Email: in.Email, Role: in.Role}
	if _, err := central.UserByName(ctx, c.d.DB, in.Name); err == nil {
		c.render(w, r, "add_user", "Add user", formData{Input: &blank},
			[]form.ErrorField{{Name: "name", Message: "That name is taken."}}, "")
		return
	} else if !errors.Is(err, central.ErrNotFound) {
		c.d.Fail(w, r, err)
		return
	}
	if _, err := central.UserByEmail(ctx, c.d.DB, in.Email); err == nil {
		c.render(w, r, "add_user", "Add user", formData{Input: &blank},
			[]form.ErrorField{{Name: "email", Message: "That e-mail is already registered."}}, "")
		return
	} else if !errors.Is(err, central.ErrNotFound) {
		c.d.Fail(w, r, err)
		return
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		c.d.Fail(w, r, err)
		return
	}
	u := central.User{Name: in.Name, Email: in.Email, Password: hash, Role: in.Role}
	if err := central.InsertUser(ctx, c.d.DB, &u); err != nil {
		c.d.Fail(w, r, err)
		return
	}
	c.d.Audit(r, "user added", "id", u.ID, "name", u.Name, "role", u.Role)
	c.render(w, r, "add_user", "Add user", formData{Input: &userInput{Role: central.RoleUser}}, nil,
		fmt.Sprintf("%s has been added successfully.", u.Name))
}
