// components/admin/admin.go
//
// Admin component – add forms for every catalogue entity plus the generic
// display and remove pages.
//
// Context
// -------
// Every route here requires the admin role.  Add forms re-render on
// success with a notice and an empty form, so an operator can enter
// several rows in a row.  Removal works on any central.Category and runs
// in one transaction.
//
//------------------------------------------------------------------------------

package admin

import (
	"embed"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/orvsd/central/internal/acl"
	"github.com/orvsd/central/internal/central"
	"github.com/orvsd/central/internal/component"
	"github.com/orvsd/central/internal/form"
)

//go:embed templates/*.html
var templates embed.FS

var _ component.Component = (*Component)(nil)

// Component serves the admin pages.
type Component struct {
	d *component.Deps
}

func (c *Component) Name() string { return "admin" }

func (c *Component) Init(d *component.Deps) error {
	c.d = d
	return nil
}

func (c *Component) Routes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(acl.RequireRole(central.RoleAdmin))

		r.Get("/add/district", c.getDistrict)
		r.Post("/add/district", c.postDistrict)
		r.Get("/add/school", c.getSchool)
		r.Post("/add/school", c.postSchool)
		r.Get("/add/course", c.getCourse)
		r.Post("/add/course", c.postCourse)
		r.Get("/add/coursedetail", c.getCourseDetail)
		r.Post("/add/coursedetail", c.postCourseDetail)
		r.Get("/add/user", c.getUser)
		r.Post("/add/user", c.postUser)

		r.Get("/display/{category}", c.display)
		r.Post("/remove/{category}", c.remove)
	})
}

func init() { component.Register(&Component{}) }

// formData is what every add template receives.
type formData struct {
	Input     any
	Districts []central.District
	Courses   []central.Course
}

// render shows page name with the given input and errors.  A non-empty
// notice is shown above the form.
func (c *Component) render(w http.ResponseWriter, r *http.Request, name, title string, data formData, errs []form.ErrorField, notice string) {
	p := c.d.Page(r, title, data)
	p.Errors = errs
	if notice != "" {
		p.Flash = append(p.Flash, notice)
	}
	if len(errs) > 0 {
		p.Status = http.StatusUnprocessableEntity
	}
	if err := c.d.View.Render(w, c.Name(), templates, name, p); err != nil {
		c.d.Fail(w, r, err)
	}
}

// decode runs form.Decode and reports whether the handler should carry
// on.  Validation failures re-render name; other errors become a 500.
func (c *Component) decode(w http.ResponseWriter, r *http.Request, dst any, name, title string, data func() formData) bool {
	err := form.Decode(r, dst)
	if err == nil {
		return true
	}
	if form.IsValidationError(err) {
		fd := data()
		fd.Input = dst
		c.render(w, r, name, title, fd, form.Fields(err), "")
		return false
	}
	c.d.Fail(w, r, err)
	return false
}
