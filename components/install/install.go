// components/install/install.go
//
// Install component – pick course packages and push them to a remote
// Moodle site.
//
// Context
// -------
// Help desk staff choose one or more courses, a target site, and an
// optional file path.  The posts happen synchronously inside the request;
// the page that comes back shows one block per course with whatever the
// remote answered.

package install

import (
	"embed"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/orvsd/central/internal/acl"
	"github.com/orvsd/central/internal/central"
	"github.com/orvsd/central/internal/component"
	"github.com/orvsd/central/internal/form"
	iinstall "github.com/orvsd/central/internal/install"
)

//go:embed templates/*.html
var templates embed.FS

var _ component.Component = (*Component)(nil)

// Component serves the course install pages.
type Component struct {
	d *component.Deps
}

func (c *Component) Name() string { return "install" }

func (c *Component) Init(d *component.Deps) error {
	c.d = d
	if d.Installer == nil {
		d.Installer = iinstall.New(d.Config.Install, d.Log)
	}
	return nil
}

func (c *Component) Routes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(acl.RequireRole(central.RoleHelpDesk))
		r.Get("/install/course", c.handleForm)
		r.Post("/install/course/output", c.handleInstall)
	})
}

func init() { component.Register(&Component{}) }

type installInput struct {
	Course   []int64 `form:"course"   validate:"required"`
	Site     string  `form:"site"     validate:"required,url"`
	FilePath string  `form:"filepath" validate:"max=255"`
}

type formData struct {
	Input   *installInput
	Details []central.CourseDetail
	Sites   []string
	Default string
}

type outputData struct {
	Site    string
	Results []iinstall.Result
	Output  string
}

func (c *Component) formData(r *http.Request, in *installInput) (formData, error) {
	ctx := r.Context()
	details, err := central.ListCourseDetails(ctx, c.d.DB)
	if err != nil {
		return formData{}, err
	}
	sites, err := central.ListSites(ctx, c.d.DB)
	if err != nil {
		return formData{}, err
	}
	fd := formData{Input: in, Details: details, Default: c.d.Config.Install.DefaultFilePath}
	for _, s := range sites {
		fd.Sites = append(fd.Sites, "https://"+s.BaseURL)
	}
	return fd, nil
}

func (c *Component) handleForm(w http.ResponseWriter, r *http.Request) {
	fd, err := c.formData(r, &installInput{})
	if err != nil {
		c.d.Fail(w, r, err)
		return
	}
	if err := c.d.View.Render(w, c.Name(), templates, "install", c.d.Page(r, "Install courses", fd)); err != nil {
		c.d.Fail(w, r, err)
	}
}

func (c *Component) handleInstall(w http.ResponseWriter, r *http.Request) {
	var in installInput
	if err := form.Decode(r, &in); err != nil {
		if !form.IsValidationError(err) {
			c.d.Fail(w, r, err)
			return
		}
		fd, ferr := c.formData(r, &in)
		if ferr != nil {
			c.d.Fail(w, r, ferr)
			return
		}
		p := c.d.Page(r, "Install courses", fd)
		p.Errors = form.Fields(err)
		p.Status = http.StatusUnprocessableEntity
		if err := c.d.View.Render(w, c.Name(), templates, "install", p); err != nil {
			c.d.Fail(w, r, err)
		}
		return
	}

	ctx := r.Context()
	details, err := central.CourseDetailsByCourseIDs(ctx, c.d.DB, in.Course)
	if err != nil {
		c.d.Fail(w, r, err)
		return
	}

	results := c.d.Installer.Install(ctx, in.Site, in.FilePath, details)
	ok := 0
	for _, res := range results {
		if res.OK() {
			ok++
		}
	}
	c.d.Audit(r, "course install", "site", in.Site, "courses", in.Course, "packages", len(details), "ok", ok)

	out := outputData{Site: in.Site, Results: results, Output: iinstall.Output(results)}
	if err := c.d.View.Render(w, c.Name(), templates, "output", c.d.Page(r, "Install results", out)); err != nil {
		c.d.Fail(w, r, err)
	}
}
