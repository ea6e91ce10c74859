// components/report/report.go
//
// Report component – the district/school/site accordion and the district
// totals endpoint.
//
//------------------------------------------------------------------------------

package report

import (
	"embed"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/orvsd/central/internal/acl"
	"github.com/orvsd/central/internal/central"
	"github.com/orvsd/central/internal/component"
	ireport "github.com/orvsd/central/internal/report"
)

//go:embed templates/*.html
var templates embed.FS

var _ component.Component = (*Component)(nil)

// Component serves the read-only reporting pages.
type Component struct {
	d *component.Deps
}

func (c *Component) Name() string { return "report" }

func (c *Component) Init(d *component.Deps) error {
	c.d = d
	return nil
}

func (c *Component) Routes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(acl.RequireLogin)
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, "/report", http.StatusSeeOther)
		})
		r.Get("/report", c.handleReport)
		r.Get("/report/districts/{id}/details", c.handleDistrictDetails)
	})
}

func init() { component.Register(&Component{}) }

/*──────────────────────────── Handlers ─────────────────────────────────────*/

func (c *Component) handleReport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := ireport.Filter{District: q.Get("district"), School: q.Get("school")}

	rep, err := ireport.Build(r.Context(), c.d.DB, f)
	if err != nil {
		c.d.Fail(w, r, err)
		return
	}
	if err := c.d.View.Render(w, c.Name(), templates, "report", c.d.Page(r, "Report", rep)); err != nil {
		c.d.Fail(w, r, err)
	}
}

// handleDistrictDetails answers {"admins":…,"teachers":…,"users":…} for
// the newest snapshot of every site in the district.
func (c *Component) handleDistrictDetails(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "bad district id", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	if _, err := central.DistrictByID(ctx, c.d.DB, id); err != nil {
		if errors.Is(err, central.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		c.d.Fail(w, r, err)
		return
	}

	schools, err := central.SchoolsByDistrict(ctx, c.d.DB, id)
	if err != nil {
		c.d.Fail(w, r, err)
		return
	}
	totals, err := ireport.DistrictDetails(ctx, c.d.DB, schools)
	if err != nil {
		c.d.Fail(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(totals)
}
