// components/siteinfo/siteinfo.go
//
// Siteinfo component – admin trigger for a gather run.
//
// Context
// -------
// A run can take minutes.  Concurrent clicks share one run through
// singleflight, and the run keeps going if the browser disconnects.  A run
// started elsewhere (cron, another web node) holds the advisory lock, and
// the trigger answers 409 until it finishes.

package siteinfo

import (
	"context"
	"embed"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/singleflight"

	"github.com/orvsd/central/internal/acl"
	"github.com/orvsd/central/internal/central"
	"github.com/orvsd/central/internal/component"
	"github.com/orvsd/central/internal/form"
	isiteinfo "github.com/orvsd/central/internal/siteinfo"
)

//go:embed templates/*.html
var templates embed.FS

var _ component.Component = (*Component)(nil)

// Component serves the gather trigger.
type Component struct {
	d     *component.Deps
	group singleflight.Group
}

func (c *Component) Name() string { return "siteinfo" }

func (c *Component) Init(d *component.Deps) error {
	c.d = d
	return nil
}

func (c *Component) Routes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(acl.RequireRole(central.RoleAdmin))
		r.Get("/siteinfo", c.handlePage)
		r.Post("/siteinfo/gather", c.handleGather)
	})
}

func init() { component.Register(&Component{}) }

type pageData struct {
	Enabled bool
	Counts  central.Counts
	Summary *isiteinfo.Summary
	Shared  bool
}

func (c *Component) render(w http.ResponseWriter, r *http.Request, data pageData, status int, errMsg string) {
	counts, err := central.CountAll(r.Context(), c.d.DB)
	if err != nil {
		c.d.Fail(w, r, err)
		return
	}
	data.Enabled = c.d.Gatherer != nil
	data.Counts = counts

	p := c.d.Page(r, "Gather siteinfo", data)
	p.Status = status
	if errMsg != "" {
		p.Errors = []form.ErrorField{{Message: errMsg}}
	}
	if err := c.d.View.Render(w, c.Name(), templates, "gather", p); err != nil {
		c.d.Fail(w, r, err)
	}
}

func (c *Component) handlePage(w http.ResponseWriter, r *http.Request) {
	c.render(w, r, pageData{}, 0, "")
}

func (c *Component) handleGather(w http.ResponseWriter, r *http.Request) {
	g := c.d.Gatherer
	if g == nil {
		c.render(w, r, pageData{}, http.StatusServiceUnavailable, "Gathering is not configured on this server.")
		return
	}

	ctx := context.WithoutCancel(r.Context())
	v, err, shared := c.group.Do("gather", func() (any, error) {
		sum, err := g.Run(ctx)
		return sum, err
	})
	sum, _ := v.(isiteinfo.Summary)
	c.d.Audit(r, "gather triggered", "run_id", sum.RunID, "shared", shared, "written", sum.Written, "err", err)

	switch {
	case errors.Is(err, isiteinfo.ErrRunInProgress):
		c.render(w, r, pageData{}, http.StatusConflict, "Another gather run is in progress.  Try again when it finishes.")
	case err != nil:
		c.render(w, r, pageData{Summary: &sum, Shared: shared}, http.StatusInternalServerError, "Gather aborted: "+err.Error())
	default:
		c.render(w, r, pageData{Summary: &sum, Shared: shared}, 0, "")
	}
}
