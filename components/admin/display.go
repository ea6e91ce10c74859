// components/admin/display.go
//
// Generic listing and removal pages.

package admin

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"

	"github.com/orvsd/central/internal/central"
	"github.com/orvsd/central/internal/database"
	"github.com/orvsd/central/internal/routing"
)

type displayData struct {
	Listing    *central.Listing
	Categories []central.Category
}

func (c *Component) category(w http.ResponseWriter, r *http.Request) (central.Category, bool) {
	cat, err := central.ParseCategory(chi.URLParam(r, "category"))
	if err != nil {
		http.NotFound(w, r)
		return "", false
	}
	return cat, true
}

func (c *Component) display(w http.ResponseWriter, r *http.Request) {
	cat, ok := c.category(w, r)
	if !ok {
		return
	}
	l, err := central.Display(r.Context(), c.d.DB, cat)
	if err != nil {
		c.d.Fail(w, r, err)
		return
	}

	p := c.d.Page(r, "Browse "+string(cat), displayData{Listing: l, Categories: central.Categories()})
	if n := r.URL.Query().Get("removed"); n != "" {
		if v, err := strconv.Atoi(n); err == nil {
			p.Flash = append(p.Flash, fmt.Sprintf("Removed %d %s.", v, cat))
		}
	}
	if err := c.d.View.Render(w, c.Name(), templates, "display", p); err != nil {
		c.d.Fail(w, r, err)
	}
}

// remove deletes the checked rows and sends the viewer back to the
// listing.  Unparseable ids are a 400; nothing is deleted in that case.
func (c *Component) remove(w http.ResponseWriter, r *http.Request) {
	cat, ok := c.category(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}

	ids := make([]int64, 0, len(r.PostForm["remove"]))
	for _, v := range r.PostForm["remove"] {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			http.Error(w, "bad id "+strconv.Quote(v), http.StatusBadRequest)
			return
		}
		ids = append(ids, id)
	}

	var n int64
	err := database.RunTx(r.Context(), c.d.DB, func(tx *sqlx.Tx) error {
		var err error
		n, err = central.DeleteByIDs(r.Context(), tx, cat, ids)
		return err
	})
	if err != nil {
		if errors.Is(err, central.ErrUnknownCategory) {
			http.NotFound(w, r)
			return
		}
		c.d.Fail(w, r, err)
		return
	}

	c.d.Audit(r, "rows removed", "category", string(cat), "ids", ids, "removed", n)
	http.Redirect(w, r, routing.BuildPath("display", url.PathEscape(string(cat)))+"?removed="+strconv.FormatInt(n, 10), http.StatusSeeOther)
}
