// internal/component/deps.go
//
// Shared dependencies handed to every component.
//
// Context
// -------
// Deps is built once in cmd/web and passed to each component's Init.  It
// also carries the few helpers every handler needs: building a view.Page
// with the viewer and a fresh CSRF token, and turning an unexpected error
// into a logged 500.

package component

import (
	"net/http"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/orvsd/central/internal/auth"
	"github.com/orvsd/central/internal/config"
	"github.com/orvsd/central/internal/form"
	"github.com/orvsd/central/internal/install"
	"github.com/orvsd/central/internal/requestinfo"
	"github.com/orvsd/central/internal/session"
	"github.com/orvsd/central/internal/siteinfo"
	"github.com/orvsd/central/internal/view"
)

// Deps groups process-wide resources.
type Deps struct {
	DB       *sqlx.DB
	Config   *config.Config
	Log      *zap.SugaredLogger
	View     *view.Engine
	Sessions *session.Manager
	CSRF     *form.CSRF

	// Gatherer backs the admin gather trigger.  Nil hides the trigger.
	Gatherer *siteinfo.Gatherer

	// Installer posts course installs to remote sites.
	Installer *install.Client
}

func (d *Deps) logger() *zap.SugaredLogger {
	if d.Log != nil {
		return d.Log
	}
	return zap.S()
}

// Page returns a view.Page for r carrying the signed-in user and a fresh
// CSRF token.
func (d *Deps) Page(r *http.Request, title string, data any) *view.Page {
	p := &view.Page{Title: title, Data: data}
	if u, ok := auth.User(r.Context()); ok {
		p.User = u
	}
	if d.CSRF != nil {
		tok, err := d.CSRF.Token()
		if err != nil {
			d.logger().Errorw("csrf token", "err", err)
		}
		p.CSRF = tok
	}
	return p
}

// Fail logs err against r and writes a generic 500.
func (d *Deps) Fail(w http.ResponseWriter, r *http.Request, err error) {
	d.logger().Errorw("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

// Audit logs an admin action with the request's client fields.
func (d *Deps) Audit(r *http.Request, msg string, kv ...any) {
	if u, ok := auth.User(r.Context()); ok {
		kv = append(kv, "user", u.Name)
	}
	kv = append(kv, requestinfo.LogFields(r.Context())...)
	d.logger().Named("audit").Infow(msg, kv...)
}
