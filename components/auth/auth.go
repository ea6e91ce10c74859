// components/auth/auth.go
//
// Authentication component – login, logout, and the profile page.
//
//------------------------------------------------------------------------------

package auth

import (
	"embed"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/orvsd/central/internal/acl"
	iauth "github.com/orvsd/central/internal/auth"
	"github.com/orvsd/central/internal/component"
	"github.com/orvsd/central/internal/form"
)

//go:embed templates/*.html
var templates embed.FS

// Compile-time assertion: *Component satisfies component.Component.
var _ component.Component = (*Component)(nil)

// Component encapsulates the login flow.
type Component struct {
	d *component.Deps
}

/*────────────────── component.Component methods ───────────────────────────*/

// Name returns the canonical component key.
func (c *Component) Name() string { return "auth" }

// Init keeps the shared dependencies.
func (c *Component) Init(d *component.Deps) error {
	c.d = d
	return nil
}

// Routes mounts the login endpoints.
func (c *Component) Routes(r chi.Router) {
	r.Get("/login", c.handleLoginGET)
	r.Post("/login", c.handleLoginPOST)
	r.Post("/logout", c.handleLogout)
	r.With(acl.RequireLogin).Get("/me", c.handleMe)
}

// Register component at program start.
func init() { component.Register(&Component{}) }

/*──────────────────────────── Handlers ─────────────────────────────────────*/

type loginInput struct {
	Name     string `form:"name"     validate:"required,max=50"`
	Password string `form:"password" validate:"required"`
	Next     string `form:"next"`
}

func (c *Component) render(w http.ResponseWriter, r *http.Request, in loginInput, errs []form.ErrorField) {
	p := c.d.Page(r, "Log in", in)
	p.Errors = errs
	if len(errs) > 0 {
		p.Status = http.StatusUnprocessableEntity
	}
	if err := c.d.View.Render(w, c.Name(), templates, "login", p); err != nil {
		c.d.Fail(w, r, err)
	}
}

func (c *Component) handleLoginGET(w http.ResponseWriter, r *http.Request) {
	if _, ok := iauth.User(r.Context()); ok {
		http.Redirect(w, r, "/report", http.StatusSeeOther)
		return
	}
	c.render(w, r, loginInput{Next: r.URL.Query().Get("next")}, nil)
}

func (c *Component) handleLoginPOST(w http.ResponseWriter, r *http.Request) {
	var in loginInput
	if err := form.Decode(r, &in); err != nil {
		if form.IsValidationError(err) {
			c.render(w, r, loginInput{Name: in.Name, Next: in.Next}, form.Fields(err))
			return
		}
		c.d.Fail(w, r, err)
		return
	}

	u, err := iauth.Authenticate(r.Context(), c.d.DB, in.Name, in.Password)
	if errors.Is(err, iauth.ErrInvalidCredentials) {
		c.d.Audit(r, "login failed", "name", in.Name)
		c.render(w, r, loginInput{Name: in.Name, Next: in.Next}, []form.ErrorField{{
			Name:    "password",
			Message: "Incorrect name or password.",
		}})
		return
	}
	if err != nil {
		c.d.Fail(w, r, err)
		return
	}

	if err := c.d.Sessions.Login(w, r, u.ID); err != nil {
		c.d.Fail(w, r, err)
		return
	}
	c.d.Audit(r, "login", "name", u.Name)
	http.Redirect(w, r, safeNext(in.Next), http.StatusSeeOther)
}

func (c *Component) handleLogout(w http.ResponseWriter, r *http.Request) {
	c.d.Sessions.Logout(w)
	http.Redirect(w, r, acl.LoginPath, http.StatusSeeOther)
}

func (c *Component) handleMe(w http.ResponseWriter, r *http.Request) {
	if err := c.d.View.Render(w, c.Name(), templates, "me", c.d.Page(r, "Profile", nil)); err != nil {
		c.d.Fail(w, r, err)
	}
}

// safeNext keeps redirects on this host.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/report"
	}
	return next
}
