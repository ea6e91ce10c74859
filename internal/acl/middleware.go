// internal/acl/middleware.go
//
// Chi middleware helpers that enforce role levels.
//
// Context
// -------
// Roles are ordered levels stored on the account itself (central.RoleUser,
// RoleHelpDesk, RoleAdmin).  A user may reach anything at or below their
// level.  The session middleware has already loaded the account into the
// request context, so no query runs here.
//
// Anonymous GET requests are redirected to the login page with a `next`
// parameter; other anonymous requests get 401.  Signed-in users below the
// required level get 403.

package acl

import (
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/orvsd/central/internal/auth"
)

// LoginPath is where anonymous page requests are sent.
const LoginPath = "/login"

// RequireLogin admits any signed-in user.
func RequireLogin(next http.Handler) http.Handler {
	return RequireRole(0)(next)
}

// RequireRole admits users whose role is at least level.
func RequireRole(level int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := auth.User(r.Context())
			if !ok {
				if r.Method == http.MethodGet {
					http.Redirect(w, r, LoginPath+"?next="+url.QueryEscape(r.URL.RequestURI()), http.StatusSeeOther)
					return
				}
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			}
			if u.Role < level {
				zap.S().Named("acl").Infow("role too low",
					"user", u.Name, "role", u.Role, "need", level, "path", r.URL.Path)
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Allowed reports whether the signed-in user meets level.  Templates use
// it to hide links the user cannot follow.
func Allowed(r *http.Request, level int) bool {
	u, ok := auth.User(r.Context())
	return ok && u.Role >= level
}
