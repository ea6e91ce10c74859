// internal/auth/context.go
//
// Request-scoped operator identity.
//
// Usage
// -----
//     // Session middleware attaches the account after verifying the cookie.
//     ctx = auth.WithUser(ctx, u)
//
//     // Handlers and ACL middleware read it back.
//     u, ok := auth.User(ctx)
//
// Notes
// -----
// • The stored value is the full central.User so role checks need no
//   second query.  Password hashes are cleared before storing.
// • Oxford commas, two spaces after periods.

package auth

import (
	"context"

	"github.com/orvsd/central/internal/central"
)

// userKey is unexported to avoid context-key collisions.
type userKey struct{}

// WithUser returns a new context carrying u.  The password hash is not
// retained.
func WithUser(ctx context.Context, u *central.User) context.Context {
	if u == nil {
		return ctx
	}
	cp := *u
	cp.Password = ""
	return context.WithValue(ctx, userKey{}, &cp)
}

// User extracts the signed-in account from ctx.
func User(ctx context.Context) (*central.User, bool) {
	u, ok := ctx.Value(userKey{}).(*central.User)
	return u, ok && u != nil
}

// UserID returns the signed-in account id, or (0, false).
func UserID(ctx context.Context) (int64, bool) {
	u, ok := User(ctx)
	if !ok {
		return 0, false
	}
	return u.ID, true
}
