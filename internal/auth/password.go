// internal/auth/password.go
//
// Credential checks for the login form and the admin bootstrap.

package auth

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/orvsd/central/internal/central"
)

// ErrInvalidCredentials hides whether the name or the password was wrong.
var ErrInvalidCredentials = errors.New("auth: invalid credentials")

// HashPassword returns a bcrypt hash of plain at the default cost.
func HashPassword(plain string) (string, error) {
	if plain == "" {
		return "", errors.New("auth: empty password")
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(b), nil
}

// CheckPassword reports whether plain matches hash.
func CheckPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// Authenticate loads the account called name and verifies plain against
// its hash.  Unknown names and bad passwords both return
// ErrInvalidCredentials; store failures are returned as-is.
func Authenticate(ctx context.Context, q central.Queryer, name, plain string) (*central.User, error) {
	u, err := central.UserByName(ctx, q, name)
	if errors.Is(err, central.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !CheckPassword(u.Password, plain) {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// CreateAdmin inserts an admin account unless one already exists.  It
// reports whether a row was created.
func CreateAdmin(ctx context.Context, q central.Queryer, name, email, plain string) (bool, error) {
	n, err := central.CountUsersWithRole(ctx, q, central.RoleAdmin)
	if err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}
	hash, err := HashPassword(plain)
	if err != nil {
		return false, err
	}
	u := central.User{Name: name, Email: email, Password: hash, Role: central.RoleAdmin}
	if err := central.InsertUser(ctx, q, &u); err != nil {
		return false, fmt.Errorf("insert admin: %w", err)
	}
	return true, nil
}
