// internal/central/user.go
//
// Operator accounts for the web UI.

package central

import "context"

const userCols = `id, name, email, password, role`

// UserByName returns the account with the given login name.
func UserByName(ctx context.Context, q Queryer, name string) (*User, error) {
	var u User
	if err := get(ctx, q, &u, `SELECT `+userCols+` FROM users WHERE name = ?`, name); err != nil {
		return nil, err
	}
	return &u, nil
}

// UserByID returns one account.
func UserByID(ctx context.Context, q Queryer, id int64) (*User, error) {
	var u User
	if err := get(ctx, q, &u, `SELECT `+userCols+` FROM users WHERE id = ?`, id); err != nil {
		return nil, err
	}
	return &u, nil
}

// InsertUser stores u and sets u.ID.  u.Password must already be hashed.
func InsertUser(ctx context.Context, q Queryer, u *User) error {
	id, err := insert(ctx, q,
		`INSERT INTO users (name, email, password, role) VALUES (?, ?, ?, ?)`,
		u.Name, u.Email, u.Password, u.Role)
	if err != nil {
		return err
	}
	u.ID = id
	return nil
}

// CountUsersWithRole returns how many accounts hold exactly role.
func CountUsersWithRole(ctx context.Context, q Queryer, role int) (int, error) {
	var n int
	err := q.GetContext(ctx, &n, `SELECT COUNT(*) FROM users WHERE role = ?`, role)
	return n, err
}

// UserByEmail returns the account registered under email.
func UserByEmail(ctx context.Context, q Queryer, email string) (*User, error) {
	var u User
	if err := get(ctx, q, &u, `SELECT `+userCols+` FROM users WHERE email = ?`, email); err != nil {
		return nil, err
	}
	return &u, nil
}
