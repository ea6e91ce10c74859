package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/orvsd/central/internal/central"
	"github.com/orvsd/central/internal/central/centraltest"
)

func TestContextRoundTrip(t *testing.T) {
	ctx := context.Background()
	if _, ok := User(ctx); ok {
		t.Fatal("empty context reported a user")
	}

	ctx = WithUser(ctx, &central.User{ID: 7, Name: "ops", Password: "hash", Role: central.RoleAdmin})
	u, ok := User(ctx)
	if !ok || u.ID != 7 || u.Role != central.RoleAdmin {
		t.Fatalf("User = %+v, %v", u, ok)
	}
	if u.Password != "" {
		t.Error("password hash leaked into context")
	}
	if id, _ := UserID(ctx); id != 7 {
		t.Errorf("UserID = %d", id)
	}
}

func TestAuthenticate(t *testing.T) {
	db := centraltest.Open(t)
	ctx := context.Background()

	created, err := CreateAdmin(ctx, db, "root", "root@example.org", "s3cret")
	if err != nil || !created {
		t.Fatalf("CreateAdmin = %v, %v", created, err)
	}
	again, err := CreateAdmin(ctx, db, "other", "other@example.org", "x")
	if err != nil || again {
		t.Fatalf("second CreateAdmin = %v, %v", again, err)
	}

	u, err := Authenticate(ctx, db, "root", "s3cret")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if u.Role != central.RoleAdmin {
		t.Errorf("role = %d", u.Role)
	}

	if _, err := Authenticate(ctx, db, "root", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("bad password err = %v", err)
	}
	if _, err := Authenticate(ctx, db, "nobody", "s3cret"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown user err = %v", err)
	}
}

func TestHashPasswordRejectsEmpty(t *testing.T) {
	if _, err := HashPassword(""); err == nil {
		t.Error("expected error for empty password")
	}
}
