// Package componenttest mounts components on an in-memory central store
// so handler tests can drive them with httptest.
package componenttest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/orvsd/central/internal/central"
	"github.com/orvsd/central/internal/central/centraltest"
	"github.com/orvsd/central/internal/component"
	"github.com/orvsd/central/internal/config"
	"github.com/orvsd/central/internal/form"
	"github.com/orvsd/central/internal/session"
	"github.com/orvsd/central/internal/view"
)

// Password is the plain password of every account created by User.
const Password = "pw"

// Env is a mounted test server.
type Env struct {
	DB     *sqlx.DB
	Deps   *component.Deps
	Router chi.Router
}

// New builds Deps over a fresh store.  Call Mount after adjusting Deps.
func New(t testing.TB) *Env {
	t.Helper()
	log := zap.NewNop().Sugar()
	db := centraltest.Open(t)
	d := &component.Deps{
		DB:       db,
		Config:   &config.Config{},
		Log:      log,
		View:     view.New(log),
		Sessions: session.New("test-session", 0, log),
		CSRF:     form.NewCSRF("test-csrf", log),
	}
	return &Env{DB: db, Deps: d}
}

// Mount wires the session and CSRF middleware and mounts cs.
func (e *Env) Mount(t testing.TB, cs ...component.Component) {
	t.Helper()
	r := chi.NewRouter()
	r.Use(e.Deps.Sessions.Middleware(e.DB))
	r.Use(e.Deps.CSRF.Protect)
	if err := component.Mount(r, e.Deps, cs...); err != nil {
		t.Fatalf("mount: %v", err)
	}
	e.Router = r
}

// User inserts an account with the given role.  The hash uses the
// minimum bcrypt cost to keep tests fast.
func (e *Env) User(t testing.TB, name string, role int) *central.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(Password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	u := &central.User{Name: name, Email: name + "@example.org", Password: string(hash), Role: role}
	if err := central.InsertUser(context.Background(), e.DB, u); err != nil {
		t.Fatalf("insert user: %v", err)
	}
	return u
}

// Get issues a GET as u (nil for anonymous).
func (e *Env) Get(t testing.TB, path string, u *central.User) *httptest.ResponseRecorder {
	t.Helper()
	return e.do(t, httptest.NewRequest(http.MethodGet, path, nil), u)
}

// Post submits form as u with a valid CSRF token.
func (e *Env) Post(t testing.TB, path string, form url.Values, u *central.User) *httptest.ResponseRecorder {
	t.Helper()
	if form == nil {
		form = url.Values{}
	}
	tok, err := e.Deps.CSRF.Token()
	if err != nil {
		t.Fatalf("csrf: %v", err)
	}
	form.Set("csrf_token", tok)
	r := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return e.do(t, r, u)
}

func (e *Env) do(t testing.TB, r *http.Request, u *central.User) *httptest.ResponseRecorder {
	t.Helper()
	if u != nil {
		rec := httptest.NewRecorder()
		if err := e.Deps.Sessions.Login(rec, r, u.ID); err != nil {
			t.Fatalf("login: %v", err)
		}
		for _, c := range rec.Result().Cookies() {
			r.AddCookie(c)
		}
	}
	rec := httptest.NewRecorder()
	e.Router.ServeHTTP(rec, r)
	return rec
}
