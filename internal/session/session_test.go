package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/orvsd/central/internal/auth"
	"github.com/orvsd/central/internal/central"
	"github.com/orvsd/central/internal/central/centraltest"
)

func issue(t *testing.T, m *Manager, id int64) *http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	if err := m.Login(rec, httptest.NewRequest(http.MethodPost, "/login", nil), id); err != nil {
		t.Fatalf("Login: %v", err)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != cookieName {
		t.Fatalf("cookies = %+v", cookies)
	}
	return cookies[0]
}

func TestLoginRoundTrip(t *testing.T) {
	m := New("test-key", 0, zap.NewNop().Sugar())
	c := issue(t, m, 42)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(c)
	if id, ok := m.UserID(r); !ok || id != 42 {
		t.Fatalf("UserID = %d, %v", id, ok)
	}
}

func TestRejectsForeignAndTamperedCookies(t *testing.T) {
	c := issue(t, New("key-one", 0, zap.NewNop().Sugar()), 42)

	other := New("key-two", 0, zap.NewNop().Sugar())
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(c)
	if _, ok := other.UserID(r); ok {
		t.Error("cookie signed with another key was accepted")
	}

	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: cookieName, Value: c.Value + "x"})
	if _, ok := New("key-one", 0, zap.NewNop().Sugar()).UserID(r); ok {
		t.Error("tampered cookie was accepted")
	}
}

func TestMiddlewareLoadsUser(t *testing.T) {
	db := centraltest.Open(t)
	u := central.User{Name: "helpdesk", Email: "hd@example.org", Password: "hash", Role: central.RoleHelpDesk}
	if err := central.InsertUser(context.Background(), db, &u); err != nil {
		t.Fatalf("InsertUser: %v", err)
	}

	m := New("k", 0, zap.NewNop().Sugar())
	var seen *central.User
	h := m.Middleware(db)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = auth.User(r.Context())
	}))

	r := httptest.NewRequest(http.MethodGet, "/report", nil)
	r.AddCookie(issue(t, m, u.ID))
	h.ServeHTTP(httptest.NewRecorder(), r)
	if seen == nil || seen.Name != "helpdesk" || seen.Role != central.RoleHelpDesk {
		t.Fatalf("context user = %+v", seen)
	}

	// A deleted account falls back to anonymous and clears the cookie.
	seen = nil
	r = httptest.NewRequest(http.MethodGet, "/report", nil)
	r.AddCookie(issue(t, m, 999))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	if seen != nil {
		t.Errorf("unknown account produced user %+v", seen)
	}
	if cs := rec.Result().Cookies(); len(cs) != 1 || cs[0].MaxAge >= 0 {
		t.Errorf("cookie not cleared: %+v", cs)
	}
}
