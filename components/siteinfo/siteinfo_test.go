package siteinfo

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/orvsd/central/internal/central"
	"github.com/orvsd/central/internal/central/centraltest"
	"github.com/orvsd/central/internal/component/componenttest"
	"github.com/orvsd/central/internal/database"
	isiteinfo "github.com/orvsd/central/internal/siteinfo"
)

type oneSite struct{}

func (oneSite) Tables(context.Context) ([]isiteinfo.Table, error) {
	return []isiteinfo.Table{{Schema: "alpha_db", Name: "siteinfo"}}, nil
}

func (oneSite) Rows(context.Context, isiteinfo.Table) ([]isiteinfo.RawRow, error) {
	return []isiteinfo.RawRow{{
		"baseurl":    "https://alpha.example.org",
		"sitename":   "Alpha",
		"sitetype":   "moodle",
		"totalusers": int64(42),
	}}, nil
}

type heldLock struct{}

func (heldLock) Acquire(context.Context) (func(), error) {
	return nil, fmt.Errorf("%w: test", database.ErrLocked)
}

func newEnv(t *testing.T, g *isiteinfo.Gatherer) (*componenttest.Env, *central.User) {
	env := componenttest.New(t)
	if g != nil {
		g.Store = env.DB
		g.Log = env.Deps.Log
	}
	env.Deps.Gatherer = g
	env.Mount(t, &Component{})
	return env, env.User(t, "root", central.RoleAdmin)
}

func TestGatherTrigger(t *testing.T) {
	env, admin := newEnv(t, &isiteinfo.Gatherer{Source: oneSite{}})

	rec := env.Get(t, "/siteinfo", admin)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Run gather now") {
		t.Fatalf("page code = %d", rec.Code)
	}

	rec = env.Post(t, "/siteinfo/gather", nil, admin)
	if rec.Code != http.StatusOK {
		t.Fatalf("gather code = %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "Rows written") {
		t.Error("summary not rendered")
	}
	if n := centraltest.Count(t, env.DB, "site_details"); n != 1 {
		t.Errorf("site_details = %d", n)
	}
	if n := centraltest.Count(t, env.DB, "schools"); n != 1 {
		t.Errorf("schools = %d", n)
	}
}

func TestGatherInProgress(t *testing.T) {
	env, admin := newEnv(t, &isiteinfo.Gatherer{Source: oneSite{}, Lock: heldLock{}})

	rec := env.Post(t, "/siteinfo/gather", nil, admin)
	if rec.Code != http.StatusConflict {
		t.Fatalf("code = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Another gather run is in progress.") {
		t.Error("missing in-progress message")
	}
	if n := centraltest.Count(t, env.DB, "site_details"); n != 0 {
		t.Errorf("site_details = %d", n)
	}
}

func TestGatherNotConfigured(t *testing.T) {
	env, admin := newEnv(t, nil)

	if rec := env.Post(t, "/siteinfo/gather", nil, admin); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("code = %d", rec.Code)
	}
	desk := env.User(t, "desk", central.RoleHelpDesk)
	if rec := env.Get(t, "/siteinfo", desk); rec.Code != http.StatusForbidden {
		t.Errorf("help desk code = %d", rec.Code)
	}
}
