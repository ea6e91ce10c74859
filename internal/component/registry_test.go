package component

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type stub struct {
	name    string
	initErr error
	inited  *Deps
}

func (s *stub) Name() string { return s.name }

func (s *stub) Init(d *Deps) error {
	s.inited = d
	return s.initErr
}

func (s *stub) Routes(r chi.Router) {
	r.Get("/"+s.name, func(w http.ResponseWriter, _ *http.Request) { w.Write([]byte(s.name)) })
}

func TestRegisterAndAll(t *testing.T) {
	Register(&stub{name: "zeta"})
	Register(&stub{name: "alpha"})

	var names []string
	for _, c := range All() {
		names = append(names, c.Name())
	}
	if len(names) < 2 || names[0] != "alpha" {
		t.Errorf("All() order = %v", names)
	}

	defer func() {
		if recover() == nil {
			t.Error("duplicate Register did not panic")
		}
	}()
	Register(&stub{name: "alpha"})
}

func TestMount(t *testing.T) {
	d := &Deps{Log: zap.NewNop().Sugar()}
	a := &stub{name: "a"}
	r := chi.NewRouter()
	if err := Mount(r, d, a); err != nil {
		t.Fatalf("Mount: %v", err)
	}
	if a.inited != d {
		t.Error("Init not called with deps")
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/a", nil))
	if rec.Body.String() != "a" {
		t.Errorf("body = %q", rec.Body.String())
	}

	boom := errors.New("boom")
	if err := Mount(chi.NewRouter(), d, &stub{name: "b", initErr: boom}); !errors.Is(err, boom) {
		t.Errorf("err = %v", err)
	}
}

func TestFail(t *testing.T) {
	d := &Deps{Log: zap.NewNop().Sugar()}
	rec := httptest.NewRecorder()
	d.Fail(rec, httptest.NewRequest(http.MethodGet, "/x", nil), errors.New("db down"))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("code = %d", rec.Code)
	}
}
