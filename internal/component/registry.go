// internal/component/registry.go
//
// Component registry (cycle-free).
//
// Each concrete component lives under components/<name> and calls
// component.Register() in an init() function.  cmd/web blank-imports the
// components it serves, then Mount runs every component's Init with the
// shared Deps and lets it add routes to the root router.

package component

import (
	"fmt"
	"sort"
	"sync"

	"github.com/go-chi/chi/v5"
)

// Component contract.
//
// Init receives the shared dependencies once, before routes are mounted.
// Routes adds page and API endpoints to r, e.g.
//
//	r.Get("/login", c.getLogin)
//	r.With(acl.RequireRole(central.RoleAdmin)).Post("/remove/{category}", c.remove)
type Component interface {
	Name() string
	Init(*Deps) error
	Routes(r chi.Router)
}

var (
	mu       sync.RWMutex
	registry = map[string]Component{}
)

// Register is invoked from component init() functions.  Registering the
// same name twice panics.
func Register(c Component) {
	mu.Lock()
	defer mu.Unlock()
	if _, dup := registry[c.Name()]; dup {
		panic("component: duplicate registration of " + c.Name())
	}
	registry[c.Name()] = c
}

// All returns every registered component sorted by name.
func All() []Component {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]Component, 0, len(registry))
	for _, c := range registry {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// Mount initialises cs and adds their routes to r.  It stops at the first
// Init error.
func Mount(r chi.Router, d *Deps, cs ...Component) error {
	for _, c := range cs {
		if err := c.Init(d); err != nil {
			return fmt.Errorf("component %s init: %w", c.Name(), err)
		}
		c.Routes(r)
		d.logger().Debugw("component mounted", "component", c.Name())
	}
	return nil
}
