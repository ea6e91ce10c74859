// internal/view/page.go
//
// Page is the value every template executes against.

package view

import (
	"github.com/orvsd/central/internal/central"
	"github.com/orvsd/central/internal/form"
)

// Page wraps component data with the request-scoped bits the layout
// needs.
type Page struct {
	Title  string
	User   *central.User // nil when anonymous
	CSRF   string        // token for forms on this page
	Flash  []string      // one-shot notices
	Errors []form.ErrorField
	Data   any

	Status int  // response status, 0 means 200
	Bare   bool // render the named template without the layout
}

// IsAdmin reports whether the viewer holds the admin role.
func (p *Page) IsAdmin() bool { return p.User != nil && p.User.Role >= central.RoleAdmin }

// IsHelpDesk reports whether the viewer holds help desk or higher.
func (p *Page) IsHelpDesk() bool { return p.User != nil && p.User.Role >= central.RoleHelpDesk }

// FieldError returns the message for input name, or "".
func (p *Page) FieldError(name string) string {
	for _, f := range p.Errors {
		if f.Name == name {
			return f.Message
		}
	}
	return ""
}

// FormErrors returns messages not tied to a single input.
func (p *Page) FormErrors() []string {
	var out []string
	for _, f := range p.Errors {
		if f.Name == "" {
			out = append(out, f.Message)
		}
	}
	return out
}
