// internal/config/validator.go
//
// Thin wrapper around go-playground/validator.
//
// Context
// -------
// `internal/config/loader.go` calls `validateStruct` immediately after it
// unmarshals the merged Koanf tree into a `Config` instance.  Any tag
// mismatch aborts startup, so the binary never runs with partial
// configuration.  One custom rule lives here: a central DSN template may
// carry at most one `%s` verb for the password.

package config

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

var v = validator.New()

func init() {
	v.RegisterStructValidation(databaseRules, Database{})
}

// validateStruct returns the first validation error, or nil on success.
func validateStruct(c *Config) error {
	return v.Struct(c)
}

func databaseRules(sl validator.StructLevel) {
	db := sl.Current().Interface().(Database)
	if strings.Count(db.CentralDSN, "%s") > 1 {
		sl.ReportError(db.CentralDSN, "CentralDSN", "central_dsn", "single_verb", "")
	}
}
