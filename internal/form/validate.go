// internal/form/validate.go
//
// Posted-form decoding and validation.
//
// Context
//   Handlers declare one struct per form, with `form:"…"` tags naming the
//   inputs and `validate:"…"` tags carrying go-playground/validator rules:
//
//      type schoolInput struct {
//          Name     string `form:"name"     validate:"required,max=255"`
//          District int64  `form:"district" validate:"gte=0"`
//      }
//
//   Decode parses the body with gorilla/schema and validates the result.
//   User mistakes come back as a ValidationError listing one ErrorField per
//   input so templates can highlight the exact problem.  Anything else is a
//   system failure.
//
//------------------------------------------------------------------------------

package form

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/schema"
)

// ErrorField describes a single validation failure.
type ErrorField struct {
	Name    string // input name, empty for form-level problems
	Message string // user-facing message
}

// ValidationError wraps []ErrorField.  Check with IsValidationError.
type ValidationError struct{ Fields []ErrorField }

func (ve ValidationError) Error() string { return "form validation failed" }

// Message returns the first message for input name, or "".
func (ve ValidationError) Message(name string) string {
	for _, f := range ve.Fields {
		if f.Name == name {
			return f.Message
		}
	}
	return ""
}

// IsValidationError reports whether err came from failed validation.
func IsValidationError(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve)
}

// Fields returns the field errors carried by err, if any.
func Fields(err error) []ErrorField {
	var ve ValidationError
	if errors.As(err, &ve) {
		return ve.Fields
	}
	return nil
}

var (
	decoder  = schema.NewDecoder()
	validate = validator.New(validator.WithRequiredStructEnabled())
)

func init() {
	decoder.SetAliasTag("form")
	decoder.IgnoreUnknownKeys(true)

	// Report input names, not Go field names.
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("form"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
}

// Decode parses r's form body into dst (a pointer to struct) and validates
// it.  Whitespace around inputs is trimmed first.
func Decode(r *http.Request, dst any) error {
	if err := r.ParseForm(); err != nil {
		return err
	}

	values := make(map[string][]string, len(r.PostForm))
	for k, vs := range r.PostForm {
		if k == FieldName {
			continue
		}
		trimmed := make([]string, 0, len(vs))
		for _, v := range vs {
			if v = strings.TrimSpace(v); v != "" {
				trimmed = append(trimmed, v)
			}
		}
		// Empty inputs leave the zero value; `required` catches them.
		if len(trimmed) > 0 {
			values[k] = trimmed
		}
	}

	if err := decoder.Decode(dst, values); err != nil {
		var me schema.MultiError
		if errors.As(err, &me) {
			ve := ValidationError{}
			for name := range me {
				ve.Fields = append(ve.Fields, ErrorField{Name: name, Message: "Invalid value."})
			}
			return ve
		}
		return err
	}

	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		ve := ValidationError{}
		for _, fe := range verrs {
			ve.Fields = append(ve.Fields, ErrorField{Name: fe.Field(), Message: message(fe)})
		}
		return ve
	}
	return nil
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Enter a valid e-mail address."
	case "max":
		return fmt.Sprintf("Must be at most %s characters.", fe.Param())
	case "min":
		return fmt.Sprintf("Must be at least %s characters.", fe.Param())
	case "oneof":
		return "Choose one of: " + fe.Param() + "."
	case "eqfield":
		return "Values do not match."
	case "url":
		return "Enter a full URL, e.g. https://school.example.org."
	default:
		return "Invalid input."
	}
}
