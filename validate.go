package tsengine

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
)

var leadSources = []string{SourceCostCalculator, SourceMaintenanceCalculator, SourceContactForm}

// requestValidator adapts validator/v10 to echo.Validator and reports
// failures as a *ValidationError keyed by JSON field name.
type requestValidator struct {
	v *validator.Validate
}

func newValidator() *requestValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterValidation("category", func(fl validator.FieldLevel) bool {
		return slices.Contains(Categories, fl.Field().String())
	})
	v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return ValidSlug(fl.Field().String())
	})
	v.RegisterValidation("leadsource", func(fl validator.FieldLevel) bool {
		return slices.Contains(leadSources, fl.Field().String())
	})
	v.RegisterValidation("iconurl", func(fl validator.FieldLevel) bool {
		return validIconURL(fl.Field().String())
	})
	return &requestValidator{v: v}
}

// validIconURL accepts an http(s) URL or a site-relative path such as
// /uploads/site-icon-1.png.
func validIconURL(s string) bool {
	if strings.HasPrefix(s, "/") {
		return !strings.HasPrefix(s, "//") && !strings.ContainsAny(s, "\\ \t\n")
	}
	u, err := url.Parse(s)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func (r *requestValidator) Validate(i interface{}) error {
	return toValidationError(r.v.Struct(i), "")
}

// Value checks a single value against tag and reports a failure under field.
func (r *requestValidator) Value(field string, value any, tag string) error {
	return toValidationError(r.v.Var(value, tag), field)
}

// toValidationError converts validator errors into a *ValidationError.
// A non-empty field overrides the name validator reports.
func toValidationError(err error, field string) error {
	if err == nil {
		return nil
	}
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return err
	}
	ve := &ValidationError{Fields: make(map[string]string, len(errs))}
	for _, fe := range errs {
		name := field
		if name == "" {
			name = fe.Field()
		}
		ve.Fields[name] = fieldMessage(fe)
	}
	return ve
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "http_url":
		return "must be an http or https URL"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "category":
		return "must be one of: " + strings.Join(Categories, ", ")
	case "slug":
		return "must be lowercase letters and digits separated by single hyphens"
	case "iconurl":
		return "must be an http or https URL or a site path"
	case "leadsource":
		return "must be one of: " + strings.Join(leadSources, ", ")
	}
	return "is invalid"
}
