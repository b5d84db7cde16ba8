// Package validate holds the request input types and their field rules.
// It has no storage dependency, so every rule is testable without a database.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"sort"
	"strings"
	"unicode"

	"trading-journal-go/internal/models"

	"github.com/go-playground/validator/v10"
)

var v = newValidator()

func newValidator() *validator.Validate {
	val := validator.New(validator.WithRequiredStructEnabled())
	val.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = val.RegisterValidation("missedreason", func(fl validator.FieldLevel) bool {
		return slices.Contains(models.MissedReasons, fl.Field().String())
	})
	return val
}

// FieldErrors maps a JSON field name to a human readable message.
type FieldErrors map[string]string

func (f FieldErrors) Error() string {
	fields := make([]string, 0, len(f))
	for field := range f {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	msgs := make([]string, 0, len(fields))
	for _, field := range fields {
		msgs = append(msgs, f[field])
	}
	return strings.Join(msgs, ", ")
}

// Struct runs the field rules of s. A rule violation is returned as FieldErrors.
func Struct(s any) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	out := make(FieldErrors, len(verrs))
	for _, fe := range verrs {
		out[fe.Field()] = message(fe)
	}
	return out
}

func message(fe validator.FieldError) string {
	label := humanize(fe.Field())
	switch fe.Tag() {
	case "required":
		return "Please provide " + label
	case "oneof":
		return fmt.Sprintf("%s must be one of %s", label, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "missedreason":
		return fmt.Sprintf("%s must be one of %s", label, strings.Join(models.MissedReasons, ", "))
	case "email":
		return "Please provide a valid email"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", label, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", label)
	}
}

// humanize turns "potentialEntryPrice" into "potential entry price".
func humanize(field string) string {
	var b strings.Builder
	for i, r := range field {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte(' ')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}
