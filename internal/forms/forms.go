// Package forms collects field-level validation failures for the console's
// input forms. Every form validates locally and aborts before any request
// is sent when something is wrong.
package forms

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// ValidationError is one rejected field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Errors is the set of failures for one form submission.
type Errors []*ValidationError

func (es Errors) Error() string {
	msgs := make([]string, 0, len(es))
	for _, e := range es {
		msgs = append(msgs, e.Message)
	}
	return strings.Join(msgs, "; ")
}

func (es Errors) Unwrap() []error {
	out := make([]error, 0, len(es))
	for _, e := range es {
		out = append(out, e)
	}
	return out
}

// Has reports whether field was rejected.
func (es Errors) Has(field string) bool {
	for _, e := range es {
		if e.Field == field {
			return true
		}
	}
	return false
}

// First returns the first failure in err, if err carries any.
func First(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// Validator accumulates failures as checks run.
type Validator struct {
	Errors Errors
}

func New() *Validator {
	return &Validator{}
}

func (v *Validator) Valid() bool {
	return len(v.Errors) == 0
}

func (v *Validator) AddError(field, message string) {
	v.Errors = append(v.Errors, &ValidationError{Field: field, Message: message})
}

// Check records message against field unless ok.
func (v *Validator) Check(ok bool, field, message string) {
	if !ok {
		v.AddError(field, message)
	}
}

// Err returns nil when no check failed.
func (v *Validator) Err() error {
	if v.Valid() {
		return nil
	}
	return v.Errors
}

var (
	structOnce sync.Once
	structV    *validator.Validate
)

func structValidator() *validator.Validate {
	structOnce.Do(func() {
		structV = validator.New(validator.WithRequiredStructEnabled())
		structV.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return f.Name
			}
			return name
		})
	})
	return structV
}

// Struct runs the `validate` tags on s and folds any failure into v.
func (v *Validator) Struct(s any) {
	err := structValidator().Struct(s)
	if err == nil {
		return
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		v.AddError("", err.Error())
		return
	}
	for _, fe := range fieldErrs {
		v.AddError(fe.Field(), messageFor(fe))
	}
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("Informe %s.", fe.Field())
	case "email":
		return "E-mail inválido."
	case "max":
		return fmt.Sprintf("%s deve ter no máximo %s caracteres.", fe.Field(), fe.Param())
	case "min":
		return fmt.Sprintf("%s deve ter no mínimo %s caracteres.", fe.Field(), fe.Param())
	case "len":
		return fmt.Sprintf("%s deve ter %s caracteres.", fe.Field(), fe.Param())
	case "gt", "gte":
		return fmt.Sprintf("%s deve ser maior que %s.", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s inválido.", fe.Field())
	}
}
