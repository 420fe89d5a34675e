package validation

import (
	"fmt"
	"reflect"
	"strings"

	appErrors "github.com/noah-isme/sma-adp-client/pkg/errors"
)

// Form holds a draft and the errors currently shown against it. Validation
// runs only on Submit; editing a field clears that field's error and nothing
// else.
type Form[D any] struct {
	validator *Validator
	draft     D
	errors    FieldErrors
}

// NewForm starts a form from draft, typically empty or prefilled for edit.
func NewForm[D any](v *Validator, draft D) *Form[D] {
	if v == nil {
		v = New()
	}
	return &Form[D]{validator: v, draft: draft, errors: FieldErrors{}}
}

// Draft returns the current values.
func (f *Form[D]) Draft() D {
	return f.draft
}

// Errors returns a copy of the shown errors.
func (f *Form[D]) Errors() FieldErrors {
	out := make(FieldErrors, len(f.errors))
	for k, v := range f.errors {
		out[k] = v
	}
	return out
}

// Set updates the string field tagged json:"field".
func (f *Form[D]) Set(field, value string) error {
	rv := reflect.ValueOf(&f.draft).Elem()
	if rv.Kind() != reflect.Struct {
		return fmt.Errorf("form draft is %s, not a struct", rv.Kind())
	}
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		name := strings.SplitN(rt.Field(i).Tag.Get("json"), ",", 2)[0]
		if name != field {
			continue
		}
		fv := rv.Field(i)
		if fv.Kind() != reflect.String || !fv.CanSet() {
			return fmt.Errorf("field %q is not editable", field)
		}
		fv.SetString(value)
		delete(f.errors, field)
		return nil
	}
	return fmt.Errorf("unknown field %q", field)
}

// Submit validates the draft. A false result means submission is blocked
// and Errors holds the reasons.
func (f *Form[D]) Submit() bool {
	f.errors = f.validator.Validate(f.draft)
	return len(f.errors) == 0
}

// ApplyServerErrors shows a server-side rejection against the form fields.
// It reports false when err carries no field errors, leaving the form as is.
func (f *Form[D]) ApplyServerErrors(err error) bool {
	if !appErrors.HasCode(err, appErrors.ErrValidation.Code) {
		return false
	}
	fields := appErrors.FieldsOf(err)
	if len(fields) == 0 {
		return false
	}
	f.errors = FieldErrors{}
	for k, v := range fields {
		f.errors[k] = v
	}
	return true
}
