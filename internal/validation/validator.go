package validation

import (
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	appErrors "github.com/noah-isme/sma-adp-client/pkg/errors"
)

// FieldErrors maps a json field name to the message shown under it.
type FieldErrors map[string]string

// Err returns nil when there are no field errors and a ValidationError
// carrying them otherwise.
func (fe FieldErrors) Err() error {
	if len(fe) == 0 {
		return nil
	}
	return appErrors.Validation("please correct the highlighted fields", fe)
}

// Validator checks form drafts and renders failures as field messages.
type Validator struct {
	validate *validator.Validate
	trans    ut.Translator
}

var messages = map[string]string{
	"required": "This field is required",
	"email":    "Invalid email format",
	"digits":   "Must be {0} digits",
	"max":      "{0} must be less than {1} characters",
	"oneof":    "Must be one of {0}",
	"number":   "Must be a number",
}

// New builds a Validator with the console's rules and messages registered.
func New() *Validator {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return field.Name
		}
		return name
	})
	// digits=N: exactly N ASCII digits.
	_ = validate.RegisterValidation("digits", func(fl validator.FieldLevel) bool {
		value := fl.Field().String()
		n, err := strconv.Atoi(fl.Param())
		if err != nil || len(value) != n {
			return false
		}
		for _, r := range value {
			if r < '0' || r > '9' {
				return false
			}
		}
		return true
	})

	locale := en.New()
	trans, _ := ut.New(locale, locale).GetTranslator("en")
	title := cases.Title(language.English)
	for tag, text := range messages {
		tag, text := tag, text
		_ = validate.RegisterTranslation(tag, trans,
			func(t ut.Translator) error { return t.Add(tag, text, true) },
			func(t ut.Translator, fe validator.FieldError) string {
				var msg string
				switch tag {
				case "digits":
					msg, _ = t.T(tag, fe.Param())
				case "max":
					label := title.String(strings.ReplaceAll(fe.Field(), "_", " "))
					msg, _ = t.T(tag, label, fe.Param())
				case "oneof":
					msg, _ = t.T(tag, strings.Join(strings.Fields(fe.Param()), ", "))
				default:
					msg, _ = t.T(tag)
				}
				return msg
			})
	}
	return &Validator{validate: validate, trans: trans}
}

// Validate checks draft and returns one message per failing field. It has no
// side effects; an empty result means the draft may be submitted.
func (v *Validator) Validate(draft interface{}) FieldErrors {
	out := FieldErrors{}
	err := v.validate.Struct(draft)
	if err == nil {
		return out
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		out["_form"] = err.Error()
		return out
	}
	for _, fe := range verrs {
		if _, seen := out[fe.Field()]; seen {
			continue
		}
		out[fe.Field()] = fe.Translate(v.trans)
	}
	return out
}
