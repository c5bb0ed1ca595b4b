package payload

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	entranslations "github.com/go-playground/validator/v10/translations/en"
)

const passwordPolicyTag = "password_policy"

// FieldError describes one violated field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors aggregates every violated field of a request.
type ValidationErrors []FieldError

func (e ValidationErrors) Error() string {
	parts := make([]string, 0, len(e))
	for _, fe := range e {
		parts = append(parts, fe.Field+": "+fe.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Validator checks request payloads and renders english messages keyed by json field name.
type Validator struct {
	validate *validator.Validate
	trans    ut.Translator
}

func NewValidator() (*Validator, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	english := en.New()
	trans, _ := ut.New(english, english).GetTranslator("en")

	if err := entranslations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, fmt.Errorf("register translations: %w", err)
	}

	if err := validate.RegisterValidation(passwordPolicyTag, passwordPolicy); err != nil {
		return nil, fmt.Errorf("register %s: %w", passwordPolicyTag, err)
	}

	err := validate.RegisterTranslation(
		passwordPolicyTag,
		trans,
		func(t ut.Translator) error {
			return t.Add(passwordPolicyTag, "{0} must contain an upper-case letter, a lower-case letter and a digit", true)
		},
		func(t ut.Translator, fe validator.FieldError) string {
			msg, _ := t.T(passwordPolicyTag, fe.Field())
			return msg
		},
	)
	if err != nil {
		return nil, fmt.Errorf("register %s translation: %w", passwordPolicyTag, err)
	}

	return &Validator{validate: validate, trans: trans}, nil
}

// Validate returns ValidationErrors listing every violated field, or nil.
func (v *Validator) Validate(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	out := make(ValidationErrors, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{
			Field:   fe.Field(),
			Message: fe.Translate(v.trans),
		})
	}

	return out
}

func passwordPolicy(fl validator.FieldLevel) bool {
	var upper, lower, digit bool
	for _, r := range fl.Field().String() {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}

	return upper && lower && digit
}
