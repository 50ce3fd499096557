package core

import (
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/pkg/errors"
)

const IsoDateLayout = "2006-01-02"

var (
	Validate   *validator.Validate
	Translator ut.Translator

	// custom validation tags & texts
	alphaNumUnderTag   = "alphanum_"
	alphaNumUnderText  = "only alphanumeric characters and underscores are allowed"
	alphaNumUnderRegex = regexp.MustCompile(`^[\w\s]+$`)

	classGroupTag   = "classgroup"
	classGroupText  = "must be a grade followed by a stream letter, eg. 7A"
	classGroupRegex = regexp.MustCompile(`^(1[0-2]|[1-9])[- ]?[A-Z]$`)

	isoDateTag  = "isodate"
	isoDateText = "must be a date formatted as YYYY-MM-DD"

	clockTag   = "clock"
	clockText  = "must be a time formatted as HH:MM"
	clockRegex = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

	requiredTag     = "required"
	requiredWithTag = "required_with"
	requiredText    = "this field is required"
)

// Instantiate the validator for use.
func init() {
	Validate = validator.New()

	// Register the english error messages for validation errors.
	_en := en.New()
	uni := ut.New(_en, _en)
	Translator, _ = uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(Validate, Translator)

	// Use JSON tag names for errors instead of Go struct names.
	Validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// register custom validators
	_ = Validate.RegisterValidation(alphaNumUnderTag, alphaNumUnderValidation)
	RegisterCustomTranslation(alphaNumUnderTag, alphaNumUnderText)

	_ = Validate.RegisterValidation(classGroupTag, classGroupValidation)
	RegisterCustomTranslation(classGroupTag, classGroupText)

	_ = Validate.RegisterValidation(isoDateTag, isoDateValidation)
	RegisterCustomTranslation(isoDateTag, isoDateText)

	_ = Validate.RegisterValidation(clockTag, clockValidation)
	RegisterCustomTranslation(clockTag, clockText)

	RegisterCustomTranslation(requiredTag, requiredText, true)
	RegisterCustomTranslation(requiredWithTag, requiredText, true)
}

// RegisterCustomTranslation registers a custom translation for the specified validation tag.
func RegisterCustomTranslation(tag, text string, override ...bool) {
	var ovrd bool
	if len(override) > 0 {
		ovrd = override[0]
	}
	_ = Validate.RegisterTranslation(
		tag, Translator,
		func(t ut.Translator) error { return t.Add(tag, text, ovrd) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

// ValidateStruct validates `s` and translates any failure into a *ValidationError.
func ValidateStruct(s interface{}) error {
	if err := Validate.Struct(s); err != nil {
		return TranslateValidation(err)
	}
	return nil
}

// TranslateValidation converts validator.ValidationErrors into a *ValidationError with english messages.
// Any other error is returned as is.
func TranslateValidation(err error) error {
	var vErrs validator.ValidationErrors
	if !errors.As(err, &vErrs) {
		return err
	}

	flds := make([]FieldError, 0, len(vErrs))
	for _, vErr := range vErrs {
		flds = append(flds, FieldError{Field: vErr.Field(), Error: vErr.Translate(Translator)})
	}
	return NewValidationError(errInvalidInput, flds...)
}

// Custom Global Validators

// alphaNumUnderValidation only allows alphanumeric characters and underscores.
func alphaNumUnderValidation(fl validator.FieldLevel) bool {
	return alphaNumUnderRegex.MatchString(fl.Field().String())
}

func classGroupValidation(fl validator.FieldLevel) bool {
	return classGroupRegex.MatchString(strings.ToUpper(fl.Field().String()))
}

func isoDateValidation(fl validator.FieldLevel) bool {
	_, err := time.Parse(IsoDateLayout, fl.Field().String())
	return err == nil
}

func clockValidation(fl validator.FieldLevel) bool {
	return clockRegex.MatchString(fl.Field().String())
}
