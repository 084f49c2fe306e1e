package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	"portfolio/common"
	"portfolio/models"
)

// Validator checks forms against their `binding` tags and reports failures
// as a *common.Error whose fields are named after the JSON keys.
type Validator struct {
	validate *validator.Validate
	trans    ut.Translator
}

// extra messages for tags the stock English translations do not cover
var customMessages = map[string]string{
	"imageref":           "{0} must be an http(s) URL, an image data URI or an uploaded file path",
	"slug":               "{0} must contain only lowercase letters, digits and hyphens",
	"required_if":        "{0} is a required field",
	"bcp47_language_tag": "{0} must be a valid language code",
}

func New() *Validator {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.SetTagName("binding")
	validate.RegisterTagNameFunc(jsonFieldName)

	locale := en.New()
	trans, _ := ut.New(locale, locale).GetTranslator("en")
	if err := en_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		panic(fmt.Sprintf("validation: register translations: %v", err))
	}

	if err := validate.RegisterValidation("imageref", func(fl validator.FieldLevel) bool {
		return IsImageRef(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	if err := validate.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return models.IsValidSlug(fl.Field().String())
	}); err != nil {
		panic(err)
	}

	for tag, text := range customMessages {
		registerMessage(validate, trans, tag, text)
	}

	return &Validator{validate: validate, trans: trans}
}

// Install makes v the validator used by gin's ShouldBind* helpers.
func Install(v *Validator) {
	binding.Validator = v
}

func registerMessage(validate *validator.Validate, trans ut.Translator, tag, text string) {
	err := validate.RegisterTranslation(tag, trans,
		func(t ut.Translator) error {
			return t.Add(tag, text, true)
		},
		func(t ut.Translator, fe validator.FieldError) string {
			msg, err := t.T(fe.Tag(), fe.Field())
			if err != nil {
				return fe.Field() + " is invalid"
			}
			return msg
		},
	)
	if err != nil {
		panic(fmt.Sprintf("validation: register %s message: %v", tag, err))
	}
}

func jsonFieldName(field reflect.StructField) string {
	name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
	switch name {
	case "-":
		return ""
	case "":
		return field.Name
	}
	return name
}

// ValidateStruct implements binding.StructValidator. Non-struct values pass.
func (v *Validator) ValidateStruct(obj any) error {
	if obj == nil {
		return nil
	}
	value := reflect.ValueOf(obj)
	for value.Kind() == reflect.Pointer {
		if value.IsNil() {
			return nil
		}
		value = value.Elem()
	}
	if value.Kind() != reflect.Struct {
		return nil
	}
	return v.Struct(obj)
}

func (v *Validator) Engine() any {
	return v.validate
}

// Struct validates obj and converts failures into a validation error.
func (v *Validator) Struct(obj any) error {
	err := v.validate.Struct(obj)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	fields := make([]common.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, common.FieldError{
			Field:   fe.Field(),
			Message: v.message(fe),
		})
	}
	return common.ValidationError(fields...)
}

func (v *Validator) message(fe validator.FieldError) string {
	msg := fe.Translate(v.trans)
	// untranslated tags fall back to the raw validator text
	if strings.HasPrefix(msg, "Key: ") {
		return fe.Field() + " is invalid"
	}
	return msg
}

// DecodeError turns a JSON decoding failure into a client error. A type
// mismatch is reported against the offending field.
func DecodeError(err error) error {
	var typeErr *json.UnmarshalTypeError
	var syntaxErr *json.SyntaxError

	switch {
	case errors.As(err, &typeErr):
		field := typeErr.Field
		if field == "" {
			return common.BadRequest("request body must be a JSON object")
		}
		return common.ValidationError(common.FieldError{
			Field:   field,
			Message: fmt.Sprintf("%s must be %s", field, describeType(typeErr.Type)),
		})
	case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF):
		return common.BadRequest("malformed JSON body")
	}
	return common.BadRequest("invalid request body")
}

// BindError maps a gin binding failure: validation errors pass through and
// decoding failures go through DecodeError.
func BindError(err error) error {
	var appErr *common.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return DecodeError(err)
}

func describeType(t reflect.Type) string {
	if t == nil {
		return "a valid value"
	}
	if t == reflect.TypeOf(models.StringList{}) {
		return "a list or a comma-separated string"
	}
	switch t.Kind() {
	case reflect.String:
		return "a string"
	case reflect.Bool:
		return "true or false"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return "a number"
	case reflect.Slice, reflect.Array:
		return "a list"
	}
	return "a valid value"
}
