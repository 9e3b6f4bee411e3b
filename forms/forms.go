// Package forms validates submitted field sets before they are turned into
// entities. Every form works in two phases: Validate checks the raw input and
// returns a typed, already-checked value; only that value can build or update
// an entity, so a partially valid submission never reaches storage.
package forms

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"yatube/utils"
)

const (
	msgRequired      = "This field is required."
	msgInvalidChoice = "Select a valid choice. That choice is not one of the available choices."
	msgInvalidImage  = "Upload a valid image. The file you uploaded was either not an image or a corrupted image."
	msgEmptyImage    = "The submitted file is empty."
	msgInvalidEmail  = "Enter a valid email address."
	msgInvalidName   = "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters."
	msgPasswordMatch = "The two password fields didn't match."
	msgWeakPassword  = "This password is too weak. Use at least 8 characters mixing upper case, lower case, digits or symbols."
	msgUsernameTaken = "A user with that username already exists."
	msgBadLogin      = "Please enter a correct username and password. Note that both fields may be case-sensitive."
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return utils.IsValidUsername(fl.Field().String())
	})
	return v
}

// ValidationError carries field-level messages. The empty field name holds
// errors that belong to the form as a whole.
type ValidationError struct {
	Fields map[string][]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		label := name
		if label == "" {
			label = "form"
		}
		parts = append(parts, fmt.Sprintf("%s: %s", label, strings.Join(e.Fields[name], " ")))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Add(field, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], message)
}

// Has reports whether field has at least one error.
func (e *ValidationError) Has(field string) bool {
	return e != nil && len(e.Fields[field]) > 0
}

func (e *ValidationError) empty() bool {
	return e == nil || len(e.Fields) == 0
}

// AsValidationError unwraps err into a *ValidationError if it is one.
func AsValidationError(err error) (*ValidationError, bool) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr, true
	}
	return nil, false
}

// FieldErrors returns err's field messages, or an empty map when err is not
// a validation error. Templates index into the result unconditionally.
func FieldErrors(err error) map[string][]string {
	if verr, ok := AsValidationError(err); ok {
		return verr.Fields
	}
	return map[string][]string{}
}

// check runs the struct's validate tags and converts failures into
// user-facing messages.
func check(form interface{}) *ValidationError {
	verr := &ValidationError{}
	err := validate.Struct(form)
	if err == nil {
		return verr
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		verr.Add("", err.Error())
		return verr
	}
	for _, fe := range fieldErrs {
		verr.Add(fe.Field(), message(fe))
	}
	return verr
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return msgRequired
	case "max":
		s, _ := fe.Value().(string)
		return fmt.Sprintf("Ensure this value has at most %s characters (it has %d).", fe.Param(), utf8.RuneCountInString(s))
	case "numeric":
		return msgInvalidChoice
	case "email":
		return msgInvalidEmail
	case "username":
		return msgInvalidName
	case "eqfield":
		return msgPasswordMatch
	default:
		return fmt.Sprintf("Invalid value (%s).", fe.Tag())
	}
}
