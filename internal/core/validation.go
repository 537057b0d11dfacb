package core

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	msgRequired     = "This field is required."
	msgInvalidEmail = "Invalid email address."
	msgInvalidPort  = "Port must be a number between 1 and 65535."
)

var validate = validator.New()

func init() {
	// Report fields by their form names so errors line up with the inputs.
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("form"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// validateStruct runs the struct's validate tags and converts failures into
// FieldErrors. It returns an empty, non-nil map when v is valid.
func validateStruct(v any) FieldErrors {
	errs := FieldErrors{}
	if err := validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			errs.Add("", err.Error())
			return errs
		}
		for _, fe := range verrs {
			errs.Add(fe.Field(), fieldMessage(fe))
		}
	}
	return errs
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return msgRequired
	case "email":
		return msgInvalidEmail
	case "max":
		return fmt.Sprintf("Field cannot be longer than %s characters.", fe.Param())
	case "oneof":
		return "Not a valid choice."
	case "hostname_rfc1123|ip":
		return "Invalid server hostname."
	default:
		return "Invalid value."
	}
}
