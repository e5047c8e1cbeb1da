package validator

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()

	// Use JSON tag names in error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	registerCustomValidations()
}

func registerCustomValidations() {
	// notblank rejects strings that are empty after trimming.
	validate.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
}

// First returns one field error message, or "" when s is valid.
func First(s interface{}) string {
	err := validate.Struct(s)
	if err == nil {
		return ""
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}
	return message(verrs[0])
}

func message(err validator.FieldError) string {
	field := err.Field()
	switch err.Tag() {
	case "required", "notblank":
		return field + " must not be empty"
	case "min":
		return field + " is too short (min: " + err.Param() + " characters)"
	case "max":
		return field + " is too long (max: " + err.Param() + " characters)"
	default:
		return field + " is invalid"
	}
}
