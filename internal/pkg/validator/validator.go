package validator

import (
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
	// Ledger transaction type validation
	validate.RegisterValidation("tx_type", func(fl validator.FieldLevel) bool {
		txType := fl.Field().String()
		validTypes := []string{"purchase", "usage", "trial", "adjustment"}
		for _, t := range validTypes {
			if txType == t {
				return true
			}
		}
		return false
	})
}

// Validate validates a struct and returns a map of field errors
func Validate(s interface{}) map[string]string {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return map[string]string{"_error": err.Error()}
	}

	fieldErrors := make(map[string]string, len(validationErrors))
	for _, fieldErr := range validationErrors {
		fieldErrors[fieldErr.Field()] = messageForTag(fieldErr)
	}
	return fieldErrors
}

func messageForTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "uuid":
		return "must be a valid UUID"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "tx_type":
		return "must be one of: purchase, usage, trial, adjustment"
	default:
		return "invalid value"
	}
}
