package validate

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator wraps the go-playground validator so error messages report
// JSON field names instead of Go struct field names.
type Validator struct {
	validator *validator.Validate
}

// New creates a new validator instance
func New() *Validator {
	validate := validator.New()

	// Use JSON field names for validation error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &Validator{
		validator: validate,
	}
}

// Validate validates a struct and returns validation errors
func (v *Validator) Validate(i interface{}) error {
	if err := v.validator.Struct(i); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			return newValidationError(verrs)
		}
		return err
	}
	return nil
}

// ValidationError carries per-field validation messages
type ValidationError struct {
	Fields map[string]string `json:"fields"`
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	var messages []string
	for field, message := range e.Fields {
		messages = append(messages, fmt.Sprintf("%s: %s", field, message))
	}
	return strings.Join(messages, "; ")
}

func newValidationError(errs validator.ValidationErrors) *ValidationError {
	fields := make(map[string]string, len(errs))
	for _, fe := range errs {
		switch fe.Tag() {
		case "required":
			fields[fe.Namespace()] = "is required"
		case "min":
			fields[fe.Namespace()] = fmt.Sprintf("must have at least %s items", fe.Param())
		default:
			fields[fe.Namespace()] = fmt.Sprintf("failed %s validation", fe.Tag())
		}
	}
	return &ValidationError{Fields: fields}
}
