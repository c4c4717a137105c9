package core

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationError describes one failed rule on one field.
type ValidationError struct {
	// Field is the JSON name of the field.
	Field string `json:"field"`
	// Code is the validator tag that failed, e.g. "max".
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ValidationResult collects every rule violation of a request body.
type ValidationResult struct {
	Errors []ValidationError `json:"errors,omitempty"`
}

// IsValid reports whether no rule failed.
func (r ValidationResult) IsValid() bool {
	return len(r.Errors) == 0
}

// First returns the first violation for field, if any.
func (r ValidationResult) First(field string) (ValidationError, bool) {
	for _, e := range r.Errors {
		if e.Field == field {
			return e, true
		}
	}
	return ValidationError{}, false
}

// Validator wraps go-playground/validator with JSON field naming and the
// notblank rule.
type Validator struct {
	validate *validator.Validate
	logger   *slog.Logger
}

// NewValidator creates a Validator and registers the custom tags.
func NewValidator(logger *slog.Logger) *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})

	// notblank rejects strings made only of whitespace, which "required"
	// lets through.
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})

	return &Validator{validate: v, logger: logger}
}

// ValidateStruct runs the struct tags of s. Rule violations come back in the
// result; the error is reserved for misuse such as passing a non-struct.
func (v *Validator) ValidateStruct(s any) (ValidationResult, error) {
	err := v.validate.Struct(s)
	if err == nil {
		return ValidationResult{}, nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		v.logger.Error("validator misuse", "error", err)
		return ValidationResult{}, fmt.Errorf("validating %T: %w", s, err)
	}

	result := ValidationResult{Errors: make([]ValidationError, 0, len(fieldErrs))}
	for _, fe := range fieldErrs {
		result.Errors = append(result.Errors, ValidationError{
			Field:   fe.Field(),
			Code:    fe.Tag(),
			Message: messageFor(fe),
		})
	}
	return result, nil
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return fe.Field() + " is required"
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s failed the %s rule", fe.Field(), fe.Tag())
	}
}
