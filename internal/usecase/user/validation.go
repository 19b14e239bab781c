package user

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "user-management-api/pkg/errors"
)

// personNamePattern allows letters (including Latin-1 accented ones) and whitespace.
var personNamePattern = regexp.MustCompile(`^[a-zA-ZÀ-ÿ\s]+$`)

// NewValidator returns a validator that reports JSON field names and knows
// the personname rule.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	// Registration only fails for an empty tag or nil func.
	_ = v.RegisterValidation("personname", func(fl validator.FieldLevel) bool {
		return personNamePattern.MatchString(fl.Field().String())
	})

	return v
}

// formatValidationError converts validator.ValidationErrors into a typed validation error.
func formatValidationError(err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return apperrors.NewValidationError(err.Error())
	}

	fields := make([]apperrors.FieldError, 0, len(validationErrors))
	for _, e := range validationErrors {
		var msg string
		switch e.Tag() {
		case "required":
			msg = fmt.Sprintf("%s is required", e.Field())
		case "email":
			msg = fmt.Sprintf("%s must be a valid email", e.Field())
		case "min":
			msg = fmt.Sprintf("%s must be at least %s characters", e.Field(), e.Param())
		case "max":
			msg = fmt.Sprintf("%s must be at most %s characters", e.Field(), e.Param())
		case "gte":
			msg = fmt.Sprintf("%s must be greater than or equal to %s", e.Field(), e.Param())
		case "lte":
			msg = fmt.Sprintf("%s must be less than or equal to %s", e.Field(), e.Param())
		case "personname":
			msg = fmt.Sprintf("%s must contain only letters and spaces", e.Field())
		default:
			msg = fmt.Sprintf("%s is invalid", e.Field())
		}
		fields = append(fields, apperrors.FieldError{Field: e.Field(), Message: msg})
	}

	return apperrors.NewValidationError("invalid request", fields...)
}
