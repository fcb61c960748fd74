package service

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

var (
	ErrPasswordTooShort = errors.New("password must be at least 8 characters long")
	ErrPasswordTooWeak  = errors.New("password must contain at least one digit and one letter")
	ErrPasswordTooLong  = errors.New("password must be at most 72 bytes long")
)

// ValidationError carries per-field messages and matches ErrInvalidInput.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, e.Fields[k])
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func validateStruct(v *validator.Validate, s any) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return &ValidationError{Fields: formatValidationError(verrs)}
}

func formatValidationError(verrs validator.ValidationErrors) map[string]string {
	out := make(map[string]string)
	for _, err := range verrs {
		field := err.Field()

		switch err.Tag() {
		case "required":
			out[field] = fmt.Sprintf("%s is required", field)
		case "min":
			out[field] = fmt.Sprintf("%s must be at least %s characters", field, err.Param())
		case "max":
			out[field] = fmt.Sprintf("%s must be at most %s characters", field, err.Param())
		case "email":
			out[field] = fmt.Sprintf("%s must be a valid email", field)
		case "datetime":
			out[field] = fmt.Sprintf("%s must be a date in %s format", field, err.Param())
		default:
			out[field] = fmt.Sprintf("%s is invalid", field)
		}
	}
	return out
}

// maxPasswordBytes is the bcrypt input limit.
const maxPasswordBytes = 72

func validatePassword(password string) error {
	if len(password) < 8 {
		return &ValidationError{Fields: map[string]string{"password": ErrPasswordTooShort.Error()}}
	}
	if len(password) > maxPasswordBytes {
		return &ValidationError{Fields: map[string]string{"password": ErrPasswordTooLong.Error()}}
	}

	var hasLetter, hasDigit bool
	for _, r := range password {
		if unicode.IsLetter(r) {
			hasLetter = true
		}
		if unicode.IsDigit(r) {
			hasDigit = true
		}
	}

	if !hasLetter || !hasDigit {
		return &ValidationError{Fields: map[string]string{"password": ErrPasswordTooWeak.Error()}}
	}

	return nil
}
