package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	dErrors "coffeereg/pkg/domain-errors"
	s "coffeereg/pkg/string"
)

var (
	mobilePattern     = regexp.MustCompile(`^[6-9]\d{9}$`)
	pinPattern        = regexp.MustCompile(`^\d{6}$`)
	nationalIDPattern = regexp.MustCompile(`^\d{12}$`)
)

var defaultValidator = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	_ = v.RegisterValidation("in_mobile", func(fl validator.FieldLevel) bool {
		return IsMobile(fl.Field().String())
	})
	_ = v.RegisterValidation("in_pin", func(fl validator.FieldLevel) bool {
		return pinPattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("in_national_id", func(fl validator.FieldLevel) bool {
		return nationalIDPattern.MatchString(NormalizeNationalID(fl.Field().String()))
	})
	return v
}

// IsMobile reports whether s is a ten digit Indian mobile number.
func IsMobile(s string) bool {
	return mobilePattern.MatchString(s)
}

// IsEmail reports whether s passes the same check as the `email` tag.
func IsEmail(s string) bool {
	return defaultValidator.Var(s, "required,email") == nil
}

// NormalizeNationalID strips the spaces and dashes users type between the
// digit groups of a national ID.
func NormalizeNationalID(id string) string {
	return strings.NewReplacer(" ", "", "-", "").Replace(strings.TrimSpace(id))
}

// Validate validates a struct using the default validator and returns a domain error
func Validate(req any) error {
	if err := defaultValidator.Struct(req); err != nil {
		return dErrors.New(dErrors.CodeValidation, ErrorMessage(err))
	}
	return nil
}

// ErrorMessage converts a validator error into a human-readable message
func ErrorMessage(err error) string {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) || len(validationErrs) == 0 {
		return "invalid request body"
	}

	fe := validationErrs[0]
	fieldName := fe.Field()
	if fieldName == "" {
		fieldName = fe.StructField()
	}
	field := s.ToSnakeCase(fieldName)

	switch fe.ActualTag() {
	case "required", "notblank":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email", field)
	case "in_mobile":
		return fmt.Sprintf("%s must be a 10 digit mobile number starting with 6-9", field)
	case "in_pin":
		return fmt.Sprintf("%s must be a 6 digit PIN code", field)
	case "in_national_id":
		return fmt.Sprintf("%s must be a 12 digit number", field)
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	case "eq":
		return fmt.Sprintf("%s must be %s", field, fe.Param())
	default:
		if field == "" {
			return "invalid request body"
		}
		return fmt.Sprintf("%s is invalid", field)
	}
}
