package validator

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// FieldError describes one failed rule on one request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError collects every failed rule of a request.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	messages := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		messages = append(messages, fe.Message)
	}
	return strings.Join(messages, "; ")
}

type Validator struct {
	validate *validator.Validate
}

const passwordSpecials = "@$!%*?&"

// international E.164 or a national number with an optional trunk zero
var phonePattern = regexp.MustCompile(`^(\+[1-9]\d{6,14}|0?\d{7,14})$`)

func NewValidator() *Validator {
	v := validator.New()

	// Use JSON tag names instead of struct field names for error messages
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return strings.ToLower(fld.Name)
		}
		return name
	})

	// registration only fails for empty tags or nil funcs
	_ = v.RegisterValidation("password", validatePassword)
	_ = v.RegisterValidation("isodate", validateISODate)
	_ = v.RegisterValidation("phone", validatePhone)

	return &Validator{
		validate: v,
	}
}

// Validate runs struct tag rules. Rule failures are returned as
// *ValidationError; anything else is a programming error and passes through.
func (v *Validator) Validate(i interface{}) error {
	if err := v.validate.Struct(i); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return formatValidationErrors(validationErrs)
		}
		return err
	}
	return nil
}

// StrongPassword reports whether s satisfies the password complexity rule
// (length is checked separately). s must contain a lower case letter, an
// upper case letter, a digit and one of passwordSpecials, and must start
// with one of those; anything may follow the first rune.
func StrongPassword(s string) bool {
	if s == "" || !passwordRune(rune(s[0])) {
		return false
	}
	var lower, upper, digit, special bool
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune(passwordSpecials, r):
			special = true
		}
	}
	return lower && upper && digit && special
}

func passwordRune(r rune) bool {
	return r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' ||
		strings.ContainsRune(passwordSpecials, r)
}

// ParseISODate accepts a calendar date or a full RFC 3339 timestamp.
func ParseISODate(s string) (time.Time, error) {
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

func validatePassword(fl validator.FieldLevel) bool {
	return StrongPassword(fl.Field().String())
}

func validateISODate(fl validator.FieldLevel) bool {
	_, err := ParseISODate(fl.Field().String())
	return err == nil
}

func validatePhone(fl validator.FieldLevel) bool {
	phone := strings.NewReplacer(" ", "", "-", "", "(", "", ")", "").Replace(fl.Field().String())
	return phonePattern.MatchString(phone)
}

func formatValidationErrors(errs validator.ValidationErrors) *ValidationError {
	out := &ValidationError{Errors: make([]FieldError, 0, len(errs))}
	for _, err := range errs {
		var message string
		field := err.Field()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", field)
		case "email":
			message = fmt.Sprintf("%s must be a valid email address", field)
		case "min":
			message = fmt.Sprintf("%s must be at least %s characters", field, err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s characters", field, err.Param())
		case "uuid":
			message = fmt.Sprintf("%s must be a valid UUID", field)
		case "eqfield":
			message = fmt.Sprintf("%s does not match", field)
		case "password":
			message = fmt.Sprintf("%s must contain at least one uppercase letter, one lowercase letter, one number, and one special character", field)
		case "isodate":
			message = fmt.Sprintf("%s must be a valid ISO 8601 date", field)
		case "phone":
			message = fmt.Sprintf("%s must be a valid phone number", field)
		default:
			message = fmt.Sprintf("%s failed validation for %s", field, err.Tag())
		}
		out.Errors = append(out.Errors, FieldError{Field: field, Message: message})
	}

	return out
}
