package contact

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	personNameRe = regexp.MustCompile(`^[a-zA-ZáéíóúÁÉÍÓÚñÑ\s]+$`)
	emailRe      = regexp.MustCompile(`^[a-zA-Z0-9._-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,6}$`)
	phoneRe      = regexp.MustCompile(`^\d{10}$`)
)

// FieldErrors maps a json field name to a human readable problem.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	return fmt.Sprintf("contact form: %d invalid field(s)", len(fe))
}

type Form struct {
	Name    string `json:"name" validate:"required,min=3,personname"`
	Email   string `json:"email" validate:"required,shopemail"`
	Phone   string `json:"phone" validate:"required,phone10"`
	Subject string `json:"subject" validate:"required,max=100"`
	Message string `json:"message" validate:"required,min=10,max=5000"`
}

// Normalize trims surrounding whitespace from every field.
func (f Form) Normalize() Form {
	f.Name = strings.TrimSpace(f.Name)
	f.Email = strings.TrimSpace(f.Email)
	f.Phone = strings.TrimSpace(f.Phone)
	f.Subject = strings.TrimSpace(f.Subject)
	f.Message = strings.TrimSpace(f.Message)
	return f
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" {
			return f.Name
		}
		return tag
	})

	mustRegister(v, "personname", personNameRe)
	mustRegister(v, "shopemail", emailRe)
	mustRegister(v, "phone10", phoneRe)
	return v
}

func mustRegister(v *validator.Validate, tag string, re *regexp.Regexp) {
	err := v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
		return re.MatchString(fl.Field().String())
	})
	if err != nil {
		panic(err)
	}
}

// Validate checks a normalized form. The error is FieldErrors when the form
// itself is at fault.
func (f Form) Validate() error {
	err := validate.Struct(f)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	out := FieldErrors{}
	for _, fe := range verrs {
		if _, seen := out[fe.Field()]; !seen {
			out[fe.Field()] = message(fe)
		}
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "personname":
		return "must contain only letters and spaces"
	case "shopemail":
		return "must be a valid email"
	case "phone10":
		return "must be exactly 10 digits"
	}
	return "is invalid"
}
