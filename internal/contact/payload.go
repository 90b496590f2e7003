// Package contact validates and delivers contact-form messages.
package contact

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"
)

// Payload is what the visitor typed into the form.
type Payload struct {
	Name    string `json:"name" form:"name" validate:"required,min=2"`
	Email   string `json:"email" form:"email" validate:"required,simplemail"`
	Message string `json:"message" form:"message" validate:"required,min=10"`
}

// Response is the JSON body returned by the contact endpoint.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// Field names reported by ValidationError.
const (
	FieldAll     = "all"
	FieldName    = "name"
	FieldEmail   = "email"
	FieldMessage = "message"
)

// User facing validation messages.
const (
	MsgMissing      = "Please fill in all fields"
	MsgShortName    = "Name must be at least 2 characters long"
	MsgInvalidEmail = "Please enter a valid email address"
	MsgShortMessage = "Message must be at least 10 characters long"
)

// ValidationError is returned when a payload is rejected before any network
// call is made.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("contact: invalid %s: %s", e.Field, e.Message)
}

// IsValidation reports whether err is a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation("simplemail", func(fl validator.FieldLevel) bool {
		return emailPattern.MatchString(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	return v
}

// Validate checks p. Missing fields are reported first, then name, email and
// message in that order; only the first problem is returned.
func Validate(p Payload) error {
	err := validate.Struct(p)
	if err == nil {
		return nil
	}
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return fmt.Errorf("contact: validate: %w", err)
	}

	failed := make(map[string]string, len(errs))
	for _, fe := range errs {
		if fe.Tag() == "required" {
			return &ValidationError{Field: FieldAll, Message: MsgMissing}
		}
		failed[fe.Field()] = fe.Tag()
	}
	switch {
	case failed["Name"] != "":
		return &ValidationError{Field: FieldName, Message: MsgShortName}
	case failed["Email"] != "":
		return &ValidationError{Field: FieldEmail, Message: MsgInvalidEmail}
	default:
		return &ValidationError{Field: FieldMessage, Message: MsgShortMessage}
	}
}
