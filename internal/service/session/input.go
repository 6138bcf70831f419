package session

import (
	"unicode/utf8"

	"github.com/avolkova/journal/internal/domain"
)

// Username length limits for the login form.
const (
	minUsernameLength = 4
	maxUsernameLength = 32
)

// LoginInput holds the submitted login form fields.
type LoginInput struct {
	Username string
	Password string
}

// Validate checks the login form rules. All violated rules are reported.
func (i LoginInput) Validate() error {
	var errs []domain.FieldError

	if i.Username == "" {
		errs = append(errs, domain.FieldError{Field: "username", Message: "Username is required."})
	} else if n := utf8.RuneCountInString(i.Username); n < minUsernameLength || n > maxUsernameLength {
		errs = append(errs, domain.FieldError{Field: "username", Message: "Username must be between 4 and 32 characters."})
	}

	if i.Password == "" {
		errs = append(errs, domain.FieldError{Field: "password", Message: "Password is required."})
	}

	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}
