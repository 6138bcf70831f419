package journal

import (
	"unicode/utf8"

	"github.com/avolkova/journal/internal/domain"
)

// Form validation messages.
const (
	msgTitleRequired  = "Title is required."
	msgTitleTooLong   = "Your title is too long."
	msgTextRequired   = "Text is required."
	msgDuplicateTitle = "An entry with that title already exists."
)

// EntryInput holds the submitted add/edit form fields.
type EntryInput struct {
	Title string
	Text  string
}

// fieldErrors evaluates the pure field rules. All violations are reported;
// the duplicate-title lookup happens in the service, which has store access.
func (i EntryInput) fieldErrors() []domain.FieldError {
	var errs []domain.FieldError

	if i.Title == "" {
		errs = append(errs, domain.FieldError{Field: "title", Message: msgTitleRequired})
	} else if utf8.RuneCountInString(i.Title) > domain.MaxTitleLength {
		errs = append(errs, domain.FieldError{Field: "title", Message: msgTitleTooLong})
	}

	if i.Text == "" {
		errs = append(errs, domain.FieldError{Field: "text", Message: msgTextRequired})
	}

	return errs
}
