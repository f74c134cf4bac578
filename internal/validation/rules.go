// Package validation provides custom validation rules for the application.
package validation

import (
	"regexp"

	validation "github.com/jellydator/validation"

	apperrors "github.com/allisson/orderflow/internal/errors"
)

var (
	// identifierRegex bounds the caller-supplied order and payment ids.
	identifierRegex = regexp.MustCompile(`^[a-zA-Z0-9._\-]{1,128}$`)

	// zipRegex accepts common postal code shapes.
	zipRegex = regexp.MustCompile(`^[0-9A-Za-z \-]{3,10}$`)
)

// WrapValidationError wraps validation errors as domain ErrInvalidInput.
func WrapValidationError(err error) error {
	if err == nil {
		return nil
	}
	return apperrors.Wrap(apperrors.ErrInvalidInput, err.Error())
}

// Identifier validates caller-supplied ids: 1-128 characters of letters,
// digits, dots, underscores, and hyphens.
var Identifier = validation.By(func(value interface{}) error {
	s, ok := value.(string)
	if !ok {
		return validation.NewError("validation_identifier_type", "must be a string")
	}
	if s == "" {
		return nil // Let Required handle empty strings
	}
	if !identifierRegex.MatchString(s) {
		return validation.NewError(
			"validation_identifier",
			"must be 1-128 characters of letters, digits, dots, underscores, or hyphens",
		)
	}
	return nil
})

// ZipCode validates postal codes.
var ZipCode = validation.By(func(value interface{}) error {
	s, ok := value.(string)
	if !ok {
		return validation.NewError("validation_zip_type", "must be a string")
	}
	if s == "" {
		return nil
	}
	if !zipRegex.MatchString(s) {
		return validation.NewError("validation_zip", "must be a valid postal code")
	}
	return nil
})
