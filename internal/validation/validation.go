// Package validation holds the format rules applied to user-submitted fields.
// Each check is a pure function returning a client-visible error on failure.
package validation

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/arkhipov/post-service/internal/apperr"
)

var (
	nameRegex  = regexp.MustCompile(`^[a-zA-Z0-9_]{3,20}$`)
	emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

// Name requires 3-20 characters, letters, digits or underscores only.
func Name(name string) error {
	if !nameRegex.MatchString(name) {
		return apperr.BadRequest("Username must be 3-20 characters long and contain only letters, numbers, or underscores")
	}
	return nil
}

// Email requires a single @ with a dotted domain and no whitespace.
func Email(email string) error {
	if !emailRegex.MatchString(email) {
		return apperr.BadRequest("Invalid email format")
	}
	return nil
}

// Password requires at least 8 characters with at least one lowercase letter,
// one uppercase letter and one digit.
func Password(password string) error {
	var hasLower, hasUpper, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if utf8.RuneCountInString(password) < 8 || !hasLower || !hasUpper || !hasDigit {
		return apperr.BadRequest("Password must be at least 8 characters long and contain at least one lowercase letter, one uppercase letter and one number")
	}
	return nil
}

// Title requires a trimmed length between 3 and 120 characters.
func Title(title string) error {
	trimmed := utf8.RuneCountInString(strings.TrimSpace(title))
	if trimmed < 3 || trimmed > 120 {
		return apperr.BadRequest("Title must be between 3 and 120 characters")
	}
	return nil
}

// Content requires a trimmed length of at least 10 characters.
func Content(content string) error {
	if utf8.RuneCountInString(strings.TrimSpace(content)) < 10 {
		return apperr.BadRequest("Content must be at least 10 characters long")
	}
	return nil
}
