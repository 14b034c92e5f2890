package domain

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"example.com/siteforms/internal/sanitize"
)

// ValidationError is a client input failure; Message is returned to the caller verbatim.
type ValidationError struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string { return e.Message }

func invalid(field, msg string) *ValidationError {
	return &ValidationError{Field: field, Message: msg}
}

// Field limits (keep in sync with the site's client-side form rules)
const (
	MinNameLen     = 2
	MaxNameLen     = 200
	MinMessageLen  = 10
	MaxMessageLen  = 5000
	MinPhoneDigits = 7
	MaxPhoneDigits = 15
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// asString treats nil and non-string values as empty.
func asString(v any) string {
	s, _ := v.(string)
	return s
}

// ValidateName sanitizes v and requires 2..200 characters.
func ValidateName(v any) (string, error) {
	name := sanitize.Text(asString(v))
	if n := utf8.RuneCountInString(name); n < MinNameLen || n > MaxNameLen {
		return "", invalid("name", "Name must be between 2 and 200 characters")
	}
	return name, nil
}

// ValidateEmail sanitizes v and requires a local@domain.tld shape.
func ValidateEmail(v any) (string, error) {
	email := strings.TrimSpace(sanitize.Text(asString(v)))
	if !emailPattern.MatchString(email) {
		return "", invalid("email", "Please provide a valid email address")
	}
	return email, nil
}

// ValidatePhone requires 7..15 digits but returns the formatted input, not the digits.
func ValidatePhone(v any) (string, error) {
	phone := strings.TrimSpace(sanitize.Text(asString(v)))
	digits := 0
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	if digits < MinPhoneDigits || digits > MaxPhoneDigits {
		return "", invalid("phone", "Please provide a valid phone number")
	}
	return phone, nil
}

// ValidateMessage sanitizes v and requires 10..5000 characters.
func ValidateMessage(v any) (string, error) {
	msg := sanitize.Text(asString(v))
	if n := utf8.RuneCountInString(msg); n < MinMessageLen || n > MaxMessageLen {
		return "", invalid("message", "Message must be between 10 and 5000 characters")
	}
	return msg, nil
}

// OptionalString sanitizes v when it is a string and returns "" otherwise. It never fails.
func OptionalString(v any) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return sanitize.Text(s)
}
