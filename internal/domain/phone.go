package domain

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/nyaruka/phonenumbers"
)

// DefaultPhoneRegion is used when a number is given without a country code
const DefaultPhoneRegion = "US"

// ErrInvalidPhone is returned when a phone number cannot be parsed into a dialable number
var ErrInvalidPhone = errors.New("invalid phone number")

var validate = validator.New()

// NormalizePhone returns the canonical E.164 form of a phone number.
// Formatting variants of one number (dashes, parentheses, spaces, optional
// country code) all map to the same canonical value.
func NormalizePhone(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrInvalidPhone
	}

	num, err := phonenumbers.Parse(raw, DefaultPhoneRegion)
	if err != nil {
		return "", ErrInvalidPhone
	}
	if !phonenumbers.IsPossibleNumber(num) {
		return "", ErrInvalidPhone
	}

	return phonenumbers.Format(num, phonenumbers.E164), nil
}

// ValidatePhone reports whether raw is a usable phone number
func ValidatePhone(raw string) bool {
	_, err := NormalizePhone(raw)
	return err == nil
}

// NormalizeEmail lowercases and trims an email address
func NormalizeEmail(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// ValidateEmail reports whether raw is a syntactically valid email address
func ValidateEmail(raw string) bool {
	return validate.Var(raw, "required,email") == nil
}
