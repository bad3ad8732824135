package utils

import (
	"errors"
	"net/mail"
	"strings"
)

// NormalizeEmail lowercases and trims an email address for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail checks that the address is syntactically valid and bare
// (no display name), e.g. "user@example.com".
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return errors.New("email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return errors.New("invalid email address")
	}
	if !strings.Contains(strings.SplitN(email, "@", 2)[1], ".") {
		return errors.New("invalid email address")
	}
	return nil
}
