package service

import (
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/iliyamo/store-inventory/internal/apperr"
)

const (
	maxNameLen       = 64
	maxLocationLen   = 128
	minPasswordLen   = 8
	maxPasswordLen   = 32
	maxPasswordBytes = 72 // bcrypt refuses longer input
)

func validName(field, v string) (string, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return "", apperr.Invalid("%s is required", field)
	}
	if utf8.RuneCountInString(v) > maxNameLen {
		return "", apperr.Invalid("%s must be at most %d characters", field, maxNameLen)
	}
	return v, nil
}

func validLocation(v string) (string, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return "", apperr.Invalid("location is required")
	}
	if utf8.RuneCountInString(v) > maxLocationLen {
		return "", apperr.Invalid("location must be at most %d characters", maxLocationLen)
	}
	return v, nil
}

// validEmail accepts a bare address only ("Name <a@b>" is rejected).
func validEmail(v string) (string, error) {
	v = strings.ToLower(strings.TrimSpace(v))
	addr, err := mail.ParseAddress(v)
	if err != nil || addr.Address != v {
		return "", apperr.Invalid("email is not a valid address")
	}
	return v, nil
}

func validPassword(v string) error {
	n := utf8.RuneCountInString(v)
	if n < minPasswordLen || n > maxPasswordLen {
		return apperr.Invalid("password must be between %d and %d characters", minPasswordLen, maxPasswordLen)
	}
	if len(v) > maxPasswordBytes {
		return apperr.Invalid("password must be at most %d bytes", maxPasswordBytes)
	}
	return nil
}
