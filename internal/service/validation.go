package service

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	minNameLen        = 2
	maxNameLen        = 100
	maxEmailLen       = 255
	minPasswordLen    = 8
	maxPasswordLen    = 128
	maxPasswordBytes  = 72 // bcrypt input limit
	maxTitleLen       = 200
	maxDescriptionLen = 1000
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateName(name string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(name))
	switch {
	case n == 0:
		return invalidInput("name is required")
	case n < minNameLen:
		return invalidInput("name must be at least 2 characters long")
	case n > maxNameLen:
		return invalidInput("name cannot exceed 100 characters")
	}
	return nil
}

// validateEmail expects an already normalized address.
func validateEmail(email string) error {
	switch {
	case email == "":
		return invalidInput("email is required")
	case len(email) > maxEmailLen:
		return invalidInput("email cannot exceed 255 characters")
	case !emailPattern.MatchString(email):
		return invalidInput("please provide a valid email address")
	}
	return nil
}

func validatePassword(password string) error {
	n := utf8.RuneCountInString(password)
	switch {
	case n == 0:
		return invalidInput("password is required")
	case n < minPasswordLen:
		return invalidInput("password must be at least 8 characters long")
	case n > maxPasswordLen:
		return invalidInput("password cannot exceed 128 characters")
	case len(password) > maxPasswordBytes:
		return invalidInput("password cannot exceed 72 bytes")
	}

	var upper, lower, digit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case r >= '0' && r <= '9':
			digit = true
		}
	}
	if !upper || !lower || !digit {
		return invalidInput("password must contain at least one uppercase letter, one lowercase letter, and one number")
	}
	return nil
}

func validateTaskFields(title string, description *string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(title))
	if n == 0 {
		return invalidInput("title is required")
	}
	if n > maxTitleLen {
		return invalidInput("title cannot exceed 200 characters")
	}
	if description != nil && utf8.RuneCountInString(*description) > maxDescriptionLen {
		return invalidInput("description cannot exceed 1000 characters")
	}
	return nil
}
