package identity

import (
	"errors"
	"net/mail"
	"strings"
	"unicode/utf8"
)

const MinPasswordLength = 6

var (
	ErrNameRequired     = errors.New("name required")
	ErrInvalidEmail     = errors.New("invalid email")
	ErrWeakPassword     = errors.New("weak password")
	ErrPasswordRequired = errors.New("password required")
)

func NormalizeEmail(raw string) string {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return ""
	}
	address, err := mail.ParseAddress(email)
	if err != nil || address.Address != email {
		return ""
	}
	return email
}

type SignUpInput struct {
	Email       string
	Password    string
	DisplayName string
}

func NormalizeSignUpInput(input SignUpInput) (SignUpInput, error) {
	input.DisplayName = strings.TrimSpace(input.DisplayName)
	if input.DisplayName == "" {
		return input, ErrNameRequired
	}
	input.Email = NormalizeEmail(input.Email)
	if input.Email == "" {
		return input, ErrInvalidEmail
	}
	if utf8.RuneCountInString(input.Password) < MinPasswordLength {
		return input, ErrWeakPassword
	}
	return input, nil
}

func NormalizeSignInInput(emailRaw string, password string) (string, string, error) {
	email := NormalizeEmail(emailRaw)
	if email == "" {
		return "", "", ErrInvalidEmail
	}
	if strings.TrimSpace(password) == "" {
		return "", "", ErrPasswordRequired
	}
	return email, password, nil
}
