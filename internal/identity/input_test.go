package identity

import (
	"errors"
	"testing"
)

func TestNormalizeSignUpInput(t *testing.T) {
	tests := []struct {
		name  string
		input SignUpInput
		want  error
	}{
		{name: "valid", input: SignUpInput{Email: " Ana@Example.com ", Password: "secret", DisplayName: " Ana "}},
		{name: "blank name", input: SignUpInput{Email: "ana@example.com", Password: "secret", DisplayName: "  "}, want: ErrNameRequired},
		{name: "bad email", input: SignUpInput{Email: "ana", Password: "secret", DisplayName: "Ana"}, want: ErrInvalidEmail},
		{name: "display form email", input: SignUpInput{Email: "Ana <ana@example.com>", Password: "secret", DisplayName: "Ana"}, want: ErrInvalidEmail},
		{name: "short password", input: SignUpInput{Email: "ana@example.com", Password: "12345", DisplayName: "Ana"}, want: ErrWeakPassword},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeSignUpInput(tt.input)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if tt.want == nil && (got.Email != "ana@example.com" || got.DisplayName != "Ana") {
				t.Fatalf("unexpected normalized input: %#v", got)
			}
		})
	}
}

func TestNormalizeSignInInput(t *testing.T) {
	if _, _, err := NormalizeSignInInput("not-an-email", "x"); !errors.Is(err, ErrInvalidEmail) {
		t.Fatalf("expected ErrInvalidEmail, got %v", err)
	}
	if _, _, err := NormalizeSignInInput("ana@example.com", "   "); !errors.Is(err, ErrPasswordRequired) {
		t.Fatalf("expected ErrPasswordRequired, got %v", err)
	}
	email, password, err := NormalizeSignInInput("ANA@example.com", "pw")
	if err != nil || email != "ana@example.com" || password != "pw" {
		t.Fatalf("unexpected result %q %q %v", email, password, err)
	}
}

func TestUserInitials(t *testing.T) {
	tests := map[string]string{
		"":                "U",
		"   ":             "U",
		"ana":             "A",
		"Ana Souza":       "AS",
		"ana maria souza": "AS",
		"élio  ramos":     "ÉR",
	}
	for name, want := range tests {
		if got := (User{DisplayName: name}).Initials(); got != want {
			t.Fatalf("Initials(%q) = %q, want %q", name, got, want)
		}
	}
}
