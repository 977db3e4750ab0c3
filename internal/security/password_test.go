package security

import (
	"strings"
	"testing"
)

func TestTemporaryPasswordLengthAndAlphabet(t *testing.T) {
	t.Parallel()

	tests := []struct {
		requested int
		want      int
	}{
		{requested: -1, want: 8},
		{requested: 4, want: 8},
		{requested: 12, want: 12},
		{requested: 64, want: 64},
	}
	for _, tt := range tests {
		password, err := TemporaryPassword(tt.requested)
		if err != nil {
			t.Fatalf("TemporaryPassword(%d) returned error: %v", tt.requested, err)
		}
		if len(password) != tt.want {
			t.Fatalf("TemporaryPassword(%d) len = %d, want %d", tt.requested, len(password), tt.want)
		}
		for _, char := range password {
			if !strings.ContainsRune(PasswordAlphabet, char) {
				t.Fatalf("password %q contains %q outside alphabet", password, char)
			}
		}
	}
}

func TestRandomFromAlphabetRejectsBadAlphabet(t *testing.T) {
	t.Parallel()

	if _, err := randomFromAlphabet(4, ""); err == nil {
		t.Fatal("expected error for empty alphabet")
	}
	if _, err := randomFromAlphabet(4, strings.Repeat("a", 257)); err == nil {
		t.Fatal("expected error for oversized alphabet")
	}
	value, err := randomFromAlphabet(6, "X")
	if err != nil || value != "XXXXXX" {
		t.Fatalf("unexpected single-letter result %q %v", value, err)
	}
}
