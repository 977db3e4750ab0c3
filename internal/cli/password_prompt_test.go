package cli

import (
	"bufio"
	"bytes"
	"strings"
	"testing"
)

func TestReadNewPassword(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "matching", input: "segredo1\nsegredo1\n", want: "segredo1"},
		{name: "windows line endings", input: "segredo1\r\nsegredo1\r\n", want: "segredo1"},
		{name: "mismatch", input: "segredo1\nsegredo2\n", wantErr: true},
		{name: "too short", input: "abc\nabc\n", wantErr: true},
		{name: "closed input", input: "", wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var out bytes.Buffer
			got, err := readNewPassword(bufio.NewReader(strings.NewReader(tt.input)), &out)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got password %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("readNewPassword returned error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
			if !strings.Contains(out.String(), "New password: ") {
				t.Fatalf("expected prompt in output, got %q", out.String())
			}
		})
	}
}
