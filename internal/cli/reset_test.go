package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/terraincognita07/comoestou/internal/config"
)

func newTestRuntime(t *testing.T) *Runtime {
	t.Helper()

	cfg := config.Defaults()
	cfg.DB.Path = filepath.Join(t.TempDir(), "comoestou-cli-test.db")
	cfg.Redis.Addr = ""
	cfg.Google.ClientID = ""

	runtime, err := OpenRuntime(cfg, RuntimeOptions{Offline: true})
	if err != nil {
		t.Fatalf("open runtime: %v", err)
	}
	t.Cleanup(func() {
		_ = runtime.Close()
	})
	return runtime
}

func TestOpenRuntimeRequiresSecretWhenServing(t *testing.T) {
	cfg := config.Defaults()
	cfg.DB.Path = filepath.Join(t.TempDir(), "serve.db")
	if _, err := OpenRuntime(cfg, RuntimeOptions{}); err == nil {
		t.Fatal("expected missing secret key to fail outside offline mode")
	}
}

func TestRunResetPasswordCommandGeneratesTemporaryPassword(t *testing.T) {
	runtime := newTestRuntime(t)
	ctx := context.Background()

	if _, err := runtime.Provider.SignUp(ctx, "reset@example.com", "original1", "Ana"); err != nil {
		t.Fatalf("sign up: %v", err)
	}

	var out bytes.Buffer
	if err := RunResetPasswordCommand(runtime.Provider, " RESET@example.com ", "", &out); err != nil {
		t.Fatalf("reset password: %v", err)
	}

	var temporary string
	for _, line := range strings.Split(out.String(), "\n") {
		if value, ok := strings.CutPrefix(line, "Temporary password: "); ok {
			temporary = value
		}
	}
	if len(temporary) != temporaryPasswordLength {
		t.Fatalf("expected %d character temporary password in output:\n%s", temporaryPasswordLength, out.String())
	}

	if _, err := runtime.Provider.SignIn(ctx, "reset@example.com", "original1"); err == nil {
		t.Fatal("expected old password to stop working")
	}
	if _, err := runtime.Provider.SignIn(ctx, "reset@example.com", temporary); err != nil {
		t.Fatalf("expected temporary password to work: %v", err)
	}
}

func TestRunResetPasswordCommandWithChosenPassword(t *testing.T) {
	runtime := newTestRuntime(t)
	ctx := context.Background()

	if _, err := runtime.Provider.SignUp(ctx, "chosen@example.com", "original1", "Ana"); err != nil {
		t.Fatalf("sign up: %v", err)
	}

	var out bytes.Buffer
	if err := RunResetPasswordCommand(runtime.Provider, "chosen@example.com", "escolhida9", &out); err != nil {
		t.Fatalf("reset password: %v", err)
	}
	if strings.Contains(out.String(), "Temporary password") {
		t.Fatalf("expected chosen password not to be printed:\n%s", out.String())
	}
	if _, err := runtime.Provider.SignIn(ctx, "chosen@example.com", "escolhida9"); err != nil {
		t.Fatalf("expected chosen password to work: %v", err)
	}

	if err := RunResetPasswordCommand(runtime.Provider, "chosen@example.com", "abc", &out); err == nil {
		t.Fatal("expected short password to be rejected")
	}
}

func TestRunResetPasswordCommandRejectsUnknownAndInvalidEmail(t *testing.T) {
	runtime := newTestRuntime(t)

	tests := []struct {
		name  string
		email string
		want  string
	}{
		{name: "empty", email: "  ", want: "email is required"},
		{name: "invalid", email: "not-an-email", want: "invalid email"},
		{name: "unknown", email: "ghost@example.com", want: "not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := RunResetPasswordCommand(runtime.Provider, tt.email, "", &bytes.Buffer{})
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}
