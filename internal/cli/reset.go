package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/terraincognita07/comoestou/internal/identity"
	"github.com/terraincognita07/comoestou/internal/logger"
	"github.com/terraincognita07/comoestou/internal/security"
)

const temporaryPasswordLength = 12

type ResetPasswordCmd struct {
	Email  string `help:"Email of the account to reset." required:""`
	Prompt bool   `help:"Type the new password instead of generating one."`
}

func (cmd *ResetPasswordCmd) Run(ctx *Context) error {
	runtime, err := OpenRuntime(ctx.Config, RuntimeOptions{Offline: true})
	if err != nil {
		return err
	}
	defer runtime.Close()

	password := ""
	if cmd.Prompt {
		password, err = promptNewPassword(os.Stdin, ctx.stderr())
		if err != nil {
			return err
		}
	}
	return RunResetPasswordCommand(runtime.Provider, cmd.Email, password, ctx.stdout())
}

// RunResetPasswordCommand sets a new password for the account behind
// email. An empty password is replaced by a generated temporary one.
func RunResetPasswordCommand(provider *identity.Provider, email string, password string, out io.Writer) error {
	if strings.TrimSpace(email) == "" {
		return errors.New("email is required")
	}

	user, err := provider.FindByEmail(email)
	if err != nil {
		switch {
		case errors.Is(err, identity.ErrInvalidEmail):
			return fmt.Errorf("invalid email address %q", email)
		case errors.Is(err, identity.ErrUserNotFound):
			return fmt.Errorf("user %s not found", identity.NormalizeEmail(email))
		}
		return fmt.Errorf("load user: %w", err)
	}

	generated := password == ""
	if generated {
		password, err = security.TemporaryPassword(temporaryPasswordLength)
		if err != nil {
			return fmt.Errorf("generate temporary password: %w", err)
		}
	}

	if err := provider.SetPassword(user.UID, password); err != nil {
		if errors.Is(err, identity.ErrWeakPassword) {
			return fmt.Errorf("password must be at least %d characters", identity.MinPasswordLength)
		}
		return fmt.Errorf("update user password: %w", err)
	}
	logger.Info("password reset", "uid", user.UID)

	fmt.Fprintln(out, "✅ Password reset successful")
	if generated {
		fmt.Fprintf(out, "Temporary password: %s\n", password)
	}
	fmt.Fprintln(out, "Sessions already signed in stay valid until they expire.")
	return nil
}
