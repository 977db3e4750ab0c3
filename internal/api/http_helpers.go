package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/comoestou/internal/identity"
	"github.com/terraincognita07/comoestou/internal/logger"
	"github.com/terraincognita07/comoestou/internal/services"
)

const (
	codeInvalidInput       = "invalid_input"
	codeInternal           = "internal"
	codeNotFound           = "not_found"
	codeUnauthorized       = "unauthorized"
	codeTooManyAttempts    = "too_many_attempts"
	codeInvalidCredentials = "invalid_credentials"
	codeEmailInUse         = "email_in_use"
	codeInvalidEmail       = "invalid_email"
	codeWeakPassword       = "weak_password"
	codeNameRequired       = "name_required"
	codePasswordRequired   = "password_required"
	codeGoogleUnavailable  = "google_unavailable"
	codeInvalidGoogleToken = "invalid_google_token"
	codeInvalidMood        = "invalid_mood"
	codeInvalidHeartRate   = "invalid_heart_rate"
	codeInvalidDate        = "invalid_date"
	codeLoadFailed         = "load_failed"
	codeSaveFailed         = "save_failed"
	codeDeleteFailed       = "delete_failed"
)

var errorTranslationKeys = map[string]string{
	codeInvalidInput:       "error.invalid_input",
	codeInternal:           "error.internal",
	codeNotFound:           "mood.error.not_found",
	codeUnauthorized:       "auth.error.unauthorized",
	codeTooManyAttempts:    "auth.error.too_many_attempts",
	codeInvalidCredentials: "auth.error.invalid_credentials",
	codeEmailInUse:         "auth.error.email_in_use",
	codeInvalidEmail:       "auth.error.invalid_email",
	codeWeakPassword:       "auth.error.weak_password",
	codeNameRequired:       "auth.error.name_required",
	codePasswordRequired:   "auth.error.password_required",
	codeGoogleUnavailable:  "auth.error.google_unavailable",
	codeInvalidGoogleToken: "auth.error.invalid_google_token",
	codeInvalidMood:        "mood.error.invalid_mood",
	codeInvalidHeartRate:   "mood.error.invalid_heart_rate",
	codeInvalidDate:        "mood.error.invalid_date",
	codeLoadFailed:         "mood.error.load_failed",
	codeSaveFailed:         "mood.error.save_failed",
	codeDeleteFailed:       "mood.error.delete_failed",
}

// apiError writes {"error": code, "message": text}. The message is in the
// request language when LanguageMiddleware ran.
func apiError(c *fiber.Ctx, status int, code string) error {
	message := code
	if key, ok := errorTranslationKeys[code]; ok {
		message = translateMessage(currentMessages(c), key)
	}
	return c.Status(status).JSON(fiber.Map{
		"error":   code,
		"message": message,
	})
}

func translateMessage(messages map[string]string, key string) string {
	if value, ok := messages[key]; ok && value != "" {
		return value
	}
	return key
}

func (handler *Handler) respondAuthError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, identity.ErrInvalidCredentials):
		return apiError(c, fiber.StatusUnauthorized, codeInvalidCredentials)
	case errors.Is(err, identity.ErrEmailInUse):
		return apiError(c, fiber.StatusConflict, codeEmailInUse)
	case errors.Is(err, identity.ErrInvalidEmail):
		return apiError(c, fiber.StatusBadRequest, codeInvalidEmail)
	case errors.Is(err, identity.ErrWeakPassword):
		return apiError(c, fiber.StatusBadRequest, codeWeakPassword)
	case errors.Is(err, identity.ErrNameRequired):
		return apiError(c, fiber.StatusBadRequest, codeNameRequired)
	case errors.Is(err, identity.ErrPasswordRequired):
		return apiError(c, fiber.StatusBadRequest, codePasswordRequired)
	case errors.Is(err, identity.ErrFederatedSignInDisabled):
		return apiError(c, fiber.StatusServiceUnavailable, codeGoogleUnavailable)
	case errors.Is(err, identity.ErrInvalidFederatedToken):
		return apiError(c, fiber.StatusUnauthorized, codeInvalidGoogleToken)
	default:
		logger.Error("auth request failed", "path", c.Path(), "error", err)
		return apiError(c, fiber.StatusInternalServerError, codeInternal)
	}
}

func (handler *Handler) respondMoodError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrInvalidMood):
		return apiError(c, fiber.StatusBadRequest, codeInvalidMood)
	case errors.Is(err, services.ErrInvalidHeartRate):
		return apiError(c, fiber.StatusBadRequest, codeInvalidHeartRate)
	case errors.Is(err, services.ErrInvalidMoodDate):
		return apiError(c, fiber.StatusBadRequest, codeInvalidDate)
	case errors.Is(err, services.ErrInvalidNotes):
		return apiError(c, fiber.StatusBadRequest, codeInvalidInput)
	case errors.Is(err, services.ErrMoodEntryNotFound):
		return apiError(c, fiber.StatusNotFound, codeNotFound)
	case errors.Is(err, services.ErrMoodEntryCreateFailed), errors.Is(err, services.ErrMoodEntryUpdateFailed):
		logger.Error("save mood entry failed", "path", c.Path(), "error", err)
		return apiError(c, fiber.StatusInternalServerError, codeSaveFailed)
	case errors.Is(err, services.ErrMoodEntryDeleteFailed):
		logger.Error("delete mood entry failed", "path", c.Path(), "error", err)
		return apiError(c, fiber.StatusInternalServerError, codeDeleteFailed)
	case errors.Is(err, services.ErrMoodEntryLoadFailed):
		logger.Error("load mood entries failed", "path", c.Path(), "error", err)
		return apiError(c, fiber.StatusInternalServerError, codeLoadFailed)
	default:
		logger.Error("mood request failed", "path", c.Path(), "error", err)
		return apiError(c, fiber.StatusInternalServerError, codeInternal)
	}
}
