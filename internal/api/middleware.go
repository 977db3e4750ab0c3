package api

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/comoestou/internal/identity"
	"github.com/terraincognita07/comoestou/internal/logger"
)

const (
	authCookieName     = "comoestou_auth"
	languageCookieName = "comoestou_lang"
	contextUserKey     = "current_user"
	contextTokenKey    = "current_token"
	contextLanguageKey = "current_language"
	contextMessagesKey = "current_messages"
)

func currentUser(c *fiber.Ctx) (identity.User, bool) {
	user, ok := c.Locals(contextUserKey).(identity.User)
	return user, ok
}

func currentToken(c *fiber.Ctx) string {
	token, _ := c.Locals(contextTokenKey).(string)
	return token
}

func currentLanguage(c *fiber.Ctx) string {
	language, _ := c.Locals(contextLanguageKey).(string)
	return language
}

func currentMessages(c *fiber.Ctx) map[string]string {
	messages, _ := c.Locals(contextMessagesKey).(map[string]string)
	return messages
}

// AuthRequired resolves the bearer token, or the auth cookie without one,
// and stores the user for the handlers behind it.
func (handler *Handler) AuthRequired(c *fiber.Ctx) error {
	token := requestToken(c)
	if token == "" {
		return apiError(c, fiber.StatusUnauthorized, codeUnauthorized)
	}

	user, err := handler.provider.ResolveSession(c.UserContext(), token)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidSession) {
			return apiError(c, fiber.StatusUnauthorized, codeUnauthorized)
		}
		logger.Error("resolve session failed", "path", c.Path(), "error", err)
		return apiError(c, fiber.StatusInternalServerError, codeInternal)
	}

	c.Locals(contextUserKey, user)
	c.Locals(contextTokenKey, token)
	return c.Next()
}

func requestToken(c *fiber.Ctx) string {
	header := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	if scheme, token, ok := strings.Cut(header, " "); ok && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(token)
	}
	return strings.TrimSpace(c.Cookies(authCookieName))
}

func (handler *Handler) LanguageMiddleware(c *fiber.Ctx) error {
	cookieLanguage := c.Cookies(languageCookieName)
	language := handler.i18n.DetectFromAcceptLanguage(c.Get(fiber.HeaderAcceptLanguage))
	if cookieLanguage != "" {
		language = handler.i18n.NormalizeLanguage(cookieLanguage)
	}

	if cookieLanguage != language {
		handler.setLanguageCookie(c, language)
	}

	c.Locals(contextLanguageKey, language)
	c.Locals(contextMessagesKey, handler.i18n.Messages(language))
	return c.Next()
}

func (handler *Handler) setLanguageCookie(c *fiber.Ctx, language string) {
	c.Cookie(&fiber.Cookie{
		Name:     languageCookieName,
		Value:    handler.i18n.NormalizeLanguage(language),
		Path:     "/",
		HTTPOnly: false,
		Secure:   handler.cookieSecure,
		SameSite: "Lax",
		Expires:  time.Now().AddDate(1, 0, 0),
	})
}

func (handler *Handler) setAuthCookie(c *fiber.Ctx, session identity.SessionToken, rememberMe bool) {
	cookie := &fiber.Cookie{
		Name:     authCookieName,
		Value:    session.Value,
		Path:     "/",
		HTTPOnly: true,
		Secure:   handler.cookieSecure,
		SameSite: "Lax",
	}
	if rememberMe {
		cookie.Expires = session.ExpiresAt
	}
	c.Cookie(cookie)
}

func (handler *Handler) clearAuthCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     authCookieName,
		Value:    "",
		Path:     "/",
		HTTPOnly: true,
		Secure:   handler.cookieSecure,
		SameSite: "Lax",
		Expires:  time.Now().Add(-1 * time.Hour),
	})
}
