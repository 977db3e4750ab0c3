package api

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/comoestou/internal/identity"
	"github.com/terraincognita07/comoestou/internal/logger"
)

type registerRequest struct {
	Name       string `json:"name" form:"name"`
	Email      string `json:"email" form:"email"`
	Password   string `json:"password" form:"password"`
	RememberMe bool   `json:"remember_me" form:"remember_me"`
}

type loginRequest struct {
	Email      string `json:"email" form:"email"`
	Password   string `json:"password" form:"password"`
	RememberMe bool   `json:"remember_me" form:"remember_me"`
}

type googleLoginRequest struct {
	IDToken    string `json:"id_token" form:"id_token"`
	RememberMe bool   `json:"remember_me" form:"remember_me"`
}

type userResponse struct {
	UID         string  `json:"uid"`
	DisplayName string  `json:"display_name"`
	Email       string  `json:"email"`
	PhotoURL    *string `json:"photo_url"`
	Initials    string  `json:"initials"`
}

type sessionResponse struct {
	User      userResponse `json:"user"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
}

func newUserResponse(user identity.User) userResponse {
	return userResponse{
		UID:         user.UID,
		DisplayName: user.DisplayName,
		Email:       user.Email,
		PhotoURL:    user.PhotoURL,
		Initials:    user.Initials(),
	}
}

func (handler *Handler) Register(c *fiber.Ctx) error {
	request := registerRequest{}
	if err := c.BodyParser(&request); err != nil {
		return apiError(c, fiber.StatusBadRequest, codeInvalidInput)
	}

	user, err := handler.provider.SignUp(c.UserContext(), request.Email, request.Password, request.Name)
	if err != nil {
		return handler.respondAuthError(c, err)
	}
	return handler.startSession(c, user, request.RememberMe, fiber.StatusCreated)
}

// Login counts failed attempts per client address and refuses further
// tries once the window is full.
func (handler *Handler) Login(c *fiber.Ctx) error {
	limiterKey := requestLimiterKey(c)
	now := handler.now()
	if handler.loginLimiter.tooManyRecent(limiterKey, now, loginAttemptsLimit, loginAttemptsWindow) {
		wait := handler.loginLimiter.retryAfter(limiterKey, now, loginAttemptsWindow)
		c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(wait.Round(time.Second)/time.Second)))
		return apiError(c, fiber.StatusTooManyRequests, codeTooManyAttempts)
	}

	request := loginRequest{}
	if err := c.BodyParser(&request); err != nil {
		return apiError(c, fiber.StatusBadRequest, codeInvalidInput)
	}

	user, err := handler.provider.SignIn(c.UserContext(), request.Email, request.Password)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidCredentials) {
			handler.loginLimiter.addFailure(limiterKey, now, loginAttemptsWindow)
		}
		return handler.respondAuthError(c, err)
	}

	handler.loginLimiter.reset(limiterKey)
	return handler.startSession(c, user, request.RememberMe, fiber.StatusOK)
}

func (handler *Handler) GoogleLogin(c *fiber.Ctx) error {
	request := googleLoginRequest{}
	if err := c.BodyParser(&request); err != nil || request.IDToken == "" {
		return apiError(c, fiber.StatusBadRequest, codeInvalidInput)
	}

	user, err := handler.provider.SignInWithFederatedCredential(c.UserContext(), request.IDToken)
	if err != nil {
		if !errors.Is(err, identity.ErrInvalidFederatedToken) && !errors.Is(err, identity.ErrFederatedSignInDisabled) {
			logger.Warn("google sign-in failed", "error", err)
			return apiError(c, fiber.StatusBadGateway, codeGoogleUnavailable)
		}
		return handler.respondAuthError(c, err)
	}
	return handler.startSession(c, user, request.RememberMe, fiber.StatusOK)
}

func (handler *Handler) Logout(c *fiber.Ctx) error {
	if err := handler.provider.SignOut(c.UserContext(), currentToken(c)); err != nil {
		logger.Error("sign out failed", "error", err)
		return apiError(c, fiber.StatusInternalServerError, codeInternal)
	}
	handler.clearAuthCookie(c)
	return c.JSON(fiber.Map{"ok": true})
}

func (handler *Handler) Me(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, codeUnauthorized)
	}
	return c.JSON(fiber.Map{"user": newUserResponse(user)})
}

func (handler *Handler) startSession(c *fiber.Ctx, user identity.User, rememberMe bool, status int) error {
	session, err := handler.provider.IssueSession(user, rememberMe)
	if err != nil {
		logger.Error("issue session failed", "uid", user.UID, "error", err)
		return apiError(c, fiber.StatusInternalServerError, codeInternal)
	}
	handler.setAuthCookie(c, session, rememberMe)
	return c.Status(status).JSON(sessionResponse{
		User:      newUserResponse(user),
		Token:     session.Value,
		ExpiresAt: session.ExpiresAt,
	})
}
